// Package feed contains the ingestion pipelines: metadata seeding, feed
// message classification, the live price table updates and the per-coin
// orderbook mirrors, all publishing onto last-value channels.
package feed

import (
	"encoding/json"
	"strconv"

	"hyperflow/hyperliquid"
	"hyperflow/logger"
	"hyperflow/models"
)

// Outcome is the classification of one feed message.
type Outcome int

const (
	// OutcomePriceBatch carries a complete symbol→price table.
	OutcomePriceBatch Outcome = iota
	// OutcomeBook carries an L2 book snapshot.
	OutcomeBook
	// OutcomeNoData means the feed reported no content; absorbed as a
	// no-op tick.
	OutcomeNoData
	// OutcomeProtocolError means the exchange reported an error; the
	// pipeline iteration must end and restart.
	OutcomeProtocolError
	// OutcomeUnrecognized is any other message shape; logged and ignored.
	OutcomeUnrecognized
)

func (o Outcome) String() string {
	switch o {
	case OutcomePriceBatch:
		return "price_batch"
	case OutcomeBook:
		return "book"
	case OutcomeNoData:
		return "no_data"
	case OutcomeProtocolError:
		return "protocol_error"
	default:
		return "unrecognized"
	}
}

// ClassifyMids maps one feed message to an outcome for the price pipeline.
// A price batch parses every string-encoded mid; non-numeric entries default
// to 0.0 rather than failing the batch.
func ClassifyMids(msg hyperliquid.Message, log *logger.Entry) (Outcome, map[string]float64) {
	switch msg.Channel {
	case hyperliquid.ChannelAllMids:
		var data hyperliquid.AllMidsData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			log.WithError(err).Warn("malformed allMids payload")
			return OutcomeNoData, nil
		}
		if len(data.Mids) == 0 {
			log.Warn("allMids frame carried no prices")
			return OutcomeNoData, nil
		}

		batch := make(map[string]float64, len(data.Mids))
		for name, raw := range data.Mids {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				v = 0.0
			}
			batch[name] = v
		}
		logger.IncrementPriceBatch(len(msg.Data))
		return OutcomePriceBatch, batch

	case hyperliquid.ChannelError:
		log.WithFields(logger.Fields{"data": string(msg.Data)}).Error("exchange reported feed error")
		return OutcomeProtocolError, nil

	default:
		log.WithFields(logger.Fields{"channel": msg.Channel}).Debug("ignoring unrecognized feed message")
		return OutcomeUnrecognized, nil
	}
}

// ClassifyBook maps one feed message to an outcome for a book pipeline. The
// returned levels are parsed per side; malformed levels are dropped, not
// defaulted.
func ClassifyBook(msg hyperliquid.Message, log *logger.Entry) (Outcome, []models.BookLevel, []models.BookLevel) {
	switch msg.Channel {
	case hyperliquid.ChannelL2Book:
		var data hyperliquid.L2BookData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			log.WithError(err).Warn("malformed l2Book payload")
			return OutcomeNoData, nil, nil
		}
		if len(data.Levels) < 2 {
			log.Warn("l2Book frame missing sides")
			return OutcomeNoData, nil, nil
		}

		logger.IncrementBookUpdate(len(msg.Data))
		return OutcomeBook, parseLevels(data.Levels[0]), parseLevels(data.Levels[1])

	case hyperliquid.ChannelError:
		log.WithFields(logger.Fields{"data": string(msg.Data)}).Error("exchange reported feed error")
		return OutcomeProtocolError, nil, nil

	default:
		log.WithFields(logger.Fields{"channel": msg.Channel}).Debug("ignoring unrecognized feed message")
		return OutcomeUnrecognized, nil, nil
	}
}

func parseLevels(raw []hyperliquid.BookLevel) []models.BookLevel {
	levels := make([]models.BookLevel, 0, len(raw))
	for _, lvl := range raw {
		px, err := strconv.ParseFloat(lvl.Px, 64)
		if err != nil {
			continue
		}
		sz, err := strconv.ParseFloat(lvl.Sz, 64)
		if err != nil {
			continue
		}
		levels = append(levels, models.BookLevel{Price: px, Size: sz})
	}
	return levels
}
