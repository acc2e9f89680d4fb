package feed

import (
	"fmt"

	"hyperflow/models"
)

// SeedSpotTable joins the spot metadata universe with the snapshot's price
// contexts into a fully-populated price table keyed by the exchange symbol.
// Each pair's quote and base descriptors are resolved through the token
// indices of its universe entry; a missing index means the catalog and the
// price snapshot do not come from the same consistent snapshot, which is a
// contract violation and fails the whole seed.
func SeedSpotTable(snapshot *models.SpotSnapshot) (models.NameToPriceMap, error) {
	tokensByIndex := make(map[int]models.SpotToken, len(snapshot.Meta.Tokens))
	for _, token := range snapshot.Meta.Tokens {
		tokensByIndex[token.Index] = token
	}

	rawPrices := snapshot.NameToRawPriceMap()

	table := make(models.NameToPriceMap, len(snapshot.Meta.Universe))
	for _, entry := range snapshot.Meta.Universe {
		quoteToken, ok := tokensByIndex[entry.Tokens[0]]
		if !ok {
			return nil, fmt.Errorf("spot pair %s references unknown token index %d", entry.Name, entry.Tokens[0])
		}
		baseToken, ok := tokensByIndex[entry.Tokens[1]]
		if !ok {
			return nil, fmt.Errorf("spot pair %s references unknown token index %d", entry.Name, entry.Tokens[1])
		}

		meta := models.NewSpotMeta(entry.Name, assetMeta(quoteToken), assetMeta(baseToken))

		price, err := models.NewSpot(rawPrices[entry.Name], meta)
		if err != nil {
			return nil, fmt.Errorf("seeding %s: %w", entry.Name, err)
		}
		table[entry.Name] = &price
	}

	return table, nil
}

func assetMeta(token models.SpotToken) models.AssetMeta {
	return models.AssetMeta{
		Name:        token.Name,
		SzDecimals:  token.SzDecimals,
		WeiDecimals: token.WeiDecimals,
		Index:       token.Index,
	}
}

// SeedPerpTable joins the perpetual metadata universe with the snapshot's
// positional price contexts into a fully-populated price table keyed by
// coin.
func SeedPerpTable(snapshot *models.PerpSnapshot) (models.NameToPriceMap, error) {
	rawPrices := snapshot.NameToRawPriceMap()

	table := make(models.NameToPriceMap, len(snapshot.Meta.Universe))
	for _, entry := range snapshot.Meta.Universe {
		meta := models.NewPerpMeta(entry.Name, entry.SzDecimals, entry.MaxLeverage, entry.OnlyIsolated, entry.IsDelisted)

		price, err := models.NewPerp(rawPrices[entry.Name], meta)
		if err != nil {
			return nil, fmt.Errorf("seeding %s: %w", entry.Name, err)
		}
		table[entry.Name] = &price
	}

	return table, nil
}

// SpotPairToName maps human-readable "QUOTE/BASE" pair names to their
// exchange symbols.
func SpotPairToName(snapshot *models.SpotSnapshot) map[string]string {
	tokensByIndex := make(map[int]models.SpotToken, len(snapshot.Meta.Tokens))
	for _, token := range snapshot.Meta.Tokens {
		tokensByIndex[token.Index] = token
	}

	out := make(map[string]string, len(snapshot.Meta.Universe))
	for _, entry := range snapshot.Meta.Universe {
		out[pairLabel(tokensByIndex, entry)] = entry.Name
	}
	return out
}

// SpotPairToPrice maps human-readable "QUOTE/BASE" pair names to the raw
// snapshot price of the pair.
func SpotPairToPrice(snapshot *models.SpotSnapshot) map[string]float64 {
	tokensByIndex := make(map[int]models.SpotToken, len(snapshot.Meta.Tokens))
	for _, token := range snapshot.Meta.Tokens {
		tokensByIndex[token.Index] = token
	}

	rawPrices := snapshot.NameToRawPriceMap()

	out := make(map[string]float64, len(snapshot.Meta.Universe))
	for _, entry := range snapshot.Meta.Universe {
		out[pairLabel(tokensByIndex, entry)] = rawPrices[entry.Name]
	}
	return out
}

func pairLabel(tokensByIndex map[int]models.SpotToken, entry models.SpotUniverseEntry) string {
	return tokensByIndex[entry.Tokens[0]].Name + "/" + tokensByIndex[entry.Tokens[1]].Name
}
