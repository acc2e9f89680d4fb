package logger

import (
	"context"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	gnet "github.com/shirou/gopsutil/v3/net"

	"github.com/aws/aws-sdk-go-v2/aws"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

type channelStat struct {
	messages int64
	bytes    int64
}

var (
	errorsPrices   int64
	errorsBooks    int64
	warnsPrices    int64
	warnsBooks     int64
	priceBatches   int64
	bookUpdates    int64
	metadataFetch  int64
	pipelineResets int64
	channels       sync.Map // map[string]*channelStat
)

func recordWarn(component string) {
	if strings.Contains(component, "book") {
		atomic.AddInt64(&warnsBooks, 1)
	} else if strings.Contains(component, "price") {
		atomic.AddInt64(&warnsPrices, 1)
	}
}

func recordError(component string) {
	if strings.Contains(component, "book") {
		atomic.AddInt64(&errorsBooks, 1)
	} else if strings.Contains(component, "price") {
		atomic.AddInt64(&errorsPrices, 1)
	}
}

// IncrementPriceBatch counts a consumed mid-price batch of the given payload size.
func IncrementPriceBatch(size int) {
	atomic.AddInt64(&priceBatches, 1)
	recordChannel("price_ws", size)
}

// IncrementBookUpdate counts a consumed L2 book snapshot of the given payload size.
func IncrementBookUpdate(size int) {
	atomic.AddInt64(&bookUpdates, 1)
	recordChannel("book_ws", size)
}

// IncrementMetadataFetch counts a completed one-shot info request.
func IncrementMetadataFetch(size int) {
	atomic.AddInt64(&metadataFetch, 1)
	recordChannel("info_rest", size)
}

// IncrementPipelineReset counts a pipeline restart after a failure.
func IncrementPipelineReset() {
	atomic.AddInt64(&pipelineResets, 1)
}

func RecordChannelMessage(name string, size int) {
	recordChannel(name, size)
}

func recordChannel(name string, size int) {
	v, _ := channels.LoadOrStore(name, &channelStat{})
	cs := v.(*channelStat)
	atomic.AddInt64(&cs.messages, 1)
	atomic.AddInt64(&cs.bytes, int64(size))
}

func startReport(ctx context.Context, log *Log, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		for {
			select {
			case <-ctx.Done():
				ticker.Stop()
				return
			case <-ticker.C:
				logReport(ctx, log)
			}
		}
	}()
}

// StartReport begins periodic logging of system and channel statistics.
// It exposes the internal startReport function for use by other packages.
func StartReport(ctx context.Context, log *Log, interval time.Duration) {
	startReport(ctx, log, interval)
}

func logReport(ctx context.Context, log *Log) {
	cpuPercent, _ := cpu.Percent(0, false)
	memStats, _ := mem.VirtualMemory()
	diskStats, _ := disk.Usage("/")
	netStats, _ := gnet.IOCounters(false)
	channelData := map[string]map[string]int64{}
	channels.Range(func(k, v any) bool {
		name := k.(string)
		cs := v.(*channelStat)
		channelData[name] = map[string]int64{
			"messages": atomic.LoadInt64(&cs.messages),
			"bytes":    atomic.LoadInt64(&cs.bytes),
		}
		return true
	})

	cpuPct := 0.0
	if len(cpuPercent) > 0 {
		cpuPct = cpuPercent[0]
	}

	bytesSent := uint64(0)
	bytesRecv := uint64(0)
	if len(netStats) > 0 {
		bytesSent = netStats[0].BytesSent
		bytesRecv = netStats[0].BytesRecv
	}

	fields := Fields{
		"errors_prices":   atomic.LoadInt64(&errorsPrices),
		"errors_books":    atomic.LoadInt64(&errorsBooks),
		"warns_prices":    atomic.LoadInt64(&warnsPrices),
		"warns_books":     atomic.LoadInt64(&warnsBooks),
		"price_batches":   atomic.LoadInt64(&priceBatches),
		"book_updates":    atomic.LoadInt64(&bookUpdates),
		"metadata_fetch":  atomic.LoadInt64(&metadataFetch),
		"pipeline_resets": atomic.LoadInt64(&pipelineResets),
		"goroutines":      runtime.NumGoroutine(),
		"cpu_percent":     cpuPct,
		"memory_mb":       int64(memStats.Used) / 1024 / 1024,
		"disk_mb":         int64(diskStats.Used) / 1024 / 1024,
		"channels":        channelData,
		"net_bytes_sent":  int64(bytesSent),
		"net_bytes_recv":  int64(bytesRecv),
	}

	log.WithComponent("report").WithFields(fields).Info("runtime report")

	var data []cwtypes.MetricDatum
	data = append(data,
		cwtypes.MetricDatum{MetricName: aws.String("CPUPercent"), Unit: cwtypes.StandardUnitPercent, Value: aws.Float64(cpuPct)},
		cwtypes.MetricDatum{MetricName: aws.String("MemoryMB"), Unit: cwtypes.StandardUnitMegabytes, Value: aws.Float64(float64(memStats.Used) / 1024 / 1024)},
		cwtypes.MetricDatum{MetricName: aws.String("DiskMB"), Unit: cwtypes.StandardUnitMegabytes, Value: aws.Float64(float64(diskStats.Used) / 1024 / 1024)},
		cwtypes.MetricDatum{MetricName: aws.String("ErrorsPrices"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["errors_prices"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("ErrorsBooks"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["errors_books"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("WarnsPrices"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["warns_prices"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("WarnsBooks"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["warns_books"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("PriceBatches"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["price_batches"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("BookUpdates"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["book_updates"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("MetadataFetches"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["metadata_fetch"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("PipelineResets"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["pipeline_resets"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("NetBytesSent"), Unit: cwtypes.StandardUnitBytes, Value: aws.Float64(float64(bytesSent))},
		cwtypes.MetricDatum{MetricName: aws.String("NetBytesRecv"), Unit: cwtypes.StandardUnitBytes, Value: aws.Float64(float64(bytesRecv))},
	)

	for name, stats := range channelData {
		data = append(data,
			cwtypes.MetricDatum{
				MetricName: aws.String("ChannelMessages"),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: []cwtypes.Dimension{{Name: aws.String("Channel"), Value: aws.String(name)}},
				Value:      aws.Float64(float64(stats["messages"])),
			},
			cwtypes.MetricDatum{
				MetricName: aws.String("ChannelBytes"),
				Unit:       cwtypes.StandardUnitBytes,
				Dimensions: []cwtypes.Dimension{{Name: aws.String("Channel"), Value: aws.String(name)}},
				Value:      aws.Float64(float64(stats["bytes"])),
			},
		)
	}

	publishMetrics(ctx, data)
}
