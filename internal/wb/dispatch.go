package wb

import (
	"context"
	"fmt"
	"time"

	"wbsync/internal"
	"wbsync/internal/config"
)

// BatchResult is the outcome of one batch send.
type BatchResult struct {
	Batch    int
	Size     int
	Attempts int
	Benign   bool
	Split    bool
	Skipped  int // items swallowed during a per-item fallback
	Err      error
}

// Report aggregates per-batch outcomes of one dispatch call.
type Report struct {
	Results []BatchResult
}

func (r Report) Sent() int {
	n := 0
	for _, res := range r.Results {
		if res.Err == nil {
			n += res.Size - res.Skipped
		}
	}
	return n
}

func (r Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Err != nil {
			n++
		}
	}
	return n
}

func (r Report) Batches() int { return len(r.Results) }

// Dispatcher partitions update records into batches and drives them to the
// API with bounded retries and pacing. A failed batch is reported and the
// loop continues; the run never aborts on partial failure.
type Dispatcher struct {
	client      *Client
	batchSize   int
	maxAttempts int
	backoff     time.Duration // base, multiplied by attempt number
	batchPause  time.Duration
	failPause   time.Duration

	sleep func(time.Duration)
}

func NewDispatcher(client *Client, cfg config.Config) *Dispatcher {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &Dispatcher{
		client:      client,
		batchSize:   batchSize,
		maxAttempts: maxAttempts,
		backoff:     time.Duration(cfg.RetryBackoff) * time.Millisecond,
		batchPause:  time.Duration(cfg.BatchPauseMs) * time.Millisecond,
		failPause:   time.Duration(cfg.FailurePause) * time.Millisecond,
		sleep:       time.Sleep,
	}
}

// SendPrices deduplicates the updates by nmID, batches them and uploads each
// batch.
func (d *Dispatcher) SendPrices(ctx context.Context, updates []internal.PriceUpdate) Report {
	deduped := DedupPrices(updates)
	batches := chunk(deduped, d.batchSize)

	report := Report{Results: make([]BatchResult, 0, len(batches))}
	for i, batch := range batches {
		b := batch
		result := d.sendBatch(ctx, i, len(b), func(ctx context.Context) error {
			return d.client.UploadPrices(ctx, b)
		}, nil)
		report.Results = append(report.Results, result)
		d.pause(i < len(batches)-1, result.Err != nil)
	}
	return report
}

// SendStocks batches stock updates for one warehouse. A warehouse/item-class
// conflict degrades the affected batch to item-by-item submission.
func (d *Dispatcher) SendStocks(ctx context.Context, warehouseID int64, updates []internal.StockUpdate) Report {
	batches := chunk(updates, d.batchSize)

	report := Report{Results: make([]BatchResult, 0, len(batches))}
	for i, batch := range batches {
		b := batch
		result := d.sendBatch(ctx, i, len(b), func(ctx context.Context) error {
			return d.client.UpdateStocks(ctx, warehouseID, b)
		}, func(ctx context.Context) (int, error) {
			return d.sendStocksOneByOne(ctx, warehouseID, b)
		})
		report.Results = append(report.Results, result)
		d.pause(i < len(batches)-1, result.Err != nil)
	}
	return report
}

// DeleteStocks removes skus from one warehouse in batches, with the same
// retry budget as the upserts.
func (d *Dispatcher) DeleteStocks(ctx context.Context, warehouseID int64, skus []string) Report {
	batches := chunk(skus, d.batchSize)

	report := Report{Results: make([]BatchResult, 0, len(batches))}
	for i, batch := range batches {
		b := batch
		result := d.sendBatch(ctx, i, len(b), func(ctx context.Context) error {
			return d.client.DeleteStocks(ctx, warehouseID, b)
		}, nil)
		report.Results = append(report.Results, result)
		d.pause(i < len(batches)-1, result.Err != nil)
	}
	return report
}

// sendBatch runs one batch through the retry budget. splitFn, when given,
// handles ActionSplit by submitting items individually.
func (d *Dispatcher) sendBatch(ctx context.Context, index, size int, send func(context.Context) error, splitFn func(context.Context) (int, error)) BatchResult {
	result := BatchResult{Batch: index, Size: size}

	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		result.Attempts = attempt
		err := send(ctx)
		if err == nil {
			return result
		}

		switch ClassifyError(err) {
		case ActionBenign:
			result.Benign = true
			return result
		case ActionSplit:
			if splitFn == nil {
				result.Err = err
				return result
			}
			skipped, splitErr := splitFn(ctx)
			result.Split = true
			result.Skipped = skipped
			result.Err = splitErr
			return result
		case ActionRetry:
			result.Err = err
			if attempt < d.maxAttempts {
				d.sleep(d.backoff * time.Duration(attempt))
				continue
			}
			return result
		default:
			result.Err = err
			return result
		}
	}
	return result
}

// sendStocksOneByOne is the conflict fallback: per-item conflicts are
// swallowed so compatible items still succeed. Returns the number of items
// skipped.
func (d *Dispatcher) sendStocksOneByOne(ctx context.Context, warehouseID int64, batch []internal.StockUpdate) (int, error) {
	skipped := 0
	for _, item := range batch {
		err := d.client.UpdateStocks(ctx, warehouseID, []internal.StockUpdate{item})
		if err == nil {
			continue
		}
		switch ClassifyError(err) {
		case ActionBenign, ActionSplit:
			skipped++
		default:
			fmt.Printf("    item %s rejected: %v\n", item.SKU, err)
			skipped++
		}
	}
	return skipped, nil
}

func (d *Dispatcher) pause(more, failed bool) {
	if !more {
		return
	}
	if failed {
		d.sleep(d.failPause)
		return
	}
	d.sleep(d.batchPause)
}

// DedupPrices collapses duplicate nmIDs keeping the last seen price and
// discount at the position of the first occurrence, so batch order stays
// stable with respect to the input.
func DedupPrices(updates []internal.PriceUpdate) []internal.PriceUpdate {
	out := make([]internal.PriceUpdate, 0, len(updates))
	index := map[int64]int{}
	for _, update := range updates {
		if at, seen := index[update.NmID]; seen {
			out[at] = update
			continue
		}
		index[update.NmID] = len(out)
		out = append(out, update)
	}
	return out
}

func chunk[T any](items []T, size int) [][]T {
	if size <= 0 || len(items) == 0 {
		if len(items) == 0 {
			return nil
		}
		size = len(items)
	}
	out := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[start:end])
	}
	return out
}
