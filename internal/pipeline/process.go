package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"wbsync/internal"
	"wbsync/internal/config"
	"wbsync/internal/mapping"
	"wbsync/internal/pricefile"
	"wbsync/internal/wb"
)

// ErrCancelled is returned when the operator refuses the confirmation gate.
var ErrCancelled = errors.New("operation cancelled")

// RunSummary aggregates one update run. Unmatched rows and failed batches
// are reported here, they never abort the run.
type RunSummary struct {
	BrandsProcessed  int
	BrandsSkipped    int
	Records          int
	Matched          int
	Unmatched        int
	PriceBatchesSent int
	PriceBatchesFail int
	StockBatchesSent int
	StockBatchesFail int
	StocksSent       int
	PricesSent       int
}

// UpdateService drives a full price/stock update: mapping table, per-brand
// extraction, reconciliation, then batched dispatch.
type UpdateService struct {
	cfg        config.Config
	client     *wb.Client
	dispatcher *wb.Dispatcher
}

func NewUpdateService(cfg config.Config) *UpdateService {
	client := wb.NewClient(cfg)
	return &UpdateService{cfg: cfg, client: client, dispatcher: wb.NewDispatcher(client, cfg)}
}

func (s *UpdateService) Run(ctx context.Context, confirm internal.ConfirmFunc) (RunSummary, error) {
	summary := RunSummary{}

	if err := s.cfg.RequireToken(); err != nil {
		return summary, err
	}

	warehouses, err := s.targetWarehouses(ctx)
	if err != nil {
		return summary, fmt.Errorf("list warehouses: %w", err)
	}
	if len(warehouses) == 0 {
		return summary, errors.New("no target warehouses")
	}

	table := s.loadMappingTable()
	if table.Len() == 0 {
		fmt.Println("warning: mapping table is empty, every product will be unmatched")
	}

	var prices []internal.PriceUpdate
	var stocks []internal.StockUpdate

	for _, brand := range s.cfg.Brands {
		path := filepath.Join(s.cfg.TargetDir, pricefile.BrandFileName(brand))
		records, err := pricefile.Extract(path)
		if err != nil {
			// one bad brand file loses that brand's contribution only
			fmt.Printf("warning: brand %s skipped: %v\n", brand, err)
			summary.BrandsSkipped++
			continue
		}
		summary.BrandsProcessed++
		summary.Records += len(records)

		result := Reconcile(records, table, s.cfg.PriceMultiplier)
		summary.Matched += result.Matched
		summary.Unmatched += result.Unmatched
		prices = append(prices, result.Prices...)
		stocks = append(stocks, result.Stocks...)

		fmt.Printf("brand %s: records=%d matched=%d unmatched=%d\n",
			brand, len(records), result.Matched, result.Unmatched)
	}

	if len(prices) == 0 && len(stocks) == 0 {
		fmt.Println("nothing to update")
		return summary, nil
	}

	gate := fmt.Sprintf("update %d prices and %d stock entries on %d warehouse(s)",
		len(wb.DedupPrices(prices)), len(stocks), len(warehouses))
	if !confirm(gate) {
		return summary, ErrCancelled
	}

	for _, warehouse := range warehouses {
		fmt.Printf("warehouse %s (ID %d): sending stocks...\n", warehouse.Name, warehouse.ID)
		report := s.dispatcher.SendStocks(ctx, warehouse.ID, stocks)
		summary.StockBatchesSent += report.Batches() - report.Failed()
		summary.StockBatchesFail += report.Failed()
		summary.StocksSent += report.Sent()
		logFailures("stocks", report)
	}

	report := s.dispatcher.SendPrices(ctx, prices)
	summary.PriceBatchesSent += report.Batches() - report.Failed()
	summary.PriceBatchesFail += report.Failed()
	summary.PricesSent += report.Sent()
	logFailures("prices", report)

	return summary, nil
}

// Warehouses lists all seller warehouses without target filtering.
func (s *UpdateService) Warehouses(ctx context.Context) ([]internal.Warehouse, error) {
	return s.client.Warehouses(ctx)
}

// targetWarehouses applies the warehouse configuration: a single configured
// target, or every listed warehouse minus the excluded one.
func (s *UpdateService) targetWarehouses(ctx context.Context) ([]internal.Warehouse, error) {
	warehouses, err := s.client.Warehouses(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]internal.Warehouse, 0, len(warehouses))
	for _, warehouse := range warehouses {
		if s.cfg.TargetWarehouseID != 0 && warehouse.ID != s.cfg.TargetWarehouseID {
			continue
		}
		if warehouse.ID == s.cfg.ExcludedWarehouseID {
			continue
		}
		out = append(out, warehouse)
	}
	return out, nil
}

// loadMappingTable resolves the configured workbook (explicit path, or a
// filename-pattern scan of the base directory). A missing or unreadable
// workbook degrades to an empty table.
func (s *UpdateService) loadMappingTable() *mapping.Table {
	path := s.cfg.MappingFile
	if path == "" {
		found, err := mapping.Find(s.cfg.BaseDir, s.cfg.MappingFilePattern)
		if err != nil {
			fmt.Printf("warning: %v\n", err)
			return mapping.Build(nil, 0, 0, 0)
		}
		path = found
	}
	if _, err := os.Stat(path); err != nil {
		fmt.Printf("warning: mapping workbook %s not readable: %v\n", path, err)
		return mapping.Build(nil, 0, 0, 0)
	}
	table, err := mapping.Load(path)
	if err != nil {
		fmt.Printf("warning: %v\n", err)
		return mapping.Build(nil, 0, 0, 0)
	}
	fmt.Printf("mapping table loaded from %s: %d articles, %d skus\n", path, table.Len(), len(table.SKUs()))
	return table
}

func logFailures(kind string, report wb.Report) {
	for _, result := range report.Results {
		if result.Err != nil {
			fmt.Printf("  %s batch %d failed after %d attempt(s): %v\n", kind, result.Batch+1, result.Attempts, result.Err)
		}
		if result.Split {
			fmt.Printf("  %s batch %d submitted item-by-item, %d item(s) skipped\n", kind, result.Batch+1, result.Skipped)
		}
	}
}
