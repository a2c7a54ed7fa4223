package zeroing

import (
	"context"
	"errors"
	"fmt"

	"wbsync/internal"
	"wbsync/internal/config"
	"wbsync/internal/wb"
)

// ErrCancelled is returned when the operator refuses the confirmation gate.
var ErrCancelled = errors.New("zeroing cancelled")

// Summary reports one zeroing run.
type Summary struct {
	Warehouses  int
	SKUs        int
	BatchesSent int
	BatchesFail int
	Zeroed      int
}

// Driver zeroes stock levels for a set of skus across the seller's
// warehouses. It reuses the dispatcher, including the 409 item-class
// fallback; the confirmation gate always runs before the first mutating
// call.
type Driver struct {
	cfg        config.Config
	client     *wb.Client
	dispatcher *wb.Dispatcher
}

func NewDriver(cfg config.Config) *Driver {
	client := wb.NewClient(cfg)
	return &Driver{cfg: cfg, client: client, dispatcher: wb.NewDispatcher(client, cfg)}
}

func (d *Driver) Run(ctx context.Context, skus []string, confirm internal.ConfirmFunc) (Summary, error) {
	summary := Summary{}

	if err := d.cfg.RequireToken(); err != nil {
		return summary, err
	}
	if len(skus) == 0 {
		return summary, errors.New("no skus to zero")
	}

	warehouses, err := d.client.Warehouses(ctx)
	if err != nil {
		return summary, fmt.Errorf("list warehouses: %w", err)
	}

	targets := make([]internal.Warehouse, 0, len(warehouses))
	for _, warehouse := range warehouses {
		if warehouse.ID == d.cfg.ExcludedWarehouseID {
			fmt.Printf("warehouse %s (ID %d) excluded from zeroing\n", warehouse.Name, warehouse.ID)
			continue
		}
		targets = append(targets, warehouse)
	}
	if len(targets) == 0 {
		return summary, errors.New("no warehouses left after exclusion")
	}
	summary.Warehouses = len(targets)
	summary.SKUs = len(skus)

	gate := fmt.Sprintf("zero %d stock entries on %d warehouse(s)", len(skus), len(targets))
	if !confirm(gate) {
		return summary, ErrCancelled
	}

	updates := make([]internal.StockUpdate, 0, len(skus))
	for _, sku := range skus {
		updates = append(updates, internal.StockUpdate{SKU: sku, Amount: 0})
	}

	for _, warehouse := range targets {
		fmt.Printf("warehouse %s (ID %d): zeroing %d skus...\n", warehouse.Name, warehouse.ID, len(updates))
		report := d.dispatcher.SendStocks(ctx, warehouse.ID, updates)
		summary.BatchesSent += report.Batches() - report.Failed()
		summary.BatchesFail += report.Failed()
		summary.Zeroed += report.Sent()
		for _, result := range report.Results {
			if result.Err != nil {
				fmt.Printf("  batch %d failed after %d attempt(s): %v\n", result.Batch+1, result.Attempts, result.Err)
			}
		}
	}

	return summary, nil
}
