package pipeline

import (
	"wbsync/internal"
	"wbsync/internal/mapping"
)

// ReconcileResult carries the update records produced from one brand file
// plus the match statistics for the run summary.
type ReconcileResult struct {
	Prices    []internal.PriceUpdate
	Stocks    []internal.StockUpdate
	Matched   int
	Unmatched int
}

// Reconcile resolves each product record against the mapping table and
// emits price and stock updates. Output is order-preserving: identical
// inputs always produce identical output. Unresolvable records are counted,
// not errors; their cards simply do not exist on the platform yet.
func Reconcile(records []internal.BrandRecord, table *mapping.Table, multiplier float64) ReconcileResult {
	result := ReconcileResult{}

	for _, record := range records {
		if record.Article == "" {
			result.Unmatched++
			continue
		}

		nmID, sku, ok := table.Resolve(record.Article)
		if !ok && record.Barcode != "" {
			nmID, ok = table.ResolveBarcode(record.Barcode)
			if ok {
				sku = record.Barcode
			}
		}
		if !ok {
			result.Unmatched++
			continue
		}
		result.Matched++

		result.Prices = append(result.Prices, internal.PriceUpdate{
			NmID:     nmID,
			Price:    int64(record.Price * multiplier),
			Discount: 0,
		})

		// a row can resolve to a nmID without a usable sku; price still
		// goes out, the stock update is skipped
		if sku != "" {
			result.Stocks = append(result.Stocks, internal.StockUpdate{
				SKU:    sku,
				Amount: record.Quantity,
			})
		}
	}

	return result
}
