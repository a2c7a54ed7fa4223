package mapping

import (
	"strconv"
	"strings"

	"wbsync/internal/util"
)

// Table maps manufacturer articles and barcodes onto the marketplace's
// numeric product ids (nmID) and warehouse SKUs. Built once per run from the
// mapping workbook, read-only afterwards.
type Table struct {
	artToNmID map[string]int64
	artToSKU  map[string]string

	// same maps keyed by the symbol-stripped article form. Kept separate so
	// a raw key containing "-" never shadows a differently punctuated one.
	strippedToNmID map[string]int64
	strippedToSKU  map[string]string

	skuToNmID map[string]int64
	skus      []string
}

// Build constructs a Table from spreadsheet rows. Column indexes follow the
// workbook layout: articleCol holds the manufacturer article, nmIDCol the
// numeric product id, skuCol the warehouse barcode. Header and junk rows are
// filtered here, duplicate keys resolve last-write-wins.
func Build(rows [][]string, articleCol, nmIDCol, skuCol int) *Table {
	t := &Table{
		artToNmID:      map[string]int64{},
		artToSKU:       map[string]string{},
		strippedToNmID: map[string]int64{},
		strippedToSKU:  map[string]string{},
		skuToNmID:      map[string]int64{},
	}

	for _, row := range rows {
		article := cell(row, articleCol)
		if article == "" || util.IsArticleLabel(article) {
			continue
		}
		nmID, ok := parseNmID(cell(row, nmIDCol))
		if !ok {
			continue
		}

		sku := cell(row, skuCol)
		if util.IsSKULabel(sku) || len(sku) <= 5 {
			sku = ""
		}

		t.insert(article, nmID, sku)
	}

	return t
}

// insert indexes all three normalization tiers of the article.
func (t *Table) insert(article string, nmID int64, sku string) {
	normalized := util.NormalizeArticle(article)
	stripped := util.StripArticleSymbols(article)

	t.artToNmID[article] = nmID
	t.artToNmID[normalized] = nmID
	t.strippedToNmID[stripped] = nmID

	if sku != "" {
		t.artToSKU[article] = sku
		t.artToSKU[normalized] = sku
		t.strippedToSKU[stripped] = sku

		if _, seen := t.skuToNmID[sku]; !seen {
			t.skus = append(t.skus, sku)
		}
		t.skuToNmID[sku] = nmID
	}
}

// Resolve looks an article up by, in order, the raw form, the
// space-stripped upper-cased form and the symbol-stripped form. The sku may
// come back empty when the matched row carried no usable barcode.
func (t *Table) Resolve(article string) (int64, string, bool) {
	if nmID, ok := t.artToNmID[article]; ok {
		return nmID, t.artToSKU[article], true
	}
	normalized := util.NormalizeArticle(article)
	if nmID, ok := t.artToNmID[normalized]; ok {
		return nmID, t.artToSKU[normalized], true
	}
	stripped := util.StripArticleSymbols(article)
	if nmID, ok := t.strippedToNmID[stripped]; ok {
		return nmID, t.strippedToSKU[stripped], true
	}
	return 0, "", false
}

// ResolveBarcode maps a warehouse barcode straight to its nmID.
func (t *Table) ResolveBarcode(barcode string) (int64, bool) {
	nmID, ok := t.skuToNmID[barcode]
	return nmID, ok
}

// SKUs returns every stored warehouse barcode in insertion order.
func (t *Table) SKUs() []string {
	out := make([]string, len(t.skus))
	copy(out, t.skus)
	return out
}

// Len reports the number of distinct article keys.
func (t *Table) Len() int {
	return len(t.strippedToNmID)
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseNmID accepts both plain integers and spreadsheet float renderings
// ("123456" and "123456.0").
func parseNmID(value string) (int64, bool) {
	if value == "" {
		return 0, false
	}
	if nmID, err := strconv.ParseInt(value, 10, 64); err == nil {
		return nmID, true
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f <= 0 {
		return 0, false
	}
	return int64(f), true
}
