package pricefile

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"wbsync/internal"
	"wbsync/internal/util"
)

// Brand file layout: column A brand, column B manufacturer article,
// column C description (sometimes a barcode), column D price, column E
// quantity.
const (
	articleColumn  = 1
	barcodeColumn  = 2
	priceColumn    = 3
	quantityColumn = 4
	minCells       = 5
)

// Extract parses a per-brand delimited file into product records. Rows with
// an unusable article, price or quantity are dropped, not reported; header
// fragments and blank lines are expected in these files.
func Extract(path string) ([]internal.BrandRecord, error) {
	text, err := DecodeFile(path)
	if err != nil {
		return nil, err
	}

	delimiter := DetectDelimiter(text)
	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	out := make([]internal.BrandRecord, 0, len(rows))
	for i, row := range rows {
		if i == 0 {
			// row 0 is always the header
			continue
		}
		if record, ok := parseRow(row); ok {
			out = append(out, record)
		}
	}
	return out, nil
}

func parseRow(row []string) (internal.BrandRecord, bool) {
	if len(row) < minCells {
		return internal.BrandRecord{}, false
	}

	price, ok := parsePrice(row[priceColumn])
	if !ok {
		return internal.BrandRecord{}, false
	}
	quantity, ok := parseQuantity(row[quantityColumn])
	if !ok {
		return internal.BrandRecord{}, false
	}
	article, ok := parseArticle(row[articleColumn])
	if !ok {
		return internal.BrandRecord{}, false
	}

	return internal.BrandRecord{
		Article:  article,
		Barcode:  parseBarcode(row[barcodeColumn]),
		Price:    price,
		Quantity: quantity,
		Raw:      row,
	}, true
}

func parsePrice(cellValue string) (float64, bool) {
	cleaned := util.CleanNumeric(cellValue)
	if cleaned == "" || util.IsPriceLabel(cleaned) {
		return 0, false
	}
	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return price, true
}

func parseQuantity(cellValue string) (int, bool) {
	cleaned := util.CleanNumeric(cellValue)
	if cleaned == "" || util.IsQuantityLabel(cleaned) {
		return 0, false
	}
	quantity, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || quantity < 0 {
		return 0, false
	}
	return int(quantity), true
}

func parseArticle(cellValue string) (string, bool) {
	article := strings.TrimSpace(strings.Trim(strings.TrimSpace(cellValue), `"'`))
	if article == "" || util.IsArticleLabel(article) {
		return "", false
	}
	if n := len([]rune(article)); n < 2 || n > 20 {
		return "", false
	}
	// inner spaces removed so the value matches mapping-table keys
	return util.NormalizeArticle(article), true
}

// parseBarcode keeps column C only when it looks like an EAN-13 barcode.
func parseBarcode(cellValue string) string {
	repl := strings.NewReplacer(`"`, "", "'", "", " ", "", "-", "")
	candidate := repl.Replace(strings.TrimSpace(cellValue))
	if len(candidate) >= 13 && util.IsDigits(candidate) {
		return candidate
	}
	return ""
}

// DecodeFile reads path as UTF-8 and falls back to cp1251, the legacy
// encoding these price lists still arrive in.
func DecodeFile(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	decoded, err := charmap.Windows1251.NewDecoder().Bytes(raw)
	// the decoder substitutes U+FFFD for bytes undefined in cp1251
	if err != nil || strings.ContainsRune(string(decoded), utf8.RuneError) {
		return "", fmt.Errorf("cannot decode %s as utf-8 or cp1251", path)
	}
	return string(decoded), nil
}

// DetectDelimiter picks the field separator by sampling the first ten lines:
// the candidate that appears with a consistent positive count on every
// sampled line wins, ties go to the higher count. Inconclusive input falls
// back to comma.
func DetectDelimiter(text string) rune {
	lines := sampleLines(text, 10)
	if len(lines) == 0 {
		return ','
	}

	best := ','
	bestCount := 0
	for _, candidate := range []rune{',', ';', '\t'} {
		count := strings.Count(lines[0], string(candidate))
		if count == 0 {
			continue
		}
		consistent := true
		for _, line := range lines[1:] {
			if strings.Count(line, string(candidate)) != count {
				consistent = false
				break
			}
		}
		if consistent && count > bestCount {
			best = candidate
			bestCount = count
		}
	}
	return best
}

func sampleLines(text string, max int) []string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, max)
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
		if len(out) >= max {
			break
		}
	}
	return out
}
