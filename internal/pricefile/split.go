package pricefile

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var forbiddenFilenameChars = regexp.MustCompile(`[/\\:*?"<>|]`)

// SplitByBrand partitions the master price file by its first column and
// writes one brand_<name>.csv per brand under outDir, each starting with the
// master header row. Returns the created paths, ordered by first appearance
// of the brand.
func SplitByBrand(pricePath, outDir string) ([]string, error) {
	text, err := DecodeFile(pricePath)
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
		return nil, fmt.Errorf("parse %s: %w", pricePath, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s has no header row", pricePath)
	}

	header := rows[0]
	order := make([]string, 0)
	byBrand := map[string][][]string{}
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		brand := strings.TrimSpace(row[0])
		if brand == "" {
			continue
		}
		if _, seen := byBrand[brand]; !seen {
			order = append(order, brand)
		}
		byBrand[brand] = append(byBrand[brand], row)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}

	created := make([]string, 0, len(order))
	for _, brand := range order {
		path := filepath.Join(outDir, BrandFileName(brand))
		if err := writeBrandFile(path, delimiter, header, byBrand[brand]); err != nil {
			return nil, err
		}
		created = append(created, path)
	}
	return created, nil
}

// BrandFileName builds the per-brand output filename, replacing characters
// the filesystem rejects.
func BrandFileName(brand string) string {
	return "brand_" + forbiddenFilenameChars.ReplaceAllString(brand, "_") + ".csv"
}

func writeBrandFile(path string, delimiter rune, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	writer.Comma = delimiter
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
