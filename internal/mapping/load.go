package mapping

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Workbook layout: data starts on the fifth row, column B holds the
// manufacturer article, column C the nmID, column G the warehouse barcode.
const (
	dataRowOffset = 4
	articleColumn = 1
	nmIDColumn    = 2
	skuColumn     = 6
)

// Load reads the mapping workbook into a Table. An unreadable or empty
// source yields an empty table rather than an error; the run continues with
// every product unmatched and the caller reports it.
func Load(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open mapping workbook %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Build(nil, articleColumn, nmIDColumn, skuColumn), nil
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read mapping sheet %s: %w", sheets[0], err)
	}
	if len(rows) > dataRowOffset {
		rows = rows[dataRowOffset:]
	} else {
		rows = nil
	}

	return Build(rows, articleColumn, nmIDColumn, skuColumn), nil
}

// Find locates the mapping workbook in dir by filename substring. It returns
// the first .xlsx whose name contains pattern.
func Find(dir, pattern string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("scan %s for mapping workbook: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.Contains(name, pattern) && strings.HasSuffix(strings.ToLower(name), ".xlsx") {
			return filepath.Join(dir, name), nil
		}
	}
	return "", fmt.Errorf("no mapping workbook matching %q in %s", pattern, dir)
}
