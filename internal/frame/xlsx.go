package frame

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

var zipMagic = []byte("PK\x03\x04")

func isXLSX(name string, data []byte) bool {
	return strings.HasSuffix(strings.ToLower(name), ".xlsx") || bytes.HasPrefix(data, zipMagic)
}

// readXLSX loads one worksheet. Cells are read as their stored value, so
// numbers go through the same inference as CSV values.
func readXLSX(data []byte, name string, opt Options) (*Frame, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheet, err := pickSheet(f.GetSheetList(), opt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%s: read sheet %q: %w", name, sheet, err)
	}
	i := 0
	return build(name, func() ([]string, error) {
		if i >= len(rows) {
			return nil, io.EOF
		}
		i++
		return rows[i-1], nil
	}, opt)
}

// pickSheet resolves Options.Sheet (case-insensitive name) or
// Options.SheetIndex (1-based, default first).
func pickSheet(sheets []string, opt Options) (string, error) {
	if len(sheets) == 0 {
		return "", fmt.Errorf("workbook has no sheets")
	}
	if opt.Sheet != "" {
		for _, s := range sheets {
			if strings.EqualFold(s, opt.Sheet) {
				return s, nil
			}
		}
		return "", fmt.Errorf("sheet %q not found (available: %s)", opt.Sheet, strings.Join(sheets, ", "))
	}
	idx := opt.SheetIndex
	if idx <= 0 {
		idx = 1
	}
	if idx > len(sheets) {
		return "", fmt.Errorf("sheet %d out of range (available: %s)", idx, strings.Join(sheets, ", "))
	}
	return sheets[idx-1], nil
}
