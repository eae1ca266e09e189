package dataset

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

type xlsxReader struct{}

func (xlsxReader) CanRead(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".xlsx")
}

// Read extracts rows from the selected sheet. If SheetName is empty and
// SheetIndex <= 0, the first sheet is used. SheetIndex is 1-based.
func (xlsxReader) Read(path string, opt Options) (*Raw, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets in workbook '%s'", filepath.Base(path))
	}
	sheet, err := pickSheet(sheets, opt.SheetName, opt.SheetIndex)
	if err != nil {
		return nil, fmt.Errorf("%w in workbook '%s'", err, filepath.Base(path))
	}
	// Raw values keep numbers free of display formatting such as "70,516.88".
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	raw := &Raw{Sheet: sheet}
	if len(rows) == 0 {
		return raw, nil
	}
	raw.Header = rows[0]
	for _, rec := range rows[1:] {
		if blankRow(rec) {
			continue
		}
		raw.Total++
		if opt.MaxRows > 0 && len(raw.Rows) >= opt.MaxRows {
			continue
		}
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
		raw.Rows = append(raw.Rows, rec)
	}
	return raw, nil
}

func pickSheet(sheets []string, name string, index int) (string, error) {
	if name != "" {
		for _, s := range sheets {
			if strings.EqualFold(s, name) {
				return s, nil
			}
		}
		return "", fmt.Errorf("sheet '%s' not found (available sheets: %s)", name, strings.Join(sheets, ", "))
	}
	if index <= 0 {
		index = 1
	}
	if index > len(sheets) {
		return "", fmt.Errorf("sheet index %d out of range (workbook has %d sheets)", index, len(sheets))
	}
	return sheets[index-1], nil
}

func blankRow(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
