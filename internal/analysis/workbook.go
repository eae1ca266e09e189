package analysis

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// excel limits sheet names to 31 characters and forbids a few symbols.
var sheetNameReplacer = strings.NewReplacer(":", "_", "\\", "_", "/", "_", "?", "_", "*", "_", "[", "(", "]", ")")

func sheetName(r *Result, used map[string]bool) string {
	base := sheetNameReplacer.Replace(strings.TrimSuffix(r.Question.Export, ".csv"))
	if base == "" {
		base = r.Question.ID
	}
	if len(base) > 31 {
		base = base[:31]
	}
	name := base
	for i := 2; used[strings.ToLower(name)]; i++ {
		suffix := fmt.Sprintf("_%d", i)
		cut := base
		if len(cut)+len(suffix) > 31 {
			cut = cut[:31-len(suffix)]
		}
		name = cut + suffix
	}
	used[strings.ToLower(name)] = true
	return name
}

// WriteWorkbook saves one sheet per result, with numeric rate cells, to path.
func WriteWorkbook(path string, results []*Result) error {
	if len(results) == 0 {
		return ErrNoData
	}
	f := excelize.NewFile()
	defer f.Close()

	used := map[string]bool{}
	for i, r := range results {
		name := sheetName(r, used)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("new sheet %s: %w", name, err)
		}
		header := r.Header()
		row := make([]interface{}, len(header))
		for j, h := range header {
			row[j] = h
		}
		if err := f.SetSheetRow(name, "A1", &row); err != nil {
			return fmt.Errorf("write header %s: %w", name, err)
		}
		for gi, g := range r.Groups {
			vals := make([]interface{}, 0, len(g.Keys)+1)
			for _, k := range g.Keys {
				vals = append(vals, k)
			}
			vals = append(vals, r.Value(g))
			cell, err := excelize.CoordinatesToCellName(1, gi+2)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(name, cell, &vals); err != nil {
				return fmt.Errorf("write row %s: %w", name, err)
			}
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}
