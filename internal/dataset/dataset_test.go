package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/KaramelBytes/returnlens-cli/internal/schema"
	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadCSV_NormalizesAndPads(t *testing.T) {
	dir := t.TempDir()
	body := "\ufeff Return , Payment Method,Annual Income\n1,Cash,50000\n0,Credit Card\n"
	p := writeFile(t, dir, "orders.csv", body)

	ds, err := Load(p, Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff([]string{"Return", "Payment_Method", "Annual_Income"}, ds.Columns); diff != "" {
		t.Fatalf("columns mismatch (-want +got):\n%s", diff)
	}
	if ds.Len() != 2 || ds.Total != 2 {
		t.Fatalf("expected 2 rows, got len=%d total=%d", ds.Len(), ds.Total)
	}
	if got := ds.Rows[1]; len(got) != 3 || got[2] != "" {
		t.Fatalf("short row not padded: %#v", got)
	}
	col, ok := ds.Schema.Column(schema.PaymentMode)
	if !ok || col != "Payment_Method" {
		t.Fatalf("payment mode not resolved: %q %v", col, ok)
	}
	inc, ok := ds.Field(schema.Income)
	if !ok || inc[0] != "50000" {
		t.Fatalf("income field: %#v %v", inc, ok)
	}
	if ds.ID.String() == "" || ds.Name != "orders.csv" {
		t.Fatalf("identity not set: %+v", ds)
	}
}

func TestLoadTSVAndMaxRows(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "orders.tsv", "Return\tTax\n1\t10\n0\t20\n1\t30\n")

	ds, err := Load(p, Options{MaxRows: 2})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ds.Len() != 2 || ds.Total != 3 {
		t.Fatalf("expected 2 of 3 rows, got %d of %d", ds.Len(), ds.Total)
	}
	if len(ds.Warnings) != 1 || !strings.Contains(ds.Warnings[0], "2/3") {
		t.Fatalf("expected truncation warning, got %v", ds.Warnings)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		name string
		path string
		want error
	}{
		{"unsupported", writeFile(t, dir, "notes.txt", "hello"), ErrUnsupported},
		{"header only", writeFile(t, dir, "empty.csv", "Return,Tax\n"), ErrNoRows},
		{"empty", writeFile(t, dir, "blank.csv", ""), ErrNoHeader},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(tc.path, Options{})
			var le *LoadError
			if !errors.As(err, &le) {
				t.Fatalf("expected *LoadError, got %v", err)
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	_, err := Load(filepath.Join(dir, "missing.csv"), Options{})
	var le *LoadError
	if !errors.As(err, &le) || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist load error, got %v", err)
	}
}

func writeWorkbook(t *testing.T, path string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", "Summary"); err != nil {
		t.Fatalf("rename sheet: %v", err)
	}
	if _, err := f.NewSheet("Orders"); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	_ = f.SetCellValue("Summary", "A1", "note")
	_ = f.SetCellValue("Summary", "A2", "x")
	rows := [][]interface{}{
		{"Return", "Store Type", "Income"},
		{1, "Online", 120000.5},
		{0, "Retail", 35000},
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Orders", cell, &r); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
}

func TestLoadXLSX_SheetSelection(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "Fresco.xlsx")
	writeWorkbook(t, p)

	ds, err := Load(p, Options{SheetName: "orders"})
	if err != nil {
		t.Fatalf("load by name: %v", err)
	}
	if ds.Sheet != "Orders" {
		t.Fatalf("expected sheet Orders, got %q", ds.Sheet)
	}
	if diff := cmp.Diff([]string{"Return", "Store_Type", "Income"}, ds.Columns); diff != "" {
		t.Fatalf("columns mismatch (-want +got):\n%s", diff)
	}
	inc, _ := ds.Field(schema.Income)
	if v, ok := ParseNumber(inc[0]); !ok || v != 120000.5 {
		t.Fatalf("income raw value: %q", inc[0])
	}

	ds, err = Load(p, Options{SheetIndex: 2})
	if err != nil {
		t.Fatalf("load by index: %v", err)
	}
	if ds.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", ds.Len())
	}

	ds, err = Load(p, Options{})
	if err != nil {
		t.Fatalf("load default sheet: %v", err)
	}
	if ds.Sheet != "Summary" {
		t.Fatalf("default sheet should be first, got %q", ds.Sheet)
	}

	if _, err := Load(p, Options{SheetName: "Nope"}); err == nil || !strings.Contains(err.Error(), "Orders") {
		t.Fatalf("expected missing sheet error listing sheets, got %v", err)
	}
	if _, err := Load(p, Options{SheetIndex: 5}); err == nil {
		t.Fatalf("expected out of range error")
	}
}

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"42", 42, true},
		{" 776.17 ", 776.17, true},
		{"70,516.88", 70516.88, true},
		{"1.000,5", 1000.5, true},
		{"0,5", 0.5, true},
		{"1,000", 1000, true},
		{"12%", 12, true},
		{"1e3", 1000, true},
		{"", 0, false},
		{"abc", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseNumber(tc.in)
		if ok != tc.ok || (ok && got != tc.want) {
			t.Errorf("ParseNumber(%q) = %v,%v want %v,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestParseFlag(t *testing.T) {
	for in, want := range map[string]float64{"1": 1, "0": 0, "Yes": 1, "no": 0, "TRUE": 1, "false": 0, "0.0": 0} {
		got, ok := ParseFlag(in)
		if !ok || got != want {
			t.Errorf("ParseFlag(%q) = %v,%v", in, got, ok)
		}
	}
	if _, ok := ParseFlag("maybe"); ok {
		t.Errorf("expected maybe to be rejected")
	}
}

func TestCache_IdempotentAndReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "orders.csv", "Return,Tax\n1,10\n")

	var evicted []*Dataset
	c, err := NewCache(1, func(ds *Dataset) { evicted = append(evicted, ds) })
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	a, err := c.Load(p, Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	b, err := c.Load(p, Options{})
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if a != b {
		t.Fatalf("expected cached dataset to be reused")
	}

	if err := os.WriteFile(p, []byte("Return,Tax\n1,10\n0,20\n"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	later := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(p, later, later); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	d, err := c.Load(p, Options{})
	if err != nil {
		t.Fatalf("load changed: %v", err)
	}
	if d == a || d.Len() != 2 {
		t.Fatalf("expected fresh dataset after change, got len=%d", d.Len())
	}
	if len(evicted) != 1 || evicted[0] != a {
		t.Fatalf("expected first dataset to be evicted, got %d", len(evicted))
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 cached dataset, got %d", c.Len())
	}
}

func TestParseDelimiter(t *testing.T) {
	for in, want := range map[string]rune{"": 0, ",": ',', "tab": '\t', ";": ';', "pipe": '|'} {
		got, err := ParseDelimiter(in)
		if err != nil || got != want {
			t.Errorf("ParseDelimiter(%q) = %q,%v", in, got, err)
		}
	}
	if _, err := ParseDelimiter("::"); err == nil {
		t.Errorf("expected error for unsupported delimiter")
	}
}
