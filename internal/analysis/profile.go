package analysis

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/KaramelBytes/returnlens-cli/internal/dataset"
	"github.com/olekukonko/tablewriter"
	"gonum.org/v1/gonum/stat"
)

// Column kinds reported by the overview.
const (
	KindNumeric     = "numeric"
	KindCategorical = "categorical"
	KindEmpty       = "empty"
)

// NoCategoricalNote is shown when every column is numeric.
const NoCategoricalNote = "No categorical columns found."

// ColumnKind is the inferred type of one column.
type ColumnKind struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	NonNull int    `json:"non_null"`
	Missing int    `json:"missing"`
}

// NumericSummary mirrors the usual describe() table for a numeric column.
type NumericSummary struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Q25    float64 `json:"q25"`
	Median float64 `json:"median"`
	Q75    float64 `json:"q75"`
	Max    float64 `json:"max"`
}

// CategoricalSummary describes a text column.
type CategoricalSummary struct {
	Column string `json:"column"`
	Count  int    `json:"count"`
	Unique int    `json:"unique"`
	Top    string `json:"top"`
	Freq   int    `json:"freq"`
}

// Profile is the project overview of a dataset.
type Profile struct {
	Name        string               `json:"name"`
	Sheet       string               `json:"sheet,omitempty"`
	Rows        int                  `json:"rows"`
	Total       int                  `json:"total"`
	Columns     []string             `json:"columns"`
	Head        [][]string           `json:"head"`
	Kinds       []ColumnKind         `json:"kinds"`
	Numeric     []NumericSummary     `json:"numeric"`
	Categorical []CategoricalSummary `json:"categorical"`
	Warnings    []string             `json:"warnings,omitempty"`
}

// NewProfile summarizes ds. headRows <= 0 defaults to 5.
func NewProfile(ds *dataset.Dataset, headRows int) *Profile {
	if headRows <= 0 {
		headRows = 5
	}
	p := &Profile{
		Name:     ds.Name,
		Sheet:    ds.Sheet,
		Rows:     ds.Len(),
		Total:    ds.Total,
		Columns:  append([]string(nil), ds.Columns...),
		Head:     ds.Head(headRows),
		Warnings: append([]string(nil), ds.Warnings...),
	}
	for _, name := range ds.Columns {
		vals, _ := ds.Column(name)
		ck := ColumnKind{Name: name}
		var nums []float64
		numeric := true
		for _, v := range vals {
			if strings.TrimSpace(v) == "" {
				ck.Missing++
				continue
			}
			ck.NonNull++
			if !numeric {
				continue
			}
			if x, ok := dataset.ParseNumber(v); ok {
				nums = append(nums, x)
			} else {
				numeric = false
			}
		}
		switch {
		case ck.NonNull == 0:
			ck.Kind = KindEmpty
		case numeric:
			ck.Kind = KindNumeric
			p.Numeric = append(p.Numeric, describeNumeric(name, nums))
		default:
			ck.Kind = KindCategorical
			p.Categorical = append(p.Categorical, describeCategorical(name, vals))
		}
		p.Kinds = append(p.Kinds, ck)
	}
	return p
}

func describeNumeric(name string, vals []float64) NumericSummary {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	s := NumericSummary{
		Column: name,
		Count:  len(vals),
		Mean:   stat.Mean(vals, nil),
		Min:    sorted[0],
		Q25:    quantile(sorted, 0.25),
		Median: quantile(sorted, 0.5),
		Q75:    quantile(sorted, 0.75),
		Max:    sorted[len(sorted)-1],
	}
	// Std stays 0 for a single value (NaN does not encode to JSON).
	if len(vals) > 1 {
		s.Std = stat.StdDev(vals, nil)
	}
	return s
}

func describeCategorical(name string, vals []string) CategoricalSummary {
	counts := map[string]int{}
	var seen []string
	s := CategoricalSummary{Column: name}
	for _, v := range vals {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		s.Count++
		if counts[v] == 0 {
			seen = append(seen, v)
		}
		counts[v]++
	}
	s.Unique = len(seen)
	for _, v := range seen {
		if counts[v] > s.Freq {
			s.Top, s.Freq = v, counts[v]
		}
	}
	return s
}

// quantile interpolates linearly between closest ranks of a sorted slice.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

func fmtStat(x float64) string {
	if math.IsNaN(x) {
		return "NaN"
	}
	return strconv.FormatFloat(x, 'g', 6, 64)
}

// Markdown renders the overview with bracketed section headers.
func (p *Profile) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	b.WriteString(fmt.Sprintf("File: %s\n", p.Name))
	if p.Sheet != "" {
		b.WriteString(fmt.Sprintf("Sheet: %s\n", p.Sheet))
	}
	if p.Total > p.Rows {
		b.WriteString(fmt.Sprintf("Rows: ~%d (processed %d)\n", p.Total, p.Rows))
	} else {
		b.WriteString(fmt.Sprintf("Rows: %d\n", p.Rows))
	}
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(p.Columns)))

	b.WriteString("[SCHEMA]\n")
	for _, k := range p.Kinds {
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %d)\n", safeName(k.Name), k.Kind, k.NonNull, k.Missing))
	}

	if len(p.Head) > 0 {
		b.WriteString("\n[HEAD]\n")
		b.WriteString("| " + strings.Join(mapStrings(p.Columns, safeName), " | ") + " |\n")
		b.WriteString("|" + strings.Repeat(" --- |", len(p.Columns)) + "\n")
		for _, row := range p.Head {
			cells := make([]string, len(row))
			for i, v := range row {
				if len(v) > 80 {
					v = v[:77] + "..."
				}
				cells[i] = safeVal(v)
			}
			b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
		}
	}

	if len(p.Numeric) > 0 {
		b.WriteString("\n[NUMERIC SUMMARY]\n")
		for _, n := range p.Numeric {
			b.WriteString(fmt.Sprintf("- %s: count %d, mean %s, std %s, min %s, 25%% %s, 50%% %s, 75%% %s, max %s\n",
				safeName(n.Column), n.Count, fmtStat(n.Mean), fmtStat(n.Std), fmtStat(n.Min),
				fmtStat(n.Q25), fmtStat(n.Median), fmtStat(n.Q75), fmtStat(n.Max)))
		}
	}

	b.WriteString("\n[CATEGORICAL SUMMARY]\n")
	if len(p.Categorical) == 0 {
		b.WriteString(NoCategoricalNote + "\n")
	}
	for _, c := range p.Categorical {
		b.WriteString(fmt.Sprintf("- %s: count %d, unique %d, top %s (%d)\n", safeName(c.Column), c.Count, c.Unique, safeVal(c.Top), c.Freq))
	}

	writeList(&b, "NOTES", p.Warnings)
	return b.String()
}

// WriteTables prints the head and describe tables for a terminal.
func (p *Profile) WriteTables(w io.Writer) {
	fmt.Fprintf(w, "%s: %d rows, %d columns\n\n", p.Name, p.Rows, len(p.Columns))

	t := tablewriter.NewWriter(w)
	t.SetHeader(p.Columns)
	for _, row := range p.Head {
		t.Append(row)
	}
	t.Render()

	if len(p.Numeric) > 0 {
		fmt.Fprintln(w)
		t = tablewriter.NewWriter(w)
		t.SetHeader([]string{"column", "count", "mean", "std", "min", "25%", "50%", "75%", "max"})
		for _, n := range p.Numeric {
			t.Append([]string{n.Column, strconv.Itoa(n.Count), fmtStat(n.Mean), fmtStat(n.Std), fmtStat(n.Min),
				fmtStat(n.Q25), fmtStat(n.Median), fmtStat(n.Q75), fmtStat(n.Max)})
		}
		t.Render()
	}

	fmt.Fprintln(w)
	if len(p.Categorical) == 0 {
		fmt.Fprintln(w, NoCategoricalNote)
		return
	}
	t = tablewriter.NewWriter(w)
	t.SetHeader([]string{"column", "count", "unique", "top", "freq"})
	for _, c := range p.Categorical {
		t.Append([]string{c.Column, strconv.Itoa(c.Count), strconv.Itoa(c.Unique), c.Top, strconv.Itoa(c.Freq)})
	}
	t.Render()
}
