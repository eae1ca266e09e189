package analysis

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// Header returns the export column names: grouping keys then the rate.
func (r *Result) Header() []string {
	h := append([]string(nil), r.KeyColumns...)
	return append(h, r.ValueColumn())
}

// Records returns the table body with rates formatted for export.
func (r *Result) Records() [][]string {
	out := make([][]string, 0, len(r.Groups))
	for _, g := range r.Groups {
		row := append([]string(nil), g.Keys...)
		out = append(out, append(row, strconv.FormatFloat(r.Value(g), 'f', -1, 64)))
	}
	return out
}

// WriteCSV writes the aggregated table with a header row.
func (r *Result) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(r.Header()); err != nil {
		return err
	}
	if err := cw.WriteAll(r.Records()); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// WriteTable renders the result as a terminal table.
func (r *Result) WriteTable(w io.Writer) {
	t := tablewriter.NewWriter(w)
	t.SetHeader(append(r.Header(), "n"))
	for _, g := range r.Groups {
		row := append([]string(nil), g.Keys...)
		t.Append(append(row, r.formatValue(g), strconv.Itoa(g.Count)))
	}
	t.Render()
}

func (r *Result) formatValue(g Group) string {
	if r.Question.Percent {
		return fmt.Sprintf("%.2f%%", r.Value(g))
	}
	return fmt.Sprintf("%.4f", g.Rate)
}

// Markdown renders the question, its table, and the curated notes.
func (r *Result) Markdown() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s]\n", strings.ToUpper(r.Question.Heading())))
	if r.Dataset != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Dataset))
	}
	b.WriteString(fmt.Sprintf("Groups: %d\n\n", len(r.Groups)))

	if !r.Empty() {
		h := append(r.Header(), "n")
		b.WriteString("| " + strings.Join(mapStrings(h, safeName), " | ") + " |\n")
		b.WriteString("|" + strings.Repeat(" --- |", len(h)) + "\n")
		for _, g := range r.Groups {
			cells := mapStrings(g.Keys, safeVal)
			cells = append(cells, r.formatValue(g), strconv.Itoa(g.Count))
			b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
		}
	}
	writeList(&b, "INSIGHTS", r.Question.Insights)
	writeList(&b, "RECOMMENDATIONS", r.Question.Recommendations)
	writeList(&b, "NOTES", r.Warnings)
	return b.String()
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString("\n[" + title + "]\n")
	for _, it := range items {
		b.WriteString("- ")
		b.WriteString(it)
		b.WriteString("\n")
	}
}

func mapStrings(in []string, f func(string) string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = f(s)
	}
	return out
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }

// GroupView is one exported row.
type GroupView struct {
	Keys  []string `json:"keys"`
	Count int      `json:"count"`
	Rate  float64  `json:"rate"`
	Value float64  `json:"value"`
}

// View is the JSON shape of a result.
type View struct {
	ID              string      `json:"id"`
	Heading         string      `json:"heading"`
	Title           string      `json:"title"`
	KeyColumns      []string    `json:"key_columns"`
	ValueColumn     string      `json:"value_column"`
	Percent         bool        `json:"percent"`
	Groups          []GroupView `json:"groups"`
	Insights        []string    `json:"insights,omitempty"`
	Recommendations []string    `json:"recommendations,omitempty"`
	Warnings        []string    `json:"warnings,omitempty"`
}

// View flattens r for JSON output.
func (r *Result) View() View {
	q := r.Question
	v := View{
		ID: q.ID, Heading: q.Heading(), Title: q.Title,
		KeyColumns: r.KeyColumns, ValueColumn: r.ValueColumn(), Percent: q.Percent,
		Groups:   make([]GroupView, 0, len(r.Groups)),
		Insights: q.Insights, Recommendations: q.Recommendations, Warnings: r.Warnings,
	}
	for _, g := range r.Groups {
		v.Groups = append(v.Groups, GroupView{Keys: g.Keys, Count: g.Count, Rate: g.Rate, Value: r.Value(g)})
	}
	return v
}
