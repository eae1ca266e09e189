package analysis

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/KaramelBytes/returnlens-cli/internal/dataset"
	"github.com/KaramelBytes/returnlens-cli/internal/derive"
	"github.com/KaramelBytes/returnlens-cli/internal/schema"
	"gonum.org/v1/gonum/stat"
)

// NoWomenRowsWarning is reported when the women's filter leaves nothing.
const NoWomenRowsWarning = "No rows found for women's products based on Product_Subcategory content."

// Group is one row of an aggregated table.
type Group struct {
	Keys []string
	// Count is the number of rows with a numeric return value.
	Count int
	// Rate is the mean of the return column in [0,1].
	Rate float64
}

// Result is a computed answer to one catalog question.
type Result struct {
	Question     Question
	Dataset      string
	KeyColumns   []string
	ReturnColumn string
	Groups       []Group
	Warnings     []string
}

// Empty reports whether no group survived filtering.
func (r *Result) Empty() bool { return len(r.Groups) == 0 }

// Value returns the displayed rate: a fraction or a percentage.
func (r *Result) Value(g Group) float64 {
	if r.Question.Percent {
		return g.Rate * 100
	}
	return g.Rate
}

// ValueColumn names the rate column in exports.
func (r *Result) ValueColumn() string {
	if r.Question.Percent {
		return r.ReturnColumn + "_pct"
	}
	return r.ReturnColumn
}

// Runner answers catalog questions against datasets. Derived columns are
// shared through the Deriver so repeated questions do not recompute them.
type Runner struct {
	deriver *derive.Deriver
}

// NewRunner returns a Runner backed by d; nil allocates a private Deriver.
func NewRunner(d *derive.Deriver) *Runner {
	if d == nil {
		d = derive.NewDeriver()
	}
	return &Runner{deriver: d}
}

// Deriver exposes the derivation cache.
func (r *Runner) Deriver() *derive.Deriver { return r.deriver }

// Run computes q over ds. A dataset lacking a column the question needs
// yields *schema.MissingColumnError.
func (r *Runner) Run(ds *dataset.Dataset, q Question) (*Result, error) {
	if err := ds.Schema.Require(q.Required()...); err != nil {
		return nil, err
	}
	retCol, _ := ds.Schema.Column(schema.Return)
	ret, _ := ds.Column(retCol)

	res := &Result{Question: q, Dataset: ds.Name, ReturnColumn: retCol}
	keys := make([][]string, len(q.Keys))
	for i, k := range q.Keys {
		if k.Derived != "" {
			col, err := r.deriver.ByName(ds, k.Derived)
			if err != nil {
				return nil, fmt.Errorf("derive %s: %w", k.Derived, err)
			}
			keys[i] = col.Values
			res.KeyColumns = append(res.KeyColumns, k.Derived)
			if col.Bins != nil && col.Bins.Degenerate() {
				res.Warnings = append(res.Warnings, fmt.Sprintf("income maximum %.2f is below %.0f; the %s bin is empty", col.Bins.Max, derive.IncomeEdges[2], derive.VeryHigh))
			}
			continue
		}
		name, _ := ds.Schema.Column(k.Field)
		keys[i], _ = ds.Column(name)
		res.KeyColumns = append(res.KeyColumns, name)
	}

	keep := make([]bool, ds.Len())
	for i := range keep {
		keep[i] = true
	}
	if q.WomenOnly {
		sub, _ := ds.Field(schema.ProductSubcategory)
		n := 0
		for i, s := range sub {
			keep[i] = IsWomen(s)
			if keep[i] {
				n++
			}
		}
		if n == 0 {
			res.Warnings = append(res.Warnings, NoWomenRowsWarning)
			return res, nil
		}
	}

	res.Groups = aggregate(keys, ret, keep)
	order(res.Groups, q.Keys, q.SortByRate)
	return res, nil
}

// Skip records a question that could not be answered.
type Skip struct {
	Question Question
	Err      error
}

// RunAll answers every question in qs. Questions with missing columns are
// reported as skips; a missing return column is fatal.
func (r *Runner) RunAll(ds *dataset.Dataset, qs []Question) ([]*Result, []Skip, error) {
	if err := ds.Schema.Require(schema.Return); err != nil {
		return nil, nil, err
	}
	var out []*Result
	var skips []Skip
	for _, q := range qs {
		res, err := r.Run(ds, q)
		if err != nil {
			var mce *schema.MissingColumnError
			if errors.As(err, &mce) {
				skips = append(skips, Skip{Question: q, Err: err})
				continue
			}
			return out, skips, fmt.Errorf("%s: %w", q.ID, err)
		}
		out = append(out, res)
	}
	return out, skips, nil
}

// IsWomen matches subcategories naming women's products ("Women", "Womens",
// abbreviated "Wom."), case-insensitively.
func IsWomen(subcategory string) bool {
	return strings.Contains(strings.ToLower(subcategory), "wom")
}

func aggregate(keys [][]string, ret []string, keep []bool) []Group {
	type acc struct {
		keys []string
		vals []float64
	}
	byKey := map[string]*acc{}
	var order []string
	for i := range ret {
		if !keep[i] {
			continue
		}
		parts := make([]string, len(keys))
		missing := false
		for k, col := range keys {
			v := strings.TrimSpace(col[i])
			if v == "" {
				missing = true
				break
			}
			parts[k] = v
		}
		if missing {
			continue
		}
		y, ok := dataset.ParseFlag(ret[i])
		if !ok {
			continue
		}
		id := strings.Join(parts, "\x00")
		a, ok := byKey[id]
		if !ok {
			a = &acc{keys: parts}
			byKey[id] = a
			order = append(order, id)
		}
		a.vals = append(a.vals, y)
	}
	out := make([]Group, 0, len(order))
	for _, id := range order {
		a := byKey[id]
		out = append(out, Group{Keys: a.keys, Count: len(a.vals), Rate: stat.Mean(a.vals, nil)})
	}
	return out
}

// order sorts groups by key (derived labels by rank) and, when byRate is
// set, then stably by descending rate.
func order(groups []Group, keys []Key, byRate bool) {
	sort.SliceStable(groups, func(i, j int) bool {
		for k := range keys {
			a, b := groups[i].Keys[k], groups[j].Keys[k]
			if a == b {
				continue
			}
			if keys[k].Derived != "" {
				ra, oka := derive.Rank(a)
				rb, okb := derive.Rank(b)
				if oka && okb {
					return ra < rb
				}
				if oka != okb {
					return oka
				}
			}
			return a < b
		}
		return false
	})
	if byRate {
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].Rate > groups[j].Rate })
	}
}

func itoa(n int) string { return strconv.Itoa(n) }
