package derive

import (
	"sync"

	"github.com/KaramelBytes/returnlens-cli/internal/dataset"
	"github.com/KaramelBytes/returnlens-cli/internal/schema"
	"github.com/google/uuid"
)

// Column is a derived categorical column aligned with the dataset rows.
type Column struct {
	Name   string
	Source string
	Values []string
	// Existing is set when the dataset already carried the column and it was used as-is.
	Existing bool
	// Bins is set for income categories computed here.
	Bins *IncomeBins
}

type cacheKey struct {
	id     uuid.UUID
	target string
}

// Deriver computes derived columns lazily and at most once per dataset.
type Deriver struct {
	mu    sync.Mutex
	cache map[cacheKey]*Column
}

// NewDeriver returns an empty derivation cache.
func NewDeriver() *Deriver {
	return &Deriver{cache: map[cacheKey]*Column{}}
}

// ReviewLevels returns the Review_Level column for ds.
func (d *Deriver) ReviewLevels(ds *dataset.Dataset) (*Column, error) {
	return d.get(ds, ReviewLevelColumn, schema.Reviews, func(src []string) *Column {
		out := make([]string, len(src))
		for i, v := range src {
			out[i] = ReviewLevel(v)
		}
		return &Column{Values: out}
	})
}

// TaxLevels returns the Tax_Level column for ds.
func (d *Deriver) TaxLevels(ds *dataset.Dataset) (*Column, error) {
	return d.get(ds, TaxLevelColumn, schema.Tax, func(src []string) *Column {
		out := make([]string, len(src))
		for i, v := range src {
			out[i] = TaxLevel(v)
		}
		return &Column{Values: out}
	})
}

// IncomeCategories returns the Income_Category column for ds. Values outside
// every bin are left empty.
func (d *Deriver) IncomeCategories(ds *dataset.Dataset) (*Column, error) {
	return d.get(ds, IncomeCategoryColumn, schema.Income, func(src []string) *Column {
		bins := NewIncomeBins(src)
		out := make([]string, len(src))
		for i, v := range src {
			out[i] = bins.IncomeCategory(v)
		}
		return &Column{Values: out, Bins: &bins}
	})
}

// ByName dispatches on a derived column name.
func (d *Deriver) ByName(ds *dataset.Dataset, name string) (*Column, error) {
	switch name {
	case ReviewLevelColumn:
		return d.ReviewLevels(ds)
	case TaxLevelColumn:
		return d.TaxLevels(ds)
	case IncomeCategoryColumn:
		return d.IncomeCategories(ds)
	}
	return nil, &UnknownColumnError{Name: name}
}

// Forget drops every cached column of a dataset.
func (d *Deriver) Forget(id uuid.UUID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for k := range d.cache {
		if k.id == id {
			delete(d.cache, k)
		}
	}
}

// Len reports the number of cached columns.
func (d *Deriver) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.cache)
}

func (d *Deriver) get(ds *dataset.Dataset, target string, source schema.Field, compute func([]string) *Column) (*Column, error) {
	key := cacheKey{id: ds.ID, target: target}
	d.mu.Lock()
	defer d.mu.Unlock()
	if c, ok := d.cache[key]; ok {
		return c, nil
	}
	var col *Column
	if vals, ok := ds.Column(target); ok {
		col = &Column{Values: vals, Source: target, Existing: true}
	} else {
		name, ok := ds.Schema.Column(source)
		if !ok {
			return nil, &schema.MissingColumnError{Fields: []schema.Field{source}}
		}
		src, _ := ds.Column(name)
		col = compute(src)
		col.Source = name
	}
	col.Name = target
	d.cache[key] = col
	return col, nil
}

// UnknownColumnError reports a request for a column no derivation produces.
type UnknownColumnError struct {
	Name string
}

func (e *UnknownColumnError) Error() string { return "no derivation for column " + e.Name }
