// Package feature defines the single-row record handed to a classifier.
package feature

import (
	"fmt"
	"strconv"
)

// Feature names in the order the classifier expects them.
const (
	Quantity           = "Quantity"
	UnitPrice          = "Unit_Price"
	Price              = "Price"
	Tax                = "Tax"
	Reviews            = "Reviews"
	Income             = "Income"
	TotalPrice         = "total_price"
	TaxRatio           = "tax_ratio"
	ProductCategory    = "product_category"
	ProductSubcategory = "Product_Subcategory"
	PaymentMode        = "Payment_mode"
	City               = "city"
)

// Order lists every feature name in record order.
var Order = []string{
	Quantity, UnitPrice, Price, Tax, Reviews, Income, TotalPrice, TaxRatio,
	ProductCategory, ProductSubcategory, PaymentMode, City,
}

// Value is one named cell. Categorical values carry Text, numeric ones Num.
type Value struct {
	Name        string
	Num         float64
	Text        string
	Categorical bool
}

// Number builds a numeric value.
func Number(name string, x float64) Value { return Value{Name: name, Num: x} }

// Text builds a categorical value.
func Text(name, s string) Value { return Value{Name: name, Text: s, Categorical: true} }

func (v Value) String() string {
	if v.Categorical {
		return v.Text
	}
	return strconv.FormatFloat(v.Num, 'f', -1, 64)
}

// Record is an ordered set of uniquely named values.
type Record struct {
	values []Value
	index  map[string]int
}

// NewRecord builds a record, rejecting duplicate names.
func NewRecord(values ...Value) (Record, error) {
	r := Record{values: make([]Value, 0, len(values)), index: make(map[string]int, len(values))}
	for _, v := range values {
		if _, dup := r.index[v.Name]; dup {
			return Record{}, fmt.Errorf("duplicate feature %q", v.Name)
		}
		r.index[v.Name] = len(r.values)
		r.values = append(r.values, v)
	}
	return r, nil
}

// Names returns the feature names in order.
func (r Record) Names() []string {
	out := make([]string, len(r.values))
	for i, v := range r.values {
		out[i] = v.Name
	}
	return out
}

// Lookup returns the value named name.
func (r Record) Lookup(name string) (Value, bool) {
	i, ok := r.index[name]
	if !ok {
		return Value{}, false
	}
	return r.values[i], true
}

// Values returns a copy of the values in order.
func (r Record) Values() []Value { return append([]Value(nil), r.values...) }

// Len reports the number of features.
func (r Record) Len() int { return len(r.values) }

// Map flattens the record for JSON previews.
func (r Record) Map() map[string]interface{} {
	out := make(map[string]interface{}, len(r.values))
	for _, v := range r.values {
		if v.Categorical {
			out[v.Name] = v.Text
		} else {
			out[v.Name] = v.Num
		}
	}
	return out
}
