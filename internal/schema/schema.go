package schema

import (
	"fmt"
	"strings"
)

// Field is a canonical dataset column the dashboard knows how to use.
type Field int

const (
	Return Field = iota
	PaymentMode
	StoreType
	Income
	ProductCategory
	ProductSubcategory
	Reviews
	Tax
)

// aliases lists accepted header spellings per field, highest priority first.
// The first entry doubles as the canonical display name.
var aliases = map[Field][]string{
	Return:             {"Return", "return", "is_return", "Is_Return"},
	PaymentMode:        {"Payment_mode", "payment_mode", "Payment Method", "PaymentMethod"},
	StoreType:          {"Store_type", "store_type", "Store Type", "Store"},
	Income:             {"Income", "income", "Annual_Income", "Annual Income"},
	ProductCategory:    {"product_category", "Product_category", "Product Category", "Category"},
	ProductSubcategory: {"Product_Subcategory", "product_subcategory", "Product Subcategory", "Subcategory"},
	Reviews:            {"Reviews", "reviews", "Customer_Reviews", "Rating"},
	Tax:                {"Tax", "tax", "Tax_Amount", "TaxAmount"},
}

// Fields returns every canonical field in declaration order.
func Fields() []Field {
	return []Field{Return, PaymentMode, StoreType, Income, ProductCategory, ProductSubcategory, Reviews, Tax}
}

func (f Field) String() string {
	if a, ok := aliases[f]; ok {
		return a[0]
	}
	return fmt.Sprintf("Field(%d)", int(f))
}

// Aliases returns a copy of the accepted spellings for f in priority order.
func Aliases(f Field) []string {
	return append([]string(nil), aliases[f]...)
}

// NormalizeColumn trims a header and replaces spaces with underscores.
func NormalizeColumn(name string) string {
	return strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
}

// FirstColumn returns the first candidate present in columns. The boolean is
// false (and the name empty) when no candidate matches.
func FirstColumn(columns []string, candidates ...string) (string, bool) {
	present := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		present[c] = struct{}{}
	}
	for _, c := range candidates {
		if _, ok := present[c]; ok {
			return c, true
		}
	}
	return "", false
}

// Schema maps canonical fields to the concrete column names of one dataset.
type Schema struct {
	cols map[Field]string
}

// Resolve matches every canonical field against already normalized column
// names. Aliases are normalized the same way headers are, so "Payment Method"
// matches a "Payment_Method" column.
func Resolve(columns []string) Schema {
	s := Schema{cols: make(map[Field]string, len(aliases))}
	for _, f := range Fields() {
		seen := map[string]struct{}{}
		var cands []string
		for _, a := range aliases[f] {
			n := NormalizeColumn(a)
			if _, dup := seen[n]; dup {
				continue
			}
			seen[n] = struct{}{}
			cands = append(cands, n)
		}
		if col, ok := FirstColumn(columns, cands...); ok {
			s.cols[f] = col
		}
	}
	return s
}

// Column returns the dataset column bound to f.
func (s Schema) Column(f Field) (string, bool) {
	c, ok := s.cols[f]
	return c, ok
}

// Missing lists the fields among want that are not bound.
func (s Schema) Missing(want ...Field) []Field {
	var out []Field
	for _, f := range want {
		if _, ok := s.cols[f]; !ok {
			out = append(out, f)
		}
	}
	return out
}

// Require returns a *MissingColumnError naming every unbound field.
func (s Schema) Require(want ...Field) error {
	if m := s.Missing(want...); len(m) > 0 {
		return &MissingColumnError{Fields: m}
	}
	return nil
}

// MissingColumnError reports canonical fields absent from a dataset.
type MissingColumnError struct {
	Fields []Field
}

func (e *MissingColumnError) Error() string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.String()
	}
	if len(names) == 1 {
		return fmt.Sprintf("%s column not found", names[0])
	}
	return fmt.Sprintf("missing columns: %s", strings.Join(names, ", "))
}

// Names returns the canonical names of the missing fields.
func (e *MissingColumnError) Names() []string {
	out := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		out[i] = f.String()
	}
	return out
}
