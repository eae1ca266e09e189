package derive

import (
	"math"

	"github.com/KaramelBytes/returnlens-cli/internal/dataset"
)

// Derived column names.
const (
	ReviewLevelColumn    = "Review_Level"
	IncomeCategoryColumn = "Income_Category"
	TaxLevelColumn       = "Tax_Level"
)

// Category labels. Downstream grouping and exports depend on these exact strings.
const (
	Low      = "Low"
	Medium   = "Medium"
	High     = "High"
	VeryHigh = "Very High"
	Unknown  = "Unknown"
)

// Tax thresholds (inclusive upper bounds).
const (
	TaxLowMax    = 95.76
	TaxMediumMax = 349.97
)

// Income cut points; the top edge is the dataset maximum.
var IncomeEdges = [3]float64{38000, 69000, 99000}

// ReviewLevel buckets a rating: <=2 Low, ==3 Medium, anything else High.
// Unparseable input is Unknown.
func ReviewLevel(raw string) string {
	x, ok := dataset.ParseNumber(raw)
	if !ok {
		return Unknown
	}
	switch {
	case x <= 2:
		return Low
	case x == 3:
		return Medium
	default:
		return High
	}
}

// TaxLevel buckets a tax amount against TaxLowMax and TaxMediumMax.
func TaxLevel(raw string) string {
	x, ok := dataset.ParseNumber(raw)
	if !ok {
		return Unknown
	}
	switch {
	case x <= TaxLowMax:
		return Low
	case x <= TaxMediumMax:
		return Medium
	default:
		return High
	}
}

// IncomeBins holds the bin edges for one dataset:
// [0,38000) Low, [38000,69000) Medium, [69000,99000) High, [99000,Max] Very High.
// When Max < 99000 the top bin is empty and stays that way.
type IncomeBins struct {
	Max float64
}

// NewIncomeBins builds bins whose top edge is the largest parseable value.
func NewIncomeBins(values []string) IncomeBins {
	top := math.Inf(-1)
	for _, v := range values {
		if x, ok := dataset.ParseNumber(v); ok && x > top {
			top = x
		}
	}
	return IncomeBins{Max: top}
}

// Degenerate reports whether the Very High bin cannot hold any value.
func (b IncomeBins) Degenerate() bool { return b.Max < IncomeEdges[2] }

// Category returns the bin label for v; false when v falls outside every bin.
func (b IncomeBins) Category(v float64) (string, bool) {
	if math.IsNaN(v) || v < 0 {
		return "", false
	}
	switch {
	case v < IncomeEdges[0]:
		return Low, true
	case v < IncomeEdges[1]:
		return Medium, true
	case v < IncomeEdges[2]:
		return High, true
	case v <= b.Max:
		return VeryHigh, true
	}
	return "", false
}

// IncomeCategory buckets a raw cell; the empty string marks a missing category.
func (b IncomeBins) IncomeCategory(raw string) string {
	x, ok := dataset.ParseNumber(raw)
	if !ok {
		return ""
	}
	c, _ := b.Category(x)
	return c
}

var ranks = map[string]int{Low: 0, Medium: 1, High: 2, VeryHigh: 3, Unknown: 4}

// Rank orders category labels from Low to Unknown.
func Rank(label string) (int, bool) {
	r, ok := ranks[label]
	return r, ok
}
