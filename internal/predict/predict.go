// Package predict turns form inputs into a feature record and asks a
// classifier whether the order is likely to be returned.
package predict

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/KaramelBytes/returnlens-cli/internal/feature"
)

// Classifier is the narrow view of a trained model.
type Classifier interface {
	Classify(feature.Record) (int, error)
	Score(feature.Record) (float64, error)
}

// Input is one prediction request.
type Input struct {
	Quantity           int     `json:"quantity"`
	UnitPrice          float64 `json:"unit_price"`
	Tax                float64 `json:"tax"`
	Reviews            int     `json:"reviews"`
	Income             float64 `json:"income"`
	ProductCategory    string  `json:"product_category"`
	ProductSubcategory string  `json:"product_subcategory"`
	PaymentMode        string  `json:"payment_mode"`
	City               string  `json:"city"`
}

// DefaultInput returns the form defaults: the first choice of every list.
func DefaultInput() Input {
	o := formOptions
	c := o.Categories[0]
	return Input{
		Quantity:           int(o.Quantity.Default),
		UnitPrice:          o.UnitPrice.Default,
		Tax:                o.Tax.Default,
		Reviews:            int(o.Reviews.Default),
		Income:             o.Income.Default,
		ProductCategory:    c.Name,
		ProductSubcategory: c.Subcategories[0],
		PaymentMode:        o.PaymentModes[0],
		City:               o.Cities[0],
	}
}

// Validate checks every field against the form domains.
func (in Input) Validate() error {
	o := formOptions
	nums := []struct {
		field string
		v     float64
		b     Bounds
	}{
		{"quantity", float64(in.Quantity), o.Quantity},
		{"unit_price", in.UnitPrice, o.UnitPrice},
		{"tax", in.Tax, o.Tax},
		{"reviews", float64(in.Reviews), o.Reviews},
		{"income", in.Income, o.Income},
	}
	for _, n := range nums {
		if math.IsNaN(n.v) || n.v < n.b.Min || n.v > n.b.Max {
			return &ValidationError{Field: n.field, Reason: fmt.Sprintf("must be between %g and %g", n.b.Min, n.b.Max)}
		}
	}
	subs, ok := o.Subcategories(in.ProductCategory)
	if !ok {
		return &ValidationError{Field: "product_category", Reason: fmt.Sprintf("unknown category %q", in.ProductCategory)}
	}
	if !contains(subs, in.ProductSubcategory) {
		return &ValidationError{Field: "product_subcategory", Reason: fmt.Sprintf("%q is not a subcategory of %s (choose from %s)", in.ProductSubcategory, in.ProductCategory, strings.Join(subs, ", "))}
	}
	if !contains(o.PaymentModes, in.PaymentMode) {
		return &ValidationError{Field: "payment_mode", Reason: fmt.Sprintf("unknown payment mode %q", in.PaymentMode)}
	}
	if !contains(o.Cities, in.City) {
		return &ValidationError{Field: "city", Reason: fmt.Sprintf("unknown city %q", in.City)}
	}
	return nil
}

// Derived holds the values computed from the raw inputs.
type Derived struct {
	Price      float64 `json:"price"`
	TotalPrice float64 `json:"total_price"`
	TaxRatio   float64 `json:"tax_ratio"`
}

// Compute derives Price, total_price and tax_ratio. The +1 keeps tax_ratio
// finite for zero-priced orders.
func Compute(quantity int, unitPrice, tax float64) Derived {
	price := float64(quantity) * unitPrice
	return Derived{
		Price:      price,
		TotalPrice: price + tax,
		TaxRatio:   tax / (price + 1),
	}
}

// Assemble builds the classifier record in feature.Order.
func Assemble(in Input) feature.Record {
	d := Compute(in.Quantity, in.UnitPrice, in.Tax)
	rec, _ := feature.NewRecord(
		feature.Number(feature.Quantity, float64(in.Quantity)),
		feature.Number(feature.UnitPrice, in.UnitPrice),
		feature.Number(feature.Price, d.Price),
		feature.Number(feature.Tax, in.Tax),
		feature.Number(feature.Reviews, float64(in.Reviews)),
		feature.Number(feature.Income, in.Income),
		feature.Number(feature.TotalPrice, d.TotalPrice),
		feature.Number(feature.TaxRatio, d.TaxRatio),
		feature.Text(feature.ProductCategory, in.ProductCategory),
		feature.Text(feature.ProductSubcategory, in.ProductSubcategory),
		feature.Text(feature.PaymentMode, in.PaymentMode),
		feature.Text(feature.City, in.City),
	)
	return rec
}

// Result is a classifier verdict for one input.
type Result struct {
	Input       Input                  `json:"input"`
	Derived     Derived                `json:"derived"`
	Features    map[string]interface{} `json:"features"`
	Label       int                    `json:"label"`
	Probability float64                `json:"probability"`
	Return      bool                   `json:"return"`
}

// Verdict renders the headline, e.g. "Predicted: RETURN (prob = 61.20%)".
func (r *Result) Verdict() string {
	v := "NO RETURN"
	if r.Return {
		v = "RETURN"
	}
	return fmt.Sprintf("Predicted: %s (prob = %.2f%%)", v, r.Probability*100)
}

// Recommendation suggests the follow-up for the verdict.
func (r *Result) Recommendation() string {
	if r.Return {
		return "High return risk: review product quality, adjust the offer, or flag the order for retention."
	}
	return "Low return risk: no action needed."
}

// Predict validates in, builds the record, and asks c for a verdict. Any
// classifier failure is returned as *InferenceError.
func Predict(c Classifier, in Input) (*Result, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	rec := Assemble(in)
	prob, err := c.Score(rec)
	if err != nil {
		return nil, newInferenceError(err)
	}
	if math.IsNaN(prob) || prob < 0 || prob > 1 {
		return nil, newInferenceError(fmt.Errorf("probability %v outside [0,1]", prob))
	}
	label, err := c.Classify(rec)
	if err != nil {
		return nil, newInferenceError(err)
	}
	return &Result{
		Input:       in,
		Derived:     Compute(in.Quantity, in.UnitPrice, in.Tax),
		Features:    rec.Map(),
		Label:       label,
		Probability: prob,
		Return:      label == 1 || prob >= 0.5,
	}, nil
}

// ValidationError rejects an out-of-domain input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string { return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason) }

// InferenceError wraps a classifier failure. Fields names the offending
// features when the classifier reports them.
type InferenceError struct {
	Fields []string
	Err    error
}

func (e *InferenceError) Error() string {
	msg := "prediction error: check model and input columns"
	if len(e.Fields) > 0 {
		msg += " (" + strings.Join(e.Fields, ", ") + ")"
	}
	return msg + ": " + e.Err.Error()
}

func (e *InferenceError) Unwrap() error { return e.Err }

func newInferenceError(err error) *InferenceError {
	ie := &InferenceError{Err: err}
	var fe interface{ FieldNames() []string }
	if errors.As(err, &fe) {
		ie.Fields = fe.FieldNames()
	}
	return ie
}
