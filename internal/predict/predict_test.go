package predict

import (
	"errors"
	"math"
	"testing"

	"github.com/KaramelBytes/returnlens-cli/internal/feature"
	"github.com/KaramelBytes/returnlens-cli/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClassifier struct {
	label int
	prob  float64
	err   error
	seen  feature.Record
}

func (f *fakeClassifier) Classify(r feature.Record) (int, error) { return f.label, f.err }

func (f *fakeClassifier) Score(r feature.Record) (float64, error) {
	f.seen = r
	return f.prob, f.err
}

func TestCompute(t *testing.T) {
	d := Compute(3, 776.17, 241.24)
	assert.InDelta(t, 2328.51, d.Price, 1e-9)
	assert.InDelta(t, 2569.75, d.TotalPrice, 1e-9)
	assert.InDelta(t, 0.103555, d.TaxRatio, 1e-5)
	assert.InDelta(t, 0.1035583, d.TaxRatio, 1e-7)

	assert.Equal(t, Derived{}, Compute(1, 0, 0))
}

func TestAssemble_OrderAndValues(t *testing.T) {
	rec := Assemble(DefaultInput())
	assert.Equal(t, feature.Order, rec.Names())

	v, ok := rec.Lookup(feature.Price)
	require.True(t, ok)
	assert.InDelta(t, 2328.51, v.Num, 1e-9)
	v, _ = rec.Lookup(feature.ProductSubcategory)
	assert.True(t, v.Categorical)
	assert.Equal(t, "Fiction", v.Text)
}

func TestValidate(t *testing.T) {
	require.NoError(t, DefaultInput().Validate())

	mutate := map[string]func(*Input){
		"quantity":            func(in *Input) { in.Quantity = 0 },
		"unit_price":          func(in *Input) { in.UnitPrice = 20000.01 },
		"tax":                 func(in *Input) { in.Tax = -1 },
		"reviews":             func(in *Input) { in.Reviews = 6 },
		"income":              func(in *Input) { in.Income = math.NaN() },
		"product_category":    func(in *Input) { in.ProductCategory = "Toys" },
		"product_subcategory": func(in *Input) { in.ProductSubcategory = "Mobiles" },
		"payment_mode":        func(in *Input) { in.PaymentMode = "Barter" },
		"city":                func(in *Input) { in.City = "Paris" },
	}
	for field, f := range mutate {
		in := DefaultInput()
		f(&in)
		err := in.Validate()
		var ve *ValidationError
		require.True(t, errors.As(err, &ve), field)
		assert.Equal(t, field, ve.Field)
	}

	in := DefaultInput()
	in.ProductCategory, in.ProductSubcategory = "Electronics", "Mobiles"
	in.Quantity, in.Reviews, in.UnitPrice, in.Income = 10, 1, 0, 300000
	assert.NoError(t, in.Validate())
}

func TestPredict_Verdict(t *testing.T) {
	cases := []struct {
		name   string
		label  int
		prob   float64
		ret    bool
		prefix string
	}{
		{"label wins", 1, 0.2, true, "Predicted: RETURN (prob = 20.00%)"},
		{"probability wins", 0, 0.5, true, "Predicted: RETURN (prob = 50.00%)"},
		{"no return", 0, 0.1234, false, "Predicted: NO RETURN (prob = 12.34%)"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fc := &fakeClassifier{label: tc.label, prob: tc.prob}
			res, err := Predict(fc, DefaultInput())
			require.NoError(t, err)
			assert.Equal(t, tc.ret, res.Return)
			assert.Equal(t, tc.prefix, res.Verdict())
			assert.NotEmpty(t, res.Recommendation())
			assert.Equal(t, feature.Order, fc.seen.Names())
			assert.InDelta(t, 2569.75, res.Features[feature.TotalPrice], 1e-9)
		})
	}
}

func TestPredict_Errors(t *testing.T) {
	in := DefaultInput()
	in.City = "Nowhere"
	_, err := Predict(&fakeClassifier{}, in)
	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))

	boom := errors.New("boom")
	_, err = Predict(&fakeClassifier{err: boom}, DefaultInput())
	var ie *InferenceError
	require.True(t, errors.As(err, &ie))
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, ie.Fields)

	_, err = Predict(&fakeClassifier{prob: 1.5}, DefaultInput())
	assert.True(t, errors.As(err, &ie))
}

func TestPredict_ModelSchemaMismatch(t *testing.T) {
	m, err := model.New(model.Artifact{
		Numeric:     []model.NumericTerm{{Feature: "Discount", Weight: 1}},
		Categorical: []model.CategoricalTerm{{Feature: feature.City, Levels: map[string]float64{"Pune": 1}, Unknown: model.UnknownError}},
	})
	require.NoError(t, err)

	_, err = Predict(m, DefaultInput())
	var ie *InferenceError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, []string{"Discount", feature.City}, ie.Fields)
	var se *model.SchemaError
	assert.True(t, errors.As(err, &se))
	assert.Contains(t, err.Error(), "prediction error: check model and input columns (Discount, city)")
}

func TestFormOptions_Copy(t *testing.T) {
	o := FormOptions()
	o.Cities[0] = "Changed"
	o.Categories[0].Subcategories[0] = "Changed"
	assert.Equal(t, "Hyderabad", FormOptions().Cities[0])
	subs, ok := FormOptions().Subcategories("Books")
	require.True(t, ok)
	assert.Equal(t, "Fiction", subs[0])
	assert.Len(t, FormOptions().Categories, 6)
}

func TestFormOptionsIsACopy(t *testing.T) {
	o := FormOptions()
	o.Cities[0] = "Atlantis"
	o.Categories[0].Subcategories[0] = "Poetry"
	fresh := FormOptions()
	assert.Equal(t, "Hyderabad", fresh.Cities[0])
	assert.Equal(t, "Fiction", fresh.Categories[0].Subcategories[0])

	subs, ok := fresh.Subcategories("Bags")
	require.True(t, ok)
	assert.Equal(t, []string{"Women", "Mens"}, subs)
	_, ok = fresh.Subcategories("Toys")
	assert.False(t, ok)
}
