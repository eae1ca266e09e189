package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/returnlens-cli/internal/analysis"
	"github.com/KaramelBytes/returnlens-cli/internal/dataset"
	"github.com/KaramelBytes/returnlens-cli/internal/feature"
	"github.com/KaramelBytes/returnlens-cli/internal/predict"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ordersCSV = `Return,Payment_mode,Store_type,Income,product_category,Product_Subcategory,Reviews,Tax
1,Cash,Online,20000,Bags,Women,1,50
0,Cash,Online,45000,Bags,Mens,5,200
1,Credit Card,Retail,80000,Clothing,Women,3,400
0,Credit Card,Retail,120000,Clothing,Mens,4,100
`

type fakeClassifier struct {
	prob float64
	err  error
}

func (f fakeClassifier) Score(feature.Record) (float64, error) { return f.prob, f.err }

func (f fakeClassifier) Classify(feature.Record) (int, error) {
	if f.prob >= 0.5 {
		return 1, f.err
	}
	return 0, f.err
}

type fieldErr struct{}

func (fieldErr) Error() string         { return "schema mismatch" }
func (fieldErr) FieldNames() []string { return []string{"City"} }

func newTestServer(t *testing.T, csv string, clf predict.Classifier) http.Handler {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orders.csv")
	if csv != "" {
		require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))
	}
	cache, err := dataset.NewCache(2, nil)
	require.NoError(t, err)
	h := NewHandler(Options{DataPath: path, HeadRows: 2}, cache, analysis.NewRunner(nil), clf, nil)
	return NewRouter(h, []string{"http://localhost:3000"}, nil)
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, ordersCSV, nil)
	rec := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestOverview(t *testing.T) {
	h := newTestServer(t, ordersCSV, nil)
	rec := do(t, h, http.MethodGet, "/api/overview", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var p analysis.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, 4, p.Rows)
	assert.Len(t, p.Head, 2)
	assert.Contains(t, p.Columns, "Payment_mode")
}

func TestOverviewMissingFile(t *testing.T) {
	h := newTestServer(t, "", nil)
	rec := do(t, h, http.MethodGet, "/api/overview", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAnalyses(t *testing.T) {
	h := newTestServer(t, ordersCSV, nil)

	rec := do(t, h, http.MethodGet, "/api/analyses", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []analysisInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, len(analysis.Catalog()))
	for _, info := range list {
		assert.True(t, info.Available, info.ID)
	}

	rec = do(t, h, http.MethodGet, "/api/analyses/payment", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body analysis.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"Payment_mode"}, body.KeyColumns)
	require.Len(t, body.Groups, 2)
	assert.Equal(t, []string{"Cash"}, body.Groups[0].Keys)
	assert.InDelta(t, 0.5, body.Groups[0].Rate, 1e-9)

	rec = do(t, h, http.MethodGet, "/api/analyses/payment?format=csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".csv")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Payment_mode,"))

	rec = do(t, h, http.MethodGet, "/api/analyses/payment?format=png", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	rec = do(t, h, http.MethodGet, "/api/analyses/payment?format=md", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "[UNIVARIATE 1")

	rec = do(t, h, http.MethodGet, "/api/analyses/payment?format=xml", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/analyses/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAnalysisMissingColumn(t *testing.T) {
	csv := "Return,Payment_mode\n1,Cash\n0,Card\n"
	h := newTestServer(t, csv, nil)

	rec := do(t, h, http.MethodGet, "/api/analyses/store", "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var e errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	assert.Equal(t, "Store_type column not found", e.Error)
	assert.Equal(t, []string{"Store_type"}, e.Fields)

	rec = do(t, h, http.MethodGet, "/api/analyses", "")
	var list []analysisInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.True(t, list[0].Available)
	assert.False(t, list[1].Available)
}

func TestSummary(t *testing.T) {
	h := newTestServer(t, ordersCSV, nil)
	rec := do(t, h, http.MethodGet, "/api/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var s analysis.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	assert.Len(t, s.Recommendations, 8)
	assert.NotEmpty(t, s.Takeaway)
}

func TestPredictOptions(t *testing.T) {
	h := newTestServer(t, ordersCSV, nil)
	rec := do(t, h, http.MethodGet, "/api/predict/options", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body optionsBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, predict.DefaultInput(), body.Defaults)
	assert.Len(t, body.Cities, 10)
}

func TestPredict(t *testing.T) {
	h := newTestServer(t, ordersCSV, fakeClassifier{prob: 0.75})
	rec := do(t, h, http.MethodPost, "/api/predict", `{"quantity": 2}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out struct {
		Input       predict.Input `json:"input"`
		Probability float64       `json:"probability"`
		Return      bool          `json:"return"`
		Verdict     string        `json:"verdict"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, 2, out.Input.Quantity)
	assert.Equal(t, predict.DefaultInput().City, out.Input.City)
	assert.True(t, out.Return)
	assert.Equal(t, "Predicted: RETURN (prob = 75.00%)", out.Verdict)
}

func TestPredictErrors(t *testing.T) {
	cases := []struct {
		name   string
		clf    predict.Classifier
		body   string
		status int
	}{
		{"no model", nil, `{}`, http.StatusServiceUnavailable},
		{"bad json", fakeClassifier{}, `{"quantity":`, http.StatusBadRequest},
		{"unknown field", fakeClassifier{}, `{"colour":"red"}`, http.StatusBadRequest},
		{"out of range", fakeClassifier{}, `{"quantity": 99}`, http.StatusBadRequest},
		{"classifier failure", fakeClassifier{err: fieldErr{}}, `{}`, http.StatusUnprocessableEntity},
		{"bad probability", fakeClassifier{prob: 1.5}, `{}`, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestServer(t, ordersCSV, tc.clf)
			rec := do(t, h, http.MethodPost, "/api/predict", tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
		})
	}
}

func TestPredictReportsFields(t *testing.T) {
	h := newTestServer(t, ordersCSV, fakeClassifier{err: fieldErr{}})
	rec := do(t, h, http.MethodPost, "/api/predict", `{}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var e errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	assert.Equal(t, []string{"City"}, e.Fields)
	assert.True(t, strings.HasPrefix(e.Error, "prediction error"))
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(t, ordersCSV, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/predict", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}
