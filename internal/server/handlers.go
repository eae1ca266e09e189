package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/KaramelBytes/returnlens-cli/internal/analysis"
	"github.com/KaramelBytes/returnlens-cli/internal/dataset"
	"github.com/KaramelBytes/returnlens-cli/internal/predict"
	"github.com/KaramelBytes/returnlens-cli/internal/schema"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// MaxBodySize bounds prediction request bodies.
const MaxBodySize = 64 << 10

// Options configures what the handler serves.
type Options struct {
	DataPath string
	Load     dataset.Options
	HeadRows int
	Chart    analysis.ChartOptions
}

// Handler serves the API. The dataset is read through the cache on every
// request so an edited file is picked up without a restart.
type Handler struct {
	opt    Options
	cache  *dataset.Cache
	runner *analysis.Runner
	model  predict.Classifier
	log    *zap.Logger
}

// NewHandler wires the handler. clf may be nil, in which case prediction
// endpoints answer 503.
func NewHandler(opt Options, cache *dataset.Cache, runner *analysis.Runner, clf predict.Classifier, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{opt: opt, cache: cache, runner: runner, model: clf, log: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.HealthCheck)

	r.Get("/api/overview", h.GetOverview)
	r.Get("/api/analyses", h.ListAnalyses)
	r.Get("/api/analyses/{id}", h.GetAnalysis)
	r.Get("/api/summary", h.GetSummary)

	r.Get("/api/predict/options", h.GetPredictOptions)
	r.Post("/api/predict", h.Predict)
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte("OK"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string, fields ...string) {
	writeJSON(w, status, errorBody{Error: msg, Fields: fields})
}

func (h *Handler) dataset(w http.ResponseWriter) (*dataset.Dataset, bool) {
	ds, err := h.cache.Load(h.opt.DataPath, h.opt.Load)
	if err != nil {
		h.log.Error("load dataset", zap.String("path", h.opt.DataPath), zap.Error(err))
		status := http.StatusInternalServerError
		if errors.Is(err, os.ErrNotExist) {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return nil, false
	}
	return ds, true
}

// ============================================================================
// Overview
// ============================================================================

func (h *Handler) GetOverview(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.dataset(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, analysis.NewProfile(ds, h.opt.HeadRows))
}

// ============================================================================
// Analytics
// ============================================================================

type analysisInfo struct {
	ID        string   `json:"id"`
	Kind      string   `json:"kind"`
	Number    int      `json:"number"`
	Prompt    string   `json:"prompt"`
	Title     string   `json:"title"`
	Chart     string   `json:"chart"`
	Export    string   `json:"export"`
	Available bool     `json:"available"`
	Missing   []string `json:"missing,omitempty"`
}

func (h *Handler) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.dataset(w)
	if !ok {
		return
	}
	var out []analysisInfo
	for _, q := range analysis.Catalog() {
		info := analysisInfo{
			ID: q.ID, Kind: string(q.Kind), Number: q.Number, Prompt: q.Prompt,
			Title: q.Title, Chart: string(q.Chart), Export: q.Export,
		}
		for _, f := range ds.Schema.Missing(q.Required()...) {
			info.Missing = append(info.Missing, f.String())
		}
		info.Available = len(info.Missing) == 0
		out = append(out, info)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	q, ok := analysis.Lookup(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown analysis %q", id))
		return
	}
	ds, ok := h.dataset(w)
	if !ok {
		return
	}
	res, err := h.runner.Run(ds, q)
	if err != nil {
		var mce *schema.MissingColumnError
		if errors.As(err, &mce) {
			h.log.Warn("analysis skipped", zap.String("id", id), zap.Error(err))
			writeError(w, http.StatusUnprocessableEntity, err.Error(), mce.Names()...)
			return
		}
		h.log.Error("analysis failed", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	switch strings.ToLower(r.URL.Query().Get("format")) {
	case "", "json":
		writeJSON(w, http.StatusOK, res.View())
	case "csv":
		var buf bytes.Buffer
		if err := res.WriteCSV(&buf); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", q.Export))
		_, _ = w.Write(buf.Bytes())
	case "md", "markdown":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = w.Write([]byte(res.Markdown()))
	case "png":
		var buf bytes.Buffer
		if err := res.RenderPNG(&buf, h.opt.Chart); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, analysis.ErrNoData) {
				status = http.StatusUnprocessableEntity
			}
			writeError(w, status, err.Error())
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(buf.Bytes())
	default:
		writeError(w, http.StatusBadRequest, "format must be json, csv, md or png")
	}
}

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, analysis.FinalSummary())
}

// ============================================================================
// Prediction
// ============================================================================

type optionsBody struct {
	predict.Options
	Defaults predict.Input `json:"defaults"`
}

func (h *Handler) GetPredictOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, optionsBody{Options: predict.FormOptions(), Defaults: predict.DefaultInput()})
}

type predictBody struct {
	*predict.Result
	Verdict        string `json:"verdict"`
	Recommendation string `json:"recommendation"`
}

// Predict decodes the request over the form defaults, so omitted fields keep
// their default values.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	if h.model == nil {
		writeError(w, http.StatusServiceUnavailable, "model not loaded")
		return
	}
	in := predict.DefaultInput()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	res, err := predict.Predict(h.model, in)
	if err != nil {
		var ve *predict.ValidationError
		var ie *predict.InferenceError
		switch {
		case errors.As(err, &ve):
			writeError(w, http.StatusBadRequest, err.Error(), ve.Field)
		case errors.As(err, &ie):
			h.log.Error("prediction failed", zap.Strings("fields", ie.Fields), zap.Error(err))
			writeError(w, http.StatusUnprocessableEntity, err.Error(), ie.Fields...)
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	h.log.Debug("prediction", zap.Float64("probability", res.Probability), zap.Bool("return", res.Return))
	writeJSON(w, http.StatusOK, predictBody{Result: res, Verdict: res.Verdict(), Recommendation: res.Recommendation()})
}
