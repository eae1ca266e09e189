// Package model loads a serialized linear-logistic classifier and scores
// feature records against it.
package model

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/KaramelBytes/returnlens-cli/internal/feature"
)

// Unknown-level policies for categorical terms.
const (
	UnknownIgnore = "ignore"
	UnknownError  = "error"
)

// DefaultThreshold is the probability at or above which Classify returns 1.
const DefaultThreshold = 0.5

// NumericTerm contributes Weight * (x - Mean) / Scale.
type NumericTerm struct {
	Feature string  `yaml:"feature" json:"feature"`
	Weight  float64 `yaml:"weight" json:"weight"`
	Mean    float64 `yaml:"mean" json:"mean"`
	Scale   float64 `yaml:"scale" json:"scale"`
}

// CategoricalTerm contributes the weight of the matching level.
type CategoricalTerm struct {
	Feature string             `yaml:"feature" json:"feature"`
	Levels  map[string]float64 `yaml:"levels" json:"levels"`
	// Unknown is "ignore" (zero contribution, the default) or "error".
	Unknown string `yaml:"unknown" json:"unknown"`
}

// Artifact is the on-disk model description.
type Artifact struct {
	Name        string            `yaml:"name" json:"name"`
	Version     string            `yaml:"version" json:"version"`
	Intercept   float64           `yaml:"intercept" json:"intercept"`
	Threshold   float64           `yaml:"threshold" json:"threshold"`
	Numeric     []NumericTerm     `yaml:"numeric" json:"numeric"`
	Categorical []CategoricalTerm `yaml:"categorical" json:"categorical"`
}

// Model is a validated artifact ready for scoring. It is read-only after
// Load and safe for concurrent use.
type Model struct {
	Artifact
	Path string
}

// Decoder fills an Artifact from raw file contents.
type Decoder func(data []byte, a *Artifact) error

var decoders = map[string]Decoder{}

// RegisterDecoder binds a file extension (with dot) to a decoder.
func RegisterDecoder(ext string, d Decoder) { decoders[strings.ToLower(ext)] = d }

// ErrUnsupportedFormat is returned for artifact extensions with no decoder.
var ErrUnsupportedFormat = errors.New("unsupported model format")

// Load reads, decodes and validates an artifact.
func Load(path string) (*Model, error) {
	ext := strings.ToLower(filepath.Ext(path))
	dec, ok := decoders[ext]
	if !ok {
		return nil, fmt.Errorf("load model %s: %w (%q)", path, ErrUnsupportedFormat, ext)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	var a Artifact
	if err := dec(data, &a); err != nil {
		return nil, fmt.Errorf("decode model %s: %w", filepath.Base(path), err)
	}
	m, err := New(a)
	if err != nil {
		return nil, fmt.Errorf("invalid model %s: %w", filepath.Base(path), err)
	}
	m.Path = path
	return m, nil
}

// New validates an in-memory artifact and applies defaults.
func New(a Artifact) (*Model, error) {
	if len(a.Numeric)+len(a.Categorical) == 0 {
		return nil, errors.New("model has no terms")
	}
	if a.Threshold == 0 {
		a.Threshold = DefaultThreshold
	}
	if a.Threshold <= 0 || a.Threshold >= 1 {
		return nil, fmt.Errorf("threshold %v outside (0,1)", a.Threshold)
	}
	seen := map[string]bool{}
	claim := func(name string) error {
		if name == "" {
			return errors.New("term without feature name")
		}
		if seen[name] {
			return fmt.Errorf("feature %q used by more than one term", name)
		}
		seen[name] = true
		return nil
	}
	num := make([]NumericTerm, len(a.Numeric))
	for i, t := range a.Numeric {
		if err := claim(t.Feature); err != nil {
			return nil, err
		}
		if t.Scale == 0 {
			t.Scale = 1
		}
		if t.Scale < 0 {
			return nil, fmt.Errorf("feature %q: negative scale", t.Feature)
		}
		num[i] = t
	}
	cat := make([]CategoricalTerm, len(a.Categorical))
	for i, t := range a.Categorical {
		if err := claim(t.Feature); err != nil {
			return nil, err
		}
		switch t.Unknown {
		case "":
			t.Unknown = UnknownIgnore
		case UnknownIgnore, UnknownError:
		default:
			return nil, fmt.Errorf("feature %q: unknown policy %q", t.Feature, t.Unknown)
		}
		cat[i] = t
	}
	a.Numeric, a.Categorical = num, cat
	return &Model{Artifact: a}, nil
}

// Features lists the feature names the model reads, numeric first.
func (m *Model) Features() []string {
	out := make([]string, 0, len(m.Numeric)+len(m.Categorical))
	for _, t := range m.Numeric {
		out = append(out, t.Feature)
	}
	for _, t := range m.Categorical {
		out = append(out, t.Feature)
	}
	return out
}

// Score returns the probability of the positive class (a return).
func (m *Model) Score(rec feature.Record) (float64, error) {
	z := m.Intercept
	var serr SchemaError
	for _, t := range m.Numeric {
		v, ok := rec.Lookup(t.Feature)
		switch {
		case !ok:
			serr.Missing = append(serr.Missing, t.Feature)
		case v.Categorical || math.IsNaN(v.Num) || math.IsInf(v.Num, 0):
			serr.Mismatched = append(serr.Mismatched, t.Feature)
		default:
			z += t.Weight * (v.Num - t.Mean) / t.Scale
		}
	}
	for _, t := range m.Categorical {
		v, ok := rec.Lookup(t.Feature)
		switch {
		case !ok:
			serr.Missing = append(serr.Missing, t.Feature)
		case !v.Categorical:
			serr.Mismatched = append(serr.Mismatched, t.Feature)
		default:
			w, known := t.Levels[v.Text]
			if !known && t.Unknown == UnknownError {
				if serr.UnknownLevels == nil {
					serr.UnknownLevels = map[string]string{}
				}
				serr.UnknownLevels[t.Feature] = v.Text
				continue
			}
			z += w
		}
	}
	if serr.any() {
		return 0, &serr
	}
	return sigmoid(z), nil
}

// Classify returns 1 when Score reaches the threshold, else 0.
func (m *Model) Classify(rec feature.Record) (int, error) {
	p, err := m.Score(rec)
	if err != nil {
		return 0, err
	}
	if p >= m.Threshold {
		return 1, nil
	}
	return 0, nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// SchemaError reports record fields the model could not use.
type SchemaError struct {
	Missing       []string
	Mismatched    []string
	UnknownLevels map[string]string
}

func (e *SchemaError) any() bool {
	return len(e.Missing)+len(e.Mismatched)+len(e.UnknownLevels) > 0
}

func (e *SchemaError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing features: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Mismatched) > 0 {
		parts = append(parts, "wrong feature type: "+strings.Join(e.Mismatched, ", "))
	}
	if len(e.UnknownLevels) > 0 {
		keys := sortedKeys(e.UnknownLevels)
		lv := make([]string, len(keys))
		for i, k := range keys {
			lv[i] = fmt.Sprintf("%s=%q", k, e.UnknownLevels[k])
		}
		parts = append(parts, "unknown levels: "+strings.Join(lv, ", "))
	}
	return strings.Join(parts, "; ")
}

// FieldNames lists every offending feature once, sorted.
func (e *SchemaError) FieldNames() []string {
	set := map[string]string{}
	for _, f := range e.Missing {
		set[f] = ""
	}
	for _, f := range e.Mismatched {
		set[f] = ""
	}
	for f := range e.UnknownLevels {
		set[f] = ""
	}
	return sortedKeys(set)
}

func sortedKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
