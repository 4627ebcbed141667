// Package surrogate fits and serves the polynomial regression mapping
// quality features to optimal filter parameters. The fitted model is a
// cheap stand-in for the genetic search, valid only inside the feature
// bounding box seen during fitting.
package surrogate

import (
	"fmt"

	"ocr-tuner/internal/artifact"
	"ocr-tuner/internal/filter"
)

// DefaultCVThreshold is the cross-validated R² below which a parameter is
// unusable for polynomial serving and must be served via lookup.
const DefaultCVThreshold = 0.5

// ParamFit holds the fitted coefficients and validation metrics for one
// genome parameter.
type ParamFit struct {
	Name         string    `json:"name"`
	Coefficients []float64 `json:"coefficients"`
	R2           float64   `json:"r2"`
	CVScore      float64   `json:"cv_score"`
	MAE          float64   `json:"mae"`
	Usable       bool      `json:"usable"`
}

// Model is the fitted surrogate artifact. Immutable after fitting; safe to
// share across concurrent inference calls.
type Model struct {
	Family      filter.Family `json:"family"`
	Degree      int           `json:"degree"`
	CVThreshold float64       `json:"cv_threshold"`
	Params      []ParamFit    `json:"params"`

	// Trusted domain: the bounding box of feature values seen in fitting.
	FeatureMin []float64 `json:"training_feature_min"`
	FeatureMax []float64 `json:"training_feature_max"`
}

// InDomain reports whether a feature vector lies inside the trusted
// training bounds. Predictions outside are extrapolations and must not be
// served.
func (m *Model) InDomain(features []float64) bool {
	if len(features) != len(m.FeatureMin) {
		return false
	}
	for i, v := range features {
		if v < m.FeatureMin[i] || v > m.FeatureMax[i] {
			return false
		}
	}
	return true
}

// UsableCount returns how many parameters passed validation.
func (m *Model) UsableCount() int {
	n := 0
	for _, p := range m.Params {
		if p.Usable {
			n++
		}
	}
	return n
}

// Predict evaluates the polynomial for every genome parameter and returns
// the predicted values alongside a per-parameter usable mask. Predictions
// are clamped to the family's valid ranges. The caller must check InDomain
// first; Predict does not.
func (m *Model) Predict(features []float64) ([]float64, []bool, error) {
	specs, err := filter.Specs(m.Family)
	if err != nil {
		return nil, nil, err
	}
	if len(specs) != len(m.Params) {
		return nil, nil, fmt.Errorf("surrogate: model has %d params, family %s has %d",
			len(m.Params), m.Family, len(specs))
	}

	terms := polyTerms(len(features), m.Degree)
	row := expand(features, terms)

	values := make([]float64, len(m.Params))
	usable := make([]bool, len(m.Params))
	for i, p := range m.Params {
		if len(p.Coefficients) != len(row) {
			return nil, nil, fmt.Errorf("surrogate: param %s has %d coefficients, want %d",
				p.Name, len(p.Coefficients), len(row))
		}
		v := 0.0
		for t, c := range p.Coefficients {
			v += c * row[t]
		}
		values[i] = v
		usable[i] = p.Usable
	}

	g := filter.Genome{Family: m.Family, Params: values}
	if err := filter.Clamp(&g); err != nil {
		return nil, nil, err
	}
	return g.Params, usable, nil
}

// Save writes the model artifact to a JSON file.
func (m *Model) Save(path string) error {
	return artifact.WriteJSON(path, m)
}

// Load reads a model artifact from a JSON file.
func Load(path string) (*Model, error) {
	var m Model
	if err := artifact.ReadJSON(path, &m); err != nil {
		return nil, err
	}
	if m.Degree < 1 {
		return nil, fmt.Errorf("surrogate model %s: bad degree %d", path, m.Degree)
	}
	return &m, nil
}
