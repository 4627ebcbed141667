// Package cluster groups quality profiles by degradation regime using
// standardized K-means, and assigns new profiles to the nearest regime.
package cluster

import (
	"fmt"
	"math"

	"ocr-tuner/internal/artifact"
	"ocr-tuner/internal/quality"
)

// Model is a fitted standardization transform plus K centroids.
// It is a versioned artifact: fitted once, serialized, and read-only
// thereafter, so concurrent inference calls may share it freely.
type Model struct {
	ScalerMean  []float64   `json:"scaler_mean"`
	ScalerScale []float64   `json:"scaler_scale"`
	Centroids   [][]float64 `json:"centroids"`
	K           int         `json:"k"`

	// MemberCounts records training membership per cluster so callers can
	// detect degenerate clusters (fewer than 2 members).
	MemberCounts []int `json:"member_counts"`
}

// MinClusterMembers is the smallest training membership for which a cluster
// is considered reliable.
const MinClusterMembers = 2

// Standardize maps a feature vector into the model's zero-mean,
// unit-variance space.
func (m *Model) Standardize(features []float64) []float64 {
	out := make([]float64, len(features))
	for i, v := range features {
		out[i] = (v - m.ScalerMean[i]) / m.ScalerScale[i]
	}
	return out
}

// Assign returns the cluster id of the nearest centroid under Euclidean
// distance in standardized space. Ties break to the lowest id.
func (m *Model) Assign(p quality.Profile) int {
	std := m.Standardize(p.Vector())

	best := 0
	bestDist := math.Inf(1)
	for id, c := range m.Centroids {
		d := sqDist(std, c)
		if d < bestDist {
			bestDist = d
			best = id
		}
	}
	return best
}

// Degenerate reports whether a cluster had too few training members to be
// trusted for representative lookup.
func (m *Model) Degenerate(id int) bool {
	if id < 0 || id >= len(m.MemberCounts) {
		return true
	}
	return m.MemberCounts[id] < MinClusterMembers
}

// NearestReliable returns the closest non-degenerate cluster to the given
// cluster's centroid, or the cluster itself when it is reliable.
func (m *Model) NearestReliable(id int) (int, error) {
	if !m.Degenerate(id) {
		return id, nil
	}
	best := -1
	bestDist := math.Inf(1)
	for other, c := range m.Centroids {
		if other == id || m.Degenerate(other) {
			continue
		}
		d := sqDist(m.Centroids[id], c)
		if d < bestDist {
			bestDist = d
			best = other
		}
	}
	if best < 0 {
		return 0, fmt.Errorf("cluster %d: no reliable cluster to fall back to", id)
	}
	return best, nil
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
	if m.K != len(m.Centroids) {
		return nil, fmt.Errorf("cluster model %s: k=%d but %d centroids", path, m.K, len(m.Centroids))
	}
	return &m, nil
}

func sqDist(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
