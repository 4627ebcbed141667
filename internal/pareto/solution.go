// Package pareto holds multi-objective solutions, dominance checks, and the
// representative-subset selection that feeds surrogate fitting.
//
// All objectives are minimized raw edit counts, one per
// (document, degradation-level) pair.
package pareto

import (
	"fmt"

	"ocr-tuner/internal/artifact"
	"ocr-tuner/internal/filter"
)

// Solution is one non-dominated filter genome with its objective vector.
type Solution struct {
	ID         int           `json:"id"`
	Genome     filter.Genome `json:"genome"`
	Objectives []float64     `json:"objectives"`

	// Aggregates derived from Objectives.
	Sum float64 `json:"sum"`
	Min float64 `json:"min"`
}

// NewSolution builds a solution and computes its aggregates.
func NewSolution(id int, g filter.Genome, objectives []float64) Solution {
	s := Solution{ID: id, Genome: g.Clone(), Objectives: append([]float64(nil), objectives...)}
	s.Sum = 0
	s.Min = objectives[0]
	for _, v := range objectives {
		s.Sum += v
		if v < s.Min {
			s.Min = v
		}
	}
	return s
}

// Dominates reports whether a dominates b: a is <= b on every objective and
// strictly < on at least one. Objectives are minimized.
func Dominates(a, b []float64) bool {
	strictly := false
	for i := range a {
		if a[i] > b[i] {
			return false
		}
		if a[i] < b[i] {
			strictly = true
		}
	}
	return strictly
}

// ValidateFront checks that no retained solution is dominated by another
// member and that objective vector lengths agree.
func ValidateFront(sols []Solution) error {
	for i, a := range sols {
		for j, b := range sols {
			if i == j {
				continue
			}
			if len(a.Objectives) != len(b.Objectives) {
				return fmt.Errorf("front: solutions %d and %d have %d vs %d objectives",
					a.ID, b.ID, len(a.Objectives), len(b.Objectives))
			}
			if Dominates(a.Objectives, b.Objectives) {
				return fmt.Errorf("front: solution %d dominates retained solution %d", a.ID, b.ID)
			}
		}
	}
	return nil
}

// Front is the persisted per-cluster archive artifact.
type Front struct {
	ClusterID int           `json:"cluster_id"`
	Family    filter.Family `json:"family"`

	// ObjectiveLabels names each objective as "docID/level", in order.
	ObjectiveLabels []string   `json:"objective_labels"`
	Solutions       []Solution `json:"solutions"`
}

// Save writes the front artifact to a JSON file.
func (f *Front) Save(path string) error {
	return artifact.WriteJSON(path, f)
}

// LoadFront reads a front artifact from a JSON file.
func LoadFront(path string) (*Front, error) {
	var f Front
	if err := artifact.ReadJSON(path, &f); err != nil {
		return nil, err
	}
	return &f, nil
}
