// Package fitness adapts filter application and the OCR collaborator into
// the objective function driving the genetic optimizer.
package fitness

import (
	"log"
	"sync/atomic"

	"gocv.io/x/gocv"

	"ocr-tuner/internal/filter"
)

// Penalty is the objective value assigned when an evaluation cannot be
// scored: filter failure, OCR failure, or empty OCR output. It is large
// enough to lose every dominance comparison against a real edit count but
// stays finite so sorting and crowding arithmetic remain well-defined.
const Penalty = 1e4

// Oracle produces recognized text for an image.
type Oracle interface {
	Recognize(img gocv.Mat) (string, error)
}

// Fixture pairs one degraded variant of a document with its ground truth.
type Fixture struct {
	DocID string
	Level string
	Image gocv.Mat
	Truth string
}

// Evaluator scores filter genomes: it applies the candidate filter to every
// fixture, runs OCR, and returns one edit-distance objective per
// (document, degradation-level) pair, in fixture order.
type Evaluator struct {
	oracle   Oracle
	fixtures []Fixture

	penalties atomic.Int64
}

// NewEvaluator creates an evaluator over a fixed fixture set.
func NewEvaluator(oracle Oracle, fixtures []Fixture) *Evaluator {
	return &Evaluator{oracle: oracle, fixtures: fixtures}
}

// NumObjectives returns the number of objectives per evaluation.
func (e *Evaluator) NumObjectives() int {
	return len(e.fixtures)
}

// PenaltyCount returns how many objective slots were scored with the
// penalty value, for the end-of-run summary.
func (e *Evaluator) PenaltyCount() int64 {
	return e.penalties.Load()
}

// Evaluate scores a genome. It never returns Inf or NaN: any failed
// filter application or OCR call scores the penalty value for that fixture
// and the run continues.
func (e *Evaluator) Evaluate(g filter.Genome) []float64 {
	objectives := make([]float64, len(e.fixtures))
	for i, fix := range e.fixtures {
		objectives[i] = e.evaluateOne(g, fix)
	}
	return objectives
}

func (e *Evaluator) evaluateOne(g filter.Genome, fix Fixture) float64 {
	enhanced, err := filter.Apply(fix.Image, g)
	if err != nil {
		log.Printf("fitness: %s/%s: filter failed: %v", fix.DocID, fix.Level, err)
		e.penalties.Add(1)
		return Penalty
	}
	defer enhanced.Close()

	text, err := e.oracle.Recognize(enhanced)
	if err != nil || text == "" {
		if err != nil {
			log.Printf("fitness: %s/%s: OCR failed: %v", fix.DocID, fix.Level, err)
		}
		e.penalties.Add(1)
		return Penalty
	}

	return float64(EditDistance(text, fix.Truth))
}
