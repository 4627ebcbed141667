// Package inference is the production serving path: given a new image it
// extracts quality features, chooses between discrete cluster lookup and
// continuous polynomial interpolation, and applies the resulting filter.
//
// The dual path exists because polynomial extrapolation outside the
// training range is unreliable, while lookup is always safe but coarser.
package inference

import (
	"fmt"

	"gocv.io/x/gocv"

	"ocr-tuner/internal/cluster"
	"ocr-tuner/internal/filter"
	"ocr-tuner/internal/pareto"
	"ocr-tuner/internal/quality"
	"ocr-tuner/internal/surrogate"
)

// Methods recorded in a Result.
const (
	MethodLookup     = "lookup"
	MethodPolynomial = "polynomial"
)

// Lookup-path confidence levels.
const (
	confidenceLookup     = 0.8
	confidenceDegenerate = 0.5
)

// Result records how a genome was chosen for one inference call.
// Results are per-call values and never shared state.
type Result struct {
	Method       string        `json:"method"`
	ClusterID    int           `json:"cluster_id"`
	Genome       filter.Genome `json:"genome"`
	Confidence   float64       `json:"confidence"`
	UsedFallback bool          `json:"used_fallback"`

	// SubstitutedParams names parameters that failed surrogate validation
	// and were served from the cluster representative instead.
	SubstitutedParams []string `json:"substituted_params,omitempty"`
}

// Engine serves filter genomes for new images. All model fields are
// read-only artifacts; one Engine may be shared across concurrent calls.
type Engine struct {
	clusters  *cluster.Model
	surrogate *surrogate.Model // nil when no surrogate was fitted
	reps      map[int]pareto.Solution
}

// New creates an engine from loaded artifacts. The surrogate may be nil,
// in which case every call takes the lookup path. Each reliable cluster
// must have a representative solution.
func New(clusters *cluster.Model, sur *surrogate.Model, reps map[int]pareto.Solution) (*Engine, error) {
	if clusters == nil {
		return nil, fmt.Errorf("inference: cluster model is required")
	}
	for id := 0; id < clusters.K; id++ {
		if clusters.Degenerate(id) {
			continue
		}
		if _, ok := reps[id]; !ok {
			return nil, fmt.Errorf("inference: no representative genome for cluster %d", id)
		}
	}
	return &Engine{clusters: clusters, surrogate: sur, reps: reps}, nil
}

// Infer picks the genome for a profile and reports which path served it.
func (e *Engine) Infer(p quality.Profile) (Result, error) {
	clusterID := e.clusters.Assign(p)

	if e.surrogate != nil {
		features := p.Vector()
		if e.surrogate.InDomain(features) && e.surrogate.UsableCount() > 0 {
			return e.inferPolynomial(features, clusterID)
		}
		// OutOfDomainPrediction (or nothing validated): force lookup.
		res, err := e.lookup(clusterID)
		if err != nil {
			return Result{}, err
		}
		res.UsedFallback = true
		return res, nil
	}

	return e.lookup(clusterID)
}

// inferPolynomial serves the continuous interpolation path, substituting
// parameters that failed validation from the cluster representative
// (LowConfidenceParameter policy).
func (e *Engine) inferPolynomial(features []float64, clusterID int) (Result, error) {
	values, usable, err := e.surrogate.Predict(features)
	if err != nil {
		return Result{}, fmt.Errorf("inference: predict: %w", err)
	}

	specs, err := filter.Specs(e.surrogate.Family)
	if err != nil {
		return Result{}, err
	}

	var substituted []string
	allUsable := true
	for _, u := range usable {
		if !u {
			allUsable = false
			break
		}
	}
	if !allUsable {
		rep, err := e.representative(clusterID)
		if err != nil {
			return Result{}, err
		}
		for i, u := range usable {
			if u {
				continue
			}
			values[i] = rep.Genome.Params[i]
			substituted = append(substituted, specs[i].Name)
		}
	}

	genome := filter.Genome{Family: e.surrogate.Family, Params: values}
	if err := filter.Validate(genome); err != nil {
		return Result{}, fmt.Errorf("inference: predicted genome: %w", err)
	}

	return Result{
		Method:            MethodPolynomial,
		ClusterID:         clusterID,
		Genome:            genome,
		Confidence:        e.meanUsableCV(),
		SubstitutedParams: substituted,
	}, nil
}

// lookup serves the discrete path: the representative best-aggregate genome
// of the nearest reliable cluster.
func (e *Engine) lookup(clusterID int) (Result, error) {
	confidence := confidenceLookup
	served, err := e.clusters.NearestReliable(clusterID)
	if err != nil {
		return Result{}, fmt.Errorf("inference: %w", err)
	}
	if served != clusterID {
		// DegenerateCluster: served by the nearest reliable neighbour.
		confidence = confidenceDegenerate
	}

	rep, ok := e.reps[served]
	if !ok {
		return Result{}, fmt.Errorf("inference: no representative genome for cluster %d", served)
	}

	return Result{
		Method:     MethodLookup,
		ClusterID:  served,
		Genome:     rep.Genome.Clone(),
		Confidence: confidence,
	}, nil
}

func (e *Engine) representative(clusterID int) (pareto.Solution, error) {
	served, err := e.clusters.NearestReliable(clusterID)
	if err != nil {
		return pareto.Solution{}, fmt.Errorf("inference: %w", err)
	}
	rep, ok := e.reps[served]
	if !ok {
		return pareto.Solution{}, fmt.Errorf("inference: no representative genome for cluster %d", served)
	}
	return rep, nil
}

func (e *Engine) meanUsableCV() float64 {
	sum, n := 0.0, 0
	for _, p := range e.surrogate.Params {
		if p.Usable {
			sum += p.CVScore
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Enhance runs the full serving path on a grayscale image: extract
// features, choose a genome, apply its filter. The caller owns the
// returned mat and must close it.
func (e *Engine) Enhance(img gocv.Mat, imageID string) (gocv.Mat, Result, error) {
	profile, err := quality.Extract(img, imageID)
	if err != nil {
		return gocv.NewMat(), Result{}, err
	}

	res, err := e.Infer(profile)
	if err != nil {
		return gocv.NewMat(), Result{}, err
	}

	enhanced, err := filter.Apply(img, res.Genome)
	if err != nil {
		return gocv.NewMat(), Result{}, fmt.Errorf("inference: apply: %w", err)
	}
	return enhanced, res, nil
}

// BestAggregate returns the lowest-sum solution of a selected front, the
// representative used for lookup serving.
func BestAggregate(front *pareto.Front) (pareto.Solution, error) {
	if len(front.Solutions) == 0 {
		return pareto.Solution{}, fmt.Errorf("inference: cluster %d front is empty", front.ClusterID)
	}
	best := front.Solutions[0]
	for _, s := range front.Solutions[1:] {
		if s.Sum < best.Sum || (s.Sum == best.Sum && s.ID < best.ID) {
			best = s
		}
	}
	return best, nil
}
