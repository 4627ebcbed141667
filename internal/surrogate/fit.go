package surrogate

import (
	"fmt"
	"log"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"ocr-tuner/internal/filter"
)

// Sample pairs a quality feature vector with an optimal genome found by the
// genetic search for that feature regime.
type Sample struct {
	Features []float64     `json:"features"`
	Genome   filter.Genome `json:"genome"`
}

// Fit fits one polynomial regression per genome parameter from quality
// features to optimal parameter values, validates each with leave-one-out
// cross-validation, and records the trusted feature bounds.
//
// Sample counts are typically small, so if the requested degree leaves
// fewer samples than coefficients the degree is reduced rather than
// failing. Parameters whose cross-validated R² falls below cvThreshold are
// reported as unusable, never as an error: production must serve them via
// lookup.
func Fit(samples []Sample, degree int, cvThreshold float64) (*Model, error) {
	if len(samples) < 3 {
		return nil, fmt.Errorf("surrogate: need at least 3 samples, got %d", len(samples))
	}
	if cvThreshold <= 0 {
		cvThreshold = DefaultCVThreshold
	}

	family := samples[0].Genome.Family
	specs, err := filter.Specs(family)
	if err != nil {
		return nil, fmt.Errorf("surrogate: %w", err)
	}
	dims := len(samples[0].Features)
	for _, s := range samples {
		if s.Genome.Family != family {
			return nil, fmt.Errorf("surrogate: mixed filter families %s and %s", family, s.Genome.Family)
		}
		if len(s.Features) != dims {
			return nil, fmt.Errorf("surrogate: inconsistent feature dimensions")
		}
	}

	// Reduce the degree until the system is overdetermined.
	for degree > 1 && len(polyTerms(dims, degree)) >= len(samples) {
		log.Printf("surrogate: %d samples cannot support degree %d, reducing to %d",
			len(samples), degree, degree-1)
		degree--
	}
	terms := polyTerms(dims, degree)
	if len(terms) >= len(samples) {
		// Even degree 1 needs dims+1 coefficients plus one sample of slack
		// for leave-one-out folds.
		return nil, fmt.Errorf("surrogate: %d samples cannot fit %d features, need at least %d",
			len(samples), dims, len(terms)+1)
	}

	m := &Model{
		Family:      family,
		Degree:      degree,
		CVThreshold: cvThreshold,
		Params:      make([]ParamFit, len(specs)),
	}
	m.FeatureMin, m.FeatureMax = featureBounds(samples)

	X := designMatrix(samples, terms)
	for p, spec := range specs {
		y := make([]float64, len(samples))
		for i, s := range samples {
			y[i] = s.Genome.Params[p]
		}

		fit, err := fitParam(X, y, terms, len(samples))
		if err != nil {
			return nil, fmt.Errorf("surrogate: param %s: %w", spec.Name, err)
		}
		fit.Name = spec.Name
		fit.Usable = fit.CVScore >= cvThreshold
		m.Params[p] = fit
	}
	return m, nil
}

func featureBounds(samples []Sample) (lo, hi []float64) {
	dims := len(samples[0].Features)
	lo = make([]float64, dims)
	hi = make([]float64, dims)
	copy(lo, samples[0].Features)
	copy(hi, samples[0].Features)
	for _, s := range samples[1:] {
		for d, v := range s.Features {
			lo[d] = math.Min(lo[d], v)
			hi[d] = math.Max(hi[d], v)
		}
	}
	return lo, hi
}

func designMatrix(samples []Sample, terms [][]int) *mat.Dense {
	X := mat.NewDense(len(samples), len(terms), nil)
	for i, s := range samples {
		X.SetRow(i, expand(s.Features, terms))
	}
	return X
}

// fitParam solves the least-squares system for one output parameter and
// computes training R², LOOCV R², and LOOCV MAE.
func fitParam(X *mat.Dense, y []float64, terms [][]int, n int) (ParamFit, error) {
	coeffs, err := solveLS(X, y)
	if err != nil {
		return ParamFit{}, err
	}

	// Training R² over the full fit.
	predicted := make([]float64, n)
	for i := 0; i < n; i++ {
		predicted[i] = dot(mat.Row(nil, i, X), coeffs)
	}
	r2 := rSquared(y, predicted)

	// Leave-one-out predictions.
	looPred := make([]float64, n)
	rows, cols := X.Dims()
	for hold := 0; hold < n; hold++ {
		sub := mat.NewDense(rows-1, cols, nil)
		subY := make([]float64, 0, rows-1)
		r := 0
		for i := 0; i < rows; i++ {
			if i == hold {
				continue
			}
			sub.SetRow(r, mat.Row(nil, i, X))
			subY = append(subY, y[i])
			r++
		}
		c, err := solveLS(sub, subY)
		if err != nil {
			// A singular leave-one-out subsystem means this sample was
			// load-bearing; score the fold as a miss with the mean.
			looPred[hold] = stat.Mean(subY, nil)
			continue
		}
		looPred[hold] = dot(mat.Row(nil, hold, X), c)
	}

	mae := 0.0
	for i := range y {
		mae += math.Abs(y[i] - looPred[i])
	}
	mae /= float64(n)

	return ParamFit{
		Coefficients: coeffs,
		R2:           r2,
		CVScore:      rSquared(y, looPred),
		MAE:          mae,
	}, nil
}

// solveLS solves the overdetermined system X*c = y by QR decomposition.
// Underdetermined systems are an error, not a panic inside gonum.
func solveLS(X *mat.Dense, y []float64) ([]float64, error) {
	rows, cols := X.Dims()
	if rows < cols {
		return nil, fmt.Errorf("underdetermined system: %d equations, %d unknowns", rows, cols)
	}

	var qr mat.QR
	qr.Factorize(X)

	b := mat.NewVecDense(len(y), y)
	var c mat.VecDense
	if err := qr.SolveVecTo(&c, false, b); err != nil {
		return nil, err
	}

	out := make([]float64, cols)
	for i := range out {
		out[i] = c.AtVec(i)
	}
	return out, nil
}

// rSquared is the coefficient of determination of predictions against
// observations. A constant target with zero residual scores 1, otherwise 0.
func rSquared(observed, predicted []float64) float64 {
	mean := stat.Mean(observed, nil)
	ssRes, ssTot := 0.0, 0.0
	for i := range observed {
		d := observed[i] - predicted[i]
		ssRes += d * d
		t := observed[i] - mean
		ssTot += t * t
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
