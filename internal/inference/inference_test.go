package inference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocr-tuner/internal/cluster"
	"ocr-tuner/internal/filter"
	"ocr-tuner/internal/pareto"
	"ocr-tuner/internal/quality"
	"ocr-tuner/internal/surrogate"
)

// testClusters builds a two-cluster model split on blur alone: cluster 0 is
// reliable, cluster 1 is degenerate with a single member.
func testClusters() *cluster.Model {
	return &cluster.Model{
		K:           2,
		ScalerMean:  make([]float64, 5),
		ScalerScale: []float64{1, 1, 1, 1, 1},
		Centroids: [][]float64{
			{2, 0, 0, 0, 0},
			{50, 0, 0, 0, 0},
		},
		MemberCounts: []int{8, 1},
	}
}

func testReps(t *testing.T) map[int]pareto.Solution {
	t.Helper()
	g := filter.Genome{Family: filter.FamilyBasic, Params: []float64{2.0, 5}}
	require.NoError(t, filter.Validate(g))
	return map[int]pareto.Solution{
		0: pareto.NewSolution(0, g, []float64{10, 20}),
	}
}

// testSurrogate predicts constants: contrast 1.5, median window 3. The
// trusted blur range is [0, 10].
func testSurrogate() *surrogate.Model {
	return &surrogate.Model{
		Family:      filter.FamilyBasic,
		Degree:      1,
		CVThreshold: surrogate.DefaultCVThreshold,
		Params: []surrogate.ParamFit{
			{Name: "contrast_factor", Coefficients: []float64{1.5, 0, 0, 0, 0, 0}, CVScore: 0.9, Usable: true},
			{Name: "median_window", Coefficients: []float64{3, 0, 0, 0, 0, 0}, CVScore: 0.7, Usable: true},
		},
		FeatureMin: []float64{0, 0, 0, 0, 0},
		FeatureMax: []float64{10, 0, 0, 0, 0},
	}
}

func TestInferPolynomialInDomain(t *testing.T) {
	e, err := New(testClusters(), testSurrogate(), testReps(t))
	require.NoError(t, err)

	res, err := e.Infer(quality.Profile{Blur: 4})
	require.NoError(t, err)

	assert.Equal(t, MethodPolynomial, res.Method)
	assert.False(t, res.UsedFallback)
	assert.Empty(t, res.SubstitutedParams)
	assert.Equal(t, []float64{1.5, 3}, res.Genome.Params)
	assert.InDelta(t, 0.8, res.Confidence, 1e-9, "mean cross-validation score of usable params")
}

func TestInferOutOfDomainFallsBackToLookup(t *testing.T) {
	e, err := New(testClusters(), testSurrogate(), testReps(t))
	require.NoError(t, err)

	// Blur 9000 is far outside the trusted training range.
	res, err := e.Infer(quality.Profile{Blur: 9000})
	require.NoError(t, err)

	assert.Equal(t, MethodLookup, res.Method)
	assert.True(t, res.UsedFallback, "extrapolation must be refused and recorded")
	assert.Equal(t, []float64{2.0, 5}, res.Genome.Params, "served from the cluster representative")
}

func TestInferNoUsableParamsFallsBackToLookup(t *testing.T) {
	sur := testSurrogate()
	sur.Params[0].Usable = false
	sur.Params[1].Usable = false

	e, err := New(testClusters(), sur, testReps(t))
	require.NoError(t, err)

	res, err := e.Infer(quality.Profile{Blur: 4})
	require.NoError(t, err)
	assert.Equal(t, MethodLookup, res.Method)
	assert.True(t, res.UsedFallback)
}

func TestInferSubstitutesFailedParameter(t *testing.T) {
	sur := testSurrogate()
	sur.Params[1].Usable = false

	e, err := New(testClusters(), sur, testReps(t))
	require.NoError(t, err)

	res, err := e.Infer(quality.Profile{Blur: 4})
	require.NoError(t, err)

	assert.Equal(t, MethodPolynomial, res.Method)
	assert.Equal(t, 1.5, res.Genome.Params[0], "usable param served from the polynomial")
	assert.Equal(t, 5.0, res.Genome.Params[1], "failed param served from the representative")
	assert.Equal(t, []string{"median_window"}, res.SubstitutedParams)
}

func TestInferWithoutSurrogateUsesLookup(t *testing.T) {
	e, err := New(testClusters(), nil, testReps(t))
	require.NoError(t, err)

	res, err := e.Infer(quality.Profile{Blur: 4})
	require.NoError(t, err)

	assert.Equal(t, MethodLookup, res.Method)
	assert.False(t, res.UsedFallback, "plain lookup is the primary path, not a fallback")
	assert.Equal(t, 0, res.ClusterID)
	assert.InDelta(t, 0.8, res.Confidence, 1e-9)
}

func TestInferDegenerateClusterServedByNeighbour(t *testing.T) {
	e, err := New(testClusters(), nil, testReps(t))
	require.NoError(t, err)

	// Assigns to the single-member cluster 1, which cannot serve itself.
	res, err := e.Infer(quality.Profile{Blur: 49})
	require.NoError(t, err)

	assert.Equal(t, MethodLookup, res.Method)
	assert.Equal(t, 0, res.ClusterID, "served by the nearest reliable cluster")
	assert.InDelta(t, 0.5, res.Confidence, 1e-9, "neighbour serving is lower confidence")
}

func TestNewRequiresRepresentatives(t *testing.T) {
	_, err := New(testClusters(), nil, map[int]pareto.Solution{})
	assert.Error(t, err, "a reliable cluster with no representative is a config error")

	_, err = New(nil, nil, testReps(t))
	assert.Error(t, err)
}

func TestBestAggregate(t *testing.T) {
	g := filter.Genome{Family: filter.FamilyBasic, Params: []float64{1, 1}}
	front := &pareto.Front{
		ClusterID: 0,
		Family:    filter.FamilyBasic,
		Solutions: []pareto.Solution{
			pareto.NewSolution(0, g, []float64{5, 1}),
			pareto.NewSolution(1, g, []float64{2, 3}),
			pareto.NewSolution(2, g, []float64{3, 2}),
		},
	}

	best, err := BestAggregate(front)
	require.NoError(t, err)
	assert.Equal(t, 1, best.ID, "lowest sum wins, ties to lowest id")

	_, err = BestAggregate(&pareto.Front{ClusterID: 3})
	assert.Error(t, err)
}
