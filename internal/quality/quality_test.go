package quality

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

// testMat builds a grayscale mat from a deterministic pseudo-random fill.
func testMat(t *testing.T, rows, cols int, seed int64) gocv.Mat {
	t.Helper()
	m := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV8UC1)
	rng := rand.New(rand.NewSource(seed))
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			m.SetUCharAt(y, x, uint8(rng.Intn(256)))
		}
	}
	return m
}

func flatMat(t *testing.T, rows, cols int, value uint8) gocv.Mat {
	t.Helper()
	m := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV8UC1)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			m.SetUCharAt(y, x, value)
		}
	}
	return m
}

func TestExtractDeterministic(t *testing.T) {
	a := testMat(t, 64, 48, 7)
	defer a.Close()
	b := testMat(t, 64, 48, 7)
	defer b.Close()

	pa, err := Extract(a, "img")
	require.NoError(t, err)
	pb, err := Extract(b, "img")
	require.NoError(t, err)

	assert.Equal(t, pa, pb, "identical pixel content must yield identical profiles")
}

func TestExtractFlatImage(t *testing.T) {
	m := flatMat(t, 32, 32, 200)
	defer m.Close()

	p, err := Extract(m, "flat")
	require.NoError(t, err)

	assert.Zero(t, p.Blur, "flat image has no second-derivative response")
	assert.Zero(t, p.Contrast)
	assert.InDelta(t, 200, p.Brightness, 1e-9)
	assert.Zero(t, p.Entropy, "single-intensity histogram has zero entropy")
	assert.Zero(t, p.EdgeDensity)
	assert.Equal(t, 32, p.Width)
	assert.Equal(t, 32, p.Height)
}

func TestExtractInvalidImage(t *testing.T) {
	empty := gocv.NewMat()
	defer empty.Close()

	_, err := Extract(empty, "empty")
	require.ErrorIs(t, err, ErrInvalidImage)
}

func TestVectorOrder(t *testing.T) {
	p := Profile{Blur: 1, Noise: 2, Contrast: 3, Brightness: 4, Entropy: 5, EdgeDensity: 6}
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, p.Vector())
	assert.Len(t, FeatureNames(), FeatureCount)
}

func TestMedianAbsDeviation(t *testing.T) {
	assert.Zero(t, medianAbsDeviation([]float64{5, 5, 5, 5}))
	assert.InDelta(t, 1.4826, medianAbsDeviation([]float64{1, 2, 3, 4, 5}), 1e-9)
}
