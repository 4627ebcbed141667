package filter

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpecsKnownFamilies(t *testing.T) {
	adv, err := Specs(FamilyAdvanced)
	require.NoError(t, err)
	assert.Len(t, adv, advParamCount)

	basic, err := Specs(FamilyBasic)
	require.NoError(t, err)
	assert.Len(t, basic, basicParamCount)

	_, err = Specs(Family("sepia"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		genome  Genome
		wantErr bool
	}{
		{
			name:   "valid basic",
			genome: Genome{Family: FamilyBasic, Params: []float64{1.5, 3}},
		},
		{
			name:    "wrong param count",
			genome:  Genome{Family: FamilyBasic, Params: []float64{1.5}},
			wantErr: true,
		},
		{
			name:    "out of range",
			genome:  Genome{Family: FamilyBasic, Params: []float64{9.0, 3}},
			wantErr: true,
		},
		{
			name:    "even kernel",
			genome:  Genome{Family: FamilyBasic, Params: []float64{1.5, 4}},
			wantErr: true,
		},
		{
			name:    "fractional integer gene",
			genome:  Genome{Family: FamilyBasic, Params: []float64{1.5, 3.5}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.genome)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestClampRepairsGenes(t *testing.T) {
	g := Genome{Family: FamilyAdvanced, Params: []float64{
		-5,   // denoise below min
		12,   // clahe above max
		6.4,  // diameter rounds to 6, parity-corrects to 7
		80,   // in range
		200,  // above max
		1.5,  // in range
		8.7,  // rounds to 9 (odd, at max)
		25.9, // rounds to 26, clips to 25
	}}
	require.NoError(t, Clamp(&g))
	require.NoError(t, Validate(g))

	assert.Equal(t, 0.0, g.Params[AdvDenoiseStrength])
	assert.Equal(t, 8.0, g.Params[AdvClaheClip])
	assert.Equal(t, 7.0, g.Params[AdvSmoothDiameter])
	assert.Equal(t, 150.0, g.Params[AdvSigmaSpace])
	assert.Equal(t, 9.0, g.Params[AdvSharpenRadius])
	assert.Equal(t, 25.0, g.Params[AdvScanlineKernel])
}

func TestClampOddAtRangeEdges(t *testing.T) {
	// Clipping to an even bound must restore parity without leaving range.
	g := Genome{Family: FamilyBasic, Params: []float64{1.0, 40}}
	require.NoError(t, Clamp(&g))
	assert.Equal(t, 9.0, g.Params[BasicMedianWindow])

	g = Genome{Family: FamilyBasic, Params: []float64{1.0, -3}}
	require.NoError(t, Clamp(&g))
	assert.Equal(t, 1.0, g.Params[BasicMedianWindow])
}

func TestIdentityIsValid(t *testing.T) {
	for _, f := range []Family{FamilyAdvanced, FamilyBasic} {
		g, err := Identity(f)
		require.NoError(t, err)
		assert.NoError(t, Validate(g), "identity genome for %s", f)
	}
}

func TestRandomGenomesAreValid(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 100; i++ {
		g, err := Random(FamilyAdvanced, rng)
		require.NoError(t, err)
		assert.NoError(t, Validate(g))
	}
}

func TestCloneAndEqual(t *testing.T) {
	g, err := Identity(FamilyBasic)
	require.NoError(t, err)

	c := g.Clone()
	assert.True(t, g.Equal(c))

	c.Params[0] = 2.0
	assert.False(t, g.Equal(c), "clone must not share backing storage")
}
