package cluster

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocr-tuner/internal/quality"
)

// blobProfiles generates two well-separated degradation regimes.
func blobProfiles(n int, rng *rand.Rand) []quality.Profile {
	profiles := make([]quality.Profile, 0, 2*n)
	for i := 0; i < n; i++ {
		profiles = append(profiles, quality.Profile{
			ImageID:    fmt.Sprintf("clean%d", i),
			Blur:       500 + rng.Float64()*50,
			Noise:      5 + rng.Float64(),
			Contrast:   60 + rng.Float64()*5,
			Brightness: 180 + rng.Float64()*10,
			Entropy:    7 + rng.Float64()*0.2,
		})
		profiles = append(profiles, quality.Profile{
			ImageID:    fmt.Sprintf("harsh%d", i),
			Blur:       20 + rng.Float64()*10,
			Noise:      40 + rng.Float64()*5,
			Contrast:   15 + rng.Float64()*3,
			Brightness: 90 + rng.Float64()*10,
			Entropy:    4 + rng.Float64()*0.2,
		})
	}
	return profiles
}

func TestFitSeparatesRegimes(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	profiles := blobProfiles(10, rng)

	m, err := Fit(profiles, 2, rng)
	require.NoError(t, err)
	require.Equal(t, 2, m.K)
	require.Len(t, m.Centroids, 2)

	// Every profile maps to exactly one id in [0, k), stable across calls.
	cleanID := m.Assign(profiles[0])
	harshID := m.Assign(profiles[1])
	assert.NotEqual(t, cleanID, harshID, "separated blobs must land in different clusters")

	for _, p := range profiles {
		id := m.Assign(p)
		assert.GreaterOrEqual(t, id, 0)
		assert.Less(t, id, m.K)
		assert.Equal(t, id, m.Assign(p), "re-assignment must be stable")
	}

	total := 0
	for _, c := range m.MemberCounts {
		total += c
	}
	assert.Equal(t, len(profiles), total)
}

func TestFitSingleCluster(t *testing.T) {
	// The documented single-cluster finding: k=1 places everything in
	// cluster 0.
	rng := rand.New(rand.NewSource(1))
	profiles := blobProfiles(10, rng)
	require.Len(t, profiles, 20)

	m, err := Fit(profiles, 1, rng)
	require.NoError(t, err)

	for _, p := range profiles {
		assert.Equal(t, 0, m.Assign(p))
	}
	assert.Equal(t, []int{20}, m.MemberCounts)
}

func TestFitRejectsTooFewProfiles(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	profiles := blobProfiles(1, rng) // 2 profiles

	_, err := Fit(profiles, 2, rng)
	assert.Error(t, err)
}

func TestFitDeterministicForSeed(t *testing.T) {
	profiles := blobProfiles(8, rand.New(rand.NewSource(9)))

	a, err := Fit(profiles, 2, rand.New(rand.NewSource(5)))
	require.NoError(t, err)
	b, err := Fit(profiles, 2, rand.New(rand.NewSource(5)))
	require.NoError(t, err)

	assert.Equal(t, a.Centroids, b.Centroids)
	assert.Equal(t, a.MemberCounts, b.MemberCounts)
}

func TestAssignTieBreaksToLowestID(t *testing.T) {
	m := &Model{
		K:           2,
		ScalerMean:  make([]float64, 5),
		ScalerScale: []float64{1, 1, 1, 1, 1},
		Centroids: [][]float64{
			{1, 0, 0, 0, 0},
			{-1, 0, 0, 0, 0},
		},
		MemberCounts: []int{3, 3},
	}
	// Equidistant from both centroids.
	p := quality.Profile{Blur: 0}
	assert.Equal(t, 0, m.Assign(p))
}

func TestNearestReliable(t *testing.T) {
	m := &Model{
		K:           3,
		ScalerMean:  make([]float64, 5),
		ScalerScale: []float64{1, 1, 1, 1, 1},
		Centroids: [][]float64{
			{0, 0, 0, 0, 0},
			{1, 0, 0, 0, 0},
			{10, 0, 0, 0, 0},
		},
		MemberCounts: []int{5, 1, 4},
	}

	assert.False(t, m.Degenerate(0))
	assert.True(t, m.Degenerate(1), "a single-member cluster is unreliable")

	// Reliable clusters serve themselves.
	id, err := m.NearestReliable(0)
	require.NoError(t, err)
	assert.Equal(t, 0, id)

	// The degenerate cluster falls back to its nearest reliable neighbour.
	id, err = m.NearestReliable(1)
	require.NoError(t, err)
	assert.Equal(t, 0, id)
}

func TestModelSaveLoadRoundtrip(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	profiles := blobProfiles(6, rng)
	m, err := Fit(profiles, 2, rng)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "cluster_model.json")
	require.NoError(t, m.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, m.Centroids, loaded.Centroids)
	assert.Equal(t, m.ScalerMean, loaded.ScalerMean)
	assert.Equal(t, m.ScalerScale, loaded.ScalerScale)
	assert.Equal(t, m.MemberCounts, loaded.MemberCounts)

	for _, p := range profiles {
		assert.Equal(t, m.Assign(p), loaded.Assign(p), "loaded model must assign identically")
	}
}

func TestAssignmentsRoundtrip(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	profiles := blobProfiles(5, rng)
	m, err := Fit(profiles, 2, rng)
	require.NoError(t, err)

	a := m.AssignAll(profiles)
	require.Len(t, a, len(profiles))

	path := filepath.Join(t.TempDir(), "assignments.json")
	require.NoError(t, a.Save(path))
	loaded, err := LoadAssignments(path)
	require.NoError(t, err)
	assert.Equal(t, a, loaded)

	members := loaded.Members(m.Assign(profiles[0]))
	assert.Contains(t, members, profiles[0].ImageID)
}

func TestScanK(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	profiles := blobProfiles(10, rng)

	stats, err := ScanK(profiles, 1, 3, rng)
	require.NoError(t, err)
	require.Len(t, stats, 3)

	assert.Zero(t, stats[0].Silhouette, "silhouette is undefined at k=1")
	assert.Greater(t, stats[0].WCSS, stats[1].WCSS, "WCSS must drop when splitting two real blobs")
	assert.Greater(t, stats[1].Silhouette, 0.5, "true k should silhouette well")
}
