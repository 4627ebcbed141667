package cluster

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"

	"ocr-tuner/internal/quality"
)

// maxIterations caps Lloyd iterations; fits on quality profiles converge in
// far fewer.
const maxIterations = 300

// Fit standardizes the clustering features of the given profiles and runs
// K-means with k-means++ seeding. Randomness comes only from the supplied
// rng, so a fixed seed reproduces the fit exactly.
func Fit(profiles []quality.Profile, k int, rng *rand.Rand) (*Model, error) {
	if k < 1 {
		return nil, fmt.Errorf("kmeans: k must be >= 1, got %d", k)
	}
	if len(profiles) < 2*k {
		return nil, fmt.Errorf("kmeans: need at least %d profiles for k=%d, got %d",
			2*k, k, len(profiles))
	}

	points := make([][]float64, len(profiles))
	for i, p := range profiles {
		points[i] = p.Vector()
	}

	m := &Model{K: k}
	m.fitScaler(points)

	std := make([][]float64, len(points))
	for i, pt := range points {
		std[i] = m.Standardize(pt)
	}

	centroids := seedPlusPlus(std, k, rng)
	assignments := make([]int, len(std))

	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for i, pt := range std {
			best, bestDist := 0, math.Inf(1)
			for id, c := range centroids {
				if d := sqDist(pt, c); d < bestDist {
					bestDist = d
					best = id
				}
			}
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}
		recomputeCentroids(std, assignments, centroids)
	}

	m.Centroids = centroids
	m.MemberCounts = make([]int, k)
	for _, a := range assignments {
		m.MemberCounts[a]++
	}
	return m, nil
}

// fitScaler records per-feature mean and standard deviation. Constant
// features get unit scale so standardization stays finite.
func (m *Model) fitScaler(points [][]float64) {
	dims := quality.FeatureCount
	m.ScalerMean = make([]float64, dims)
	m.ScalerScale = make([]float64, dims)

	col := make([]float64, len(points))
	for d := 0; d < dims; d++ {
		for i, pt := range points {
			col[i] = pt[d]
		}
		m.ScalerMean[d] = stat.Mean(col, nil)
		scale := stat.StdDev(col, nil)
		if scale == 0 || math.IsNaN(scale) {
			scale = 1
		}
		m.ScalerScale[d] = scale
	}
}

// seedPlusPlus picks initial centroids with k-means++ weighting: each new
// seed is drawn proportionally to squared distance from the nearest
// already-chosen seed.
func seedPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	first := points[rng.Intn(len(points))]
	centroids = append(centroids, cloneVec(first))

	dists := make([]float64, len(points))
	for len(centroids) < k {
		total := 0.0
		for i, pt := range points {
			d := math.Inf(1)
			for _, c := range centroids {
				if sd := sqDist(pt, c); sd < d {
					d = sd
				}
			}
			dists[i] = d
			total += d
		}

		if total == 0 {
			// All points coincide with existing seeds.
			centroids = append(centroids, cloneVec(points[rng.Intn(len(points))]))
			continue
		}

		target := rng.Float64() * total
		acc := 0.0
		chosen := len(points) - 1
		for i, d := range dists {
			acc += d
			if acc >= target {
				chosen = i
				break
			}
		}
		centroids = append(centroids, cloneVec(points[chosen]))
	}
	return centroids
}

// recomputeCentroids moves each centroid to the mean of its members.
// An emptied cluster is reseeded to the point farthest from its nearest
// centroid.
func recomputeCentroids(points [][]float64, assignments []int, centroids [][]float64) {
	dims := len(centroids[0])
	counts := make([]int, len(centroids))
	sums := make([][]float64, len(centroids))
	for i := range sums {
		sums[i] = make([]float64, dims)
	}

	for i, pt := range points {
		a := assignments[i]
		counts[a]++
		for d, v := range pt {
			sums[a][d] += v
		}
	}

	for id := range centroids {
		if counts[id] == 0 {
			centroids[id] = cloneVec(farthestPoint(points, centroids))
			continue
		}
		for d := 0; d < dims; d++ {
			centroids[id][d] = sums[id][d] / float64(counts[id])
		}
	}
}

func farthestPoint(points [][]float64, centroids [][]float64) []float64 {
	best := points[0]
	bestDist := -1.0
	for _, pt := range points {
		d := math.Inf(1)
		for _, c := range centroids {
			if sd := sqDist(pt, c); sd < d {
				d = sd
			}
		}
		if d > bestDist {
			bestDist = d
			best = pt
		}
	}
	return best
}

func cloneVec(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
