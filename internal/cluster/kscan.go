package cluster

import (
	"fmt"
	"math"
	"math/rand"

	"ocr-tuner/internal/quality"
)

// KStats summarizes one candidate k for the offline elbow/silhouette
// heuristic that picks k ahead of the fitting hot path.
type KStats struct {
	K          int     `json:"k"`
	WCSS       float64 `json:"wcss"`
	Silhouette float64 `json:"silhouette"`
}

// ScanK fits a model for each k in [minK, maxK] and reports within-cluster
// sum of squares and mean silhouette. Each fit draws from the same rng
// sequence, so a fixed seed reproduces the scan.
func ScanK(profiles []quality.Profile, minK, maxK int, rng *rand.Rand) ([]KStats, error) {
	if minK < 1 || maxK < minK {
		return nil, fmt.Errorf("scan-k: bad range [%d, %d]", minK, maxK)
	}

	var stats []KStats
	for k := minK; k <= maxK; k++ {
		if len(profiles) < 2*k {
			break
		}
		m, err := Fit(profiles, k, rng)
		if err != nil {
			return nil, fmt.Errorf("scan-k: k=%d: %w", k, err)
		}

		std := make([][]float64, len(profiles))
		assignments := make([]int, len(profiles))
		for i, p := range profiles {
			std[i] = m.Standardize(p.Vector())
			assignments[i] = m.Assign(p)
		}

		stats = append(stats, KStats{
			K:          k,
			WCSS:       wcss(std, assignments, m.Centroids),
			Silhouette: meanSilhouette(std, assignments, k),
		})
	}
	return stats, nil
}

func wcss(points [][]float64, assignments []int, centroids [][]float64) float64 {
	sum := 0.0
	for i, pt := range points {
		sum += sqDist(pt, centroids[assignments[i]])
	}
	return sum
}

// meanSilhouette computes the mean silhouette coefficient. Singleton
// clusters contribute zero; k=1 is defined as zero.
func meanSilhouette(points [][]float64, assignments []int, k int) float64 {
	if k < 2 {
		return 0
	}

	total := 0.0
	for i, pt := range points {
		own := assignments[i]

		// Mean distance to own cluster (a) and to the nearest other
		// cluster (b).
		sums := make([]float64, k)
		counts := make([]int, k)
		for j, other := range points {
			if j == i {
				continue
			}
			sums[assignments[j]] += math.Sqrt(sqDist(pt, other))
			counts[assignments[j]]++
		}

		if counts[own] == 0 {
			continue
		}
		a := sums[own] / float64(counts[own])

		b := math.Inf(1)
		for c := 0; c < k; c++ {
			if c == own || counts[c] == 0 {
				continue
			}
			if mean := sums[c] / float64(counts[c]); mean < b {
				b = mean
			}
		}
		if math.IsInf(b, 1) {
			continue
		}

		if m := math.Max(a, b); m > 0 {
			total += (b - a) / m
		}
	}
	return total / float64(len(points))
}
