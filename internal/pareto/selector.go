package pareto

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultSelectionLimit bounds the representative subset handed to
// surrogate fitting.
const DefaultSelectionLimit = 20

// Groups partitions objective indices by degradation severity so selection
// can cover both regimes explicitly.
type Groups struct {
	Light []int `json:"light"`
	Heavy []int `json:"heavy"`
}

// GroupsFromLabels splits objective indices into light and heavy
// degradation groups. Labels are "docID/level"; levels lists the level
// labels from mildest to harshest, and the lower half counts as light.
// A label whose level is not in levels is an error: it means the front
// was optimized against a different corpus than the one supplied.
func GroupsFromLabels(labels []string, levels []string) (Groups, error) {
	rank := make(map[string]int, len(levels))
	for i, l := range levels {
		rank[l] = i
	}
	mid := len(levels) / 2

	var g Groups
	for idx, label := range labels {
		level := label
		if i := strings.LastIndex(label, "/"); i >= 0 {
			level = label[i+1:]
		}
		r, ok := rank[level]
		if !ok {
			return Groups{}, fmt.Errorf("objective %q: unknown degradation level %q", label, level)
		}
		if r < mid {
			g.Light = append(g.Light, idx)
		} else {
			g.Heavy = append(g.Heavy, idx)
		}
	}
	return g, nil
}

// Select reduces a full non-dominated archive to a bounded representative
// subset covering the extremes and the compromise region:
//
//   - the best solution on each individual objective,
//   - the best by light-group sum and by heavy-group sum,
//   - the remainder filled by ascending aggregate sum,
//
// with duplicates avoided by solution id. The input front is not modified.
func Select(sols []Solution, groups Groups, limit int) ([]Solution, error) {
	if len(sols) == 0 {
		return nil, fmt.Errorf("select: empty front")
	}
	if limit <= 0 {
		limit = DefaultSelectionLimit
	}

	seen := make(map[int]bool)
	var picked []Solution
	add := func(s Solution) {
		if len(picked) >= limit || seen[s.ID] {
			return
		}
		seen[s.ID] = true
		picked = append(picked, s)
	}

	// Extremes per severity group.
	add(bestByIndices(sols, groups.Light))
	add(bestByIndices(sols, groups.Heavy))

	// Best performer on each single objective.
	for obj := 0; obj < len(sols[0].Objectives); obj++ {
		add(bestByIndices(sols, []int{obj}))
	}

	// Compromise region: fill by aggregate sum.
	bySum := make([]Solution, len(sols))
	copy(bySum, sols)
	sort.SliceStable(bySum, func(i, j int) bool {
		if bySum[i].Sum != bySum[j].Sum {
			return bySum[i].Sum < bySum[j].Sum
		}
		return bySum[i].ID < bySum[j].ID
	})
	for _, s := range bySum {
		add(s)
	}

	return picked, nil
}

// bestByIndices returns the solution with the lowest summed value over the
// given objective indices; ties break to the lowest id. Empty index sets
// fall back to the full aggregate sum.
func bestByIndices(sols []Solution, indices []int) Solution {
	best := sols[0]
	bestVal := groupSum(best, indices)
	for _, s := range sols[1:] {
		v := groupSum(s, indices)
		if v < bestVal || (v == bestVal && s.ID < best.ID) {
			best = s
			bestVal = v
		}
	}
	return best
}

func groupSum(s Solution, indices []int) float64 {
	if len(indices) == 0 {
		return s.Sum
	}
	sum := 0.0
	for _, i := range indices {
		sum += s.Objectives[i]
	}
	return sum
}
