package genetic

import (
	"math"
	"sort"

	"ocr-tuner/internal/pareto"
)

// rankPopulation computes the non-domination rank and crowding distance of
// every individual. Rank 0 is the first (best) front. Unevaluated
// individuals are ranked worst.
func rankPopulation(pop []Individual) (ranks []int, crowding []float64) {
	fronts := nonDominatedSort(pop)

	ranks = make([]int, len(pop))
	crowding = make([]float64, len(pop))
	for r, front := range fronts {
		for _, i := range front {
			ranks[i] = r
		}
		crowdingDistance(pop, front, crowding)
	}
	return ranks, crowding
}

// nonDominatedSort partitions the population into fronts: front 0 is
// non-dominated, front 1 is non-dominated once front 0 is removed, and so
// on (the fast non-dominated sort).
func nonDominatedSort(pop []Individual) [][]int {
	n := len(pop)
	dominatedBy := make([][]int, n) // i dominates dominatedBy[i]
	domCount := make([]int, n)      // number of individuals dominating i

	evaluated := func(i int) bool { return pop[i].Evaluated }

	var first []int
	for i := 0; i < n; i++ {
		if !evaluated(i) {
			domCount[i] = n // sinks to the last front
			continue
		}
		for j := 0; j < n; j++ {
			if i == j || !evaluated(j) {
				continue
			}
			if pareto.Dominates(pop[i].Objectives, pop[j].Objectives) {
				dominatedBy[i] = append(dominatedBy[i], j)
			} else if pareto.Dominates(pop[j].Objectives, pop[i].Objectives) {
				domCount[i]++
			}
		}
		if domCount[i] == 0 {
			first = append(first, i)
		}
	}

	var fronts [][]int
	current := first
	for len(current) > 0 {
		fronts = append(fronts, current)
		var next []int
		for _, i := range current {
			for _, j := range dominatedBy[i] {
				domCount[j]--
				if domCount[j] == 0 {
					next = append(next, j)
				}
			}
		}
		current = next
	}

	// Anything never reached (unevaluated individuals) forms a final front.
	placed := 0
	for _, f := range fronts {
		placed += len(f)
	}
	if placed < n {
		var rest []int
		seen := make([]bool, n)
		for _, f := range fronts {
			for _, i := range f {
				seen[i] = true
			}
		}
		for i := 0; i < n; i++ {
			if !seen[i] {
				rest = append(rest, i)
			}
		}
		fronts = append(fronts, rest)
	}
	return fronts
}

// crowdingDistance fills dist for one front: boundary solutions on each
// objective get infinite distance, interior ones the normalized sum of
// neighbour gaps.
func crowdingDistance(pop []Individual, front []int, dist []float64) {
	if len(front) == 0 {
		return
	}
	if len(front) <= 2 {
		for _, i := range front {
			dist[i] = math.Inf(1)
		}
		return
	}

	numObjectives := len(pop[front[0]].Objectives)
	idx := make([]int, len(front))

	for m := 0; m < numObjectives; m++ {
		copy(idx, front)
		sort.SliceStable(idx, func(a, b int) bool {
			va := pop[idx[a]].Objectives[m]
			vb := pop[idx[b]].Objectives[m]
			if va != vb {
				return va < vb
			}
			return idx[a] < idx[b]
		})

		lo := pop[idx[0]].Objectives[m]
		hi := pop[idx[len(idx)-1]].Objectives[m]
		dist[idx[0]] = math.Inf(1)
		dist[idx[len(idx)-1]] = math.Inf(1)
		if hi == lo {
			continue
		}
		for k := 1; k < len(idx)-1; k++ {
			gap := pop[idx[k+1]].Objectives[m] - pop[idx[k-1]].Objectives[m]
			dist[idx[k]] += gap / (hi - lo)
		}
	}
}
