// Package genetic implements the per-cluster multi-objective genetic
// optimizer. Selection is non-dominated sorting with a crowding-distance
// tiebreak (NSGA-II style); the archive of non-dominated individuals is the
// cluster's Pareto front.
//
// Fitness evaluation is injected as a callback so the expensive OCR oracle
// stays outside this package. Evaluations within a generation run in
// parallel; generation N+1 is derived only from generation N's fully
// evaluated population.
package genetic

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"ocr-tuner/internal/filter"
	"ocr-tuner/internal/pareto"
)

// EvalFunc scores a genome, returning one minimized objective per
// (document, degradation-level) pair. Implementations must return large
// finite penalties on failure, never Inf or NaN.
type EvalFunc func(filter.Genome) []float64

// Config holds optimizer settings.
type Config struct {
	Family        filter.Family
	PopSize       int
	Generations   int
	CrossoverRate float64
	MutationRate  float64 // per-gene mutation probability
	MutationScale float64 // mutation sigma as a fraction of the gene range
	Seed          int64
	Workers       int

	// TimeBudget stops the run at the next generation boundary once
	// exceeded. Zero means no wall-clock limit.
	TimeBudget time.Duration

	// CheckpointPath, when set, is written at every generation boundary
	// and resumed from when present.
	CheckpointPath string

	// SeedGenomes are injected into the initial population ahead of the
	// random fill. The identity genome is a useful baseline seed.
	SeedGenomes []filter.Genome
}

// DefaultConfig returns settings that work for a 20-fixture corpus.
func DefaultConfig(family filter.Family) Config {
	return Config{
		Family:        family,
		PopSize:       24,
		Generations:   30,
		CrossoverRate: 0.9,
		MutationRate:  0.2,
		MutationScale: 0.15,
		Workers:       4,
	}
}

// Individual is one member of the arena population.
type Individual struct {
	Genome     filter.Genome `json:"genome"`
	Objectives []float64     `json:"objectives,omitempty"`
	Evaluated  bool          `json:"evaluated"`
}

// GenStats records archive progress for one generation.
type GenStats struct {
	Generation  int     `json:"generation"`
	ArchiveSize int     `json:"archive_size"`
	BestSum     float64 `json:"best_sum"`
	MeanSum     float64 `json:"mean_sum"`
}

// Optimizer runs the genetic search for a single cluster.
type Optimizer struct {
	cfg      Config
	evaluate EvalFunc

	runID       string
	generation  int
	nextID      int
	evaluations int
	pop         []Individual
	archive     []pareto.Solution
	history     []GenStats
}

// New creates an optimizer. The configuration is validated eagerly so a
// long run cannot fail late on a bad setting.
func New(cfg Config, evaluate EvalFunc) (*Optimizer, error) {
	if cfg.PopSize < 4 {
		return nil, fmt.Errorf("genetic: population size must be >= 4, got %d", cfg.PopSize)
	}
	if cfg.Generations < 1 {
		return nil, fmt.Errorf("genetic: need at least 1 generation, got %d", cfg.Generations)
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if _, err := filter.Specs(cfg.Family); err != nil {
		return nil, fmt.Errorf("genetic: %w", err)
	}
	if evaluate == nil {
		return nil, fmt.Errorf("genetic: evaluate callback is required")
	}
	return &Optimizer{
		cfg:      cfg,
		evaluate: evaluate,
		runID:    uuid.NewString(),
	}, nil
}

// Archive returns a copy of the current non-dominated archive.
func (o *Optimizer) Archive() []pareto.Solution {
	out := make([]pareto.Solution, len(o.archive))
	copy(out, o.archive)
	return out
}

// History returns per-generation archive statistics.
func (o *Optimizer) History() []GenStats {
	out := make([]GenStats, len(o.history))
	copy(out, o.history)
	return out
}

// Evaluations returns the number of fitness evaluations performed by this
// process (resumed evaluations from a checkpoint are not recounted).
func (o *Optimizer) Evaluations() int {
	return o.evaluations
}

// rngFor derives the RNG for one generation from the run seed, so a resumed
// run replays the exact variation sequence without serializing RNG state.
func (o *Optimizer) rngFor(generation int) *rand.Rand {
	return rand.New(rand.NewSource(o.cfg.Seed + int64(generation)*0x9E3779B9))
}

// Run executes the search until the generation budget, the wall-clock
// budget, or context cancellation, whichever comes first. Cancellation is
// cooperative at generation boundaries and never corrupts the last-good
// checkpoint. The returned archive is the cluster's Pareto front.
func (o *Optimizer) Run(ctx context.Context) ([]pareto.Solution, error) {
	start := time.Now()

	resumed, err := o.maybeResume()
	if err != nil {
		return nil, err
	}
	if !resumed {
		if err := o.initPopulation(); err != nil {
			return nil, err
		}
	}

	if !resumed {
		if err := o.evaluateAll(ctx, o.pop); err != nil {
			return o.Archive(), err
		}
		o.updateArchive(o.pop)
		o.recordStats()
		if err := o.checkpoint(); err != nil {
			return o.Archive(), err
		}
		fmt.Printf("  [gen 0] evaluated %d, archive=%d best=%.0f\n",
			len(o.pop), len(o.archive), o.bestSum())
	}

	for o.generation < o.cfg.Generations {
		if err := ctx.Err(); err != nil {
			fmt.Printf("  stopped at generation %d: %v\n", o.generation, err)
			return o.Archive(), nil
		}
		if o.cfg.TimeBudget > 0 && time.Since(start) > o.cfg.TimeBudget {
			fmt.Printf("  wall-clock budget reached at generation %d\n", o.generation)
			return o.Archive(), nil
		}

		rng := o.rngFor(o.generation + 1)
		offspring := o.makeOffspring(rng)
		if err := o.evaluateAll(ctx, offspring); err != nil {
			return o.Archive(), err
		}
		o.updateArchive(offspring)

		combined := append(append([]Individual(nil), o.pop...), offspring...)
		o.pop = environmentalSelect(combined, o.cfg.PopSize)
		o.generation++
		o.recordStats()

		if err := o.checkpoint(); err != nil {
			return o.Archive(), err
		}
		fmt.Printf("  [gen %d] archive=%d best=%.0f mean=%.1f\n",
			o.generation, len(o.archive), o.bestSum(), o.meanSum())
	}

	return o.Archive(), nil
}

// initPopulation seeds the arena: injected genomes first, then uniform
// random genomes.
func (o *Optimizer) initPopulation() error {
	rng := o.rngFor(0)
	o.pop = make([]Individual, 0, o.cfg.PopSize)

	for _, g := range o.cfg.SeedGenomes {
		if len(o.pop) >= o.cfg.PopSize {
			break
		}
		seed := g.Clone()
		if err := filter.Clamp(&seed); err != nil {
			return fmt.Errorf("genetic: seed genome: %w", err)
		}
		o.pop = append(o.pop, Individual{Genome: seed})
	}

	for len(o.pop) < o.cfg.PopSize {
		g, err := filter.Random(o.cfg.Family, rng)
		if err != nil {
			return fmt.Errorf("genetic: init population: %w", err)
		}
		o.pop = append(o.pop, Individual{Genome: g})
	}
	return nil
}

// evaluateAll fans unevaluated individuals out over the worker pool.
// Results land by index, so evaluation order never affects the outcome.
func (o *Optimizer) evaluateAll(ctx context.Context, pop []Individual) error {
	indices := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < o.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				pop[i].Objectives = o.evaluate(pop[i].Genome)
				pop[i].Evaluated = true
			}
		}()
	}

	pending := 0
	for i := range pop {
		if !pop[i].Evaluated {
			indices <- i
			pending++
		}
	}
	close(indices)
	wg.Wait()

	o.evaluations += pending
	return ctx.Err()
}

// makeOffspring produces PopSize children by binary tournament, blend
// crossover, and per-gene Gaussian mutation with range/parity repair.
func (o *Optimizer) makeOffspring(rng *rand.Rand) []Individual {
	ranks, crowding := rankPopulation(o.pop)
	specs, _ := filter.Specs(o.cfg.Family)

	offspring := make([]Individual, 0, o.cfg.PopSize)
	for len(offspring) < o.cfg.PopSize {
		p1 := o.tournament(rng, ranks, crowding)
		p2 := o.tournament(rng, ranks, crowding)

		child := o.pop[p1].Genome.Clone()
		if rng.Float64() < o.cfg.CrossoverRate {
			crossover(&child, o.pop[p2].Genome, rng)
		}
		mutate(&child, specs, o.cfg.MutationRate, o.cfg.MutationScale, rng)

		// Clamp cannot fail here: family and length were validated at
		// construction.
		_ = filter.Clamp(&child)
		offspring = append(offspring, Individual{Genome: child})
	}
	return offspring
}

// tournament picks the better of two random individuals by (rank, crowding),
// ties broken by lower index for determinism.
func (o *Optimizer) tournament(rng *rand.Rand, ranks []int, crowding []float64) int {
	a := rng.Intn(len(o.pop))
	b := rng.Intn(len(o.pop))
	if ranks[a] != ranks[b] {
		if ranks[a] < ranks[b] {
			return a
		}
		return b
	}
	if crowding[a] != crowding[b] {
		if crowding[a] > crowding[b] {
			return a
		}
		return b
	}
	if a < b {
		return a
	}
	return b
}

// crossover blends each gene of child toward the second parent by an
// independent uniform factor.
func crossover(child *filter.Genome, other filter.Genome, rng *rand.Rand) {
	for i := range child.Params {
		u := rng.Float64()
		child.Params[i] += u * (other.Params[i] - child.Params[i])
	}
}

// mutate perturbs genes independently with Gaussian noise scaled to the
// gene's range.
func mutate(g *filter.Genome, specs []filter.ParamSpec, rate, scale float64, rng *rand.Rand) {
	for i, spec := range specs {
		if rng.Float64() >= rate {
			continue
		}
		g.Params[i] += rng.NormFloat64() * scale * (spec.Max - spec.Min)
	}
}

// updateArchive merges evaluated individuals into the non-dominated
// archive, deduplicating identical genomes and pruning dominated members.
func (o *Optimizer) updateArchive(pop []Individual) {
	for _, ind := range pop {
		if !ind.Evaluated {
			continue
		}
		o.addToArchive(ind)
	}
}

func (o *Optimizer) addToArchive(ind Individual) {
	for _, s := range o.archive {
		if s.Genome.Equal(ind.Genome) {
			return
		}
		if pareto.Dominates(s.Objectives, ind.Objectives) {
			return
		}
	}

	kept := o.archive[:0]
	for _, s := range o.archive {
		if !pareto.Dominates(ind.Objectives, s.Objectives) {
			kept = append(kept, s)
		}
	}
	o.archive = append(kept, pareto.NewSolution(o.nextID, ind.Genome, ind.Objectives))
	o.nextID++
}

// environmentalSelect truncates the combined parent+offspring population to
// size n by front rank, then descending crowding distance, then index.
func environmentalSelect(pop []Individual, n int) []Individual {
	ranks, crowding := rankPopulation(pop)

	order := make([]int, len(pop))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		i, j := order[a], order[b]
		if ranks[i] != ranks[j] {
			return ranks[i] < ranks[j]
		}
		if crowding[i] != crowding[j] {
			return crowding[i] > crowding[j]
		}
		return i < j
	})

	selected := make([]Individual, 0, n)
	for _, i := range order[:n] {
		selected = append(selected, pop[i])
	}
	return selected
}

func (o *Optimizer) bestSum() float64 {
	best := 0.0
	for i, s := range o.archive {
		if i == 0 || s.Sum < best {
			best = s.Sum
		}
	}
	return best
}

func (o *Optimizer) meanSum() float64 {
	if len(o.archive) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range o.archive {
		sum += s.Sum
	}
	return sum / float64(len(o.archive))
}

func (o *Optimizer) recordStats() {
	o.history = append(o.history, GenStats{
		Generation:  o.generation,
		ArchiveSize: len(o.archive),
		BestSum:     o.bestSum(),
		MeanSum:     o.meanSum(),
	})
}

// checkpoint persists the run state at a generation boundary.
func (o *Optimizer) checkpoint() error {
	if o.cfg.CheckpointPath == "" {
		return nil
	}
	return o.saveCheckpoint(o.cfg.CheckpointPath)
}

// maybeResume loads a checkpoint when one exists at the configured path.
func (o *Optimizer) maybeResume() (bool, error) {
	if o.cfg.CheckpointPath == "" {
		return false, nil
	}
	if _, err := os.Stat(o.cfg.CheckpointPath); os.IsNotExist(err) {
		return false, nil
	}
	if err := o.loadCheckpoint(o.cfg.CheckpointPath); err != nil {
		return false, err
	}
	fmt.Printf("  resumed run %s at generation %d (%d archived)\n",
		o.runID, o.generation, len(o.archive))
	return true, nil
}
