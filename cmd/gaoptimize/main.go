// Command gaoptimize runs the multi-objective genetic search for one
// cluster's filter parameters. Fitness is the OCR edit distance of each
// (document, degradation-level) fixture assigned to the cluster. The run
// checkpoints at every generation boundary and resumes from an existing
// checkpoint, skipping already-scored individuals.
//
// Usage: gaoptimize -manifest corpus.json -assignments assignments.json -cluster 0 [options]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ocr-tuner/internal/cluster"
	"ocr-tuner/internal/corpus"
	"ocr-tuner/internal/filter"
	"ocr-tuner/internal/fitness"
	"ocr-tuner/internal/genetic"
	"ocr-tuner/internal/ocr"
	"ocr-tuner/internal/pareto"
	"ocr-tuner/internal/version"
)

var (
	flagManifest    = flag.String("manifest", "", "Corpus manifest JSON (required)")
	flagAssignments = flag.String("assignments", "", "Cluster assignments JSON (required)")
	flagCluster     = flag.Int("cluster", 0, "Cluster id to optimize")
	flagFamily      = flag.String("family", string(filter.FamilyAdvanced), "Filter family: advanced or basic")
	flagPop         = flag.Int("pop", 24, "Population size")
	flagGens        = flag.Int("gens", 30, "Generation budget")
	flagSeed        = flag.Int64("seed", 1, "Random seed")
	flagParallel    = flag.Int("j", 4, "Number of parallel fitness workers")
	flagTimeBudget  = flag.Duration("time-budget", 0, "Wall-clock budget (0 = none)")
	flagCheckpoint  = flag.String("checkpoint", "", "Checkpoint path (resumed when present)")
	flagOutput      = flag.String("o", "front.json", "Output Pareto front JSON")
	flagPlot        = flag.String("plot", "", "Write a convergence plot PNG to this path")
	flagLang        = flag.String("lang", "eng", "OCR language")
)

func main() {
	flag.Parse()

	if *flagManifest == "" || *flagAssignments == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -manifest corpus.json -assignments assignments.json [options]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	family := filter.Family(*flagFamily)
	if _, err := filter.Specs(family); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("gaoptimize %s: cluster %d, family %s, pop %d, gens %d, seed %d\n",
		version.Version, *flagCluster, family, *flagPop, *flagGens, *flagSeed)

	manifest, err := corpus.LoadManifest(*flagManifest)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading corpus: %v\n", err)
		os.Exit(1)
	}
	assignments, err := cluster.LoadAssignments(*flagAssignments)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading assignments: %v\n", err)
		os.Exit(1)
	}

	fixtures, skipped, err := loadClusterFixtures(manifest, assignments, *flagCluster)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading fixtures: %v\n", err)
		os.Exit(1)
	}
	defer corpus.CloseFixtures(fixtures)
	if len(fixtures) == 0 {
		fmt.Fprintf(os.Stderr, "Error: no fixtures assigned to cluster %d\n", *flagCluster)
		os.Exit(1)
	}
	fmt.Printf("Loaded %d fixtures for cluster %d (%d skipped)\n", len(fixtures), *flagCluster, skipped)

	if *flagParallel < 1 {
		*flagParallel = 1
	}

	// One Tesseract handle per worker: a handle cannot take interleaved
	// SetImage/Text calls from concurrent evaluations.
	engines := make([]fitness.Oracle, 0, *flagParallel)
	for i := 0; i < *flagParallel; i++ {
		engine, err := ocr.NewEngine(ocr.Config{Language: *flagLang, PageSegMode: ocr.DefaultConfig().PageSegMode})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error starting OCR engine: %v\n", err)
			os.Exit(1)
		}
		defer engine.Close()
		engines = append(engines, engine)
	}
	oracle, err := fitness.NewOraclePool(engines...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	evaluator := fitness.NewEvaluator(oracle, fixtures)

	identity, err := filter.Identity(family)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg := genetic.DefaultConfig(family)
	cfg.PopSize = *flagPop
	cfg.Generations = *flagGens
	cfg.Seed = *flagSeed
	cfg.Workers = *flagParallel
	cfg.TimeBudget = *flagTimeBudget
	cfg.CheckpointPath = *flagCheckpoint
	cfg.SeedGenomes = []filter.Genome{identity}

	opt, err := genetic.New(cfg, evaluator.Evaluate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Stop cooperatively at the next generation boundary on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	archive, err := opt.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error during optimization: %v\n", err)
		os.Exit(1)
	}

	front := &pareto.Front{
		ClusterID:       *flagCluster,
		Family:          family,
		ObjectiveLabels: fixtureLabels(fixtures),
		Solutions:       archive,
	}
	if err := pareto.ValidateFront(front.Solutions); err != nil {
		fmt.Fprintf(os.Stderr, "Error: archive invariant violated: %v\n", err)
		os.Exit(1)
	}
	if err := front.Save(*flagOutput); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing front: %v\n", err)
		os.Exit(1)
	}

	if *flagPlot != "" {
		if err := plotHistory(opt.History(), *flagPlot); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: convergence plot failed: %v\n", err)
		} else {
			fmt.Printf("Wrote convergence plot to %s\n", *flagPlot)
		}
	}

	fmt.Printf("Done in %s: %d evaluations, %d oracle penalties, %d skipped images, archive %d -> %s\n",
		time.Since(start).Round(time.Second), opt.Evaluations(),
		evaluator.PenaltyCount(), skipped, len(archive), *flagOutput)
}

// loadClusterFixtures loads the corpus fixtures whose image ids are
// assigned to the given cluster.
func loadClusterFixtures(manifest *corpus.Manifest, assignments cluster.Assignments, clusterID int) ([]fitness.Fixture, int, error) {
	all, skipped, err := manifest.LoadFixtures()
	if err != nil {
		return nil, 0, err
	}

	kept := all[:0]
	for _, fix := range all {
		id, ok := assignments[fix.DocID+"/"+fix.Level]
		if ok && id == clusterID {
			kept = append(kept, fix)
		} else {
			fix.Image.Close()
		}
	}
	return kept, skipped, nil
}

func fixtureLabels(fixtures []fitness.Fixture) []string {
	labels := make([]string, len(fixtures))
	for i, f := range fixtures {
		labels[i] = f.DocID + "/" + f.Level
	}
	return labels
}
