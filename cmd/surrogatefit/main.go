// Command surrogatefit fits the polynomial surrogate mapping quality
// features to optimal filter parameters and writes the model artifact with
// its validation metrics and trusted feature bounds.
//
// Usage: surrogatefit -profiles profiles.json -model cluster_model.json -assignments assignments.json front_selected.json [...]
package main

import (
	"flag"
	"fmt"
	"os"

	"ocr-tuner/internal/artifact"
	"ocr-tuner/internal/cluster"
	"ocr-tuner/internal/inference"
	"ocr-tuner/internal/pareto"
	"ocr-tuner/internal/quality"
	"ocr-tuner/internal/surrogate"
	"ocr-tuner/internal/version"
)

var (
	flagProfiles    = flag.String("profiles", "", "Input profiles JSON (required)")
	flagModel       = flag.String("model", "", "Cluster model JSON (required)")
	flagAssignments = flag.String("assignments", "", "Cluster assignments JSON (required)")
	flagDegree      = flag.Int("degree", 2, "Polynomial degree")
	flagThreshold   = flag.Float64("cv-threshold", surrogate.DefaultCVThreshold, "Minimum cross-validated R² for polynomial serving")
	flagOutput      = flag.String("o", "surrogate.json", "Output surrogate model JSON")
)

func main() {
	flag.Parse()

	if *flagProfiles == "" || *flagModel == "" || *flagAssignments == "" || flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr,
			"Usage: %s -profiles profiles.json -model cluster_model.json -assignments assignments.json front_selected.json [...]\n",
			os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	fmt.Printf("surrogatefit %s\n", version.Version)

	var profiles []quality.Profile
	if err := artifact.ReadJSON(*flagProfiles, &profiles); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading profiles: %v\n", err)
		os.Exit(1)
	}
	model, err := cluster.Load(*flagModel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading cluster model: %v\n", err)
		os.Exit(1)
	}
	assignments, err := cluster.LoadAssignments(*flagAssignments)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading assignments: %v\n", err)
		os.Exit(1)
	}

	// Representative best-aggregate genome per cluster, from the selected
	// fronts.
	reps := make(map[int]pareto.Solution)
	for _, path := range flag.Args() {
		front, err := pareto.LoadFront(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", path, err)
			os.Exit(1)
		}
		rep, err := inference.BestAggregate(front)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		reps[front.ClusterID] = rep
	}

	samples, skipped := buildSamples(profiles, model, assignments, reps)
	if skipped > 0 {
		fmt.Printf("  %d profiles skipped (no representative for their cluster)\n", skipped)
	}

	sm, err := surrogate.Fit(samples, *flagDegree, *flagThreshold)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fitting surrogate: %v\n", err)
		os.Exit(1)
	}

	if err := sm.Save(*flagOutput); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing model: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Fitted degree-%d surrogate from %d samples:\n", sm.Degree, len(samples))
	for _, p := range sm.Params {
		status := "polynomial"
		if !p.Usable {
			status = "LOOKUP ONLY (failed validation)"
		}
		fmt.Printf("  %-18s r2=%.3f cv=%.3f mae=%.3f  %s\n", p.Name, p.R2, p.CVScore, p.MAE, status)
	}
	fmt.Printf("Wrote %s (%d/%d parameters usable)\n", *flagOutput, sm.UsableCount(), len(sm.Params))
}

// buildSamples pairs every profile's features with the representative
// genome of its cluster, falling back to the nearest reliable cluster for
// degenerate ones.
func buildSamples(profiles []quality.Profile, model *cluster.Model,
	assignments cluster.Assignments, reps map[int]pareto.Solution) ([]surrogate.Sample, int) {

	var samples []surrogate.Sample
	skipped := 0
	for _, p := range profiles {
		id, ok := assignments[p.ImageID]
		if !ok {
			id = model.Assign(p)
		}
		served, err := model.NearestReliable(id)
		if err != nil {
			skipped++
			continue
		}
		rep, ok := reps[served]
		if !ok {
			skipped++
			continue
		}
		samples = append(samples, surrogate.Sample{
			Features: p.Vector(),
			Genome:   rep.Genome.Clone(),
		})
	}
	return samples, skipped
}
