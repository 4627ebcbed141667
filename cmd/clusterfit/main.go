// Command clusterfit fits the K-means cluster model over extracted quality
// profiles and writes the model and per-image assignments as JSON
// artifacts. With -scan-k it instead reports elbow/silhouette statistics
// over a range of k, supporting offline k selection.
//
// Usage: clusterfit -profiles profiles.json -k 3 [options]
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"

	"ocr-tuner/internal/artifact"
	"ocr-tuner/internal/cluster"
	"ocr-tuner/internal/quality"
	"ocr-tuner/internal/version"
)

var (
	flagProfiles    = flag.String("profiles", "", "Input profiles JSON (required)")
	flagK           = flag.Int("k", 1, "Number of clusters")
	flagSeed        = flag.Int64("seed", 1, "Random seed for k-means init")
	flagModel       = flag.String("o", "cluster_model.json", "Output cluster model JSON")
	flagAssignments = flag.String("assignments", "assignments.json", "Output assignments JSON")
	flagScanK       = flag.Int("scan-k", 0, "Scan k from 1 to this value and report stats instead of fitting")
)

func main() {
	flag.Parse()

	if *flagProfiles == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -profiles profiles.json [options]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	fmt.Printf("clusterfit %s\n", version.Version)

	var profiles []quality.Profile
	if err := artifact.ReadJSON(*flagProfiles, &profiles); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading profiles: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %d profiles\n", len(profiles))

	rng := rand.New(rand.NewSource(*flagSeed))

	if *flagScanK > 0 {
		stats, err := cluster.ScanK(profiles, 1, *flagScanK, rng)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error scanning k: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%4s %12s %12s\n", "k", "wcss", "silhouette")
		for _, s := range stats {
			fmt.Printf("%4d %12.2f %12.3f\n", s.K, s.WCSS, s.Silhouette)
		}
		return
	}

	model, err := cluster.Fit(profiles, *flagK, rng)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fitting clusters: %v\n", err)
		os.Exit(1)
	}

	assignments := model.AssignAll(profiles)

	if err := model.Save(*flagModel); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing model: %v\n", err)
		os.Exit(1)
	}
	if err := assignments.Save(*flagAssignments); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing assignments: %v\n", err)
		os.Exit(1)
	}

	for id := 0; id < model.K; id++ {
		note := ""
		if model.Degenerate(id) {
			note = "  (degenerate: lookup will fall back to nearest cluster)"
		}
		fmt.Printf("  cluster %d: %d members%s\n", id, model.MemberCounts[id], note)
	}
	fmt.Printf("Wrote %s and %s\n", *flagModel, *flagAssignments)
}
