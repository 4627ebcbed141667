// Command frontselect reduces full per-cluster Pareto fronts to bounded
// representative subsets covering the extremes and the compromise region.
//
// Usage: frontselect -manifest corpus.json [-limit 20] front.json [front.json ...]
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ocr-tuner/internal/corpus"
	"ocr-tuner/internal/pareto"
	"ocr-tuner/internal/version"
)

var (
	flagManifest = flag.String("manifest", "", "Corpus manifest JSON, for the degradation level ordering (required)")
	flagLimit    = flag.Int("limit", pareto.DefaultSelectionLimit, "Maximum representatives per cluster")
	flagOutDir   = flag.String("outdir", "", "Output directory (default: alongside each input)")
)

func main() {
	flag.Parse()

	if *flagManifest == "" || flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s -manifest corpus.json front.json [front.json ...]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	fmt.Printf("frontselect %s\n", version.Version)

	manifest, err := corpus.LoadManifest(*flagManifest)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading corpus: %v\n", err)
		os.Exit(1)
	}
	levels := manifest.Levels()

	for _, inPath := range flag.Args() {
		front, err := pareto.LoadFront(inPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", inPath, err)
			os.Exit(1)
		}
		if err := pareto.ValidateFront(front.Solutions); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", inPath, err)
			os.Exit(1)
		}

		groups, err := pareto.GroupsFromLabels(front.ObjectiveLabels, levels)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", inPath, err)
			os.Exit(1)
		}
		selected, err := pareto.Select(front.Solutions, groups, *flagLimit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error selecting from %s: %v\n", inPath, err)
			os.Exit(1)
		}

		out := &pareto.Front{
			ClusterID:       front.ClusterID,
			Family:          front.Family,
			ObjectiveLabels: front.ObjectiveLabels,
			Solutions:       selected,
		}
		outPath := selectedPath(inPath, *flagOutDir)
		if err := out.Save(outPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", outPath, err)
			os.Exit(1)
		}
		fmt.Printf("  cluster %d: %d -> %d representatives -> %s\n",
			front.ClusterID, len(front.Solutions), len(selected), outPath)
	}
}

func selectedPath(inPath, outDir string) string {
	base := strings.TrimSuffix(filepath.Base(inPath), ".json") + "_selected.json"
	if outDir == "" {
		outDir = filepath.Dir(inPath)
	}
	return filepath.Join(outDir, base)
}
