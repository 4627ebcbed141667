// Command enhance is the production inference stage: it extracts quality
// features from a scanned image, picks a filter genome via polynomial
// interpolation or cluster lookup, applies it, and writes the enhanced
// image plus a JSON inference record.
//
// Usage: enhance -image scan.png -model cluster_model.json front_selected.json [...]
package main

import (
	"flag"
	"fmt"
	"os"

	"ocr-tuner/internal/artifact"
	"ocr-tuner/internal/cluster"
	"ocr-tuner/internal/imageio"
	"ocr-tuner/internal/inference"
	"ocr-tuner/internal/pareto"
	"ocr-tuner/internal/surrogate"
	"ocr-tuner/internal/version"
)

var (
	flagImage     = flag.String("image", "", "Input scanned image (required)")
	flagModel     = flag.String("model", "", "Cluster model JSON (required)")
	flagSurrogate = flag.String("surrogate", "", "Surrogate model JSON (optional; lookup-only without it)")
	flagOutput    = flag.String("o", "enhanced.png", "Output enhanced image")
	flagJSON      = flag.String("json", "", "Write the inference result JSON to this path")
)

func main() {
	flag.Parse()

	if *flagImage == "" || *flagModel == "" || flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s -image scan.png -model cluster_model.json front_selected.json [...]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	fmt.Printf("enhance %s\n", version.Version)

	model, err := cluster.Load(*flagModel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading cluster model: %v\n", err)
		os.Exit(1)
	}

	var sm *surrogate.Model
	if *flagSurrogate != "" {
		sm, err = surrogate.Load(*flagSurrogate)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading surrogate model: %v\n", err)
			os.Exit(1)
		}
	}

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

	engine, err := inference.New(model, sm, reps)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	img, err := imageio.LoadGray(*flagImage)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading image: %v\n", err)
		os.Exit(1)
	}
	defer img.Close()

	enhanced, result, err := engine.Enhance(img, *flagImage)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error enhancing: %v\n", err)
		os.Exit(1)
	}
	defer enhanced.Close()

	if err := imageio.SavePNG(enhanced, *flagOutput); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing image: %v\n", err)
		os.Exit(1)
	}
	if *flagJSON != "" {
		if err := artifact.WriteJSON(*flagJSON, result); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing result: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Printf("Enhanced %s -> %s\n", *flagImage, *flagOutput)
	fmt.Printf("  method=%s cluster=%d confidence=%.2f fallback=%v\n",
		result.Method, result.ClusterID, result.Confidence, result.UsedFallback)
	if len(result.SubstitutedParams) > 0 {
		fmt.Printf("  substituted via lookup: %v\n", result.SubstitutedParams)
	}
}
