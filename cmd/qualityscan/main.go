// Command qualityscan extracts quality-feature profiles for every degraded
// image in a corpus and writes them as a JSON artifact.
//
// Usage: qualityscan -manifest corpus.json -o profiles.json
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"ocr-tuner/internal/artifact"
	"ocr-tuner/internal/corpus"
	"ocr-tuner/internal/imageio"
	"ocr-tuner/internal/quality"
	"ocr-tuner/internal/version"
)

var (
	flagManifest = flag.String("manifest", "", "Corpus manifest JSON (required)")
	flagOutput   = flag.String("o", "profiles.json", "Output profiles JSON")
	flagVerbose  = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	if *flagManifest == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -manifest corpus.json [options]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	fmt.Printf("qualityscan %s\n", version.Version)

	m, err := corpus.LoadManifest(*flagManifest)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading corpus: %v\n", err)
		os.Exit(1)
	}

	var profiles []quality.Profile
	skipped := 0
	for _, doc := range m.Documents {
		for _, v := range doc.Degraded {
			imageID := doc.ID + "/" + v.Level
			img, err := imageio.LoadGray(m.Resolve(v.Path))
			if err != nil {
				if errors.Is(err, quality.ErrInvalidImage) {
					fmt.Printf("  skipping %s: %v\n", imageID, err)
					skipped++
					continue
				}
				fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", imageID, err)
				os.Exit(1)
			}

			p, err := quality.Extract(img, imageID)
			img.Close()
			if err != nil {
				fmt.Printf("  skipping %s: %v\n", imageID, err)
				skipped++
				continue
			}

			if *flagVerbose {
				fmt.Printf("  %s: blur=%.1f noise=%.1f contrast=%.1f brightness=%.1f entropy=%.2f\n",
					p.ImageID, p.Blur, p.Noise, p.Contrast, p.Brightness, p.Entropy)
			}
			profiles = append(profiles, p)
		}
	}

	if len(profiles) == 0 {
		fmt.Fprintf(os.Stderr, "Error: no readable images in corpus\n")
		os.Exit(1)
	}

	if err := artifact.WriteJSON(*flagOutput, profiles); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing profiles: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %d profiles to %s (%d skipped)\n", len(profiles), *flagOutput, skipped)
}
