package main

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"ocr-tuner/internal/genetic"
)

// plotHistory renders the archive best and mean aggregate edit counts per
// generation as a PNG line chart.
func plotHistory(history []genetic.GenStats, path string) error {
	if len(history) == 0 {
		return fmt.Errorf("no generations recorded")
	}

	best := make(plotter.XYs, len(history))
	mean := make(plotter.XYs, len(history))
	for i, g := range history {
		best[i] = plotter.XY{X: float64(g.Generation), Y: g.BestSum}
		mean[i] = plotter.XY{X: float64(g.Generation), Y: g.MeanSum}
	}

	p := plot.New()
	p.Title.Text = "Archive convergence"
	p.X.Label.Text = "Generation"
	p.Y.Label.Text = "Total edit distance"

	bestLine, err := plotter.NewLine(best)
	if err != nil {
		return err
	}
	meanLine, err := plotter.NewLine(mean)
	if err != nil {
		return err
	}
	meanLine.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

	p.Add(bestLine, meanLine)
	p.Legend.Add("best", bestLine)
	p.Legend.Add("mean", meanLine)
	p.Legend.Top = true

	return p.Save(8*vg.Inch, 5*vg.Inch, path)
}
