package quality

import (
	"fmt"
	"math"
	"sort"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/stat"
)

// Canny thresholds for the edge-density measure.
const (
	edgeLowThreshold  = 50
	edgeHighThreshold = 150
)

// Extract computes a Profile from a grayscale image.
// The input mat must be single-channel 8-bit; Extract does not modify it.
func Extract(img gocv.Mat, imageID string) (Profile, error) {
	if img.Empty() || img.Rows() == 0 || img.Cols() == 0 {
		return Profile{}, fmt.Errorf("extract %s: %w", imageID, ErrInvalidImage)
	}
	if img.Channels() != 1 {
		return Profile{}, fmt.Errorf("extract %s: want grayscale, got %d channels: %w",
			imageID, img.Channels(), ErrInvalidImage)
	}

	lap := gocv.NewMat()
	defer lap.Close()
	gocv.Laplacian(img, &lap, gocv.MatTypeCV64F, 3, 1, 0, gocv.BorderDefault)

	lapVals, err := lap.DataPtrFloat64()
	if err != nil {
		return Profile{}, fmt.Errorf("extract %s: laplacian data: %w", imageID, err)
	}

	pixels := grayValues(img)

	p := Profile{
		ImageID:     imageID,
		Blur:        stat.Variance(lapVals, nil),
		Noise:       medianAbsDeviation(lapVals),
		Contrast:    stat.StdDev(pixels, nil),
		Brightness:  stat.Mean(pixels, nil),
		Entropy:     histogramEntropy(img),
		EdgeDensity: edgeDensity(img),
		Width:       img.Cols(),
		Height:      img.Rows(),
	}
	return p, nil
}

// grayValues copies the pixel intensities into a float64 slice.
func grayValues(img gocv.Mat) []float64 {
	rows, cols := img.Rows(), img.Cols()
	vals := make([]float64, 0, rows*cols)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			vals = append(vals, float64(img.GetUCharAt(y, x)))
		}
	}
	return vals
}

// medianAbsDeviation estimates noise as the scaled median absolute deviation
// of the second-derivative response. The 1.4826 factor makes the estimate
// consistent with the standard deviation for Gaussian noise.
func medianAbsDeviation(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	m := median(vals)
	dev := make([]float64, len(vals))
	for i, v := range vals {
		dev[i] = math.Abs(v - m)
	}
	return 1.4826 * median(dev)
}

func median(vals []float64) float64 {
	s := make([]float64, len(vals))
	copy(s, vals)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// histogramEntropy computes Shannon entropy over the 256-bin intensity
// histogram, in bits.
func histogramEntropy(img gocv.Mat) float64 {
	hist := make([]int, 256)
	rows, cols := img.Rows(), img.Cols()
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			hist[img.GetUCharAt(y, x)]++
		}
	}

	total := float64(rows * cols)
	entropy := 0.0
	for _, count := range hist {
		if count == 0 {
			continue
		}
		p := float64(count) / total
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// edgeDensity returns the fraction of pixels marked as edges by Canny.
func edgeDensity(img gocv.Mat) float64 {
	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(img, &edges, edgeLowThreshold, edgeHighThreshold)

	total := edges.Rows() * edges.Cols()
	if total == 0 {
		return 0
	}
	return float64(gocv.CountNonZero(edges)) / float64(total)
}
