// Package quality computes per-image quality features used to characterise
// scan degradation. Profiles feed clustering and filter optimization.
package quality

import (
	"errors"
)

// ErrInvalidImage reports an image that cannot be decoded or has zero area.
// Batch callers should skip the image and continue.
var ErrInvalidImage = errors.New("invalid image")

// FeatureCount is the number of features used for clustering.
// EdgeDensity is reported but excluded from the clustering vector.
const FeatureCount = 5

// Profile holds the quality features of a single image.
// It is a pure function of pixel content: two byte-identical images
// always produce equal profiles.
type Profile struct {
	ImageID     string  `json:"image_id"`
	Blur        float64 `json:"blur"`
	Noise       float64 `json:"noise"`
	Contrast    float64 `json:"contrast"`
	Brightness  float64 `json:"brightness"`
	Entropy     float64 `json:"entropy"`
	EdgeDensity float64 `json:"edge_density"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
}

// Vector returns the clustering feature vector.
func (p Profile) Vector() []float64 {
	return []float64{p.Blur, p.Noise, p.Contrast, p.Brightness, p.Entropy}
}

// FeatureNames returns the names of the clustering features, in vector order.
func FeatureNames() []string {
	return []string{"blur", "noise", "contrast", "brightness", "entropy"}
}
