// Package filter defines the tunable enhancement filter families, their
// genome parameter schemas, and filter application.
package filter

import (
	"fmt"
	"math"
)

// Family identifies a filter pipeline variant. Each family has its own
// ordered parameter schema, so genome validity is checked per family.
type Family string

const (
	// FamilyAdvanced is the full pipeline: denoise, local contrast,
	// edge-preserving smoothing, sharpening, and scan-line removal.
	FamilyAdvanced Family = "advanced"

	// FamilyBasic is the minimal pipeline: global contrast stretch and a
	// median filter.
	FamilyBasic Family = "basic"
)

// ParamSpec declares the valid range and type constraints of one gene.
type ParamSpec struct {
	Name    string  `json:"name"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Integer bool    `json:"integer,omitempty"`
	Odd     bool    `json:"odd,omitempty"` // implies Integer
}

// Advanced family gene indices.
const (
	AdvDenoiseStrength = iota
	AdvClaheClip
	AdvSmoothDiameter
	AdvSigmaColor
	AdvSigmaSpace
	AdvSharpenAmount
	AdvSharpenRadius
	AdvScanlineKernel
	advParamCount
)

// Basic family gene indices.
const (
	BasicContrastFactor = iota
	BasicMedianWindow
	basicParamCount
)

var advancedSpecs = []ParamSpec{
	{Name: "denoise_strength", Min: 0, Max: 30},
	{Name: "clahe_clip", Min: 0, Max: 8},
	{Name: "smooth_diameter", Min: 1, Max: 15, Integer: true, Odd: true},
	{Name: "sigma_color", Min: 0, Max: 150},
	{Name: "sigma_space", Min: 0, Max: 150},
	{Name: "sharpen_amount", Min: 0, Max: 3},
	{Name: "sharpen_radius", Min: 1, Max: 9, Integer: true, Odd: true},
	{Name: "scanline_kernel", Min: 0, Max: 25, Integer: true},
}

var basicSpecs = []ParamSpec{
	{Name: "contrast_factor", Min: 0.5, Max: 3.0},
	{Name: "median_window", Min: 1, Max: 9, Integer: true, Odd: true},
}

// Specs returns the parameter schema for a family, in gene order.
func Specs(f Family) ([]ParamSpec, error) {
	switch f {
	case FamilyAdvanced:
		return advancedSpecs, nil
	case FamilyBasic:
		return basicSpecs, nil
	default:
		return nil, fmt.Errorf("unknown filter family %q", f)
	}
}

// Validate checks a genome against its family schema.
func Validate(g Genome) error {
	specs, err := Specs(g.Family)
	if err != nil {
		return err
	}
	if len(g.Params) != len(specs) {
		return fmt.Errorf("family %s: want %d params, got %d", g.Family, len(specs), len(g.Params))
	}
	for i, spec := range specs {
		v := g.Params[i]
		if v < spec.Min || v > spec.Max {
			return fmt.Errorf("family %s: %s=%g outside [%g, %g]",
				g.Family, spec.Name, v, spec.Min, spec.Max)
		}
		if spec.Integer && v != math.Trunc(v) {
			return fmt.Errorf("family %s: %s=%g must be an integer", g.Family, spec.Name, v)
		}
		if spec.Odd && int(v)%2 == 0 {
			return fmt.Errorf("family %s: %s=%g must be odd", g.Family, spec.Name, v)
		}
	}
	return nil
}

// Clamp repairs a genome in place after crossover or mutation: values are
// clipped to range, integer genes rounded, and odd genes parity-corrected.
func Clamp(g *Genome) error {
	specs, err := Specs(g.Family)
	if err != nil {
		return err
	}
	if len(g.Params) != len(specs) {
		return fmt.Errorf("family %s: want %d params, got %d", g.Family, len(specs), len(g.Params))
	}
	for i, spec := range specs {
		v := g.Params[i]
		if spec.Integer || spec.Odd {
			v = math.Round(v)
		}
		if spec.Odd && int(v)%2 == 0 {
			v++
		}
		if v < spec.Min {
			v = spec.Min
			if spec.Odd && int(v)%2 == 0 {
				v++
			}
		}
		if v > spec.Max {
			v = spec.Max
			if spec.Odd && int(v)%2 == 0 {
				v--
			}
		}
		g.Params[i] = v
	}
	return nil
}
