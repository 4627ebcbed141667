package filter

import "math/rand"

// Genome is an ordered parameter vector for one filter family.
type Genome struct {
	Family Family    `json:"family"`
	Params []float64 `json:"params"`
}

// Clone returns a deep copy of the genome.
func (g Genome) Clone() Genome {
	params := make([]float64, len(g.Params))
	copy(params, g.Params)
	return Genome{Family: g.Family, Params: params}
}

// Equal reports whether two genomes have the same family and parameters.
func (g Genome) Equal(other Genome) bool {
	if g.Family != other.Family || len(g.Params) != len(other.Params) {
		return false
	}
	for i, v := range g.Params {
		if v != other.Params[i] {
			return false
		}
	}
	return true
}

// Identity returns the genome whose filter leaves the image unchanged.
func Identity(f Family) (Genome, error) {
	specs, err := Specs(f)
	if err != nil {
		return Genome{}, err
	}
	g := Genome{Family: f, Params: make([]float64, len(specs))}
	switch f {
	case FamilyAdvanced:
		g.Params[AdvSmoothDiameter] = 1
		g.Params[AdvSharpenRadius] = 1
	case FamilyBasic:
		g.Params[BasicContrastFactor] = 1.0
		g.Params[BasicMedianWindow] = 1
	}
	return g, nil
}

// Random returns a genome with every gene drawn uniformly from its valid
// range, integer and parity constraints repaired.
func Random(f Family, rng *rand.Rand) (Genome, error) {
	specs, err := Specs(f)
	if err != nil {
		return Genome{}, err
	}
	g := Genome{Family: f, Params: make([]float64, len(specs))}
	for i, spec := range specs {
		g.Params[i] = spec.Min + rng.Float64()*(spec.Max-spec.Min)
	}
	if err := Clamp(&g); err != nil {
		return Genome{}, err
	}
	return g, nil
}
