package surrogate

// polyTerms enumerates the exponent vectors of all multivariate monomials
// of the given dimension up to total degree d, bias term first, ordered by
// total degree then lexicographically. The ordering is fixed: coefficient
// vectors in persisted models index into it.
func polyTerms(dims, degree int) [][]int {
	var terms [][]int
	for total := 0; total <= degree; total++ {
		terms = append(terms, termsOfDegree(dims, total)...)
	}
	return terms
}

func termsOfDegree(dims, total int) [][]int {
	if dims == 1 {
		return [][]int{{total}}
	}
	var out [][]int
	for first := total; first >= 0; first-- {
		for _, rest := range termsOfDegree(dims-1, total-first) {
			term := append([]int{first}, rest...)
			out = append(out, term)
		}
	}
	return out
}

// expand maps a raw feature vector to its polynomial feature row.
func expand(features []float64, terms [][]int) []float64 {
	row := make([]float64, len(terms))
	for t, exps := range terms {
		v := 1.0
		for d, e := range exps {
			for k := 0; k < e; k++ {
				v *= features[d]
			}
		}
		row[t] = v
	}
	return row
}
