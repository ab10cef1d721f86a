package subtype

import (
	"wiastat/domain/comparison"
	"wiastat/domain/sample"
)

// Subset is a named stratum of a cohort.
type Subset struct {
	Name      string
	Predicate Predicate
}

// SubsetOf keeps the samples for which pred is True. Unknown samples are dropped.
func SubsetOf(samples []*sample.Sample, pred Predicate) []*sample.Sample {
	var out []*sample.Sample
	for _, s := range samples {
		if pred(s) == sample.True {
			out = append(out, s)
		}
	}
	return out
}

// Partition splits samples into those with and those without the subtype;
// samples with an Unknown status are in neither.
func Partition(samples []*sample.Sample, pred Predicate) (has, lacks []*sample.Sample) {
	for _, s := range samples {
		switch pred(s) {
		case sample.True:
			has = append(has, s)
		case sample.False:
			lacks = append(lacks, s)
		}
	}
	return has, lacks
}

// MatchPairs pairs every sample of first with the sample of second recorded
// from the same vessel. A pair is kept only when pred is True for both
// samples; a nil pred keeps every matched pair.
func MatchPairs(first, second []*sample.Sample, pred Predicate) []comparison.Pair {
	byIdentity := make(map[string]*sample.Sample, len(second))
	for _, s := range second {
		if _, dup := byIdentity[s.IdentityKey()]; !dup {
			byIdentity[s.IdentityKey()] = s
		}
	}

	var pairs []comparison.Pair
	for _, a := range first {
		b, ok := byIdentity[a.IdentityKey()]
		if !ok {
			continue
		}
		if pred != nil {
			pa, pb := pred(a), pred(b)
			if pa != pb || pa != sample.True {
				continue
			}
		}
		pairs = append(pairs, comparison.Pair{Before: a, After: b})
	}
	return pairs
}

// Strata returns the ten disease strata every cohort comparison is repeated for.
func (c *Classifier) Strata() []Subset {
	return []Subset{
		{"No CMD", c.NoDisease},
		{"CMD", c.Disease},
		{"Endothelium-dependent CMD", c.EndoDependent},
		{"Endothelium-independent CMD", c.EndoIndependent},
		{"Endothelium-dependent functional CMD", And(c.EndoDependent, c.Functional)},
		{"Endothelium-dependent structural CMD", And(c.EndoDependent, c.Structural)},
		{"Endothelium-independent functional CMD", And(c.EndoIndependent, c.Functional)},
		{"Endothelium-independent structural CMD", And(c.EndoIndependent, c.Structural)},
		{"Functional CMD", c.Functional},
		{"Structural CMD", c.Structural},
	}
}

// Indicators are the boolean outcomes reported when derived fields are available.
func (c *Classifier) Indicators() []Subset {
	return []Subset{
		{"CMD", c.Disease},
		{"Endothelium-dependent CMD", c.EndoDependent},
		{"Endothelium-independent CMD", c.EndoIndependent},
		{"Endothelium-dependent functional CMD", And(c.EndoDependent, c.Functional)},
		{"Endothelium-dependent structural CMD", And(c.EndoDependent, c.Structural)},
		{"Endothelium-independent functional CMD", And(c.EndoIndependent, c.Functional)},
		{"Endothelium-independent structural CMD", And(c.EndoIndependent, c.Structural)},
		{"Functional CMD only", c.Functional},
		{"Structural CMD only", c.Structural},
	}
}

// Contrast is a set of strata compared against each other within one treatment.
type Contrast struct {
	Name   string
	Strata []Subset
}

// Contrasts lists the subtype-versus-subtype comparisons run inside each
// treatment and, over matched pairs, against rest.
func (c *Classifier) Contrasts() []Contrast {
	noCMD := Subset{"No CMD", c.NoDisease}
	cmd := Subset{"CMD", c.Disease}
	dep := Subset{"Endothelium-dependent CMD", c.EndoDependent}
	indep := Subset{"Endothelium-independent CMD", c.EndoIndependent}
	depOnly := Subset{"Endothelium-dependent CMD only", c.EndoDependentOnly}
	indepOnly := Subset{"Endothelium-independent CMD only", c.EndoIndependentOnly}
	both := Subset{"Both endothelial CMD types", c.BothEndothelial}
	functional := Subset{"Functional CMD", c.Functional}
	structural := Subset{"Structural CMD", c.Structural}
	depFunctional := Subset{"Endothelium-dependent functional CMD", And(c.EndoDependent, c.Functional)}
	depStructural := Subset{"Endothelium-dependent structural CMD", And(c.EndoDependent, c.Structural)}
	indepFunctional := Subset{"Endothelium-independent functional CMD", And(c.EndoIndependent, c.Functional)}
	indepStructural := Subset{"Endothelium-independent structural CMD", And(c.EndoIndependent, c.Structural)}

	return []Contrast{
		{"CMD subtypes", []Subset{noCMD, depFunctional, depStructural, indepFunctional, indepStructural}},
		{"Endothelial CMD types", []Subset{noCMD, depOnly, indepOnly, both}},
		{"No CMD vs CMD", []Subset{noCMD, cmd}},
		{"No CMD vs endothelium-dependent CMD", []Subset{noCMD, dep}},
		{"No CMD vs endothelium-independent CMD", []Subset{noCMD, indep}},
		{"No CMD vs functional CMD", []Subset{noCMD, functional}},
		{"No CMD vs structural CMD", []Subset{noCMD, structural}},
		{"Endothelium-dependent only vs endothelium-independent only", []Subset{depOnly, indepOnly}},
		{"Functional vs structural CMD", []Subset{functional, structural}},
		{"Endothelium-dependent functional vs structural", []Subset{depFunctional, depStructural}},
		{"Endothelium-independent functional vs structural", []Subset{indepFunctional, indepStructural}},
	}
}
