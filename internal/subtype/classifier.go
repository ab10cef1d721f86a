// Package subtype classifies samples into coronary microvascular dysfunction
// (CMD) subtypes. Every predicate is three-valued: when a field it needs is
// missing the answer is Unknown, and Unknown samples are left out of both the
// "has" and the "lacks" subsets.
package subtype

import (
	"wiastat/domain/sample"
)

// Thresholds are the diagnostic cut-offs.
type Thresholds struct {
	// FlowReserveCutoff: CFR below it means endothelium-independent CMD.
	FlowReserveCutoff float64 `yaml:"cfr_cutoff" json:"cfr_cutoff"`
	// FlowIncreaseCutoff: a percent flow increase under the endothelial agonist
	// below it means endothelium-dependent CMD.
	FlowIncreaseCutoff float64 `yaml:"flow_increase_cutoff" json:"flow_increase_cutoff"`
	// ResistanceCutoff: HMR at or above it makes CMD structural, otherwise functional.
	ResistanceCutoff float64 `yaml:"hmr_cutoff" json:"hmr_cutoff"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		FlowReserveCutoff:  2.5,
		FlowIncreaseCutoff: 50,
		ResistanceCutoff:   1.9,
	}
}

// Predicate decides a sample's membership in a subtype.
type Predicate func(*sample.Sample) sample.Tristate

// Classifier evaluates the subtype predicates under a set of thresholds.
type Classifier struct {
	th Thresholds
}

func NewClassifier(th Thresholds) *Classifier {
	return &Classifier{th: th}
}

// Default uses DefaultThresholds.
var Default = NewClassifier(DefaultThresholds())

func (c *Classifier) Thresholds() Thresholds { return c.th }

// EndoIndependent is true when the vasodilator flow reserve is impaired.
func (c *Classifier) EndoIndependent(s *sample.Sample) sample.Tristate {
	if s.EndoIndependentFlag.Known() {
		return s.EndoIndependentFlag
	}
	if s.FlowReserve == nil {
		return sample.Unknown
	}
	return sample.TristateOf(*s.FlowReserve < c.th.FlowReserveCutoff)
}

// EndoDependent is true when the flow response to the endothelial agonist is blunted.
func (c *Classifier) EndoDependent(s *sample.Sample) sample.Tristate {
	if s.EndoDependentFlag.Known() {
		return s.EndoDependentFlag
	}
	if s.FlowIncrease == nil {
		return sample.Unknown
	}
	return sample.TristateOf(*s.FlowIncrease < c.th.FlowIncreaseCutoff)
}

// Disease is true when either endothelial pathway is impaired. It needs both
// to be known.
func (c *Classifier) Disease(s *sample.Sample) sample.Tristate {
	dep, indep := c.EndoDependent(s), c.EndoIndependent(s)
	if !dep.Known() || !indep.Known() {
		return sample.Unknown
	}
	return sample.TristateOf(dep == sample.True || indep == sample.True)
}

func (c *Classifier) NoDisease(s *sample.Sample) sample.Tristate {
	return c.Disease(s).Not()
}

// EndoDependentOnly excludes samples that also have independent disease.
func (c *Classifier) EndoDependentOnly(s *sample.Sample) sample.Tristate {
	return And(c.EndoDependent, not(c.EndoIndependent))(s)
}

// EndoIndependentOnly excludes samples that also have dependent disease.
func (c *Classifier) EndoIndependentOnly(s *sample.Sample) sample.Tristate {
	return And(c.EndoIndependent, not(c.EndoDependent))(s)
}

// BothEndothelial is true when dependent and independent disease coexist.
func (c *Classifier) BothEndothelial(s *sample.Sample) sample.Tristate {
	return And(c.EndoDependent, c.EndoIndependent)(s)
}

// Functional is CMD with normal microvascular resistance.
func (c *Classifier) Functional(s *sample.Sample) sample.Tristate {
	disease := c.Disease(s)
	if !disease.Known() || s.ResistanceIndex == nil {
		return sample.Unknown
	}
	return sample.TristateOf(disease == sample.True && *s.ResistanceIndex < c.th.ResistanceCutoff)
}

// Structural is CMD with elevated microvascular resistance.
func (c *Classifier) Structural(s *sample.Sample) sample.Tristate {
	disease := c.Disease(s)
	if !disease.Known() || s.ResistanceIndex == nil {
		return sample.Unknown
	}
	return sample.TristateOf(disease == sample.True && *s.ResistanceIndex >= c.th.ResistanceCutoff)
}

// And is true only when every predicate is true. Any Unknown makes the result
// Unknown, even if another predicate is already false.
func And(preds ...Predicate) Predicate {
	return func(s *sample.Sample) sample.Tristate {
		result := sample.True
		for _, p := range preds {
			switch p(s) {
			case sample.Unknown:
				return sample.Unknown
			case sample.False:
				result = sample.False
			}
		}
		return result
	}
}

func not(p Predicate) Predicate {
	return func(s *sample.Sample) sample.Tristate { return p(s).Not() }
}

// Not negates a predicate, keeping Unknown.
func Not(p Predicate) Predicate { return not(p) }
