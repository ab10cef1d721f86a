package comparison

import (
	"context"
	"fmt"

	"wiastat/domain/category"
	"wiastat/domain/comparison"
	"wiastat/domain/sample"
	"wiastat/internal/subtype"
)

// Kind selects the builder primitive a request runs.
type Kind int

const (
	KindGroups Kind = iota
	KindMatchedPairs
	KindWaves
)

func (k Kind) String() string {
	switch k {
	case KindGroups:
		return "groups"
	case KindMatchedPairs:
		return "matched-pairs"
	case KindWaves:
		return "waves"
	}
	return "unknown"
}

// Request is one comparison of the run, described before it is evaluated.
type Request struct {
	Kind           Kind
	Name           string
	Groups         []Group
	PairGroups     []PairGroup
	Samples        []*sample.Sample
	IncludeDerived bool
}

func (r Request) String() string {
	return fmt.Sprintf("%s %q", r.Kind, r.Name)
}

// Execute runs the request's primitive.
func (b *Builder) Execute(ctx context.Context, r Request) (*comparison.Comparison, error) {
	switch r.Kind {
	case KindGroups:
		return b.CompareGroups(ctx, r.Name, r.Groups, r.IncludeDerived)
	case KindMatchedPairs:
		return b.CompareMatchedPairs(ctx, r.Name, r.PairGroups)
	case KindWaves:
		return b.CompareWavesWithinGroup(ctx, r.Name, r.Samples)
	}
	return nil, fmt.Errorf("unknown request kind %d", r.Kind)
}

// Plan enumerates every comparison of a run in report order:
//
//  1. each pair of treatments, then all treatments together when there are
//     more than two; the same again within each disease stratum
//  2. waves against each other within each treatment, for the whole
//     treatment and within each stratum
//  3. the subtype contrasts within each treatment, without derived outcomes
//  4. when a rest treatment exists, matched rest/treatment pairs for every
//     other treatment: all pairs together, then each subtype contrast
//
// Requests whose groups turn out empty are skipped by the builder.
func Plan(reg *category.Registry, classifier *subtype.Classifier) []Request {
	if classifier == nil {
		classifier = subtype.Default
	}
	treatments := reg.TreatmentCategories()
	strata := classifier.Strata()
	var plan []Request

	treatmentRequests := func(suffix string, pred subtype.Predicate) {
		groupOf := func(t *category.TreatmentCategory) Group {
			samples := t.Samples()
			if pred != nil {
				samples = subtype.SubsetOf(samples, pred)
			}
			return Group{Label: t.Name(), Samples: samples}
		}
		for i := 0; i < len(treatments); i++ {
			for j := i + 1; j < len(treatments); j++ {
				plan = append(plan, Request{
					Kind:           KindGroups,
					Name:           treatments[i].Name() + " vs " + treatments[j].Name() + suffix,
					Groups:         []Group{groupOf(treatments[i]), groupOf(treatments[j])},
					IncludeDerived: true,
				})
			}
		}
		if len(treatments) > 2 {
			groups := make([]Group, len(treatments))
			for i, t := range treatments {
				groups[i] = groupOf(t)
			}
			plan = append(plan, Request{
				Kind:           KindGroups,
				Name:           "All treatments" + suffix,
				Groups:         groups,
				IncludeDerived: true,
			})
		}
	}
	treatmentRequests("", nil)
	for _, st := range strata {
		treatmentRequests(" ("+st.Name+")", st.Predicate)
	}

	for _, t := range treatments {
		plan = append(plan, Request{Kind: KindWaves, Name: t.Name() + " waves", Samples: t.Samples()})
		for _, st := range strata {
			plan = append(plan, Request{
				Kind:    KindWaves,
				Name:    t.Name() + " waves (" + st.Name + ")",
				Samples: subtype.SubsetOf(t.Samples(), st.Predicate),
			})
		}
	}

	contrasts := classifier.Contrasts()
	for _, t := range treatments {
		for _, c := range contrasts {
			groups := make([]Group, len(c.Strata))
			for i, st := range c.Strata {
				groups[i] = Group{Label: st.Name, Samples: subtype.SubsetOf(t.Samples(), st.Predicate)}
			}
			plan = append(plan, Request{Kind: KindGroups, Name: t.Name() + ": " + c.Name, Groups: groups})
		}
	}

	rest, ok := reg.TreatmentOfType(category.TreatmentRest)
	if !ok {
		return plan
	}
	for _, t := range treatments {
		if t == rest {
			continue
		}
		prefix := rest.Name() + " to " + t.Name()
		plan = append(plan, Request{
			Kind: KindMatchedPairs,
			Name: prefix + " matched pairs",
			PairGroups: []PairGroup{{
				Label:  "All pairs",
				Before: rest.Name(),
				After:  t.Name(),
				Pairs:  subtype.MatchPairs(rest.Samples(), t.Samples(), nil),
			}},
		})
		for _, c := range contrasts {
			groups := make([]PairGroup, len(c.Strata))
			for i, st := range c.Strata {
				groups[i] = PairGroup{
					Label:  st.Name,
					Before: rest.Name(),
					After:  t.Name(),
					Pairs:  subtype.MatchPairs(rest.Samples(), t.Samples(), st.Predicate),
				}
			}
			plan = append(plan, Request{Kind: KindMatchedPairs, Name: prefix + ": " + c.Name, PairGroups: groups})
		}
	}
	return plan
}
