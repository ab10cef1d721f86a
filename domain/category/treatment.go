package category

import (
	"fmt"
	"strings"

	"wiastat/domain/sample"
)

// TreatmentType is the physiological role of a treatment condition.
type TreatmentType int

const (
	TreatmentOther TreatmentType = iota
	TreatmentRest
	TreatmentVasodilator
	TreatmentEndothelial
)

var treatmentTypeNames = map[TreatmentType]string{
	TreatmentOther:       "other",
	TreatmentRest:        "rest",
	TreatmentVasodilator: "vasodilator",
	TreatmentEndothelial: "endothelial",
}

func (t TreatmentType) String() string {
	if name, ok := treatmentTypeNames[t]; ok {
		return name
	}
	return "other"
}

// ParseTreatmentType is the inverse of String.
func ParseTreatmentType(s string) (TreatmentType, error) {
	for t, name := range treatmentTypeNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return t, nil
		}
	}
	return TreatmentOther, fmt.Errorf("unknown treatment type %q", s)
}

// AliasTable maps each treatment type to the labels that identify it.
type AliasTable map[TreatmentType][]string

// DefaultAliases is used when no alias table is configured.
func DefaultAliases() AliasTable {
	return AliasTable{
		TreatmentRest:        {"rest", "baseline", "resting"},
		TreatmentVasodilator: {"adenosine", "ado", "papaverine", "regadenoson", "hyperaemia", "hyperemia", "vasodilator"},
		TreatmentEndothelial: {"acetylcholine", "ach", "bradykinin", "substance p", "endothelial"},
	}
}

// classifyOrder fixes the precedence between types for substring matches.
var classifyOrder = []TreatmentType{TreatmentRest, TreatmentVasodilator, TreatmentEndothelial}

// Classify tries a whole-label match against every alias first and falls back
// to a substring match.
func (a AliasTable) Classify(label string) TreatmentType {
	l := strings.ToLower(strings.TrimSpace(label))
	if l == "" {
		return TreatmentOther
	}
	for _, t := range classifyOrder {
		for _, alias := range a[t] {
			if l == strings.ToLower(alias) {
				return t
			}
		}
	}
	for _, t := range classifyOrder {
		for _, alias := range a[t] {
			if alias != "" && strings.Contains(l, strings.ToLower(alias)) {
				return t
			}
		}
	}
	return TreatmentOther
}

// TreatmentCategory groups the samples recorded under one treatment label.
type TreatmentCategory struct {
	key     string
	name    string
	typ     TreatmentType
	members memberSet
}

func newTreatmentCategory(label string, typ TreatmentType) *TreatmentCategory {
	return &TreatmentCategory{
		key:     treatmentKey(label),
		name:    strings.TrimSpace(label),
		typ:     typ,
		members: newMemberSet(),
	}
}

func treatmentKey(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

func (t *TreatmentCategory) Key() string { return t.key }

func (t *TreatmentCategory) Name() string { return t.name }

func (t *TreatmentCategory) Type() TreatmentType { return t.typ }

func (t *TreatmentCategory) Samples() []*sample.Sample { return t.members.list() }

func (t *TreatmentCategory) Len() int { return t.members.len() }

// Matches compares labels case-insensitively.
func (t *TreatmentCategory) Matches(label string) bool {
	return treatmentKey(label) == t.key
}
