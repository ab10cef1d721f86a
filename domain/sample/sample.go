package sample

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
)

// Sample is one analysed recording. Upstream I/O creates it; the engine only
// touches the treatment label, the wave list and the derived fields.
type Sample struct {
	Path      string `json:"path"`
	Subject   string `json:"subject,omitempty"`
	Treatment string `json:"treatment"`
	Waves     []Wave `json:"waves"`
	Measurements

	VesselDiameter  *float64 `json:"vessel_diameter,omitempty"`
	FlowReserve     *float64 `json:"flow_reserve,omitempty"`
	ResistanceIndex *float64 `json:"resistance_index,omitempty"`
	FlowIncrease    *float64 `json:"flow_increase,omitempty"`

	// Clinician-supplied classification; overrides the derived one when known.
	EndoDependentFlag   Tristate `json:"endo_dependent,omitempty"`
	EndoIndependentFlag Tristate `json:"endo_independent,omitempty"`
}

// Key identifies the sample itself (its file), case-insensitively.
func (s *Sample) Key() string {
	return strings.ToLower(filepath.Clean(s.Path))
}

// IdentityKey identifies the vessel the sample was recorded from, so that
// recordings of the same vessel under different treatments can be matched.
func (s *Sample) IdentityKey() string {
	if id := strings.TrimSpace(s.Subject); id != "" {
		return strings.ToLower(id)
	}
	base := filepath.Base(s.Path)
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}

// Name is the file name shown to users.
func (s *Sample) Name() string {
	return filepath.Base(s.Path)
}

func (s *Sample) SetTreatment(label string) { s.Treatment = label }

func (s *Sample) SetWaves(waves []Wave) { s.Waves = waves }

func (s *Sample) SetVesselDiameter(v float64) { s.VesselDiameter = &v }

func (s *Sample) SetFlowReserve(v float64) { s.FlowReserve = &v }

func (s *Sample) SetResistanceIndex(v float64) { s.ResistanceIndex = &v }

func (s *Sample) SetFlowIncrease(v float64) { s.FlowIncrease = &v }

// HasDerivedFields reports whether all cross-treatment metrics are present.
func (s *Sample) HasDerivedFields() bool {
	return s.FlowReserve != nil && s.ResistanceIndex != nil && s.FlowIncrease != nil
}

// TotalIntensity is the absolute cumulative intensity of all waves travelling
// from the given side.
func (s *Sample) TotalIntensity(d Direction) float64 {
	if d == Distal {
		return math.Abs(s.CumulativeBackward)
	}
	return math.Abs(s.CumulativeForward)
}

// Field is one printable key/value pair.
type Field struct {
	Key   string
	Value string
}

// PrintableFields lists the sample's values in a stable order. Optional
// fields are only present when set.
func (s *Sample) PrintableFields() []Field {
	fields := []Field{
		{"File", s.Name()},
		{"Subject", s.Subject},
		{"Treatment", s.Treatment},
		{"Wave Speed", formatFloat(s.WaveSpeed)},
		{"Avg Pressure", formatFloat(s.AvgPressure)},
		{"Max Pressure", formatFloat(s.MaxPressure)},
		{"Min Pressure", formatFloat(s.MinPressure)},
		{"Avg Flow", formatFloat(s.AvgFlow)},
		{"Max Flow", formatFloat(s.MaxFlow)},
		{"Min Flow", formatFloat(s.MinFlow)},
		{"Resistance", formatFloat(s.Resistance)},
		{"Cumulative Net Intensity", formatFloat(s.CumulativeNet)},
		{"Cumulative Forward Intensity", formatFloat(s.CumulativeForward)},
		{"Cumulative Backward Intensity", formatFloat(s.CumulativeBackward)},
		{"Peak Forward Intensity", formatFloat(s.PeakForward)},
		{"Peak Backward Intensity", formatFloat(s.PeakBackward)},
	}
	optional := []struct {
		key string
		v   *float64
	}{
		{"Vessel Diameter", s.VesselDiameter},
		{"CFR", s.FlowReserve},
		{"HMR", s.ResistanceIndex},
		{"Flow Increase (%)", s.FlowIncrease},
	}
	for _, o := range optional {
		if o.v != nil {
			fields = append(fields, Field{o.key, formatFloat(*o.v)})
		}
	}
	for _, w := range s.Waves {
		prefix := fmt.Sprintf("%s (%s)", w.Name, w.Direction)
		fields = append(fields,
			Field{prefix + " Cumulative Intensity", formatFloat(w.CumulativeIntensity)},
			Field{prefix + " Peak Intensity", formatFloat(w.PeakIntensity)},
		)
	}
	return fields
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
