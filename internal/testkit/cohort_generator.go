// Package testkit generates synthetic wave-intensity cohorts for tests,
// demos and the generate command.
package testkit

import (
	"fmt"
	"math"
	"math/rand"

	"wiastat/domain/sample"
)

// WaveSpec names a wave every sample may carry.
type WaveSpec struct {
	Name      string           `json:"name"`
	Direction sample.Direction `json:"direction"`
	Share     float64          `json:"share"` // fraction of the directional intensity
}

// CohortGeneratorConfig configures the cohort generator
type CohortGeneratorConfig struct {
	VesselCount         int        `json:"vessel_count"`
	RestLabel           string     `json:"rest_label"`
	VasodilatorLabel    string     `json:"vasodilator_label"`
	EndothelialLabel    string     `json:"endothelial_label"`
	Waves               []WaveSpec `json:"waves"`
	EndoDependentRate   float64    `json:"endo_dependent_rate"`
	EndoIndependentRate float64    `json:"endo_independent_rate"`
	DiameterRate        float64    `json:"diameter_rate"`
	MissingWaveRate     float64    `json:"missing_wave_rate"`
	Seed                int64      `json:"seed"`
}

// DefaultCohortConfig returns sensible defaults for cohort generation
func DefaultCohortConfig() CohortGeneratorConfig {
	return CohortGeneratorConfig{
		VesselCount:      24,
		RestLabel:        "Rest",
		VasodilatorLabel: "Adenosine",
		EndothelialLabel: "Acetylcholine",
		Waves: []WaveSpec{
			{Name: "FCW", Direction: sample.Proximal, Share: 0.7},
			{Name: "LFCW", Direction: sample.Proximal, Share: 0.3},
			{Name: "BDW", Direction: sample.Distal, Share: 1},
		},
		EndoDependentRate:   0.35,
		EndoIndependentRate: 0.3,
		DiameterRate:        0.5,
		MissingWaveRate:     0.05,
		Seed:                42,
	}
}

// CohortGenerator produces one sample per vessel and treatment. Vessel
// physiology follows the vessel's disease status so that stratified
// comparisons have something to find.
type CohortGenerator struct {
	config CohortGeneratorConfig
	rng    *rand.Rand
}

// NewCohortGenerator creates a new cohort generator
func NewCohortGenerator(config CohortGeneratorConfig) *CohortGenerator {
	return &CohortGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// GenerateCohort generates the default cohort with the given seed and size.
func GenerateCohort(seed int64, vessels int) []*sample.Sample {
	config := DefaultCohortConfig()
	config.Seed = seed
	config.VesselCount = vessels
	return NewCohortGenerator(config).Generate()
}

type vessel struct {
	subject         string
	restFlow        float64
	pressure        float64
	flowReserve     float64
	flowIncrease    float64
	diameter        float64
	hasDiameter     bool
	endoDependent   bool
	endoIndependent bool
}

// Generate returns rest, vasodilator and endothelial-agonist samples for
// every vessel. Empty treatment labels are skipped.
func (g *CohortGenerator) Generate() []*sample.Sample {
	var samples []*sample.Sample
	for i := 0; i < g.config.VesselCount; i++ {
		v := g.newVessel(fmt.Sprintf("P%03d", i+1))

		if g.config.RestLabel != "" {
			samples = append(samples, g.sampleFor(v, g.config.RestLabel, v.restFlow, v.pressure))
		}
		if g.config.VasodilatorLabel != "" {
			samples = append(samples, g.sampleFor(v, g.config.VasodilatorLabel, v.restFlow*v.flowReserve, v.pressure*0.9))
		}
		if g.config.EndothelialLabel != "" {
			flow := v.restFlow * (1 + v.flowIncrease/100)
			agonist := g.sampleFor(v, g.config.EndothelialLabel, flow, v.pressure)
			if v.hasDiameter {
				// Constriction under the agonist.
				agonist.SetVesselDiameter(round(v.diameter*g.between(0.85, 1.1), 3))
			}
			samples = append(samples, agonist)
		}
	}
	return samples
}

func (g *CohortGenerator) newVessel(subject string) vessel {
	v := vessel{
		subject:         subject,
		restFlow:        g.normal(20, 3, 8),
		pressure:        g.normal(90, 8, 60),
		endoDependent:   g.rng.Float64() < g.config.EndoDependentRate,
		endoIndependent: g.rng.Float64() < g.config.EndoIndependentRate,
		hasDiameter:     g.rng.Float64() < g.config.DiameterRate,
		diameter:        g.normal(3, 0.4, 1.5),
	}
	if v.endoIndependent {
		v.flowReserve = g.normal(1.9, 0.3, 1.05)
	} else {
		v.flowReserve = g.normal(3.3, 0.4, 2.6)
	}
	if v.endoDependent {
		v.flowIncrease = g.normal(15, 15, -40)
	} else {
		v.flowIncrease = g.normal(110, 30, 55)
	}
	return v
}

func (g *CohortGenerator) sampleFor(v vessel, treatment string, flow, pressure float64) *sample.Sample {
	s := &sample.Sample{
		Path:      fmt.Sprintf("%s_%s.wia", v.subject, treatment),
		Subject:   v.subject,
		Treatment: treatment,
	}
	if v.hasDiameter {
		s.SetVesselDiameter(round(v.diameter, 3))
	}

	m := &s.Measurements
	m.AvgFlow = round(flow, 2)
	m.MaxFlow = round(flow*g.between(1.6, 2.0), 2)
	m.MinFlow = round(flow*g.between(0.2, 0.5), 2)
	m.AvgPressure = round(pressure, 1)
	m.MaxPressure = round(pressure*g.between(1.3, 1.45), 1)
	m.MinPressure = round(pressure*g.between(0.6, 0.75), 1)
	m.Resistance = round(pressure/flow, 3)
	m.WaveSpeed = round(g.normal(12, 3, 4), 2)

	// Intensity scales with the square of the flow change within a beat.
	forward := flow * flow * g.between(0.9, 1.1) * 100
	backward := -forward * g.between(0.2, 0.45)

	for _, spec := range g.config.Waves {
		if g.rng.Float64() < g.config.MissingWaveRate {
			continue
		}
		total := forward
		start := g.between(0.0, 0.05)
		if spec.Direction == sample.Distal {
			total = backward
			start = g.between(0.25, 0.35)
		}
		cumulative := total * spec.Share * g.between(0.85, 1.15)
		s.Waves = append(s.Waves, sample.Wave{
			Name:                spec.Name,
			Direction:           spec.Direction,
			StartTime:           round(start, 4),
			EndTime:             round(start+g.between(0.05, 0.15), 4),
			CumulativeIntensity: round(cumulative, 1),
			PeakIntensity:       round(cumulative*g.between(0.08, 0.15), 1),
		})
	}

	for _, w := range s.Waves {
		if w.Direction == sample.Proximal {
			m.CumulativeForward += w.CumulativeIntensity
			m.PeakForward = math.Max(m.PeakForward, w.PeakIntensity)
		} else {
			m.CumulativeBackward += w.CumulativeIntensity
			m.PeakBackward = math.Min(m.PeakBackward, w.PeakIntensity)
		}
	}
	m.CumulativeNet = m.CumulativeForward + m.CumulativeBackward

	if g.rng.Float64() < 0.5 {
		s.EndoDependentFlag = sample.TristateOf(v.endoDependent)
	}
	return s
}

// normal draws from N(mean, sd) truncated below at min.
func (g *CohortGenerator) normal(mean, sd, min float64) float64 {
	return math.Max(min, mean+g.rng.NormFloat64()*sd)
}

func (g *CohortGenerator) between(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
