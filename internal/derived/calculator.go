// Package derived computes the cross-treatment metrics of a cohort: coronary
// flow reserve, hyperaemic microvascular resistance and the percent flow
// increase under an endothelial agonist.
package derived

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"wiastat/domain/category"
	"wiastat/domain/sample"
	"wiastat/internal/subtype"
	"wiastat/ports"
)

// Calculator writes derived metrics back onto samples. Metrics whose
// prerequisite treatment or counterpart sample is missing are skipped.
type Calculator struct {
	prompter      ports.DiameterPrompter
	skipDiameters bool
	logger        *zap.Logger
}

// NewCalculator creates a calculator. A nil prompter never asks for diameters;
// skipDiameters disables prompting from the start.
func NewCalculator(prompter ports.DiameterPrompter, skipDiameters bool, logger *zap.Logger) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calculator{
		prompter:      prompter,
		skipDiameters: skipDiameters,
		logger:        logger.Named("derived"),
	}
}

// SkipDiameters reports whether diameter prompting has been turned off,
// either up front or by a prompt answer.
func (c *Calculator) SkipDiameters() bool { return c.skipDiameters }

// Report counts the metrics that were computed.
type Report struct {
	ResistanceIndices int
	FlowReserves      int
	FlowIncreases     int
	VolumetricFlows   int
}

type vesselMetrics struct {
	flowReserve     *float64
	resistanceIndex *float64
	flowIncrease    *float64
}

// Calculate derives the metrics for every vessel of the registry. The values
// are written to all samples recorded from that vessel so that the vessel's
// classification is the same under every treatment.
func (c *Calculator) Calculate(ctx context.Context, reg *category.Registry) (Report, error) {
	var report Report
	metrics := make(map[string]*vesselMetrics)
	of := func(s *sample.Sample) *vesselMetrics {
		m, ok := metrics[s.IdentityKey()]
		if !ok {
			m = &vesselMetrics{}
			metrics[s.IdentityKey()] = m
		}
		return m
	}

	rest, hasRest := reg.TreatmentOfType(category.TreatmentRest)
	vaso, hasVaso := reg.TreatmentOfType(category.TreatmentVasodilator)
	endo, hasEndo := reg.TreatmentOfType(category.TreatmentEndothelial)

	if hasVaso {
		for _, s := range vaso.Samples() {
			hmr, ok := ResistanceIndex(s)
			if !ok {
				c.logger.Debug("skipping resistance index: zero flow", zap.String("sample", s.Name()))
				continue
			}
			of(s).resistanceIndex = &hmr
			report.ResistanceIndices++
		}

		if hasRest {
			for _, pair := range subtype.MatchPairs(vaso.Samples(), rest.Samples(), nil) {
				cfr, ok := FlowReserve(pair.After, pair.Before)
				if !ok {
					continue
				}
				of(pair.Before).flowReserve = &cfr
				report.FlowReserves++
			}
		}
	}

	if hasRest && hasEndo {
		for _, pair := range subtype.MatchPairs(rest.Samples(), endo.Samples(), nil) {
			increase, volumetric, ok, err := c.flowIncrease(ctx, pair.Before, pair.After, endo.Name())
			if err != nil {
				return report, err
			}
			if !ok {
				continue
			}
			of(pair.Before).flowIncrease = &increase
			report.FlowIncreases++
			if volumetric {
				report.VolumetricFlows++
			}
		}
	}

	for _, s := range reg.Samples() {
		m, ok := metrics[s.IdentityKey()]
		if !ok {
			continue
		}
		if m.flowReserve != nil {
			s.SetFlowReserve(*m.flowReserve)
		}
		if m.resistanceIndex != nil {
			s.SetResistanceIndex(*m.resistanceIndex)
		}
		if m.flowIncrease != nil {
			s.SetFlowIncrease(*m.flowIncrease)
		}
	}

	c.logger.Info("derived metrics computed",
		zap.Int("resistance_indices", report.ResistanceIndices),
		zap.Int("flow_reserves", report.FlowReserves),
		zap.Int("flow_increases", report.FlowIncreases),
		zap.Int("volumetric", report.VolumetricFlows))
	return report, nil
}

// flowIncrease uses volumetric flow when both diameters are known (asking for
// them if allowed) and falls back to velocity otherwise.
func (c *Calculator) flowIncrease(ctx context.Context, rest, agonist *sample.Sample, agonistName string) (increase float64, volumetric, ok bool, err error) {
	if (rest.VesselDiameter == nil || agonist.VesselDiameter == nil) && !c.skipDiameters && c.prompter != nil {
		answer, err := c.prompter.PromptDiameters(ctx, ports.DiameterRequest{
			Message: fmt.Sprintf("Vessel diameters for %s (%s and %s)",
				rest.IdentityKey(), rest.Name(), agonist.Name()),
			RestDefault:    rest.VesselDiameter,
			AgonistDefault: agonist.VesselDiameter,
		})
		if err != nil {
			return 0, false, false, fmt.Errorf("prompting for %s diameters: %w", agonistName, err)
		}
		if answer.SkipAll {
			c.skipDiameters = true
			c.logger.Info("diameter entry skipped for the rest of the run")
		} else if answer.Rest != nil && answer.Agonist != nil {
			rest.SetVesselDiameter(*answer.Rest)
			agonist.SetVesselDiameter(*answer.Agonist)
		}
	}

	if rest.VesselDiameter != nil && agonist.VesselDiameter != nil {
		restQ := VolumetricFlow(*rest.VesselDiameter, rest.AvgFlow)
		agonistQ := VolumetricFlow(*agonist.VesselDiameter, agonist.AvgFlow)
		if v, ok := percentIncrease(restQ, agonistQ); ok {
			return v, true, true, nil
		}
		return 0, false, false, nil
	}
	v, ok := percentIncrease(rest.AvgFlow, agonist.AvgFlow)
	return v, false, ok, nil
}

// ResistanceIndex is mean pressure over mean flow velocity.
func ResistanceIndex(s *sample.Sample) (float64, bool) {
	if s.AvgFlow == 0 {
		return 0, false
	}
	return s.AvgPressure / s.AvgFlow, true
}

// FlowReserve is hyperaemic over resting mean flow velocity.
func FlowReserve(hyperaemic, rest *sample.Sample) (float64, bool) {
	if rest.AvgFlow == 0 {
		return 0, false
	}
	return hyperaemic.AvgFlow / rest.AvgFlow, true
}

// VolumetricFlow is the flow through a circular vessel of the given diameter.
func VolumetricFlow(diameter, velocity float64) float64 {
	r := diameter / 2
	return math.Pi * r * r * velocity
}

func percentIncrease(before, after float64) (float64, bool) {
	if before == 0 {
		return 0, false
	}
	return (after - before) / before * 100, true
}
