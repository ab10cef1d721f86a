package excel

// RawRowData represents a row of raw Excel data as string key-value pairs
type RawRowData map[string]string

// ExcelData represents the complete Excel dataset
type ExcelData struct {
	Headers []string     // Column headers
	Rows    []RawRowData // Data rows
}

// Sheet names of a sample workbook.
const (
	SamplesSheet = "Samples"
	WavesSheet   = "Waves"
)

// Columns of the Samples sheet. Matching is case-insensitive.
const (
	ColFile               = "File"
	ColSubject            = "Subject"
	ColTreatment          = "Treatment"
	ColWaveSpeed          = "Wave Speed"
	ColAvgPressure        = "Avg Pressure"
	ColMaxPressure        = "Max Pressure"
	ColMinPressure        = "Min Pressure"
	ColAvgFlow            = "Avg Flow"
	ColMaxFlow            = "Max Flow"
	ColMinFlow            = "Min Flow"
	ColResistance         = "Resistance"
	ColCumulativeNet      = "Cumulative Net Intensity"
	ColCumulativeForward  = "Cumulative Forward Intensity"
	ColCumulativeBackward = "Cumulative Backward Intensity"
	ColPeakForward        = "Peak Forward Intensity"
	ColPeakBackward       = "Peak Backward Intensity"
	ColVesselDiameter     = "Vessel Diameter"
	ColFlowReserve        = "CFR"
	ColResistanceIndex    = "HMR"
	ColFlowIncrease       = "Flow Increase (%)"
	ColEndoDependent      = "Endothelium-dependent CMD"
	ColEndoIndependent    = "Endothelium-independent CMD"
)

// Columns of the Waves sheet; one row per wave, joined to samples by File.
const (
	ColWave                = "Wave"
	ColDirection           = "Direction"
	ColStart               = "Start"
	ColEnd                 = "End"
	ColCumulativeIntensity = "Cumulative Intensity"
	ColPeakIntensity       = "Peak Intensity"
)

// SampleColumns is the column order written to the Samples sheet.
var SampleColumns = []string{
	ColFile, ColSubject, ColTreatment, ColWaveSpeed,
	ColAvgPressure, ColMaxPressure, ColMinPressure,
	ColAvgFlow, ColMaxFlow, ColMinFlow, ColResistance,
	ColCumulativeNet, ColCumulativeForward, ColCumulativeBackward,
	ColPeakForward, ColPeakBackward,
	ColVesselDiameter, ColFlowReserve, ColResistanceIndex, ColFlowIncrease,
	ColEndoDependent, ColEndoIndependent,
}

// WaveColumns is the column order written to the Waves sheet.
var WaveColumns = []string{
	ColFile, ColWave, ColDirection, ColStart, ColEnd, ColCumulativeIntensity, ColPeakIntensity,
}
