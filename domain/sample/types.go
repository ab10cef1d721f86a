package sample

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Direction is the side of the measurement site a wave originates from.
type Direction int

const (
	Proximal Direction = iota
	Distal
)

func (d Direction) String() string {
	if d == Distal {
		return "distal"
	}
	return "proximal"
}

// ParseDirection accepts "proximal"/"distal" (and the forward/backward aliases), case-insensitively.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "proximal", "forward", "p":
		return Proximal, nil
	case "distal", "backward", "d":
		return Distal, nil
	}
	return Proximal, fmt.Errorf("unknown wave direction %q", s)
}

func (d Direction) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Direction) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDirection(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Tristate is a boolean that may be unknown.
type Tristate int

const (
	Unknown Tristate = iota
	True
	False
)

// TristateOf converts a known boolean.
func TristateOf(b bool) Tristate {
	if b {
		return True
	}
	return False
}

func (t Tristate) Known() bool { return t != Unknown }

// Not negates a known value; Unknown stays Unknown.
func (t Tristate) Not() Tristate {
	switch t {
	case True:
		return False
	case False:
		return True
	}
	return Unknown
}

func (t Tristate) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	}
	return "unknown"
}

func (t Tristate) MarshalJSON() ([]byte, error) {
	switch t {
	case True:
		return []byte("true"), nil
	case False:
		return []byte("false"), nil
	}
	return []byte("null"), nil
}

func (t *Tristate) UnmarshalJSON(data []byte) error {
	var b *bool
	if err := json.Unmarshal(data, &b); err != nil {
		return err
	}
	if b == nil {
		*t = Unknown
		return nil
	}
	*t = TristateOf(*b)
	return nil
}

// Wave is one classified energy event of a beat.
type Wave struct {
	Name                string    `json:"name"`
	Direction           Direction `json:"direction"`
	StartTime           float64   `json:"start_time"`
	EndTime             float64   `json:"end_time"`
	CumulativeIntensity float64   `json:"cumulative_intensity"`
	PeakIntensity       float64   `json:"peak_intensity"`
}

// Measurements are the whole-recording scalars produced upstream.
type Measurements struct {
	WaveSpeed          float64 `json:"wave_speed"`
	AvgPressure        float64 `json:"avg_pressure"`
	MaxPressure        float64 `json:"max_pressure"`
	MinPressure        float64 `json:"min_pressure"`
	AvgFlow            float64 `json:"avg_flow"`
	MaxFlow            float64 `json:"max_flow"`
	MinFlow            float64 `json:"min_flow"`
	Resistance         float64 `json:"resistance"`
	CumulativeNet      float64 `json:"cumulative_net"`
	CumulativeForward  float64 `json:"cumulative_forward"`
	CumulativeBackward float64 `json:"cumulative_backward"`
	PeakForward        float64 `json:"peak_forward"`
	PeakBackward       float64 `json:"peak_backward"`
}
