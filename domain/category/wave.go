package category

import (
	"math"
	"strings"

	"wiastat/domain/sample"
)

// WaveCategory groups the waves of all samples that share a name and a
// direction. Its identity is fixed when it is created; the display name can
// change afterwards without affecting equality.
type WaveCategory struct {
	identityKey string
	displayName string
	direction   sample.Direction
	members     memberSet
}

func newWaveCategory(name string, direction sample.Direction) *WaveCategory {
	return &WaveCategory{
		identityKey: waveKey(name, direction),
		displayName: name,
		direction:   direction,
		members:     newMemberSet(),
	}
}

func waveKey(name string, direction sample.Direction) string {
	return strings.ToLower(strings.TrimSpace(name)) + "|" + direction.String()
}

// Key is the immutable identity (original name and direction).
func (c *WaveCategory) Key() string { return c.identityKey }

func (c *WaveCategory) Name() string { return c.displayName }

func (c *WaveCategory) Direction() sample.Direction { return c.direction }

// Label is the name with its direction, as used in report headings.
func (c *WaveCategory) Label() string {
	return c.displayName + " (" + c.direction.String() + ")"
}

// Samples returns the member samples in discovery order.
func (c *WaveCategory) Samples() []*sample.Sample { return c.members.list() }

func (c *WaveCategory) Len() int { return c.members.len() }

// Equal compares identities only.
func (c *WaveCategory) Equal(other *WaveCategory) bool {
	return other != nil && c.identityKey == other.identityKey
}

// Matches reports whether w belongs to this category under its current name.
func (c *WaveCategory) Matches(w sample.Wave) bool {
	return w.Direction == c.direction && strings.EqualFold(strings.TrimSpace(w.Name), c.displayName)
}

// WaveOf returns the first wave of s that belongs to this category.
func (c *WaveCategory) WaveOf(s *sample.Sample) (sample.Wave, bool) {
	for _, w := range s.Waves {
		if c.Matches(w) {
			return w, true
		}
	}
	return sample.Wave{}, false
}

// WaveCategoryGroup is a user-defined set of wave categories whose intensities
// are summed.
type WaveCategoryGroup struct {
	name        string
	members     []*WaveCategory
	direction   sample.Direction
	directional bool
}

func newWaveCategoryGroup(name string, members []*WaveCategory) *WaveCategoryGroup {
	g := &WaveCategoryGroup{name: name, members: members}
	g.direction, g.directional = aggregateDirection(members)
	return g
}

// aggregateDirection is proximal or distal when every member agrees, and
// undirected otherwise.
func aggregateDirection(members []*WaveCategory) (sample.Direction, bool) {
	if len(members) == 0 {
		return sample.Proximal, false
	}
	first := members[0].Direction()
	for _, m := range members[1:] {
		if m.Direction() != first {
			return sample.Proximal, false
		}
	}
	return first, true
}

func (g *WaveCategoryGroup) Name() string { return g.name }

// Direction returns the shared direction; ok is false for mixed groups.
func (g *WaveCategoryGroup) Direction() (d sample.Direction, ok bool) {
	return g.direction, g.directional
}

func (g *WaveCategoryGroup) Members() []*WaveCategory {
	out := make([]*WaveCategory, len(g.members))
	copy(out, g.members)
	return out
}

func (g *WaveCategoryGroup) Contains(c *WaveCategory) bool {
	for _, m := range g.members {
		if m.Equal(c) {
			return true
		}
	}
	return false
}

func (g *WaveCategoryGroup) remove(c *WaveCategory) {
	kept := g.members[:0]
	for _, m := range g.members {
		if !m.Equal(c) {
			kept = append(kept, m)
		}
	}
	g.members = kept
}

// SumIntensity adds up the absolute cumulative intensity of the member waves
// present in s. ok is false when s has none of them.
func (g *WaveCategoryGroup) SumIntensity(s *sample.Sample) (sum float64, ok bool) {
	for _, m := range g.members {
		if w, found := m.WaveOf(s); found {
			sum += math.Abs(w.CumulativeIntensity)
			ok = true
		}
	}
	return sum, ok
}

// SumPeakIntensity is SumIntensity over peak intensities.
func (g *WaveCategoryGroup) SumPeakIntensity(s *sample.Sample) (sum float64, ok bool) {
	for _, m := range g.members {
		if w, found := m.WaveOf(s); found {
			sum += math.Abs(w.PeakIntensity)
			ok = true
		}
	}
	return sum, ok
}

// Samples lists the samples that have at least one member wave.
func (g *WaveCategoryGroup) Samples() []*sample.Sample {
	set := newMemberSet()
	for _, m := range g.members {
		for _, s := range m.Samples() {
			set.add(s)
		}
	}
	return set.list()
}
