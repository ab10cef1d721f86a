package category

import (
	"fmt"
	"strings"

	"wiastat/domain/core"
	"wiastat/domain/sample"
)

// Registry owns the sample list and the categories discovered from it.
// Samples refer to categories only through key lookups, so removing a sample
// is a set removal followed by a sweep for empty categories.
type Registry struct {
	aliases AliasTable

	samples memberSet

	waves     []*WaveCategory
	waveIndex map[string]*WaveCategory
	groups    []*WaveCategoryGroup

	treatments     []*TreatmentCategory
	treatmentIndex map[string]*TreatmentCategory

	sampleWaves     map[string]map[string]struct{}
	sampleTreatment map[string]string
}

// NewRegistry creates an empty registry. A nil alias table selects DefaultAliases.
func NewRegistry(aliases AliasTable) *Registry {
	if aliases == nil {
		aliases = DefaultAliases()
	}
	r := &Registry{aliases: aliases}
	r.reset()
	return r
}

func (r *Registry) reset() {
	r.samples = newMemberSet()
	r.waves = nil
	r.waveIndex = make(map[string]*WaveCategory)
	r.groups = nil
	r.treatments = nil
	r.treatmentIndex = make(map[string]*TreatmentCategory)
	r.sampleWaves = make(map[string]map[string]struct{})
	r.sampleTreatment = make(map[string]string)
}

// Discover replaces the sample list and rebuilds every category from it.
// Existing wave category groups are kept when their members still exist.
func (r *Registry) Discover(samples []*sample.Sample) {
	groups := r.groups
	r.reset()
	for _, s := range samples {
		r.samples.add(s)
	}
	r.DiscoverWaveCategories(samples)
	r.DiscoverTreatmentCategories(samples)
	r.rebindGroups(groups)
}

// DiscoverWaveCategories clears the wave categories and rebuilds them so that
// there is exactly one category per (case-insensitive name, direction).
func (r *Registry) DiscoverWaveCategories(samples []*sample.Sample) {
	groups := r.groups
	r.waves = nil
	r.waveIndex = make(map[string]*WaveCategory)
	r.groups = nil
	r.sampleWaves = make(map[string]map[string]struct{})

	for _, s := range samples {
		r.samples.add(s)
		for _, w := range s.Waves {
			cat := r.findWaveCategory(w)
			if cat == nil {
				cat = newWaveCategory(strings.TrimSpace(w.Name), w.Direction)
				r.waves = append(r.waves, cat)
				r.waveIndex[cat.Key()] = cat
			}
			r.attachWave(s, cat)
		}
	}
	r.rebindGroups(groups)
}

// DiscoverTreatmentCategories assigns each sample to the treatment category
// whose label matches case-insensitively, creating it when needed.
func (r *Registry) DiscoverTreatmentCategories(samples []*sample.Sample) {
	for _, s := range samples {
		r.samples.add(s)
		r.attachTreatment(s, s.Treatment)
	}
}

func (r *Registry) findWaveCategory(w sample.Wave) *WaveCategory {
	for _, c := range r.waves {
		if c.Matches(w) {
			return c
		}
	}
	return nil
}

func (r *Registry) attachWave(s *sample.Sample, c *WaveCategory) {
	c.members.add(s)
	refs, ok := r.sampleWaves[s.Key()]
	if !ok {
		refs = make(map[string]struct{})
		r.sampleWaves[s.Key()] = refs
	}
	refs[c.Key()] = struct{}{}
}

func (r *Registry) attachTreatment(s *sample.Sample, label string) *TreatmentCategory {
	key := treatmentKey(label)
	t, ok := r.treatmentIndex[key]
	if !ok {
		t = newTreatmentCategory(label, r.aliases.Classify(label))
		r.treatments = append(r.treatments, t)
		r.treatmentIndex[key] = t
	}
	t.members.add(s)
	r.sampleTreatment[s.Key()] = key
	return t
}

// rebindGroups carries groups over to freshly discovered categories. Members
// are matched by their current name, since a renamed category is rediscovered
// under a new identity.
func (r *Registry) rebindGroups(previous []*WaveCategoryGroup) {
	for _, g := range previous {
		var members []*WaveCategory
		seen := make(map[string]struct{}, len(g.members))
		for _, m := range g.members {
			c := r.findWaveCategory(sample.Wave{Name: m.Name(), Direction: m.Direction()})
			if c == nil {
				continue
			}
			if _, dup := seen[c.Key()]; dup {
				continue
			}
			seen[c.Key()] = struct{}{}
			members = append(members, c)
		}
		if len(members) > 0 {
			r.groups = append(r.groups, newWaveCategoryGroup(g.name, members))
		}
	}
}

// Samples returns the master sample list.
func (r *Registry) Samples() []*sample.Sample { return r.samples.list() }

func (r *Registry) WaveCategories() []*WaveCategory {
	out := make([]*WaveCategory, len(r.waves))
	copy(out, r.waves)
	return out
}

func (r *Registry) WaveCategoryGroups() []*WaveCategoryGroup {
	out := make([]*WaveCategoryGroup, len(r.groups))
	copy(out, r.groups)
	return out
}

func (r *Registry) TreatmentCategories() []*TreatmentCategory {
	out := make([]*TreatmentCategory, len(r.treatments))
	copy(out, r.treatments)
	return out
}

// WaveCategory looks a category up by its identity key.
func (r *Registry) WaveCategory(key string) (*WaveCategory, bool) {
	c, ok := r.waveIndex[key]
	return c, ok
}

// TreatmentCategory looks a category up by label, case-insensitively.
func (r *Registry) TreatmentCategory(label string) (*TreatmentCategory, bool) {
	t, ok := r.treatmentIndex[treatmentKey(label)]
	return t, ok
}

// TreatmentOfType returns the first treatment category of the given type.
func (r *Registry) TreatmentOfType(typ TreatmentType) (*TreatmentCategory, bool) {
	for _, t := range r.treatments {
		if t.typ == typ {
			return t, true
		}
	}
	return nil, false
}

// TreatmentOf returns the category the sample is currently filed under.
func (r *Registry) TreatmentOf(s *sample.Sample) (*TreatmentCategory, bool) {
	key, ok := r.sampleTreatment[s.Key()]
	if !ok {
		return nil, false
	}
	t, ok := r.treatmentIndex[key]
	return t, ok
}

// SetTreatmentType overrides the automatically assigned type.
func (r *Registry) SetTreatmentType(t *TreatmentCategory, typ TreatmentType) {
	t.typ = typ
}

// RenameTreatment relabels a sample and moves it to the matching category.
// The old category is deleted when it becomes empty.
func (r *Registry) RenameTreatment(s *sample.Sample, newName string) {
	newName = strings.TrimSpace(newName)
	if newName == s.Treatment {
		return
	}
	s.SetTreatment(newName)

	oldKey, filed := r.sampleTreatment[s.Key()]
	if filed && oldKey == treatmentKey(newName) {
		return
	}
	if filed {
		if old, ok := r.treatmentIndex[oldKey]; ok {
			old.members.remove(s)
			if old.Len() == 0 {
				r.deleteTreatment(old)
			}
		}
	}
	r.samples.add(s)
	r.attachTreatment(s, newName)
}

// RenameWaveCategory changes the display name and renames the member samples'
// waves so that they keep matching. The identity key is unchanged.
func (r *Registry) RenameWaveCategory(c *WaveCategory, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return fmt.Errorf("wave category name cannot be empty")
	}
	probe := sample.Wave{Name: newName, Direction: c.direction}
	if other := r.findWaveCategory(probe); other != nil && !other.Equal(c) {
		return fmt.Errorf("%w: %s", core.ErrDuplicateCategory, other.Label())
	}
	for _, s := range c.Samples() {
		waves := make([]sample.Wave, len(s.Waves))
		copy(waves, s.Waves)
		for i := range waves {
			if c.Matches(waves[i]) {
				waves[i].Name = newName
			}
		}
		s.SetWaves(waves)
	}
	c.displayName = newName
	return nil
}

// AddWaveCategoryGroup registers a named group of existing categories.
func (r *Registry) AddWaveCategoryGroup(name string, members []*WaveCategory) (*WaveCategoryGroup, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("group name cannot be empty")
	}
	if len(members) == 0 {
		return nil, core.ErrEmptyGroup
	}
	for _, g := range r.groups {
		if strings.EqualFold(g.name, name) {
			return nil, fmt.Errorf("%w: %s", core.ErrDuplicateCategory, name)
		}
	}
	seen := make(map[string]struct{}, len(members))
	resolved := make([]*WaveCategory, 0, len(members))
	for _, m := range members {
		c, ok := r.waveIndex[m.Key()]
		if !ok {
			return nil, fmt.Errorf("%w: wave category %s", core.ErrNotFound, m.Label())
		}
		if _, dup := seen[c.Key()]; dup {
			continue
		}
		seen[c.Key()] = struct{}{}
		resolved = append(resolved, c)
	}
	g := newWaveCategoryGroup(name, resolved)
	r.groups = append(r.groups, g)
	return g, nil
}

// RemoveSample drops a sample from the master list and from every category
// it belongs to. Categories left empty are deleted, and so are groups left
// without members. Removing an unknown sample is a no-op.
func (r *Registry) RemoveSample(s *sample.Sample) {
	key := s.Key()
	r.samples.remove(s)

	for waveKey := range r.sampleWaves[key] {
		c, ok := r.waveIndex[waveKey]
		if !ok {
			continue
		}
		c.members.remove(s)
		if c.Len() == 0 {
			r.RemoveWaveCategory(c)
		}
	}
	delete(r.sampleWaves, key)

	if tKey, ok := r.sampleTreatment[key]; ok {
		if t, ok := r.treatmentIndex[tKey]; ok {
			t.members.remove(s)
			if t.Len() == 0 {
				r.deleteTreatment(t)
			}
		}
		delete(r.sampleTreatment, key)
	}
}

// RemoveWaveCategory deletes a category and removes it from every group;
// groups left empty are deleted too.
func (r *Registry) RemoveWaveCategory(c *WaveCategory) {
	if _, ok := r.waveIndex[c.Key()]; !ok {
		return
	}
	delete(r.waveIndex, c.Key())
	kept := r.waves[:0]
	for _, w := range r.waves {
		if !w.Equal(c) {
			kept = append(kept, w)
		}
	}
	r.waves = kept

	for _, refs := range r.sampleWaves {
		delete(refs, c.Key())
	}

	groups := r.groups[:0]
	for _, g := range r.groups {
		g.remove(c)
		if len(g.members) > 0 {
			groups = append(groups, g)
		}
	}
	r.groups = groups
}

func (r *Registry) RemoveWaveCategoryGroup(g *WaveCategoryGroup) {
	kept := r.groups[:0]
	for _, o := range r.groups {
		if o != g {
			kept = append(kept, o)
		}
	}
	r.groups = kept
}

// RemoveTreatmentCategory deletes a treatment category. Its samples stay in
// the master list but are no longer filed under any treatment.
func (r *Registry) RemoveTreatmentCategory(t *TreatmentCategory) {
	for _, s := range t.Samples() {
		delete(r.sampleTreatment, s.Key())
	}
	r.deleteTreatment(t)
}

func (r *Registry) deleteTreatment(t *TreatmentCategory) {
	delete(r.treatmentIndex, t.key)
	kept := r.treatments[:0]
	for _, o := range r.treatments {
		if o.key != t.key {
			kept = append(kept, o)
		}
	}
	r.treatments = kept
}
