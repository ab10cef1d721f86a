package category

import "wiastat/domain/sample"

// memberSet keeps samples in insertion order with O(1) membership checks.
type memberSet struct {
	order []*sample.Sample
	index map[string]struct{}
}

func newMemberSet() memberSet {
	return memberSet{index: make(map[string]struct{})}
}

func (m *memberSet) add(s *sample.Sample) bool {
	if _, ok := m.index[s.Key()]; ok {
		return false
	}
	m.index[s.Key()] = struct{}{}
	m.order = append(m.order, s)
	return true
}

func (m *memberSet) remove(s *sample.Sample) bool {
	if _, ok := m.index[s.Key()]; !ok {
		return false
	}
	delete(m.index, s.Key())
	kept := m.order[:0]
	for _, o := range m.order {
		if o.Key() != s.Key() {
			kept = append(kept, o)
		}
	}
	m.order = kept
	return true
}

func (m *memberSet) has(s *sample.Sample) bool {
	_, ok := m.index[s.Key()]
	return ok
}

func (m *memberSet) len() int { return len(m.order) }

func (m *memberSet) list() []*sample.Sample {
	out := make([]*sample.Sample, len(m.order))
	copy(out, m.order)
	return out
}
