package models

// Snapshot is the complete tracker state: the id counter plus both
// collections. An id appears in at most one collection.
type Snapshot struct {
	IDCounter int64
	Active    []Point
	Resolved  []Point
}

// MaxID returns the largest id across both collections, or 0.
func (s Snapshot) MaxID() int64 {
	var m int64
	for _, p := range s.Active {
		if p.ID > m {
			m = p.ID
		}
	}
	for _, p := range s.Resolved {
		if p.ID > m {
			m = p.ID
		}
	}
	return m
}

// NormalizeCounter raises IDCounter so that it is at least 1 and strictly
// greater than every id in the snapshot. It reports whether the counter
// changed.
func (s *Snapshot) NormalizeCounter() bool {
	want := s.IDCounter
	if want < 1 {
		want = 1
	}
	if m := s.MaxID(); want <= m {
		want = m + 1
	}
	changed := want != s.IDCounter
	s.IDCounter = want
	return changed
}

func (s Snapshot) Clone() Snapshot {
	c := Snapshot{IDCounter: s.IDCounter}
	if s.Active != nil {
		c.Active = make([]Point, len(s.Active))
		for i, p := range s.Active {
			c.Active[i] = p.Clone()
		}
	}
	if s.Resolved != nil {
		c.Resolved = make([]Point, len(s.Resolved))
		for i, p := range s.Resolved {
			c.Resolved[i] = p.Clone()
		}
	}
	return c
}
