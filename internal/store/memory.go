package store

import (
	"sync"

	"github.com/AngelCh415/wbdash/internal/filter"
	"github.com/AngelCh415/wbdash/internal/models"
)

// MemoryStore is the dashboard state: the full record set of the last load,
// the subset matching the current criteria, and the selectors of the full set.
// Slices are replaced whole, never mutated in place.
type MemoryStore struct {
	mu        sync.RWMutex
	all       []models.Record
	filtered  []models.Record
	criteria  models.Criteria
	selectors models.Selectors
	source    models.Source
	loaded    bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		all:       []models.Record{},
		filtered:  []models.Record{},
		selectors: filter.Selectors(nil),
	}
}

// Replace installs a freshly loaded record set, resets the criteria to the
// defaults for that set and recomputes the filtered subset.
func (s *MemoryStore) Replace(recs []models.Record, src models.Source) {
	sel := filter.Selectors(recs)
	c := filter.DefaultCriteria(sel)
	filtered := filter.Apply(recs, c)
	src.Records = len(recs)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.all = recs
	s.selectors = sel
	s.criteria = c
	s.filtered = filtered
	s.source = src
	s.loaded = true
}

// SetCriteria filters the current full set with c and stores the result.
// It reports false, leaving the state untouched, when a Replace landed while
// the filter ran.
func (s *MemoryStore) SetCriteria(c models.Criteria) ([]models.Record, bool) {
	all := s.All()
	return s.commitCriteria(all, c, filter.Apply(all, c))
}

func (s *MemoryStore) commitCriteria(base []models.Record, c models.Criteria, filtered []models.Record) ([]models.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// otro Replace pudo ganar la carrera; no mezclar conjuntos
	if !sameSlice(base, s.all) {
		return s.filtered, false
	}
	s.criteria = c
	s.filtered = filtered
	return filtered, true
}

func (s *MemoryStore) All() []models.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.all
}

func (s *MemoryStore) Filtered() []models.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filtered
}

func (s *MemoryStore) Criteria() models.Criteria {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.criteria
}

func (s *MemoryStore) Selectors() models.Selectors {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectors
}

func (s *MemoryStore) Source() models.Source {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

// Loaded reports whether any dataset has been installed yet.
func (s *MemoryStore) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

func sameSlice(a, b []models.Record) bool {
	if len(a) != len(b) {
		return false
	}
	return len(a) == 0 || &a[0] == &b[0]
}
