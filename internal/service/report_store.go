package service

import (
	"sync"
	"time"

	"github.com/noah-isme/course-timetable-api/internal/models"
)

// reportStore keeps the latest generation outcome per department in memory so the
// report endpoint keeps working when Redis is disabled.
type reportStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]models.GenerationOutcome
}

func newReportStore(ttl time.Duration) *reportStore {
	return &reportStore{
		ttl:   ttl,
		items: make(map[string]models.GenerationOutcome),
	}
}

func (s *reportStore) Save(outcome models.GenerationOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[outcome.DepartmentID] = outcome
}

func (s *reportStore) Get(departmentID string) (models.GenerationOutcome, bool) {
	s.mu.RLock()
	outcome, ok := s.items[departmentID]
	s.mu.RUnlock()
	if !ok {
		return models.GenerationOutcome{}, false
	}
	if time.Since(outcome.RecordedAt) > s.ttl {
		s.Delete(departmentID)
		return models.GenerationOutcome{}, false
	}
	return outcome, true
}

func (s *reportStore) Delete(departmentID string) {
	s.mu.Lock()
	delete(s.items, departmentID)
	s.mu.Unlock()
}
