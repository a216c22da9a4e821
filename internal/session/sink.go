package session

import (
	"context"
	"sync"

	"github.com/eduquiz/eduquiz-backend/internal/model"
)

// ResultSink receives the outcome of a completed session. Implementations
// may persist asynchronously; the controller never waits on persistence to
// present the result.
type ResultSink interface {
	// SaveResult persists one immutable Result record.
	SaveResult(ctx context.Context, result *model.Result) error
	// AddPoints applies a positive delta to the student's point balance.
	// The controller only calls this when the awarded amount is > 0.
	AddPoints(ctx context.Context, studentID int, delta float64) error
}

// MemorySink is the local fallback ResultSink: results and point deltas are
// held in memory only. It backs offline operation and unit tests.
type MemorySink struct {
	mu      sync.Mutex
	results []*model.Result
	points  map[int]float64
}

func NewMemorySink() *MemorySink {
	return &MemorySink{points: make(map[int]float64)}
}

func (s *MemorySink) SaveResult(_ context.Context, result *model.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
	return nil
}

func (s *MemorySink) AddPoints(_ context.Context, studentID int, delta float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points[studentID] += delta
	return nil
}

// Results returns a copy of all saved results.
func (s *MemorySink) Results() []*model.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Result, len(s.results))
	copy(out, s.results)
	return out
}

// PointsFor returns the accumulated point delta for a student.
func (s *MemorySink) PointsFor(studentID int) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.points[studentID]
}
