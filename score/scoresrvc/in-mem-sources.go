package scoresrvc

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/programme-lv/scoreboard/score/domain"
)

// InMemSubmSource is a seedable SubmSource for tests and local development.
type InMemSubmSource struct {
	mu    sync.Mutex
	subms []GradedSubm
}

func NewInMemSubmSource() *InMemSubmSource {
	return &InMemSubmSource{}
}

func (s *InMemSubmSource) Add(sub GradedSubm) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subms = append(s.subms, sub)
}

// SetScore replaces a submission's score; a nil score marks it unscored
// again, e.g. while a rescoring is in flight.
func (s *InMemSubmSource) SetScore(submID int64, score *float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.subms {
		if s.subms[i].SubmID == submID {
			s.subms[i].Score = score
		}
	}
}

// ListScoredFacts implements SubmSource
func (s *InMemSubmSource) ListScoredFacts(ctx context.Context, participationID int64, taskID int64) ([]domain.SubmFact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var facts []domain.SubmFact
	for _, sub := range s.subms {
		if sub.ParticipationID != participationID || sub.TaskID != taskID {
			continue
		}
		if !sub.Official || sub.Score == nil {
			continue
		}
		facts = append(facts, sub.fact())
	}
	slices.SortFunc(facts, func(a, b domain.SubmFact) int {
		if cmp := a.Timestamp.Compare(b.Timestamp); cmp != 0 {
			return cmp
		}
		return int(a.SubmID - b.SubmID)
	})
	return facts, nil
}

// StaticTaskSrvc is a fixed task-scoring lookup for tests.
type StaticTaskSrvc struct {
	Tasks map[int64]domain.TaskScoring
}

func (s StaticTaskSrvc) GetTaskScoring(ctx context.Context, taskID int64) (domain.TaskScoring, error) {
	scoring, ok := s.Tasks[taskID]
	if !ok {
		return domain.TaskScoring{}, fmt.Errorf("task %d not found", taskID)
	}
	return scoring, nil
}

// StaticContestSrvc is a fixed contest-participation lookup for tests.
type StaticContestSrvc struct {
	Contests map[int64][]int64
}

func (s StaticContestSrvc) ListParticipationIDs(ctx context.Context, contestID int64) ([]int64, error) {
	participationIDs, ok := s.Contests[contestID]
	if !ok {
		return nil, fmt.Errorf("contest %d not found", contestID)
	}
	return participationIDs, nil
}
