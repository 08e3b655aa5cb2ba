package scoresrvc

import (
	"context"
	"time"

	"github.com/programme-lv/scoreboard/score/domain"
)

// ScoreTx is the transactional view of the score store while the advisory
// lock on a (participation, task) pair is held. All reads and writes inside
// it belong to one transaction; a returned error rolls everything back.
type ScoreTx interface {
	// GetEntry returns the pair's cache entry, or nil when none exists.
	GetEntry(ctx context.Context, participationID int64, taskID int64) (*domain.ScoreEntry, error)
	// SaveEntry upserts the pair's cache entry.
	SaveEntry(ctx context.Context, entry domain.ScoreEntry) error
	AddHistoryRow(ctx context.Context, row domain.ScoreHistoryRow) error
	DeleteHistory(ctx context.Context, participationID int64, taskID int64) error
}

// InvalidationFilter selects cache entries by any non-empty combination of
// participation, task, or participation set (a contest's participations).
type InvalidationFilter struct {
	ParticipationID  *int64
	TaskID           *int64
	ParticipationIDs []int64
}

func (f InvalidationFilter) Empty() bool {
	return f.ParticipationID == nil && f.TaskID == nil && len(f.ParticipationIDs) == 0
}

// ScoreStore persists cache entries and their history rows.
type ScoreStore interface {
	// WithPairLock runs fn inside a single transaction that serializes
	// all writers of the (participation, task) pair. The lock must work
	// for pairs whose entry row does not exist yet.
	WithPairLock(ctx context.Context, participationID int64, taskID int64, fn func(tx ScoreTx) error) error
	// GetEntry is the lock-free read used by the lookup fast path.
	GetEntry(ctx context.Context, participationID int64, taskID int64) (*domain.ScoreEntry, error)
	// ListHistory returns the pair's history rows ordered by timestamp.
	ListHistory(ctx context.Context, participationID int64, taskID int64) ([]domain.ScoreHistoryRow, error)
	// ListEntries returns the entries of the given participations ordered
	// by (participation_id, task_id).
	ListEntries(ctx context.Context, participationIDs []int64) ([]domain.ScoreEntry, error)
	// Invalidate stamps invalidated_at, clears score_valid and deletes
	// history rows for every entry the filter matches.
	Invalidate(ctx context.Context, filter InvalidationFilter, at time.Time) error
}

// SubmSource reads the externally-owned graded submissions.
type SubmSource interface {
	// ListScoredFacts returns the facts of all official scored submissions
	// for the pair, ordered by timestamp ascending, ties broken by
	// submission id.
	ListScoredFacts(ctx context.Context, participationID int64, taskID int64) ([]domain.SubmFact, error)
}

type TaskSrvcFacade interface {
	GetTaskScoring(ctx context.Context, taskID int64) (domain.TaskScoring, error)
}

type ContestSrvcFacade interface {
	ListParticipationIDs(ctx context.Context, contestID int64) ([]int64, error)
}

// ScoreSrvc keeps the per-(participation, task) score cache: lock-free
// lookups of valid entries, O(1) incremental folds of newly graded
// submissions, cheap synchronous invalidation and full rebuilds as the
// single source of truth.
type ScoreSrvc struct {
	store       ScoreStore
	subms       SubmSource
	taskSrvc    TaskSrvcFacade
	contestSrvc ContestSrvcFacade
}

func NewScoreSrvc(
	store ScoreStore,
	subms SubmSource,
	taskSrvc TaskSrvcFacade,
	contestSrvc ContestSrvcFacade,
) *ScoreSrvc {
	return &ScoreSrvc{
		store:       store,
		subms:       subms,
		taskSrvc:    taskSrvc,
		contestSrvc: contestSrvc,
	}
}

func utcNow() time.Time {
	return time.Now().UTC()
}

func newScoreEntry(participationID int64, taskID int64, now time.Time) *domain.ScoreEntry {
	return &domain.ScoreEntry{
		ParticipationID: participationID,
		TaskID:          taskID,
		Score:           0.0,
		ScoreValid:      true,
		HistoryValid:    true,
		HasSubmissions:  false,
		CreatedAt:       now,
		LastUpdate:      now,
	}
}

func (s *ScoreSrvc) taskScoring(ctx context.Context, taskID int64) (domain.TaskScoring, error) {
	scoring, err := s.taskSrvc.GetTaskScoring(ctx, taskID)
	if err != nil {
		return domain.TaskScoring{}, ErrTaskNotFound().SetDebug(err)
	}
	if err := scoring.Validate(); err != nil {
		return domain.TaskScoring{}, ErrInvalidScoreConfig().SetDebug(err)
	}
	return scoring, nil
}
