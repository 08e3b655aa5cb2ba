package scoresrvc

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/programme-lv/scoreboard/score/domain"
)

type pairKey struct {
	participationID int64
	taskID          int64
}

// InMemScoreStore is an in-memory ScoreStore used by tests and local
// development. One mutex stands in for the per-pair advisory locks, which
// is coarser than the Postgres store but preserves the same serialization
// guarantees.
type InMemScoreStore struct {
	mu      sync.Mutex
	entries map[pairKey]domain.ScoreEntry
	history map[pairKey][]domain.ScoreHistoryRow
}

func NewInMemScoreStore() *InMemScoreStore {
	return &InMemScoreStore{
		entries: make(map[pairKey]domain.ScoreEntry),
		history: make(map[pairKey][]domain.ScoreHistoryRow),
	}
}

type inMemScoreTx struct {
	store *InMemScoreStore
	key   pairKey
}

// WithPairLock implements ScoreStore. Writes are rolled back when fn errors
// so the transaction stays all-or-nothing like the Postgres one.
func (s *InMemScoreStore) WithPairLock(ctx context.Context, participationID int64, taskID int64, fn func(tx ScoreTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey{participationID, taskID}
	entrySnapshot, hadEntry := s.entries[key]
	historySnapshot := slices.Clone(s.history[key])

	err := fn(&inMemScoreTx{store: s, key: key})
	if err != nil {
		if hadEntry {
			s.entries[key] = entrySnapshot
		} else {
			delete(s.entries, key)
		}
		s.history[key] = historySnapshot
		return err
	}
	return nil
}

func (tx *inMemScoreTx) GetEntry(ctx context.Context, participationID int64, taskID int64) (*domain.ScoreEntry, error) {
	if entry, ok := tx.store.entries[pairKey{participationID, taskID}]; ok {
		entry.SubtaskMaxScores = cloneScores(entry.SubtaskMaxScores)
		return &entry, nil
	}
	return nil, nil
}

func (tx *inMemScoreTx) SaveEntry(ctx context.Context, entry domain.ScoreEntry) error {
	entry.SubtaskMaxScores = cloneScores(entry.SubtaskMaxScores)
	key := pairKey{entry.ParticipationID, entry.TaskID}
	// the invalidation stamp is owned by Invalidate; keep the stored one
	// so a save never downgrades it, mirroring the pg upsert
	if existing, ok := tx.store.entries[key]; ok {
		entry.InvalidatedAt = existing.InvalidatedAt
	}
	tx.store.entries[key] = entry
	return nil
}

func (tx *inMemScoreTx) AddHistoryRow(ctx context.Context, row domain.ScoreHistoryRow) error {
	key := pairKey{row.ParticipationID, row.TaskID}
	tx.store.history[key] = append(tx.store.history[key], row)
	return nil
}

func (tx *inMemScoreTx) DeleteHistory(ctx context.Context, participationID int64, taskID int64) error {
	delete(tx.store.history, pairKey{participationID, taskID})
	return nil
}

func (s *InMemScoreStore) GetEntry(ctx context.Context, participationID int64, taskID int64) (*domain.ScoreEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.entries[pairKey{participationID, taskID}]; ok {
		entry.SubtaskMaxScores = cloneScores(entry.SubtaskMaxScores)
		return &entry, nil
	}
	return nil, nil
}

func (s *InMemScoreStore) ListHistory(ctx context.Context, participationID int64, taskID int64) ([]domain.ScoreHistoryRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := slices.Clone(s.history[pairKey{participationID, taskID}])
	slices.SortStableFunc(rows, func(a, b domain.ScoreHistoryRow) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return rows, nil
}

func (s *InMemScoreStore) ListEntries(ctx context.Context, participationIDs []int64) ([]domain.ScoreEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var entries []domain.ScoreEntry
	for key, entry := range s.entries {
		if slices.Contains(participationIDs, key.participationID) {
			entry.SubtaskMaxScores = cloneScores(entry.SubtaskMaxScores)
			entries = append(entries, entry)
		}
	}
	slices.SortFunc(entries, func(a, b domain.ScoreEntry) int {
		if a.ParticipationID != b.ParticipationID {
			return int(a.ParticipationID - b.ParticipationID)
		}
		return int(a.TaskID - b.TaskID)
	})
	return entries, nil
}

func (s *InMemScoreStore) Invalidate(ctx context.Context, filter InvalidationFilter, at time.Time) error {
	if filter.Empty() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, entry := range s.entries {
		if filter.ParticipationID != nil && key.participationID != *filter.ParticipationID {
			continue
		}
		if filter.TaskID != nil && key.taskID != *filter.TaskID {
			continue
		}
		if len(filter.ParticipationIDs) > 0 &&
			!slices.Contains(filter.ParticipationIDs, key.participationID) {
			continue
		}
		invalidatedAt := at
		entry.InvalidatedAt = &invalidatedAt
		entry.ScoreValid = false
		s.entries[key] = entry
		delete(s.history, key)
	}
	return nil
}

func cloneScores(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	clone := make(map[string]float64, len(m))
	for k, v := range m {
		clone[k] = v
	}
	return clone
}
