package scoresrvc

import (
	"context"
	"fmt"

	"github.com/programme-lv/scoreboard/score/domain"
)

// GetCachedScoreEntry returns the cached score entry for a pair. A valid
// entry is returned as-is without any recomputation or locking; a missing
// or invalidated entry triggers a full rebuild first.
func (s *ScoreSrvc) GetCachedScoreEntry(ctx context.Context, participationID int64, taskID int64) (domain.ScoreEntry, error) {
	entry, err := s.store.GetEntry(ctx, participationID, taskID)
	if err != nil {
		return domain.ScoreEntry{}, ErrInternalSE().SetDebug(
			fmt.Errorf("failed to read score cache entry: %w", err))
	}
	if entry != nil && entry.Valid() {
		return *entry, nil
	}
	return s.RebuildScoreCache(ctx, participationID, taskID)
}

// GetScoreHistory returns the pair's score timeline in timestamp order.
// A stale entry or an order-corrupted timeline is rebuilt first, so the
// returned rows always represent the chronological progression.
func (s *ScoreSrvc) GetScoreHistory(ctx context.Context, participationID int64, taskID int64) ([]domain.ScoreHistoryRow, error) {
	entry, err := s.GetCachedScoreEntry(ctx, participationID, taskID)
	if err != nil {
		return nil, err
	}
	if !entry.HistoryValid {
		if err := s.RebuildScoreHistory(ctx, participationID, taskID); err != nil {
			return nil, err
		}
	}

	rows, err := s.store.ListHistory(ctx, participationID, taskID)
	if err != nil {
		return nil, ErrInternalSE().SetDebug(
			fmt.Errorf("failed to read score history: %w", err))
	}
	return rows, nil
}
