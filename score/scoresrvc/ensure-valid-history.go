package scoresrvc

import (
	"context"
	"fmt"
)

// EnsureValidHistory rebuilds every stale or history-corrupted cache entry
// of a contest, so the contest's score timelines can be graphed afterwards.
// Entries are processed in (participation_id, task_id) order so concurrent
// calls acquire pair locks in the same order. Reports whether anything was
// rebuilt.
func (s *ScoreSrvc) EnsureValidHistory(ctx context.Context, contestID int64) (bool, error) {
	participationIDs, err := s.contestSrvc.ListParticipationIDs(ctx, contestID)
	if err != nil {
		return false, ErrContestNotFound().SetDebug(err)
	}
	if len(participationIDs) == 0 {
		return false, nil
	}

	entries, err := s.store.ListEntries(ctx, participationIDs)
	if err != nil {
		return false, ErrInternalSE().SetDebug(
			fmt.Errorf("failed to list score cache entries: %w", err))
	}

	rebuilt := false
	for _, e := range entries {
		if e.Valid() {
			continue
		}
		if _, err := s.RebuildScoreCache(ctx, e.ParticipationID, e.TaskID); err != nil {
			return rebuilt, err
		}
		rebuilt = true
	}

	// entries that kept a correct score but lost timeline fidelity
	for _, e := range entries {
		if !e.Valid() || e.HistoryValid {
			continue
		}
		if err := s.RebuildScoreHistory(ctx, e.ParticipationID, e.TaskID); err != nil {
			return rebuilt, err
		}
		rebuilt = true
	}

	return rebuilt, nil
}
