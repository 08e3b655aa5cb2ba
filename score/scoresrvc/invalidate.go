package scoresrvc

import (
	"context"
	"fmt"

	"github.com/programme-lv/scoreboard/logger"
)

// InvalidateScoreCache marks every cache entry in the given scope stale and
// deletes its history rows. At least one of the filters must be provided; a
// contest scope expands to all of the contest's participations.
//
// Invalidation is deliberately cheap and synchronous: nothing is recomputed
// here. The next lookup of each affected pair triggers a rebuild, so a
// batch invalidation of thousands of pairs costs one UPDATE and one DELETE.
func (s *ScoreSrvc) InvalidateScoreCache(ctx context.Context, participationID *int64, taskID *int64, contestID *int64) error {
	if participationID == nil && taskID == nil && contestID == nil {
		return ErrEmptyInvalidationScope()
	}

	filter := InvalidationFilter{
		ParticipationID: participationID,
		TaskID:          taskID,
	}
	if contestID != nil {
		participationIDs, err := s.contestSrvc.ListParticipationIDs(ctx, *contestID)
		if err != nil {
			return ErrContestNotFound().SetDebug(err)
		}
		if len(participationIDs) == 0 {
			return nil // contest without participations, nothing to do
		}
		filter.ParticipationIDs = participationIDs
	}

	if err := s.store.Invalidate(ctx, filter, utcNow()); err != nil {
		return ErrInternalSE().SetDebug(
			fmt.Errorf("failed to invalidate score cache: %w", err))
	}

	logger.FromContext(ctx).Info("score cache invalidated",
		"participation_id", participationID,
		"task_id", taskID,
		"contest_id", contestID)
	return nil
}
