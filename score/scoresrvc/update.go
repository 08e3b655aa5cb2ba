package scoresrvc

import (
	"context"
	"fmt"

	"github.com/programme-lv/scoreboard/logger"
	"github.com/programme-lv/scoreboard/score/domain"
)

// UpdateScoreCache folds one newly graded submission into the pair's cache
// entry, called by the grading pipeline once per scored submission.
//
// The fold is O(1): it combines the submission with the entry's running
// aggregates instead of rescanning prior submissions. Submissions may
// arrive in any order relative to their timestamps; an out-of-order arrival
// leaves the score correct but marks the history timeline invalid until the
// next rebuild. Unofficial and not-yet-scored submissions are ignored.
func (s *ScoreSrvc) UpdateScoreCache(ctx context.Context, sub GradedSubm) error {
	if !sub.Official {
		return nil
	}
	if sub.Score == nil {
		return nil
	}

	scoring, err := s.taskScoring(ctx, sub.TaskID)
	if err != nil {
		return err
	}

	ctx = logger.WithPair(ctx, sub.ParticipationID, sub.TaskID)
	log := logger.FromContext(ctx)

	err = s.store.WithPairLock(ctx, sub.ParticipationID, sub.TaskID, func(tx ScoreTx) error {
		now := utcNow()

		entry, err := tx.GetEntry(ctx, sub.ParticipationID, sub.TaskID)
		if err != nil {
			return fmt.Errorf("failed to read score cache entry: %w", err)
		}
		if entry == nil {
			entry = newScoreEntry(sub.ParticipationID, sub.TaskID, now)
		}

		changed := entry.ApplyFact(sub.fact(), scoring)
		entry.LastUpdate = now

		if err := tx.SaveEntry(ctx, *entry); err != nil {
			return fmt.Errorf("failed to save score cache entry: %w", err)
		}

		// History rows are appended only while the timeline is still
		// trustworthy; a rebuild regenerates it otherwise.
		if changed && entry.HistoryValid {
			row := domain.ScoreHistoryRow{
				ParticipationID: sub.ParticipationID,
				TaskID:          sub.TaskID,
				Timestamp:       sub.Timestamp,
				Score:           entry.Score,
				SubmID:          sub.SubmID,
			}
			if err := tx.AddHistoryRow(ctx, row); err != nil {
				return fmt.Errorf("failed to append score history row: %w", err)
			}
		}

		log.Debug("score cache updated",
			"subm_id", sub.SubmID,
			"score", entry.Score,
			"history_valid", entry.HistoryValid)
		return nil
	})
	if err != nil {
		return ErrInternalSE().SetDebug(err)
	}
	return nil
}
