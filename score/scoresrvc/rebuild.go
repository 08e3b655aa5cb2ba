package scoresrvc

import (
	"context"
	"fmt"

	"github.com/programme-lv/scoreboard/logger"
	"github.com/programme-lv/scoreboard/score/domain"
)

// RebuildScoreCache recomputes the pair's cache entry and history from all
// of its scored submissions. It is the single source of truth: the
// incremental update path must always converge to the same aggregate this
// produces. The entry is updated in place (never deleted) and the history
// rows are replaced wholesale. The entry comes out valid not by clearing
// the invalidation stamp but by stamping CreatedAt past it; that way an
// invalidation committing mid-rebuild post-dates the rebuild and the entry
// stays stale.
func (s *ScoreSrvc) RebuildScoreCache(ctx context.Context, participationID int64, taskID int64) (domain.ScoreEntry, error) {
	scoring, err := s.taskScoring(ctx, taskID)
	if err != nil {
		return domain.ScoreEntry{}, err
	}

	ctx = logger.WithPair(ctx, participationID, taskID)
	log := logger.FromContext(ctx)

	var result domain.ScoreEntry
	err = s.store.WithPairLock(ctx, participationID, taskID, func(tx ScoreTx) error {
		// The rebuild start becomes the entry's creation time: any
		// invalidation stamped after this instant invalidates the
		// result, since the submissions were read at this point.
		rebuildStart := utcNow()

		if err := tx.DeleteHistory(ctx, participationID, taskID); err != nil {
			return fmt.Errorf("failed to delete score history: %w", err)
		}

		entry, err := tx.GetEntry(ctx, participationID, taskID)
		if err != nil {
			return fmt.Errorf("failed to read score cache entry: %w", err)
		}
		if entry == nil {
			entry = newScoreEntry(participationID, taskID, rebuildStart)
		}
		entry.CreatedAt = rebuildStart

		facts, err := s.subms.ListScoredFacts(ctx, participationID, taskID)
		if err != nil {
			return fmt.Errorf("failed to list scored submissions: %w", err)
		}

		accum := domain.ScoreAccum{}
		rows := make([]domain.ScoreHistoryRow, 0)
		current := 0.0
		for _, f := range facts {
			accum.Fold(f, scoring.Mode)
			newScore := accum.FinalScore(scoring)
			if newScore != current {
				rows = append(rows, domain.ScoreHistoryRow{
					ParticipationID: participationID,
					TaskID:          taskID,
					Timestamp:       f.Timestamp,
					Score:           newScore,
					SubmID:          f.SubmID,
				})
				current = newScore
			}
		}

		entry.Score = accum.FinalScore(scoring)
		entry.SubtaskMaxScores = accum.SubtaskMaxScores
		entry.MaxTokenedScore = accum.MaxTokenedScore
		entry.LastSubmScore = accum.LastSubmScore
		entry.LastSubmAt = accum.LastSubmAt
		entry.HasSubmissions = accum.HasSubmissions
		entry.ScoreValid = true
		entry.HistoryValid = true
		entry.LastUpdate = utcNow()

		if err := tx.SaveEntry(ctx, *entry); err != nil {
			return fmt.Errorf("failed to save score cache entry: %w", err)
		}
		for _, row := range rows {
			if err := tx.AddHistoryRow(ctx, row); err != nil {
				return fmt.Errorf("failed to insert score history row: %w", err)
			}
		}

		log.Debug("score cache rebuilt",
			"score", entry.Score,
			"submissions", len(facts),
			"history_rows", len(rows))

		result = *entry
		return nil
	})
	if err != nil {
		return domain.ScoreEntry{}, ErrInternalSE().SetDebug(err)
	}
	return result, nil
}

// RebuildScoreHistory regenerates only the pair's history rows, leaving the
// cached score untouched. Used when out-of-order incremental updates left
// the score correct but the timeline corrupted.
func (s *ScoreSrvc) RebuildScoreHistory(ctx context.Context, participationID int64, taskID int64) error {
	scoring, err := s.taskScoring(ctx, taskID)
	if err != nil {
		return err
	}

	err = s.store.WithPairLock(ctx, participationID, taskID, func(tx ScoreTx) error {
		if err := tx.DeleteHistory(ctx, participationID, taskID); err != nil {
			return fmt.Errorf("failed to delete score history: %w", err)
		}

		facts, err := s.subms.ListScoredFacts(ctx, participationID, taskID)
		if err != nil {
			return fmt.Errorf("failed to list scored submissions: %w", err)
		}

		accum := domain.ScoreAccum{}
		current := 0.0
		for _, f := range facts {
			accum.Fold(f, scoring.Mode)
			newScore := accum.FinalScore(scoring)
			if newScore == current {
				continue
			}
			row := domain.ScoreHistoryRow{
				ParticipationID: participationID,
				TaskID:          taskID,
				Timestamp:       f.Timestamp,
				Score:           newScore,
				SubmID:          f.SubmID,
			}
			if err := tx.AddHistoryRow(ctx, row); err != nil {
				return fmt.Errorf("failed to insert score history row: %w", err)
			}
			current = newScore
		}

		entry, err := tx.GetEntry(ctx, participationID, taskID)
		if err != nil {
			return fmt.Errorf("failed to read score cache entry: %w", err)
		}
		if entry != nil {
			entry.HistoryValid = true
			entry.LastUpdate = utcNow()
			if err := tx.SaveEntry(ctx, *entry); err != nil {
				return fmt.Errorf("failed to save score cache entry: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return ErrInternalSE().SetDebug(err)
	}
	return nil
}
