package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/programme-lv/scoreboard/conf"
	"github.com/programme-lv/scoreboard/score/scorepgrepo"
	"github.com/programme-lv/scoreboard/score/scoresrvc"
	"github.com/rs/zerolog/log"
)

func newScoreSrvc() (*scoresrvc.ScoreSrvc, *pgxpool.Pool, error) {
	godotenv.Load() // optional in the CLI, env vars may be set directly

	pg, err := pgxpool.New(context.Background(), conf.GetPgConnStrFromEnv())
	if err != nil {
		return nil, nil, fmt.Errorf("error creating pg pool: %w", err)
	}

	srvc := scoresrvc.NewScoreSrvc(
		scorepgrepo.NewPgScoreStore(pg),
		scorepgrepo.NewPgSubmSource(pg),
		scorepgrepo.NewPgTaskSrvc(pg),
		scorepgrepo.NewPgContestSrvc(pg),
	)
	return srvc, pg, nil
}

func showScore(participationID int64, taskID int64) error {
	srvc, pg, err := newScoreSrvc()
	if err != nil {
		return err
	}
	defer pg.Close()
	ctx := context.Background()

	entry, err := srvc.GetCachedScoreEntry(ctx, participationID, taskID)
	if err != nil {
		return fmt.Errorf("error getting score entry: %w", err)
	}
	fmt.Printf("score: %g\n", entry.Score)
	fmt.Printf("has submissions: %v\n", entry.HasSubmissions)
	if entry.LastSubmScore != nil {
		fmt.Printf("last submission: %g at %s\n",
			*entry.LastSubmScore, entry.LastSubmAt.Format("2006-01-02 15:04:05"))
	}
	if len(entry.SubtaskMaxScores) > 0 {
		fmt.Printf("subtask max scores: %v\n", entry.SubtaskMaxScores)
	}
	fmt.Printf("last update: %s\n", entry.LastUpdate.Format("2006-01-02 15:04:05"))

	history, err := srvc.GetScoreHistory(ctx, participationID, taskID)
	if err != nil {
		return fmt.Errorf("error getting score history: %w", err)
	}
	for _, row := range history {
		fmt.Printf("%s  %g (subm %d)\n",
			row.Timestamp.Format("2006-01-02 15:04:05"), row.Score, row.SubmID)
	}
	return nil
}

func rebuildScore(participationID int64, taskID int64) error {
	srvc, pg, err := newScoreSrvc()
	if err != nil {
		return err
	}
	defer pg.Close()

	entry, err := srvc.RebuildScoreCache(context.Background(), participationID, taskID)
	if err != nil {
		return fmt.Errorf("error rebuilding score cache: %w", err)
	}
	log.Info().
		Int64("participation", participationID).
		Int64("task", taskID).
		Float64("score", entry.Score).
		Msg("score cache rebuilt")
	return nil
}

func invalidateScores(participationID *int64, taskID *int64, contestID *int64) error {
	srvc, pg, err := newScoreSrvc()
	if err != nil {
		return err
	}
	defer pg.Close()

	err = srvc.InvalidateScoreCache(context.Background(), participationID, taskID, contestID)
	if err != nil {
		return fmt.Errorf("error invalidating score cache: %w", err)
	}
	log.Info().Msg("score cache invalidated")
	return nil
}

func ensureValidHistory(contestID int64) error {
	srvc, pg, err := newScoreSrvc()
	if err != nil {
		return err
	}
	defer pg.Close()

	changed, err := srvc.EnsureValidHistory(context.Background(), contestID)
	if err != nil {
		return fmt.Errorf("error ensuring valid history: %w", err)
	}
	if changed {
		log.Info().Int64("contest", contestID).Msg("stale entries rebuilt")
	} else {
		log.Info().Int64("contest", contestID).Msg("all entries already valid")
	}
	return nil
}
