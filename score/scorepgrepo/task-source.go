package scorepgrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/programme-lv/scoreboard/score/domain"
)

// PgTaskSrvc resolves the scoring configuration of tasks from the shared
// contest database.
type PgTaskSrvc struct {
	pool *pgxpool.Pool
}

func NewPgTaskSrvc(pool *pgxpool.Pool) *PgTaskSrvc {
	return &PgTaskSrvc{pool: pool}
}

var ErrTaskNotFound = errors.New("task not found")

// GetTaskScoring implements scoresrvc.TaskSrvcFacade
func (r *PgTaskSrvc) GetTaskScoring(ctx context.Context, taskID int64) (domain.TaskScoring, error) {
	taskQuery := `
		SELECT score_mode, score_precision
		FROM tasks
		WHERE id = $1
	`
	var modeStr string
	var precision int
	err := r.pool.QueryRow(ctx, taskQuery, taskID).Scan(&modeStr, &precision)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.TaskScoring{}, ErrTaskNotFound
	}
	if err != nil {
		return domain.TaskScoring{}, fmt.Errorf("failed to query task %d: %w", taskID, err)
	}
	mode, err := domain.ParseScoreMode(modeStr)
	if err != nil {
		return domain.TaskScoring{}, fmt.Errorf("task %d: %w", taskID, err)
	}
	return domain.TaskScoring{Mode: mode, Precision: precision}, nil
}
