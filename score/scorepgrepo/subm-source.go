package scorepgrepo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/programme-lv/scoreboard/score/domain"
)

// PgSubmSource reads the externally-owned submissions table of the shared
// contest database. Only official submissions with a score count; the
// grading pipeline nulls the score out while a rescoring is in flight.
type PgSubmSource struct {
	pool *pgxpool.Pool
}

func NewPgSubmSource(pool *pgxpool.Pool) *PgSubmSource {
	return &PgSubmSource{pool: pool}
}

// submDetail is one entry of the score_details jsonb column. The grading
// pipeline writes numeric subtask indices; they are normalized to strings.
type submDetail struct {
	Idx   json.Number `json:"idx"`
	Score float64     `json:"score"`
}

// ListScoredFacts implements scoresrvc.SubmSource
func (r *PgSubmSource) ListScoredFacts(ctx context.Context, participationID int64, taskID int64) ([]domain.SubmFact, error) {
	submissionsQuery := `
		SELECT id, timestamp, score, score_details, tokened
		FROM submissions
		WHERE participation_id = $1 AND task_id = $2
			AND official AND score IS NOT NULL
		ORDER BY timestamp ASC, id ASC
	`
	rows, err := r.pool.Query(ctx, submissionsQuery, participationID, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	var facts []domain.SubmFact
	for rows.Next() {
		var fact domain.SubmFact
		var details []byte
		err := rows.Scan(
			&fact.SubmID,
			&fact.Timestamp,
			&fact.Score,
			&details,
			&fact.Tokened,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		fact.Subtasks, err = parseDetails(details)
		if err != nil {
			return nil, fmt.Errorf("malformed score_details of submission %d: %w", fact.SubmID, err)
		}
		facts = append(facts, fact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating submissions: %w", err)
	}
	return facts, nil
}

func parseDetails(details []byte) ([]domain.SubtaskScore, error) {
	if details == nil {
		return nil, nil
	}
	var parsed []submDetail
	if err := json.Unmarshal(details, &parsed); err != nil {
		return nil, err
	}
	subtasks := make([]domain.SubtaskScore, len(parsed))
	for i, d := range parsed {
		subtasks[i] = domain.SubtaskScore{Idx: d.Idx.String(), Score: d.Score}
	}
	return subtasks, nil
}
