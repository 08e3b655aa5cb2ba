package scorepgrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/programme-lv/scoreboard/score/domain"
	"github.com/programme-lv/scoreboard/score/scoresrvc"
)

// PgScoreStore persists cache entries and history rows in Postgres.
type PgScoreStore struct {
	pool *pgxpool.Pool
}

func NewPgScoreStore(pool *pgxpool.Pool) *PgScoreStore {
	return &PgScoreStore{pool: pool}
}

const entryColumns = `
	participation_id, task_id, score, subtask_max_scores,
	max_tokened_score, last_subm_score, last_subm_at,
	has_submissions, score_valid, history_valid,
	invalidated_at, created_at, last_update
`

// WithPairLock runs fn inside one transaction holding the advisory lock on
// the (participation, task) pair. A transaction-scoped advisory lock is used
// instead of SELECT ... FOR UPDATE because it also serializes writers racing
// to create an entry row that does not exist yet.
func (s *PgScoreStore) WithPairLock(ctx context.Context, participationID int64, taskID int64, fn func(tx scoresrvc.ScoreTx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1::int, $2::int)`,
		participationID, taskID)
	if err != nil {
		return fmt.Errorf("failed to acquire pair lock: %w", err)
	}

	if err := fn(&pgScoreTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type pgScoreTx struct {
	tx pgx.Tx
}

func (t *pgScoreTx) GetEntry(ctx context.Context, participationID int64, taskID int64) (*domain.ScoreEntry, error) {
	return getEntry(ctx, t.tx, participationID, taskID)
}

func (t *pgScoreTx) SaveEntry(ctx context.Context, entry domain.ScoreEntry) error {
	subtaskScores, err := marshalSubtaskScores(entry.SubtaskMaxScores)
	if err != nil {
		return err
	}
	// invalidated_at is deliberately absent from the conflict update:
	// the stamp is owned by Invalidate, and a save racing it must not
	// overwrite the fresher stamp with the value it read earlier.
	upsertQuery := `
		INSERT INTO participation_task_scores (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (participation_id, task_id) DO UPDATE SET
			score = EXCLUDED.score,
			subtask_max_scores = EXCLUDED.subtask_max_scores,
			max_tokened_score = EXCLUDED.max_tokened_score,
			last_subm_score = EXCLUDED.last_subm_score,
			last_subm_at = EXCLUDED.last_subm_at,
			has_submissions = EXCLUDED.has_submissions,
			score_valid = EXCLUDED.score_valid,
			history_valid = EXCLUDED.history_valid,
			created_at = EXCLUDED.created_at,
			last_update = EXCLUDED.last_update
	`
	_, err = t.tx.Exec(ctx, upsertQuery,
		entry.ParticipationID,
		entry.TaskID,
		entry.Score,
		subtaskScores,
		entry.MaxTokenedScore,
		entry.LastSubmScore,
		entry.LastSubmAt,
		entry.HasSubmissions,
		entry.ScoreValid,
		entry.HistoryValid,
		entry.InvalidatedAt,
		entry.CreatedAt,
		entry.LastUpdate,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert score cache entry: %w", err)
	}
	return nil
}

func (t *pgScoreTx) AddHistoryRow(ctx context.Context, row domain.ScoreHistoryRow) error {
	insertQuery := `
		INSERT INTO score_history (
			participation_id, task_id, timestamp, score, subm_id
		) VALUES ($1, $2, $3, $4, $5)
	`
	_, err := t.tx.Exec(ctx, insertQuery,
		row.ParticipationID,
		row.TaskID,
		row.Timestamp,
		row.Score,
		row.SubmID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert score history row: %w", err)
	}
	return nil
}

func (t *pgScoreTx) DeleteHistory(ctx context.Context, participationID int64, taskID int64) error {
	_, err := t.tx.Exec(ctx, `
		DELETE FROM score_history
		WHERE participation_id = $1 AND task_id = $2
	`, participationID, taskID)
	if err != nil {
		return fmt.Errorf("failed to delete score history: %w", err)
	}
	return nil
}

func (s *PgScoreStore) GetEntry(ctx context.Context, participationID int64, taskID int64) (*domain.ScoreEntry, error) {
	return getEntry(ctx, s.pool, participationID, taskID)
}

func (s *PgScoreStore) ListHistory(ctx context.Context, participationID int64, taskID int64) ([]domain.ScoreHistoryRow, error) {
	historyQuery := `
		SELECT participation_id, task_id, timestamp, score, subm_id
		FROM score_history
		WHERE participation_id = $1 AND task_id = $2
		ORDER BY timestamp ASC, id ASC
	`
	rows, err := s.pool.Query(ctx, historyQuery, participationID, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to query score history: %w", err)
	}
	defer rows.Close()

	var history []domain.ScoreHistoryRow
	for rows.Next() {
		var row domain.ScoreHistoryRow
		err := rows.Scan(
			&row.ParticipationID,
			&row.TaskID,
			&row.Timestamp,
			&row.Score,
			&row.SubmID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan score history row: %w", err)
		}
		history = append(history, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating score history: %w", err)
	}
	return history, nil
}

func (s *PgScoreStore) ListEntries(ctx context.Context, participationIDs []int64) ([]domain.ScoreEntry, error) {
	entriesQuery := `
		SELECT ` + entryColumns + `
		FROM participation_task_scores
		WHERE participation_id = ANY($1)
		ORDER BY participation_id ASC, task_id ASC
	`
	rows, err := s.pool.Query(ctx, entriesQuery, participationIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query score cache entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.ScoreEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating score cache entries: %w", err)
	}
	return entries, nil
}

// Invalidate stamps every matching entry stale and deletes its history in
// two bulk statements, without touching the per-pair locks.
func (s *PgScoreStore) Invalidate(ctx context.Context, filter scoresrvc.InvalidationFilter, at time.Time) error {
	if filter.Empty() {
		return fmt.Errorf("empty invalidation filter")
	}

	var conds []string
	var args []any
	if filter.ParticipationID != nil {
		conds = append(conds, "participation_id = $%d")
		args = append(args, *filter.ParticipationID)
	}
	if filter.TaskID != nil {
		conds = append(conds, "task_id = $%d")
		args = append(args, *filter.TaskID)
	}
	if len(filter.ParticipationIDs) > 0 {
		conds = append(conds, "participation_id = ANY($%d)")
		args = append(args, filter.ParticipationIDs)
	}

	// renders the WHERE clause with placeholders starting at $firstArg
	whereFrom := func(firstArg int) string {
		rendered := make([]string, len(conds))
		for i, cond := range conds {
			rendered[i] = fmt.Sprintf(cond, firstArg+i)
		}
		return strings.Join(rendered, " AND ")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	updateArgs := append([]any{at}, args...)
	_, err = tx.Exec(ctx, `
		UPDATE participation_task_scores
		SET invalidated_at = $1, score_valid = FALSE
		WHERE `+whereFrom(2), updateArgs...)
	if err != nil {
		return fmt.Errorf("failed to invalidate score cache entries: %w", err)
	}

	_, err = tx.Exec(ctx, `
		DELETE FROM score_history
		WHERE `+whereFrom(1), args...)
	if err != nil {
		return fmt.Errorf("failed to delete score history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit invalidation: %w", err)
	}
	return nil
}

type pgQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getEntry(ctx context.Context, q pgQuerier, participationID int64, taskID int64) (*domain.ScoreEntry, error) {
	entryQuery := `
		SELECT ` + entryColumns + `
		FROM participation_task_scores
		WHERE participation_id = $1 AND task_id = $2
	`
	entry, err := scanEntry(q.QueryRow(ctx, entryQuery, participationID, taskID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return entry, nil
}

func scanEntry(row pgx.Row) (*domain.ScoreEntry, error) {
	var entry domain.ScoreEntry
	var subtaskScores []byte
	err := row.Scan(
		&entry.ParticipationID,
		&entry.TaskID,
		&entry.Score,
		&subtaskScores,
		&entry.MaxTokenedScore,
		&entry.LastSubmScore,
		&entry.LastSubmAt,
		&entry.HasSubmissions,
		&entry.ScoreValid,
		&entry.HistoryValid,
		&entry.InvalidatedAt,
		&entry.CreatedAt,
		&entry.LastUpdate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan score cache entry: %w", err)
	}
	if subtaskScores != nil {
		if err := json.Unmarshal(subtaskScores, &entry.SubtaskMaxScores); err != nil {
			return nil, fmt.Errorf("failed to parse subtask max scores: %w", err)
		}
	}
	return &entry, nil
}

func marshalSubtaskScores(scores map[string]float64) ([]byte, error) {
	if scores == nil {
		return nil, nil // jsonb column stays NULL, not an empty object
	}
	marshalled, err := json.Marshal(scores)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal subtask max scores: %w", err)
	}
	return marshalled, nil
}
