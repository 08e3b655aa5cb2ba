package scorepgrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PgContestSrvc lists contest participations from the shared contest
// database.
type PgContestSrvc struct {
	pool *pgxpool.Pool
}

func NewPgContestSrvc(pool *pgxpool.Pool) *PgContestSrvc {
	return &PgContestSrvc{pool: pool}
}

var ErrContestNotFound = errors.New("contest not found")

// ListParticipationIDs implements scoresrvc.ContestSrvcFacade. A contest
// with no participations yields an empty slice, an unknown contest an
// error.
func (r *PgContestSrvc) ListParticipationIDs(ctx context.Context, contestID int64) ([]int64, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM contests WHERE id = $1)`,
		contestID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to query contest %d: %w", contestID, err)
	}
	if !exists {
		return nil, ErrContestNotFound
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id FROM participations WHERE contest_id = $1 ORDER BY id ASC`,
		contestID)
	if err != nil {
		return nil, fmt.Errorf("failed to query participations: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan participation id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participations: %w", err)
	}
	return ids, nil
}
