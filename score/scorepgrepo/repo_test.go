package scorepgrepo

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/peterldowns/pgtestdb"
	"github.com/peterldowns/pgtestdb/migrators/golangmigrator"
	"github.com/programme-lv/scoreboard/score/domain"
	"github.com/programme-lv/scoreboard/score/scoresrvc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewDB returns a connection pool to a unique and isolated test database,
// fully migrated and ready for testing
func NewDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()
	conf := pgtestdb.Config{
		DriverName: "pgx",
		User:       "proglv", // local dev pg user
		Password:   "proglv", // local dev pg password
		Host:       "localhost",
		Port:       "5433",
		Options:    "sslmode=disable",
	}
	gm := golangmigrator.New("../../migrate")
	config := pgtestdb.Custom(t, conf, gm)

	pool, err := pgxpool.New(ctx, config.URL())
	if err != nil {
		t.Fatalf("Failed to create connection pool: %v", err)
	}
	t.Cleanup(func() {
		pool.Close()
	})

	return pool
}

// seedContest inserts one contest with two participations and three tasks
// covering each scoring mode.
func seedContest(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	ctx := context.Background()
	stmts := []string{
		`INSERT INTO contests (id, name) VALUES (10, 'LIO atlase')`,
		`INSERT INTO participations (id, contest_id, username)
			VALUES (100, 10, 'janis'), (101, 10, 'anna')`,
		`INSERT INTO tasks (id, name, score_mode, score_precision) VALUES
			(1, 'summa', 'max', 0),
			(2, 'celi', 'max_subtask', 0),
			(3, 'spele', 'max_tokened_last', 2)`,
	}
	for _, stmt := range stmts {
		_, err := pool.Exec(ctx, stmt)
		require.NoError(t, err)
	}
}

func seedSubm(t *testing.T, pool *pgxpool.Pool, id int64, pID int64, tID int64,
	minute int, score *float64, details string, tokened bool, official bool) {
	t.Helper()
	ts := time.Date(2026, 3, 1, 12, minute, 0, 0, time.UTC)
	var detailsArg any
	if details != "" {
		detailsArg = []byte(details)
	}
	_, err := pool.Exec(context.Background(), `
		INSERT INTO submissions
			(id, participation_id, task_id, timestamp, score, score_details, tokened, official)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, id, pID, tID, ts, score, detailsArg, tokened, official)
	require.NoError(t, err)
}

func ptr[T any](v T) *T { return &v }

func TestPgSubmSource(t *testing.T) {
	pool := NewDB(t)
	seedContest(t, pool)
	ctx := context.Background()

	seedSubm(t, pool, 1, 100, 1, 1, ptr(50.0), "", false, true)
	seedSubm(t, pool, 2, 100, 1, 3, ptr(75.0),
		`[{"idx": 1, "score": 30}, {"idx": 2, "score": 45}]`, false, true)
	seedSubm(t, pool, 3, 100, 1, 2, nil, "", false, true)        // not yet scored
	seedSubm(t, pool, 4, 100, 1, 4, ptr(90.0), "", false, false) // unofficial
	seedSubm(t, pool, 5, 101, 1, 1, ptr(10.0), "", false, true)  // other participation

	facts, err := NewPgSubmSource(pool).ListScoredFacts(ctx, 100, 1)
	require.NoError(t, err)
	require.Len(t, facts, 2)

	assert.Equal(t, int64(1), facts[0].SubmID)
	assert.Equal(t, 50.0, facts[0].Score)
	assert.Nil(t, facts[0].Subtasks)

	assert.Equal(t, int64(2), facts[1].SubmID)
	assert.Equal(t, []domain.SubtaskScore{
		{Idx: "1", Score: 30},
		{Idx: "2", Score: 45},
	}, facts[1].Subtasks)
}

func TestPgTaskSrvc(t *testing.T) {
	pool := NewDB(t)
	seedContest(t, pool)
	ctx := context.Background()
	tasks := NewPgTaskSrvc(pool)

	sc, err := tasks.GetTaskScoring(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, domain.ScoreModeMaxTokenedLast, sc.Mode)
	assert.Equal(t, 2, sc.Precision)

	_, err = tasks.GetTaskScoring(ctx, 999)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestPgContestSrvc(t *testing.T) {
	pool := NewDB(t)
	seedContest(t, pool)
	ctx := context.Background()
	contests := NewPgContestSrvc(pool)

	ids, err := contests.ListParticipationIDs(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{100, 101}, ids)

	_, err = contests.ListParticipationIDs(ctx, 999)
	assert.ErrorIs(t, err, ErrContestNotFound)
}

func TestPgScoreStoreEntryRoundTrip(t *testing.T) {
	pool := NewDB(t)
	seedContest(t, pool)
	ctx := context.Background()
	store := NewPgScoreStore(pool)

	got, err := store.GetEntry(ctx, 100, 1)
	require.NoError(t, err)
	assert.Nil(t, got)

	now := time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)
	lastAt := now.Add(-time.Hour)
	entry := domain.ScoreEntry{
		ParticipationID:  100,
		TaskID:           2,
		Score:            75,
		SubtaskMaxScores: map[string]float64{"1": 30, "2": 45},
		MaxTokenedScore:  30,
		LastSubmScore:    ptr(75.0),
		LastSubmAt:       &lastAt,
		HasSubmissions:   true,
		ScoreValid:       true,
		HistoryValid:     true,
		CreatedAt:        now,
		LastUpdate:       now,
	}
	err = store.WithPairLock(ctx, 100, 2, func(tx scoresrvc.ScoreTx) error {
		return tx.SaveEntry(ctx, entry)
	})
	require.NoError(t, err)

	got, err = store.GetEntry(ctx, 100, 2)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entry, *got)

	// upsert over the same pair
	entry.Score = 100
	entry.SubtaskMaxScores = nil
	err = store.WithPairLock(ctx, 100, 2, func(tx scoresrvc.ScoreTx) error {
		return tx.SaveEntry(ctx, entry)
	})
	require.NoError(t, err)

	got, err = store.GetEntry(ctx, 100, 2)
	require.NoError(t, err)
	assert.Equal(t, 100.0, got.Score)
	assert.Nil(t, got.SubtaskMaxScores)
}

func TestPgScoreStoreHistory(t *testing.T) {
	pool := NewDB(t)
	seedContest(t, pool)
	ctx := context.Background()
	store := NewPgScoreStore(pool)

	rowAt := func(minute int, score float64, submID int64) domain.ScoreHistoryRow {
		return domain.ScoreHistoryRow{
			ParticipationID: 100,
			TaskID:          1,
			Timestamp:       time.Date(2026, 3, 1, 12, minute, 0, 0, time.UTC),
			Score:           score,
			SubmID:          submID,
		}
	}

	err := store.WithPairLock(ctx, 100, 1, func(tx scoresrvc.ScoreTx) error {
		for _, row := range []domain.ScoreHistoryRow{
			rowAt(1, 50, 1), rowAt(4, 75, 4),
		} {
			if err := tx.AddHistoryRow(ctx, row); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	history, err := store.ListHistory(ctx, 100, 1)
	require.NoError(t, err)
	assert.Equal(t, []domain.ScoreHistoryRow{rowAt(1, 50, 1), rowAt(4, 75, 4)}, history)

	err = store.WithPairLock(ctx, 100, 1, func(tx scoresrvc.ScoreTx) error {
		return tx.DeleteHistory(ctx, 100, 1)
	})
	require.NoError(t, err)

	history, err = store.ListHistory(ctx, 100, 1)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestPgScoreStoreRollbackOnError(t *testing.T) {
	pool := NewDB(t)
	seedContest(t, pool)
	ctx := context.Background()
	store := NewPgScoreStore(pool)

	now := time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)
	entry := domain.ScoreEntry{
		ParticipationID: 100, TaskID: 1,
		CreatedAt: now, LastUpdate: now,
	}
	err := store.WithPairLock(ctx, 100, 1, func(tx scoresrvc.ScoreTx) error {
		if err := tx.SaveEntry(ctx, entry); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	got, err := store.GetEntry(ctx, 100, 1)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPgScoreStoreSaveKeepsInvalidation(t *testing.T) {
	pool := NewDB(t)
	seedContest(t, pool)
	ctx := context.Background()
	store := NewPgScoreStore(pool)

	created := time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)
	entry := domain.ScoreEntry{
		ParticipationID: 100, TaskID: 1,
		Score: 50, HasSubmissions: true,
		ScoreValid: true, HistoryValid: true,
		CreatedAt: created, LastUpdate: created,
	}
	err := store.WithPairLock(ctx, 100, 1, func(tx scoresrvc.ScoreTx) error {
		return tx.SaveEntry(ctx, entry)
	})
	require.NoError(t, err)

	at := created.Add(time.Minute)
	err = store.Invalidate(ctx, scoresrvc.InvalidationFilter{
		ParticipationID: ptr(int64(100)),
		TaskID:          ptr(int64(1)),
	}, at)
	require.NoError(t, err)

	// a writer that read the entry before the invalidation saves its
	// view back; the upsert must not downgrade the fresher stamp
	err = store.WithPairLock(ctx, 100, 1, func(tx scoresrvc.ScoreTx) error {
		return tx.SaveEntry(ctx, entry)
	})
	require.NoError(t, err)

	got, err := store.GetEntry(ctx, 100, 1)
	require.NoError(t, err)
	require.NotNil(t, got.InvalidatedAt)
	assert.Equal(t, at, *got.InvalidatedAt)
	assert.False(t, got.Valid())
}

func TestPgScoreStoreInvalidate(t *testing.T) {
	pool := NewDB(t)
	seedContest(t, pool)
	ctx := context.Background()
	store := NewPgScoreStore(pool)

	now := time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)
	seed := func(pID, tID int64) {
		entry := domain.ScoreEntry{
			ParticipationID: pID, TaskID: tID,
			ScoreValid: true, HistoryValid: true,
			CreatedAt: now, LastUpdate: now,
		}
		err := store.WithPairLock(ctx, pID, tID, func(tx scoresrvc.ScoreTx) error {
			if err := tx.SaveEntry(ctx, entry); err != nil {
				return err
			}
			return tx.AddHistoryRow(ctx, domain.ScoreHistoryRow{
				ParticipationID: pID, TaskID: tID,
				Timestamp: now, Score: 50, SubmID: 1,
			})
		})
		require.NoError(t, err)
	}
	seed(100, 1)
	seed(100, 2)
	seed(101, 1)

	at := now.Add(time.Minute)
	err := store.Invalidate(ctx, scoresrvc.InvalidationFilter{
		ParticipationID: ptr(int64(100)),
		TaskID:          ptr(int64(1)),
	}, at)
	require.NoError(t, err)

	got, err := store.GetEntry(ctx, 100, 1)
	require.NoError(t, err)
	assert.False(t, got.Valid())
	require.NotNil(t, got.InvalidatedAt)
	assert.Equal(t, at, *got.InvalidatedAt)
	history, err := store.ListHistory(ctx, 100, 1)
	require.NoError(t, err)
	assert.Empty(t, history)

	// the other pairs are untouched
	for _, pair := range [][2]int64{{100, 2}, {101, 1}} {
		got, err := store.GetEntry(ctx, pair[0], pair[1])
		require.NoError(t, err)
		assert.True(t, got.Valid())
		history, err := store.ListHistory(ctx, pair[0], pair[1])
		require.NoError(t, err)
		assert.Len(t, history, 1)
	}

	// contest-wide scope hits both participations
	err = store.Invalidate(ctx, scoresrvc.InvalidationFilter{
		ParticipationIDs: []int64{100, 101},
	}, at)
	require.NoError(t, err)
	entries, err := store.ListEntries(ctx, []int64{100, 101})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for _, entry := range entries {
		assert.False(t, entry.Valid())
	}
}

// TestScoreSrvcOnPg wires the service to the pg store and sources and runs
// the full path: graded update, invalidation, rebuild from submissions.
func TestScoreSrvcOnPg(t *testing.T) {
	pool := NewDB(t)
	seedContest(t, pool)
	ctx := context.Background()

	store := NewPgScoreStore(pool)
	srvc := scoresrvc.NewScoreSrvc(
		store,
		NewPgSubmSource(pool),
		NewPgTaskSrvc(pool),
		NewPgContestSrvc(pool),
	)

	seedSubm(t, pool, 1, 100, 1, 1, ptr(50.0), "", false, true)
	seedSubm(t, pool, 2, 100, 1, 4, ptr(75.0), "", false, true)

	for _, id := range []int64{1, 2} {
		var sub scoresrvc.GradedSubm
		var ts time.Time
		err := pool.QueryRow(ctx, `
			SELECT id, participation_id, task_id, timestamp, score, tokened, official
			FROM submissions WHERE id = $1
		`, id).Scan(&sub.SubmID, &sub.ParticipationID, &sub.TaskID, &ts,
			&sub.Score, &sub.Tokened, &sub.Official)
		require.NoError(t, err)
		sub.Timestamp = ts
		require.NoError(t, srvc.UpdateScoreCache(ctx, sub))
	}

	entry, err := srvc.GetCachedScoreEntry(ctx, 100, 1)
	require.NoError(t, err)
	assert.Equal(t, 75.0, entry.Score)
	assert.True(t, entry.Valid())

	history, err := srvc.GetScoreHistory(ctx, 100, 1)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 50.0, history[0].Score)
	assert.Equal(t, 75.0, history[1].Score)

	// rescoring: submission 2 drops to 60, cache is invalidated
	_, err = pool.Exec(ctx, `UPDATE submissions SET score = 60 WHERE id = 2`)
	require.NoError(t, err)
	err = srvc.InvalidateScoreCache(ctx, ptr(int64(100)), ptr(int64(1)), nil)
	require.NoError(t, err)

	entry, err = srvc.GetCachedScoreEntry(ctx, 100, 1)
	require.NoError(t, err)
	assert.Equal(t, 60.0, entry.Score)
	assert.True(t, entry.Valid())
}
