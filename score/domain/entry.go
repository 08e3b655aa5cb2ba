package domain

import "time"

// ScoreEntry is the cached score of a participation on a task. At most one
// entry exists per (participation, task) pair.
type ScoreEntry struct {
	ParticipationID int64
	TaskID          int64

	Score            float64
	SubtaskMaxScores map[string]float64 // only under max_subtask; nil otherwise
	MaxTokenedScore  float64
	LastSubmScore    *float64
	LastSubmAt       *time.Time
	HasSubmissions   bool

	// ScoreValid is false while the underlying grading data may have
	// changed behind the cache's back (e.g. a rescoring in flight).
	ScoreValid bool
	// HistoryValid is false once a submission was folded in out of
	// timestamp order; the score stays correct but the history timeline
	// needs a rebuild.
	HistoryValid bool
	// InvalidatedAt marks the entry stale; it must be rebuilt before
	// being treated as authoritative. It is never cleared: a rebuild
	// instead stamps CreatedAt past it, so an invalidation that lands
	// while a rebuild is in flight still wins.
	InvalidatedAt *time.Time

	CreatedAt  time.Time
	LastUpdate time.Time
}

// ScoreHistoryRow records one point at which the effective task score
// changed, ordered by timestamp within a (participation, task) pair.
type ScoreHistoryRow struct {
	ParticipationID int64
	TaskID          int64
	Timestamp       time.Time
	Score           float64
	SubmID          int64
}

// Valid reports whether the entry may be served without a rebuild. An
// invalidation stamp only counts while it post-dates the entry's creation:
// a rebuild stamps CreatedAt at its start, so a stamp older than that has
// already been absorbed, while a stamp written mid-rebuild keeps the entry
// stale even after the rebuild commits over it.
func (e *ScoreEntry) Valid() bool {
	if !e.ScoreValid {
		return false
	}
	return e.InvalidatedAt == nil || e.CreatedAt.After(*e.InvalidatedAt)
}

// ApplyFact folds one scored submission into the entry in place, combining
// with the running aggregates instead of recomputing from all submissions.
// Facts may arrive in any order; the resulting score is defined by the set
// of facts folded so far. Only the history timeline depends on order: a
// fact older than the newest one already seen flips HistoryValid to false.
//
// The last submission is the fact with the greatest timestamp; among equal
// timestamps the fact folded later wins, so a rebuild (which folds in
// (timestamp, submission id) order) resolves ties by submission id.
//
// Reports whether the rounded score changed.
func (e *ScoreEntry) ApplyFact(f SubmFact, sc TaskScoring) bool {
	oldScore := e.Score
	e.HasSubmissions = true

	if f.Tokened && f.Score > e.MaxTokenedScore {
		e.MaxTokenedScore = f.Score
	}

	if e.LastSubmAt != nil && f.Timestamp.Before(*e.LastSubmAt) {
		e.HistoryValid = false
	} else {
		score := f.Score
		ts := f.Timestamp
		e.LastSubmScore = &score
		e.LastSubmAt = &ts
	}

	switch sc.Mode {
	case ScoreModeMaxSubtask:
		if parsed := ParseSubtaskScores(f.Subtasks, f.Score); parsed != nil {
			if e.SubtaskMaxScores == nil {
				e.SubtaskMaxScores = make(map[string]float64, len(parsed))
			}
			for idx, stScore := range parsed {
				if stScore > e.SubtaskMaxScores[idx] {
					e.SubtaskMaxScores[idx] = stScore
				}
			}
		}
		sum := 0.0
		for _, stScore := range e.SubtaskMaxScores {
			sum += stScore
		}
		e.Score = RoundScore(sum, sc.Precision)
	case ScoreModeMaxTokenedLast:
		last := 0.0
		if e.LastSubmScore != nil {
			last = *e.LastSubmScore
		}
		e.Score = RoundScore(max(last, e.MaxTokenedScore), sc.Precision)
	default: // max
		e.Score = RoundScore(max(e.Score, f.Score), sc.Precision)
	}

	return e.Score != oldScore
}
