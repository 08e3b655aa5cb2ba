package domain

import "time"

// ScoreAccum accumulates score state from submissions processed in
// (timestamp, submission id) order. It is the ground truth the incremental
// ScoreEntry.ApplyFact path must converge to: a full rebuild folds every
// scored submission through a zero-valued accumulator.
type ScoreAccum struct {
	MaxScore         float64
	MaxTokenedScore  float64
	LastSubmScore    *float64
	LastSubmAt       *time.Time
	SubtaskMaxScores map[string]float64
	HasSubmissions   bool
}

// Fold processes one scored submission. Callers fold facts in timestamp
// order, ties broken by submission id.
func (a *ScoreAccum) Fold(f SubmFact, mode ScoreMode) {
	a.HasSubmissions = true
	if f.Score > a.MaxScore {
		a.MaxScore = f.Score
	}
	score := f.Score
	ts := f.Timestamp
	a.LastSubmScore = &score
	a.LastSubmAt = &ts

	if f.Tokened && f.Score > a.MaxTokenedScore {
		a.MaxTokenedScore = f.Score
	}

	if mode == ScoreModeMaxSubtask {
		// A nil parse means no subtask data could be extracted (compile
		// failure); MaxScore still tracks it for the fallback path.
		if parsed := ParseSubtaskScores(f.Subtasks, f.Score); parsed != nil {
			if a.SubtaskMaxScores == nil {
				a.SubtaskMaxScores = make(map[string]float64, len(parsed))
			}
			for idx, stScore := range parsed {
				if stScore > a.SubtaskMaxScores[idx] {
					a.SubtaskMaxScores[idx] = stScore
				}
			}
		}
	}
}

// FinalScore computes the rounded task score of the facts folded so far.
func (a *ScoreAccum) FinalScore(sc TaskScoring) float64 {
	var final float64
	switch sc.Mode {
	case ScoreModeMaxSubtask:
		for _, stScore := range a.SubtaskMaxScores {
			final += stScore
		}
	case ScoreModeMaxTokenedLast:
		last := 0.0
		if a.LastSubmScore != nil {
			last = *a.LastSubmScore
		}
		final = max(last, a.MaxTokenedScore)
	default: // max
		final = a.MaxScore
	}
	return RoundScore(final, sc.Precision)
}
