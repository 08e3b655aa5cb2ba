package domain

import "fmt"

// ScoreMode determines how a participation's submissions on a task are
// aggregated into a single task score.
type ScoreMode string

const (
	// ScoreModeMax scores the task as the maximum over all submissions.
	ScoreModeMax ScoreMode = "max"
	// ScoreModeMaxSubtask scores each subtask as the maximum over all
	// submissions and sums the per-subtask maxima.
	ScoreModeMaxSubtask ScoreMode = "max_subtask"
	// ScoreModeMaxTokenedLast scores the task as the maximum of the best
	// tokened submission and the chronologically last submission.
	ScoreModeMaxTokenedLast ScoreMode = "max_tokened_last"
)

func ParseScoreMode(s string) (ScoreMode, error) {
	switch ScoreMode(s) {
	case ScoreModeMax, ScoreModeMaxSubtask, ScoreModeMaxTokenedLast:
		return ScoreMode(s), nil
	}
	return "", fmt.Errorf("unknown score mode: %q", s)
}

// TaskScoring is the scoring configuration of a task.
type TaskScoring struct {
	Mode      ScoreMode
	Precision int // decimal digits the task score is rounded to
}

func (sc TaskScoring) Validate() error {
	if _, err := ParseScoreMode(string(sc.Mode)); err != nil {
		return err
	}
	if sc.Precision < 0 {
		return fmt.Errorf("negative score precision: %d", sc.Precision)
	}
	return nil
}
