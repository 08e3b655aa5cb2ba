package domain

import (
	"math"
	"strconv"
	"time"
)

// SubtaskScore is one entry of a submission's ordered subtask breakdown.
type SubtaskScore struct {
	Idx   string
	Score float64
}

// SubmFact is one scored submission's contribution to the task score:
// everything the aggregation policies need, nothing else.
type SubmFact struct {
	SubmID    int64
	Timestamp time.Time
	Score     float64
	Subtasks  []SubtaskScore
	Tokened   bool
}

// ParseSubtaskScores maps a submission's subtask breakdown to per-subtask
// scores keyed by subtask index.
//
// An empty breakdown with score 0 yields nil: the submission carries no
// subtask information (e.g. a compile failure) and contributes nothing.
// An empty breakdown with a non-zero score is a fully scored submission
// whose checker produced no breakdown; it becomes a single synthetic
// subtask "1" holding the full score.
func ParseSubtaskScores(subtasks []SubtaskScore, score float64) map[string]float64 {
	if len(subtasks) == 0 && score == 0.0 {
		return nil
	}
	if len(subtasks) == 0 {
		return map[string]float64{"1": score}
	}
	parsed := make(map[string]float64, len(subtasks))
	for _, st := range subtasks {
		parsed[st.Idx] = st.Score
	}
	return parsed
}

// SubtaskIdx normalizes a numeric subtask index to its string key.
func SubtaskIdx(idx int) string {
	return strconv.Itoa(idx)
}

// RoundScore rounds a raw aggregate to the given number of decimal digits,
// half away from zero.
func RoundScore(score float64, precision int) float64 {
	pow := math.Pow10(precision)
	return math.Round(score*pow) / pow
}
