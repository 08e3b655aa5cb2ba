package scoresrvc

import (
	"time"

	"github.com/programme-lv/scoreboard/score/domain"
)

// GradedSubm is a graded submission as reported by the grading pipeline.
type GradedSubm struct {
	SubmID          int64
	ParticipationID int64
	TaskID          int64
	Timestamp       time.Time

	// Score is nil while the submission has not been scored yet; such
	// submissions never touch the cache.
	Score    *float64
	Subtasks []domain.SubtaskScore
	Tokened  bool
	Official bool
}

func (s GradedSubm) fact() domain.SubmFact {
	var score float64
	if s.Score != nil {
		score = *s.Score
	}
	return domain.SubmFact{
		SubmID:    s.SubmID,
		Timestamp: s.Timestamp,
		Score:     score,
		Subtasks:  s.Subtasks,
		Tokened:   s.Tokened,
	}
}
