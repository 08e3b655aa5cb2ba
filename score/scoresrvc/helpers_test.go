package scoresrvc

import (
	"context"
	"testing"
	"time"

	"github.com/programme-lv/scoreboard/score/domain"
)

const (
	taskMax         int64 = 1 // score_mode=max, precision 0
	taskMaxSubtask  int64 = 2 // score_mode=max_subtask, precision 2
	taskTokenedLast int64 = 3 // score_mode=max_tokened_last, precision 0
	taskPrecise     int64 = 4 // score_mode=max, precision 2
	taskBadMode     int64 = 5 // misconfigured score mode

	contestID        int64 = 10
	participationID  int64 = 100
	participationID2 int64 = 101
)

type fixture struct {
	store *InMemScoreStore
	subms *InMemSubmSource
	srvc  *ScoreSrvc
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := NewInMemScoreStore()
	subms := NewInMemSubmSource()
	taskSrvc := StaticTaskSrvc{Tasks: map[int64]domain.TaskScoring{
		taskMax:         {Mode: domain.ScoreModeMax, Precision: 0},
		taskMaxSubtask:  {Mode: domain.ScoreModeMaxSubtask, Precision: 2},
		taskTokenedLast: {Mode: domain.ScoreModeMaxTokenedLast, Precision: 0},
		taskPrecise:     {Mode: domain.ScoreModeMax, Precision: 2},
		taskBadMode:     {Mode: "best_of_three", Precision: 0},
	}}
	contestSrvc := StaticContestSrvc{Contests: map[int64][]int64{
		contestID: {participationID, participationID2},
	}}
	return &fixture{
		store: store,
		subms: subms,
		srvc:  NewScoreSrvc(store, subms, taskSrvc, contestSrvc),
	}
}

func submAt(submID int64, pID int64, tID int64, minute int, score float64) GradedSubm {
	s := score
	return GradedSubm{
		SubmID:          submID,
		ParticipationID: pID,
		TaskID:          tID,
		Timestamp:       time.Date(2024, 3, 1, 10, minute, 0, 0, time.UTC),
		Score:           &s,
		Official:        true,
	}
}

// addAndFold seeds the submission source and folds the submission into the
// cache the way the grading pipeline does.
func (f *fixture) addAndFold(t *testing.T, sub GradedSubm) {
	t.Helper()
	f.subms.Add(sub)
	if err := f.srvc.UpdateScoreCache(context.Background(), sub); err != nil {
		t.Fatalf("UpdateScoreCache failed: %v", err)
	}
}

func ptr(v int64) *int64 {
	return &v
}

// subtasks builds an ordered breakdown with 1-based subtask indices.
func subtasks(t *testing.T, scores ...float64) []domain.SubtaskScore {
	t.Helper()
	breakdown := make([]domain.SubtaskScore, len(scores))
	for i, score := range scores {
		breakdown[i] = domain.SubtaskScore{Idx: domain.SubtaskIdx(i + 1), Score: score}
	}
	return breakdown
}
