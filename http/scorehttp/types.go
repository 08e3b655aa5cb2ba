package scorehttp

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/programme-lv/scoreboard/score/domain"
)

type ScoreEntry struct {
	ParticipationID int64 `json:"participation_id"`
	TaskID          int64 `json:"task_id"`

	Score            float64            `json:"score"`
	SubtaskMaxScores map[string]float64 `json:"subtask_max_scores,omitempty"`
	LastSubmScore    *float64           `json:"last_subm_score,omitempty"`
	LastSubmAt       *string            `json:"last_subm_at,omitempty"`
	HasSubmissions   bool               `json:"has_submissions"`

	LastUpdate string `json:"last_update"`
}

type ScoreHistoryRow struct {
	Timestamp string  `json:"timestamp"`
	Score     float64 `json:"score"`
	SubmID    int64   `json:"subm_id"`
}

func mapScoreEntry(entry domain.ScoreEntry) ScoreEntry {
	mapped := ScoreEntry{
		ParticipationID:  entry.ParticipationID,
		TaskID:           entry.TaskID,
		Score:            entry.Score,
		SubtaskMaxScores: entry.SubtaskMaxScores,
		LastSubmScore:    entry.LastSubmScore,
		HasSubmissions:   entry.HasSubmissions,
		LastUpdate:       entry.LastUpdate.Format(time.RFC3339),
	}
	if entry.LastSubmAt != nil {
		at := entry.LastSubmAt.Format(time.RFC3339)
		mapped.LastSubmAt = &at
	}
	return mapped
}

func mapScoreHistory(rows []domain.ScoreHistoryRow) []ScoreHistoryRow {
	mapped := make([]ScoreHistoryRow, len(rows))
	for i, row := range rows {
		mapped[i] = ScoreHistoryRow{
			Timestamp: row.Timestamp.Format(time.RFC3339),
			Score:     row.Score,
			SubmID:    row.SubmID,
		}
	}
	return mapped
}

// pairParams reads the participation and task ids from the URL. Reports ok
// as false after writing a 400 response.
func pairParams(w http.ResponseWriter, r *http.Request) (participationID int64, taskID int64, ok bool) {
	participationID, err := strconv.ParseInt(chi.URLParam(r, "participationId"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return 0, 0, false
	}
	taskID, err = strconv.ParseInt(chi.URLParam(r, "taskId"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return 0, 0, false
	}
	return participationID, taskID, true
}
