package scorehttp

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/httplog/v2"
	"github.com/programme-lv/scoreboard/httpjson"
)

func (httpserver *HttpServer) invalidateScores(w http.ResponseWriter, r *http.Request) {
	logger := httplog.LogEntry(r.Context())

	if !requireAdmin(w, r) {
		return
	}

	type invalidateRequest struct {
		ParticipationID *int64 `json:"participation_id"`
		TaskID          *int64 `json:"task_id"`
		ContestID       *int64 `json:"contest_id"`
	}

	var request invalidateRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	err := httpserver.scoreSrvc.InvalidateScoreCache(r.Context(),
		request.ParticipationID, request.TaskID, request.ContestID)
	if err != nil {
		httpjson.HandleSrvcError(logger, w, err)
		return
	}

	httpjson.WriteSuccess(w, nil)
}
