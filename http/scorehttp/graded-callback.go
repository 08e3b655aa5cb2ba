package scorehttp

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/go-chi/httplog/v2"
	"github.com/google/uuid"
	"github.com/programme-lv/scoreboard/httpjson"
	"github.com/programme-lv/scoreboard/logger"
	"github.com/programme-lv/scoreboard/score/scoresrvc"
)

// receiveGraded is the HTTP fallback for the graded-submission queue, used
// by grading workers that run outside AWS. The body carries the same schema
// as the queue event.
func (httpserver *HttpServer) receiveGraded(w http.ResponseWriter, r *http.Request) {
	log := httplog.LogEntry(r.Context())

	apiKey := r.Header.Get("X-Api-Key")
	if subtle.ConstantTimeCompare([]byte(apiKey), []byte(httpserver.gradingApiKey)) != 1 {
		httpjson.WriteError(w, "Nederīga API atslēga",
			http.StatusUnauthorized, "invalid_api_key")
		return
	}

	var msg scoresrvc.GradedSqsMsg
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	sub, err := scoresrvc.MapGradedMsg(msg)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	ctx := logger.WithRequestID(r.Context(), uuid.New().String())
	if err := httpserver.scoreSrvc.UpdateScoreCache(ctx, sub); err != nil {
		httpjson.HandleSrvcError(log, w, err)
		return
	}

	httpjson.WriteSuccess(w, nil)
}
