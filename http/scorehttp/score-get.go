package scorehttp

import (
	"net/http"

	"github.com/go-chi/httplog/v2"
	"github.com/programme-lv/scoreboard/httpjson"
)

func (httpserver *HttpServer) getScoreEntry(w http.ResponseWriter, r *http.Request) {
	logger := httplog.LogEntry(r.Context())

	participationID, taskID, ok := pairParams(w, r)
	if !ok {
		return
	}

	entry, err := httpserver.scoreSrvc.GetCachedScoreEntry(r.Context(), participationID, taskID)
	if err != nil {
		httpjson.HandleSrvcError(logger, w, err)
		return
	}

	httpjson.WriteSuccess(w, mapScoreEntry(entry))
}

func (httpserver *HttpServer) getScoreHistory(w http.ResponseWriter, r *http.Request) {
	logger := httplog.LogEntry(r.Context())

	participationID, taskID, ok := pairParams(w, r)
	if !ok {
		return
	}

	history, err := httpserver.scoreSrvc.GetScoreHistory(r.Context(), participationID, taskID)
	if err != nil {
		httpjson.HandleSrvcError(logger, w, err)
		return
	}

	httpjson.WriteSuccess(w, mapScoreHistory(history))
}
