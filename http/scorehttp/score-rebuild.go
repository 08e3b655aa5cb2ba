package scorehttp

import (
	"net/http"

	"github.com/go-chi/httplog/v2"
	"github.com/programme-lv/scoreboard/httpjson"
)

func (httpserver *HttpServer) rebuildScore(w http.ResponseWriter, r *http.Request) {
	logger := httplog.LogEntry(r.Context())

	if !requireAdmin(w, r) {
		return
	}

	participationID, taskID, ok := pairParams(w, r)
	if !ok {
		return
	}

	entry, err := httpserver.scoreSrvc.RebuildScoreCache(r.Context(), participationID, taskID)
	if err != nil {
		httpjson.HandleSrvcError(logger, w, err)
		return
	}

	httpjson.WriteSuccess(w, mapScoreEntry(entry))
}
