package scoresrvc

import (
	"net/http"

	"github.com/programme-lv/scoreboard/srvcerror"
)

const ErrCodeTaskNotFound = "task_not_found"

func ErrTaskNotFound() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeTaskNotFound,
		"Atbilstošais uzdevums netika atrasts",
	).SetHttpStatusCode(http.StatusNotFound)
}

const ErrCodeContestNotFound = "contest_not_found"

func ErrContestNotFound() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeContestNotFound,
		"Norādītās sacensības netika atrastas",
	).SetHttpStatusCode(http.StatusNotFound)
}

const ErrCodeInvalidScoreConfig = "invalid_score_config"

func ErrInvalidScoreConfig() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeInvalidScoreConfig,
		"Nederīga uzdevuma vērtēšanas konfigurācija",
	)
}

const ErrCodeEmptyInvalidationScope = "empty_invalidation_scope"

func ErrEmptyInvalidationScope() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeEmptyInvalidationScope,
		"Jānorāda vismaz viens filtrs: dalība, uzdevums vai sacensības",
	).SetHttpStatusCode(http.StatusBadRequest)
}

func ErrInternalSE() *srvcerror.Error {
	return srvcerror.ErrInternalSE()
}
