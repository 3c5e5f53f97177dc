package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/m-mizutani/goerr/v2"

	"github.com/movetics/transflow/errs"
)

type apiError struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

// kindOf maps an error to its taxonomy name for the wire.
func kindOf(err error) string {
	switch {
	case goerr.HasTag(err, errs.TagSessionNotFound):
		return "session_not_found"
	case goerr.HasTag(err, errs.TagDuplicateSession):
		return "duplicate_session"
	case goerr.HasTag(err, errs.TagSessionBusy):
		return "session_busy"
	case goerr.HasTag(err, errs.TagCollaboratorTimeout):
		return "collaborator_timeout"
	case goerr.HasTag(err, errs.TagExtractionFailed):
		return "extraction_failed"
	case goerr.HasTag(err, errs.TagQuestionGenerationFailed):
		return "question_generation_failed"
	case goerr.HasTag(err, errs.TagSummarizationFailed):
		return "summarization_failed"
	case goerr.HasTag(err, errs.TagFieldCoercion):
		return "field_coercion"
	case goerr.HasTag(err, errs.TagAttemptsExhausted):
		return "attempts_exhausted"
	default:
		return "internal"
	}
}

func toAPIError(err error) *apiError {
	return &apiError{Kind: kindOf(err), Detail: err.Error()}
}

func badRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest,
		map[string]*apiError{"error": {Kind: "invalid_request", Detail: err.Error()}})
}

func handleError(w http.ResponseWriter, r *http.Request, err error) {
	logger := slog.Default()
	status := http.StatusInternalServerError

	switch {
	case goerr.HasTag(err, errs.TagSessionNotFound):
		logger.Warn("Not Found", "error", err)
		status = http.StatusNotFound

	case goerr.HasTag(err, errs.TagDuplicateSession):
		logger.Warn("Conflict", "error", err)
		status = http.StatusConflict

	case goerr.HasTag(err, errs.TagSessionBusy):
		logger.Warn("Session Busy", "error", err)
		status = http.StatusTooManyRequests

	case goerr.HasTag(err, errs.TagCollaboratorTimeout):
		logger.Error("Collaborator Timeout", "error", err)
		status = http.StatusGatewayTimeout

	case goerr.HasTag(err, errs.TagExtractionFailed),
		goerr.HasTag(err, errs.TagQuestionGenerationFailed),
		goerr.HasTag(err, errs.TagSummarizationFailed):
		logger.Error("Collaborator Error", "error", err)
		status = http.StatusBadGateway

	case goerr.HasTag(err, errs.TagAttemptsExhausted):
		logger.Warn("Attempts Exhausted", "error", err)
		status = http.StatusConflict

	default:
		logger.Error("Internal Error", "error", err)
	}

	writeJSON(w, status, map[string]*apiError{"error": toAPIError(err)})
}
