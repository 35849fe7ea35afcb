package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"crudkit/internal/logging"
	"crudkit/pkg/excel"
	"crudkit/pkg/repository"
	"crudkit/pkg/service"
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// requestError is a client mistake detected by the handlers themselves.
type requestError struct {
	msg string
	err error
}

func (e *requestError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + ": " + e.err.Error()
}

func (e *requestError) Unwrap() error { return e.err }

func badRequest(msg string, err error) error {
	return &requestError{msg: msg, err: err}
}

// classify maps err to a status code and a machine-readable code. Only
// client errors expose their message.
func classify(err error) (int, string, string) {
	var (
		reqErr  *requestError
		cellErr *excel.CellError
		fmtErr  *service.UnsupportedFormatError
	)
	switch {
	case errors.As(err, &reqErr):
		return http.StatusBadRequest, "BAD_REQUEST", reqErr.Error()
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", err.Error()
	case errors.Is(err, repository.ErrVersionConflict):
		return http.StatusConflict, "VERSION_CONFLICT", err.Error()
	case errors.Is(err, repository.ErrDuplicateKey):
		return http.StatusConflict, "DUPLICATE_KEY", err.Error()
	case errors.Is(err, repository.ErrNonUniqueResult):
		return http.StatusConflict, "NON_UNIQUE_RESULT", err.Error()
	case errors.Is(err, repository.ErrInvalidSort):
		return http.StatusBadRequest, "INVALID_SORT", err.Error()
	case errors.Is(err, service.ErrNilEntities):
		return http.StatusBadRequest, "BAD_REQUEST", err.Error()
	case errors.Is(err, service.ErrOperationFailed):
		return http.StatusUnprocessableEntity, "VALIDATION_FAILED", err.Error()
	case errors.As(err, &cellErr):
		return http.StatusUnprocessableEntity, "INVALID_CELL", err.Error()
	case errors.As(err, &fmtErr):
		return http.StatusUnsupportedMediaType, "UNSUPPORTED_FORMAT", err.Error()
	case errors.Is(err, service.ErrImportNotImplemented):
		return http.StatusNotImplemented, "NOT_IMPLEMENTED", err.Error()
	}
	return http.StatusInternalServerError, "INTERNAL", "internal server error"
}

// respondError logs err with the request context and writes the mapped reply.
func respondError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	status, code, msg := classify(err)

	logger := logging.FromContext(r.Context(), log)
	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.String("code", code),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", fields...)
	} else {
		logger.Info("request rejected", fields...)
	}

	writeJSON(w, log, status, ErrorResponse{Error: msg, Code: code})
}

func writeJSON(w http.ResponseWriter, log *zap.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("json encode failed", zap.Error(err))
	}
}
