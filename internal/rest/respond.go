package rest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"clinic-scheduling-api/internal/apperr"
	"clinic-scheduling-api/internal/middleware"
)

const maxBody = 1 << 20

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var kindStatus = map[apperr.Kind]int{
	apperr.KindUnauthenticated: http.StatusUnauthorized,
	apperr.KindForbidden:       http.StatusForbidden,
	apperr.KindInvalid:         http.StatusBadRequest,
	apperr.KindNotFound:        http.StatusNotFound,
	apperr.KindConflict:        http.StatusConflict,
	apperr.KindPrecondition:    http.StatusConflict,
	apperr.KindInternal:        http.StatusInternalServerError,
}

func StatusOf(err error) int {
	if s, ok := kindStatus[apperr.From(err).Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) jsonError(w http.ResponseWriter, r *http.Request, err error) {
	e := apperr.From(err)
	if e.Kind == apperr.KindInternal {
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("op", e.Op),
			zap.Int64("entity_id", e.EntityID),
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.Error(e.Err))
	}
	writeJSON(w, StatusOf(e), ErrorResponse{Error: e.Message, Code: e.Code})
}

func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(dst)
	if errors.Is(err, io.EOF) {
		return apperr.Invalid("request body required")
	}
	if err != nil {
		return apperr.Invalid("invalid request body")
	}
	return nil
}

func token(r *http.Request) string {
	return middleware.BearerToken(r.Header.Get("Authorization"))
}

func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Invalid("invalid %s", name)
	}
	return id, nil
}
