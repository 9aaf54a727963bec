package web

// errors.go maps failures to HTTP status codes and JSON bodies.
//
// The technical error is logged with the request id; the client receives the
// mapped user message and code only.

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/trialsdata/internal/csvfile"
	"github.com/JonMunkholm/trialsdata/internal/logging"
	"github.com/JonMunkholm/trialsdata/internal/trials"
)

// ErrorResponse is the JSON body for every error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// badRequest marks decode failures that are the caller's fault.
type badRequest struct {
	err error
}

func (e *badRequest) Error() string { return e.err.Error() }
func (e *badRequest) Unwrap() error { return e.err }

func errBadRequest(err error) error {
	return &badRequest{err: err}
}

// statusFor picks the response status for err.
func statusFor(err error) int {
	var br *badRequest
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge), errors.Is(err, csvfile.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &br):
		return http.StatusBadRequest
	case errors.Is(err, trials.ErrRunInProgress):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, trials.ErrStorageConnection), errors.Is(err, trials.ErrStorageQuery):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes the mapped JSON error.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := trials.MapError(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"status", status,
		"code", msg.Code,
		"error", err,
	)

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", strconv.Itoa(int(s.cfg.Import.MaxWaitTime.Seconds())))
	}

	writeJSON(w, status, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}
