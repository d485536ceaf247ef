package v1

import (
    "errors"
    "net/http"

    chimw "github.com/go-chi/chi/v5/middleware"

    "github.com/tinoosan/tms/internal/errs"
)

// errorResponse is the standard error payload for the API.
type errorResponse struct {
    Error string `json:"error"`
    Code  string `json:"code,omitempty"`
}

func writeErr(w http.ResponseWriter, status int, msg, code string) {
    toJSON(w, status, errorResponse{Error: msg, Code: code})
}

func badRequest(w http.ResponseWriter, msg string) { writeErr(w, http.StatusBadRequest, msg, "") }
func notFound(w http.ResponseWriter)               { writeErr(w, http.StatusNotFound, "not_found", "not_found") }
func conflict(w http.ResponseWriter, msg string)   { writeErr(w, http.StatusConflict, msg, "conflict") }
func unprocessable(w http.ResponseWriter, msg, code string) {
    writeErr(w, http.StatusUnprocessableEntity, msg, code)
}

// fail maps a service error onto the error envelope. Unknown errors are
// logged and hidden behind a 500.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
    switch {
    case errors.Is(err, errs.ErrNotFound):
        notFound(w)
    case errors.Is(err, errs.ErrInvalidRange):
        writeErr(w, http.StatusBadRequest, err.Error(), "invalid_range")
    case errors.Is(err, errs.ErrInvalid):
        writeErr(w, http.StatusBadRequest, err.Error(), "validation_error")
    case errors.Is(err, errs.ErrConflict):
        conflict(w, err.Error())
    case errors.Is(err, errs.ErrUnprocessable):
        unprocessable(w, err.Error(), "unprocessable")
    default:
        s.log.Error("request failed", "req_id", chimw.GetReqID(r.Context()), "path", r.URL.Path, "err", err)
        writeErr(w, http.StatusInternalServerError, "internal_error", "internal_error")
    }
}
