package routes

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/hlog"
	"gitlab.com/ranfdev/rubricvote/internal/models"
)

type AppError interface {
	error
	Status() int
	Public() string
}

type ErrInternal struct {
	Message string
	Cause   error
}

func (e *ErrInternal) Error() string { return fmt.Sprintf("%s: %v", e.Public(), e.Cause) }
func (e *ErrInternal) Unwrap() error { return e.Cause }
func (e *ErrInternal) Status() int   { return http.StatusInternalServerError }
func (e *ErrInternal) Public() string {
	if e.Message == "" {
		return "Internal server error"
	}
	return e.Message
}

type ErrNotFound struct {
	Thing string
	Cause error
}

func (e *ErrNotFound) Error() string  { return fmt.Sprintf("%s: %v", e.Public(), e.Cause) }
func (e *ErrNotFound) Unwrap() error  { return e.Cause }
func (e *ErrNotFound) Status() int    { return http.StatusNotFound }
func (e *ErrNotFound) Public() string { return fmt.Sprintf("Can't find %s", e.Thing) }

type ErrForbidden struct {
	Cause error
}

func (e *ErrForbidden) Error() string  { return fmt.Sprintf("%s: %v", e.Public(), e.Cause) }
func (e *ErrForbidden) Unwrap() error  { return e.Cause }
func (e *ErrForbidden) Status() int    { return http.StatusForbidden }
func (e *ErrForbidden) Public() string { return "The link you followed has expired" }

type ErrBadRequest struct {
	Message string
	Cause   error
}

func (e *ErrBadRequest) Error() string  { return fmt.Sprintf("%s: %v", e.Public(), e.Cause) }
func (e *ErrBadRequest) Unwrap() error  { return e.Cause }
func (e *ErrBadRequest) Status() int    { return http.StatusBadRequest }
func (e *ErrBadRequest) Public() string { return e.Message }

func (routes *Routes) AppHandler(handler func(w http.ResponseWriter, r *http.Request) AppError) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := handler(w, r)
		if err == nil {
			return
		}
		routes.writeErr(w, r, err)
	}
}

// toAppError maps store sentinels to http errors.
func toAppError(err error) AppError {
	var appErr AppError
	switch {
	case errors.As(err, &appErr):
	case errors.Is(err, models.ErrObjectNotFound):
		appErr = &ErrNotFound{Thing: "object", Cause: err}
	case errors.Is(err, models.ErrBadNonce):
		appErr = &ErrForbidden{Cause: err}
	case errors.Is(err, models.ErrInvalidFormat):
		appErr = &ErrBadRequest{Message: "Invalid format", Cause: err}
	default:
		appErr = &ErrInternal{Cause: err}
	}
	return appErr
}

func (routes *Routes) writeErr(w http.ResponseWriter, r *http.Request, err AppError) {
	status := err.Status()
	event := hlog.FromRequest(r).Debug()
	if status >= http.StatusInternalServerError {
		event = hlog.FromRequest(r).Error()
	}
	event.
		Str("request_id", middleware.GetReqID(r.Context())).
		Int("status", status).
		Err(err).
		Msg(err.Public())

	if status == http.StatusNotFound {
		routes.tmpls.RenderHTMLStatus(w, status, "404", err.Public())
		return
	}
	http.Error(w, err.Public(), status)
}
