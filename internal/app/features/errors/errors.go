// internal/app/features/errors/errors.go
package errors

import (
	stderrors "errors"
	"net/http"

	"github.com/dalemusser/mentorconnect/internal/app/system/authz"
	"github.com/dalemusser/mentorconnect/internal/app/system/inputval"
	"github.com/dalemusser/mentorconnect/internal/app/system/jsonio"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Body is the JSON error response.
type Body struct {
	Error  string              `json:"error"`
	Fields []inputval.FieldError `json:"fields,omitempty"`
}

// ErrorLogger logs a failure with request context and writes the JSON error
// response. Every feature handler holds one.
type ErrorLogger struct {
	Log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{Log: logger}
}

func (e *ErrorLogger) fields(r *http.Request, err error) []zap.Field {
	_, _, uid, ok := authz.UserCtx(r)
	f := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
	}
	if ok {
		f = append(f, zap.String("user_id", uid.Hex()))
	}
	if err != nil {
		f = append(f, zap.Error(err))
	}
	return f
}

// LogServerError logs at error level and writes 500 with userMsg.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	e.Log.Error(msg, e.fields(r, err)...)
	jsonio.Write(w, http.StatusInternalServerError, Body{Error: userMsg})
}

// LogUnavailable logs at error level and writes 503 with userMsg.
func (e *ErrorLogger) LogUnavailable(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	e.Log.Error(msg, e.fields(r, err)...)
	jsonio.Write(w, http.StatusServiceUnavailable, Body{Error: userMsg})
}

// LogBadRequest logs at info level and writes 400. Validation failures
// carry their field errors.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	e.Log.Info(msg, e.fields(r, err)...)
	body := Body{Error: userMsg}
	var ve inputval.Errors
	if stderrors.As(err, &ve) {
		body.Fields = ve
	}
	jsonio.Write(w, http.StatusBadRequest, body)
}

// LogForbidden logs at warn level and writes 403.
func (e *ErrorLogger) LogForbidden(w http.ResponseWriter, r *http.Request, msg string, userMsg string) {
	e.Log.Warn(msg, e.fields(r, nil)...)
	jsonio.Write(w, http.StatusForbidden, Body{Error: userMsg})
}

// NotFound writes 404.
func NotFound(w http.ResponseWriter, msg string) {
	jsonio.Write(w, http.StatusNotFound, Body{Error: msg})
}

// Conflict writes 409.
func Conflict(w http.ResponseWriter, msg string) {
	jsonio.Write(w, http.StatusConflict, Body{Error: msg})
}

// Unauthorized writes 401.
func Unauthorized(w http.ResponseWriter) {
	jsonio.Write(w, http.StatusUnauthorized, Body{Error: "sign in required"})
}

// TooManyRequests writes 429.
func TooManyRequests(w http.ResponseWriter, msg string) {
	jsonio.Write(w, http.StatusTooManyRequests, Body{Error: msg})
}

// Handler serves the JSON fallbacks for unknown routes and methods.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// NotFound handles unmatched routes.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	NotFound(w, "not found")
}

// MethodNotAllowed handles matched routes with the wrong method.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	jsonio.Write(w, http.StatusMethodNotAllowed, Body{Error: "method not allowed"})
}
