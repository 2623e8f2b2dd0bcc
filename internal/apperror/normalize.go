package apperror

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/forgo/questline/pkg/jwt"
)

const genericInternalMessage = "An unexpected error occurred"

// Envelope is the JSON body of every failed response
type Envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

// Problem is the normalized view of an error
type Problem struct {
	Status   int
	Kind     Kind
	Envelope Envelope
}

// Normalizer is the single catch-all boundary between failures and callers
type Normalizer struct {
	// Production hides stack traces and internal error text
	Production bool
	Logger     *slog.Logger
	// RequestAttrs adds request-scoped attributes (request id, user id) to logs
	RequestAttrs func(r *http.Request) []slog.Attr
}

// NewNormalizer creates a normalizer logging to the default slog logger
func NewNormalizer(production bool) *Normalizer {
	return &Normalizer{Production: production}
}

// Normalize maps err to a status and envelope. The checks run in priority
// order; the first match wins.
func (n *Normalizer) Normalize(err error) Problem {
	var (
		appErr  *Error
		valErr  *ValidationError
		dupErr  *DuplicateError
		payErr  *PaymentError
		p       Problem
		stack   string
		message string
	)

	switch {
	case errors.As(err, &appErr):
		p = problem(appErr.Status, appErr.Kind, appErr.ErrorCode(), appErr.Message)
		stack = appErr.Stack()
	case errors.As(err, &valErr):
		p = problem(http.StatusBadRequest, KindValidation, CodeValidation, valErr.Error())
	case errors.As(err, &dupErr):
		p = problem(http.StatusBadRequest, KindConflict, CodeDuplicateEntry, dupErr.Error())
	case errors.Is(err, jwt.ErrNoToken):
		p = problem(http.StatusUnauthorized, KindAuthentication, CodeNoToken, "No token provided")
	case errors.Is(err, jwt.ErrInvalidToken):
		p = problem(http.StatusUnauthorized, KindAuthentication, CodeInvalidToken, "Invalid token")
	case errors.Is(err, jwt.ErrTokenExpired):
		p = problem(http.StatusUnauthorized, KindAuthentication, CodeTokenExpired, "Token expired")
	case errors.As(err, &payErr):
		p = problem(http.StatusBadRequest, KindPayment, CodePayment, payErr.Error())
	default:
		message = genericInternalMessage
		if err != nil && !n.Production {
			message = err.Error()
		}
		p = problem(http.StatusInternalServerError, KindInternal, CodeInternal, message)
	}

	if !n.Production {
		if stack == "" {
			stack = string(debug.Stack())
		}
		p.Envelope.Stack = stack
	}
	return p
}

// Write normalizes err, logs it and writes the envelope
func (n *Normalizer) Write(w http.ResponseWriter, r *http.Request, err error) {
	p := n.Normalize(err)
	n.log(r, err, p)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p.Envelope)
}

// WriteError satisfies the middleware error writer
func (n *Normalizer) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	n.Write(w, r, err)
}

func (n *Normalizer) log(r *http.Request, err error, p Problem) {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}

	attrs := []slog.Attr{
		slog.Int("status", p.Status),
		slog.String("code", p.Envelope.Error),
		slog.String("kind", p.Kind.String()),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	if r != nil {
		attrs = append(attrs,
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
		if n.RequestAttrs != nil {
			attrs = append(attrs, n.RequestAttrs(r)...)
		}
	}

	level := slog.LevelWarn
	if p.Status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	ctx := context.Background()
	if r != nil {
		ctx = r.Context()
	}
	logger.LogAttrs(ctx, level, "request failed", attrs...)
}

func problem(status int, kind Kind, code, message string) Problem {
	return Problem{
		Status: status,
		Kind:   kind,
		Envelope: Envelope{
			Success: false,
			Error:   code,
			Message: message,
		},
	}
}
