package apperror

import (
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// Kind classifies a failure for callers and logs
type Kind int

const (
	KindInternal Kind = iota
	KindAuthentication
	KindAuthorization
	KindValidation
	KindConflict
	KindPayment
)

func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindPayment:
		return "payment"
	default:
		return "internal"
	}
}

// Codes surfaced in the "error" field of the envelope
const (
	CodeNoToken          = "NO_TOKEN"
	CodeInvalidToken     = "INVALID_TOKEN"
	CodeTokenExpired     = "TOKEN_EXPIRED"
	CodeNotAuthenticated = "NOT_AUTHENTICATED"
	CodeForbidden        = "FORBIDDEN"
	CodeUpgradeRequired  = "UPGRADE_REQUIRED"
	CodeValidation       = "VALIDATION_ERROR"
	CodeDuplicateEntry   = "DUPLICATE_ENTRY"
	CodePayment          = "PAYMENT_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeRateLimited      = "RATE_LIMITED"
	CodeNotGuildMember   = "NOT_GUILD_MEMBER"
	CodeInternal         = "INTERNAL_SERVER_ERROR"
)

// Error is an application error that already knows its HTTP status and code.
// Code is optional; an empty code is reported as the kind's default.
type Error struct {
	Kind    Kind
	Status  int
	Code    string
	Message string

	stack string
}

// New creates an application error and records where it was raised
func New(kind Kind, status int, code, message string) *Error {
	return &Error{
		Kind:    kind,
		Status:  status,
		Code:    code,
		Message: message,
		stack:   callers(),
	}
}

func (e *Error) Error() string {
	return e.Message
}

// ErrorCode returns Code, falling back to a code derived from Kind
func (e *Error) ErrorCode() string {
	if e.Code != "" {
		return e.Code
	}
	switch e.Kind {
	case KindAuthentication:
		return CodeNotAuthenticated
	case KindAuthorization:
		return CodeForbidden
	case KindValidation:
		return CodeValidation
	case KindConflict:
		return CodeDuplicateEntry
	case KindPayment:
		return CodePayment
	default:
		return CodeInternal
	}
}

// Stack returns the call stack captured at construction
func (e *Error) Stack() string {
	return e.stack
}

func NewUnauthenticated(code, message string) *Error {
	return New(KindAuthentication, http.StatusUnauthorized, code, message)
}

func NewNotAuthenticated() *Error {
	return NewUnauthenticated(CodeNotAuthenticated, "Authentication required")
}

func NewForbidden(message string) *Error {
	return New(KindAuthorization, http.StatusForbidden, CodeForbidden, message)
}

func NewUpgradeRequired(message string) *Error {
	return New(KindAuthorization, http.StatusForbidden, CodeUpgradeRequired, message)
}

func NewNotGuildMember() *Error {
	return New(KindAuthorization, http.StatusForbidden, CodeNotGuildMember, "You are not a member of this guild")
}

func NewBadRequest(message string) *Error {
	return New(KindValidation, http.StatusBadRequest, CodeValidation, message)
}

func NewNotFound(resource string) *Error {
	return New(KindValidation, http.StatusNotFound, CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func NewRateLimited(message string) *Error {
	return New(KindValidation, http.StatusTooManyRequests, CodeRateLimited, message)
}

// FieldError is a validation failure on one field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects field failures from input validation
type ValidationError struct {
	Fields []FieldError
}

func NewValidation(fields ...FieldError) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	if len(msgs) == 0 {
		return "Validation failed"
	}
	return strings.Join(msgs, ", ")
}

// DuplicateError reports a uniqueness violation on Field
type DuplicateError struct {
	Field string
	Err   error
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s already exists", e.Field)
}

func (e *DuplicateError) Unwrap() error {
	return e.Err
}

// PaymentError wraps a failure reported by the payment processor
type PaymentError struct {
	Type    string
	Message string
}

func (e *PaymentError) Error() string {
	return e.Message
}

func callers() string {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var b strings.Builder
	for {
		frame, more := frames.Next()
		fmt.Fprintf(&b, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		if !more {
			break
		}
	}
	return b.String()
}
