package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/forgo/questline/internal/apperror"
)

// DataResponse wraps a successful response
type DataResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// ErrorWriter renders an error as the JSON error envelope
type ErrorWriter interface {
	WriteError(w http.ResponseWriter, r *http.Request, err error)
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteData writes a successful data response
func WriteData(w http.ResponseWriter, status int, data any) {
	WriteJSON(w, status, DataResponse{Success: true, Data: data})
}

// MaxBodyBytes caps request bodies read by DecodeJSON
const MaxBodyBytes = 64 << 10

// DecodeJSON decodes a JSON request body into v. Unknown fields are
// ignored, so only the fields declared on v can ever be bound. Bodies over
// MaxBodyBytes fail with *http.MaxBytesError.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

// decodeError maps a DecodeJSON failure to the error sent to the caller
func decodeError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperror.New(apperror.KindValidation, http.StatusRequestEntityTooLarge, apperror.CodeValidation,
			fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit))
	}
	return apperror.NewBadRequest("Invalid request body")
}
