// Package apperror defines the application's error variants and the
// normalizer that turns any failure into the JSON envelope
//
//	{"success": false, "error": "<CODE>", "message": "...", "stack": "..."}
//
// Each failure kind is constructed explicitly where it originates:
// *Error for errors that already know their status and code,
// *ValidationError for field failures, *DuplicateError for uniqueness
// violations, *PaymentError for payment processor failures. Token failures
// are the sentinel errors of pkg/jwt. Anything else is reported as a 500.
//
// The stack field is only emitted when the normalizer is not in production mode.
package apperror
