// Package common defines shared constants, sentinel errors and the typed
// error taxonomy used across studyshelf layers. Callers should use errors.Is
// and errors.As to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal      = errors.New("internal error")
	ErrorUnauthorized  = errors.New("unauthorized")
	ErrorForbidden     = errors.New("forbidden")
	ErrVersionConflict = errors.New("version conflict")

	// Validation errors.
	ErrorValidation     = errors.New("validation error")
	ErrorNotPDF         = errors.New("only PDF files are accepted")
	ErrorInvalidYear    = errors.New("invalid academic year")
	ErrorUnknownSubject = errors.New("subject is not in the vocabulary")
	ErrorAlreadyExists  = errors.New("already exists")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
