// Package common defines shared constants and sentinel errors used across
// AquaWatch components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrInternal     = errors.New("internal error")
	ErrUnauthorized = errors.New("unauthorized")

	// Registration / credential errors.
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")

	// Upload validation errors, one per failure exit of the
	// inference pipeline.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrEmptyInput        = errors.New("no data rows in input")
	ErrNoFeatures        = errors.New("no feature columns in input")

	// Dependency errors. ErrScoringFailed wraps the model's cause.
	ErrScoringFailed = errors.New("scoring failed")
)

// BearerScheme is the Authorization header scheme expected on
// authenticated requests.
const BearerScheme = "Bearer"
