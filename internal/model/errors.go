package model

import "errors"

var (
	// Login errors
	ErrInvalidExternalToken = errors.New("invalid external identity token")
	ErrRateLimited          = errors.New("too many login attempts")

	// Refresh errors. A malformed token and a known-but-unusable token map to
	// the same HTTP status but stay distinct internally for logging.
	ErrInvalidRefreshToken          = errors.New("invalid refresh token")
	ErrInvalidOrExpiredRefreshToken = errors.New("invalid or expired refresh token")

	// Store errors
	ErrTokenNotFound  = errors.New("refresh token not found")
	ErrDuplicateToken = errors.New("duplicate refresh token")
	ErrUserNotFound   = errors.New("user not found")

	// API boundary errors
	ErrUnauthorized     = errors.New("unauthorized")
	ErrDocumentNotFound = errors.New("document not found")
	ErrInvalidInput     = errors.New("invalid input")
)
