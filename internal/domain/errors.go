package domain

import "errors"

var (
	// ErrProposalNotFound is returned when a proposal id is unknown or expired
	ErrProposalNotFound = errors.New("proposal not found")

	// ErrCatalogUnavailable is returned when the catalog resource cannot be read or parsed
	ErrCatalogUnavailable = errors.New("product catalog unavailable")

	// ErrRecognitionUnavailable is returned when the recognition API request fails
	ErrRecognitionUnavailable = errors.New("recognition API request failed")

	// ErrRecognitionPayload is returned when the recognition response lacks the expected JSON structure
	ErrRecognitionPayload = errors.New("malformed recognition payload")

	// ErrRecognizerNotConfigured is returned when image analysis is requested without an API key
	ErrRecognizerNotConfigured = errors.New("recognition client not configured")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrNegativeRowValue is returned when a reviewer edit carries a negative quantity or price
	ErrNegativeRowValue = errors.New("negative quantity or price in row")

	// ErrRateLimited is returned when the recognition rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")
)
