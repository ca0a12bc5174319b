package domain

import (
	"errors"
	"fmt"
)

// Closed error taxonomy for the rate pipeline. Callers branch with errors.Is;
// upstream HTTP status codes travel in ServerError.
var (
	// ErrNetwork indicates a connection failure or timeout reaching the
	// upstream rate service.
	ErrNetwork = errors.New("rate service unreachable")

	// ErrRateLimited indicates the upstream answered 429.
	ErrRateLimited = errors.New("rate service throttled the request")

	// ErrParse indicates a response body that is malformed or missing the
	// fields the pipeline needs.
	ErrParse = errors.New("malformed rate response")

	// ErrCancelled indicates the caller cancelled the request.
	ErrCancelled = errors.New("request cancelled")

	// ErrCache is reserved for store failures. No caller-visible path
	// returns it today.
	ErrCache = errors.New("cache failure")

	// ErrUnknown is the catch-all for failures outside the taxonomy.
	ErrUnknown = errors.New("unknown rate service failure")

	// ErrInvalidCurrencyCode indicates a code that is not a 3-letter ISO
	// currency code.
	ErrInvalidCurrencyCode = errors.New("invalid currency code")
)

// ServerError carries a non-2xx, non-429 upstream status code.
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("rate service returned status %d", e.StatusCode)
}

// IsTyped reports whether err already belongs to the closed taxonomy, so the
// repository can avoid double-wrapping.
func IsTyped(err error) bool {
	if err == nil {
		return false
	}
	var srvErr *ServerError
	return errors.Is(err, ErrNetwork) ||
		errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrParse) ||
		errors.Is(err, ErrCancelled) ||
		errors.Is(err, ErrCache) ||
		errors.Is(err, ErrUnknown) ||
		errors.As(err, &srvErr)
}

// Classify returns err unchanged when it is already typed, and folds anything
// else into ErrUnknown.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if IsTyped(err) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUnknown, err)
}
