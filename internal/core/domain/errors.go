package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Transport and rate-limit failures are retriable; everything
// else fails the pipeline immediately.
var (
	ErrResearcherNotFound = errors.New("researcher not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrConfiguration      = errors.New("missing configuration")
	ErrEmptyProfile       = errors.New("no publications for source id")
	ErrMalformedResponse  = errors.New("malformed collaborator response")
	ErrRateLimit          = errors.New("rate limited")
	ErrTransport          = errors.New("transport failure")
	ErrTemporary          = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
