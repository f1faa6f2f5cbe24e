package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidWindowInput   = errors.New("invalid window input")
	ErrInvalidQuarterInput  = errors.New("invalid quarter input")
	ErrInvalidSelector      = errors.New("invalid kpi selector")
	ErrUpstreamUnavailable  = errors.New("upstream unavailable")
	ErrPersistence          = errors.New("persistence error")
	ErrPublish              = errors.New("publish error")
	ErrConfigurationMissing = errors.New("configuration missing")
)

// UpstreamError carries the response of an external source that answered
// with a non-success status.
type UpstreamError struct {
	Source     string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %s returned status %d: %s", ErrUpstreamUnavailable, e.Source, e.StatusCode, e.Body)
}

func (e *UpstreamError) Unwrap() error {
	return ErrUpstreamUnavailable
}
