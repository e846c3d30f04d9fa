package platform

import (
	"errors"
	"fmt"
	"time"

	"github.com/maheshrc27/portal-social/internal/models"
)

var (
	ErrWebhookSignatureInvalid = errors.New("webhook signature invalid")
	ErrMissingImage            = errors.New("content has no image")
)

type AuthExchangeError struct {
	Platform models.Platform
	Err      error
}

func (e *AuthExchangeError) Error() string {
	return fmt.Sprintf("%s: authorization code exchange failed: %v", e.Platform, e.Err)
}

func (e *AuthExchangeError) Unwrap() error { return e.Err }

type RateLimitError struct {
	Platform   models.Platform
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s: rate limited, retry after %s: %s", e.Platform, e.RetryAfter, e.Message)
	}
	return fmt.Sprintf("%s: rate limited: %s", e.Platform, e.Message)
}

type TokenExpiredError struct {
	Platform models.Platform
	Message  string
}

func (e *TokenExpiredError) Error() string {
	return fmt.Sprintf("%s: access token expired: %s", e.Platform, e.Message)
}

// APIError is any other platform failure. Status is 0 for transport failures.
type APIError struct {
	Platform models.Platform
	Status   int
	Code     int
	Message  string
	Raw      string
	Err      error
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Platform, msg)
	}
	return fmt.Sprintf("%s: api error (status %d, code %d): %s", e.Platform, e.Status, e.Code, msg)
}

func (e *APIError) Unwrap() error { return e.Err }

type NoTargetFoundError struct {
	Platform models.Platform
	Reason   string
}

func (e *NoTargetFoundError) Error() string {
	return fmt.Sprintf("%s: no publish target found: %s", e.Platform, e.Reason)
}
