package service

import (
	"errors"
	"fmt"

	"github.com/maheshrc27/portal-social/internal/models"
)

var (
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	ErrNoActiveAccount     = errors.New("no active account")
	ErrAccountInactive     = errors.New("account is no longer active")
	ErrContentUnavailable  = errors.New("content unavailable")
	ErrEmptyToken          = errors.New("access token is empty")
	ErrEmptyCode           = errors.New("authorization code is empty")
)

// TokenRefreshFailedError means the platform refused a refresh and the
// account has been deactivated. Only a new connect brings it back.
type TokenRefreshFailedError struct {
	Platform  models.Platform
	AccountID int64
	Err       error
}

func (e *TokenRefreshFailedError) Error() string {
	return fmt.Sprintf("token refresh failed for %s account %d, account deactivated: %v", e.Platform, e.AccountID, e.Err)
}

func (e *TokenRefreshFailedError) Unwrap() error { return e.Err }
