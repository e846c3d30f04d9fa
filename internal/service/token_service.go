package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/maheshrc27/portal-social/internal/lock"
	"github.com/maheshrc27/portal-social/internal/models"
	"github.com/maheshrc27/portal-social/internal/platform"
	"github.com/maheshrc27/portal-social/internal/repository"
)

// RefreshWindow is how close to expiry a token gets refreshed.
const RefreshWindow = 7 * 24 * time.Hour

const sweepConcurrency = 10

type TokenService interface {
	// EnsureFresh returns the current account row, refreshing its token first
	// when it expires within RefreshWindow or has no known expiry.
	EnsureFresh(ctx context.Context, account *models.SocialAccount) (*models.SocialAccount, bool, error)
	// ForceRefresh refreshes regardless of the stored expiry.
	ForceRefresh(ctx context.Context, account *models.SocialAccount) (*models.SocialAccount, error)
	RefreshExpiring(ctx context.Context) (RefreshSummary, error)
}

type RefreshSummary struct {
	Checked   int
	Refreshed int
	Failed    int
}

type tokenService struct {
	accounts repository.SocialAccountRepository
	clients  *platform.Registry
	locker   lock.AccountLocker
	now      func() time.Time
}

func NewTokenService(
	accounts repository.SocialAccountRepository,
	clients *platform.Registry,
	locker lock.AccountLocker) TokenService {
	return &tokenService{
		accounts: accounts,
		clients:  clients,
		locker:   locker,
		now:      time.Now,
	}
}

func (s *tokenService) EnsureFresh(ctx context.Context, account *models.SocialAccount) (*models.SocialAccount, bool, error) {
	return s.refresh(ctx, account, false)
}

func (s *tokenService) ForceRefresh(ctx context.Context, account *models.SocialAccount) (*models.SocialAccount, error) {
	fresh, _, err := s.refresh(ctx, account, true)
	return fresh, err
}

func (s *tokenService) refresh(ctx context.Context, account *models.SocialAccount, force bool) (*models.SocialAccount, bool, error) {
	unlock, err := s.locker.Lock(ctx, account.ID)
	if err != nil {
		return nil, false, fmt.Errorf("locking account %d: %w", account.ID, err)
	}
	defer unlock()

	// another caller may have refreshed or deactivated it while we waited
	current, err := s.accounts.GetByID(ctx, account.ID)
	if err != nil {
		return nil, false, fmt.Errorf("loading account %d: %w", account.ID, err)
	}
	if current == nil || !current.IsActive {
		return nil, false, ErrAccountInactive
	}

	now := s.now()
	if !force {
		if remaining, ok := current.RemainingValidity(now); ok && remaining > RefreshWindow {
			return current, false, nil
		}
	}

	client, ok := s.clients.Client(current.Platform)
	if !ok {
		return nil, false, ErrUnsupportedPlatform
	}

	grant, err := client.RefreshToken(ctx, current.AccessToken)
	if err == nil && (grant == nil || grant.AccessToken == "") {
		err = ErrEmptyToken
	}
	if err != nil {
		if ctx.Err() != nil {
			// the caller gave up; the platform never answered
			return nil, false, ctx.Err()
		}
		return nil, false, s.failClosed(ctx, current, err)
	}

	expiry := now.Add(client.DefaultValidity())
	if err := s.accounts.SetToken(ctx, current.ID, current.TokenExpiry, grant.AccessToken, expiry); err != nil {
		if errors.Is(err, repository.ErrStaleAccount) {
			slog.Warn("account changed during refresh, using stored row", "account_id", current.ID, "platform", current.Platform)
			return s.reload(ctx, current.ID)
		}
		return nil, false, fmt.Errorf("storing refreshed token for account %d: %w", current.ID, err)
	}

	slog.Info("token refreshed", "account_id", current.ID, "platform", current.Platform, "expires_at", expiry)

	current.AccessToken = grant.AccessToken
	current.TokenExpiry = &expiry
	return current, true, nil
}

func (s *tokenService) failClosed(ctx context.Context, account *models.SocialAccount, cause error) error {
	flipped, err := s.accounts.Deactivate(ctx, account.ID)
	if err != nil {
		slog.Error("deactivating account after failed refresh", "account_id", account.ID, "error", err)
	} else if flipped {
		slog.Warn("account deactivated after failed refresh",
			"account_id", account.ID,
			"platform", account.Platform,
			"cause", refreshFailureCause(cause),
			"error", cause,
		)
	}

	return &TokenRefreshFailedError{Platform: account.Platform, AccountID: account.ID, Err: cause}
}

func (s *tokenService) reload(ctx context.Context, id int64) (*models.SocialAccount, bool, error) {
	current, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, false, fmt.Errorf("loading account %d: %w", id, err)
	}
	if current == nil || !current.IsActive {
		return nil, false, ErrAccountInactive
	}
	return current, false, nil
}

// RefreshExpiring refreshes every active account inside the refresh window.
func (s *tokenService) RefreshExpiring(ctx context.Context) (RefreshSummary, error) {
	accounts, err := s.accounts.ListExpiring(ctx, s.now().Add(RefreshWindow))
	if err != nil {
		return RefreshSummary{}, fmt.Errorf("listing expiring accounts: %w", err)
	}

	var refreshed, failed atomic.Int64
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, sweepConcurrency)

	for _, acc := range accounts {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(acc *models.SocialAccount) {
			defer wg.Done()
			defer func() { <-semaphore }()

			_, ok, err := s.EnsureFresh(ctx, acc)
			switch {
			case err != nil:
				failed.Add(1)
				slog.Warn("scheduled token refresh failed", "account_id", acc.ID, "platform", acc.Platform, "error", err)
			case ok:
				refreshed.Add(1)
			}
		}(acc)
	}
	wg.Wait()

	return RefreshSummary{
		Checked:   len(accounts),
		Refreshed: int(refreshed.Load()),
		Failed:    int(failed.Load()),
	}, nil
}

// refreshFailureCause tells an operator whether reconnecting is likely to help
// right away or only after the platform recovers.
func refreshFailureCause(err error) string {
	var (
		expired *platform.TokenExpiredError
		limited *platform.RateLimitError
		netErr  net.Error
	)
	switch {
	case errors.As(err, &expired):
		return "token_revoked"
	case errors.As(err, &limited):
		return "rate_limited"
	case errors.As(err, &netErr):
		return "network"
	case errors.Is(err, ErrEmptyToken):
		return "empty_token"
	default:
		return "platform_error"
	}
}
