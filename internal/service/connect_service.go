package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/maheshrc27/portal-social/internal/models"
	"github.com/maheshrc27/portal-social/internal/platform"
	"github.com/maheshrc27/portal-social/internal/repository"
	"github.com/maheshrc27/portal-social/pkg/utils"
)

// StateIssuer signs the OAuth state round-tripped through the platform redirect.
type StateIssuer interface {
	Issue(operatorID, platform string) (string, error)
	Verify(state, platform string) (*utils.StateClaims, error)
}

type ConnectService interface {
	AuthorizationURL(ctx context.Context, p models.Platform, operatorID string) (string, error)
	Callback(ctx context.Context, p models.Platform, code, state string) (*models.SocialAccount, error)
	ConnectManual(ctx context.Context, p models.Platform, operatorID, accessToken string) (*models.SocialAccount, error)
	Disconnect(ctx context.Context, p models.Platform) error
	List(ctx context.Context) ([]*models.SocialAccount, error)
}

type connectService struct {
	accounts repository.SocialAccountRepository
	clients  *platform.Registry
	states   StateIssuer
	now      func() time.Time
}

func NewConnectService(
	accounts repository.SocialAccountRepository,
	clients *platform.Registry,
	states StateIssuer) ConnectService {
	return &connectService{
		accounts: accounts,
		clients:  clients,
		states:   states,
		now:      time.Now,
	}
}

func (s *connectService) AuthorizationURL(ctx context.Context, p models.Platform, operatorID string) (string, error) {
	client, ok := s.clients.Client(p)
	if !ok {
		return "", ErrUnsupportedPlatform
	}

	state, err := s.states.Issue(operatorID, string(p))
	if err != nil {
		return "", fmt.Errorf("issuing oauth state: %w", err)
	}

	return client.AuthorizationURL(state), nil
}

func (s *connectService) Callback(ctx context.Context, p models.Platform, code, state string) (*models.SocialAccount, error) {
	client, ok := s.clients.Client(p)
	if !ok {
		return nil, ErrUnsupportedPlatform
	}

	claims, err := s.states.Verify(state, string(p))
	if err != nil {
		slog.Warn("rejected oauth callback", "platform", p, "error", err)
		return nil, err
	}

	if strings.TrimSpace(code) == "" {
		return nil, ErrEmptyCode
	}

	grant, err := client.ExchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if grant.AccessToken == "" {
		return nil, &platform.AuthExchangeError{Platform: p, Err: ErrEmptyToken}
	}

	return s.connect(ctx, client, claims.OperatorID, grant.AccessToken)
}

// ConnectManual stores a token pasted by an operator, e.g. one generated in the
// Graph API explorer.
func (s *connectService) ConnectManual(ctx context.Context, p models.Platform, operatorID, accessToken string) (*models.SocialAccount, error) {
	client, ok := s.clients.Client(p)
	if !ok {
		return nil, ErrUnsupportedPlatform
	}

	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return nil, ErrEmptyToken
	}

	return s.connect(ctx, client, operatorID, accessToken)
}

func (s *connectService) connect(ctx context.Context, client platform.Client, operatorID, shortLivedToken string) (*models.SocialAccount, error) {
	grant, err := client.UpgradeToken(ctx, shortLivedToken)
	if err != nil {
		return nil, fmt.Errorf("upgrading token: %w", err)
	}
	if grant == nil || grant.AccessToken == "" {
		return nil, ErrEmptyToken
	}

	target, err := client.ResolveTarget(ctx, grant.AccessToken)
	if err != nil {
		return nil, err
	}

	validity := grant.ExpiresIn
	if validity <= 0 {
		validity = client.DefaultValidity()
	}
	expiry := s.now().Add(validity)

	account := &models.SocialAccount{
		Platform:          client.Platform(),
		ExternalAccountID: target.ID,
		DisplayName:       target.Name,
		AccessToken:       grant.AccessToken,
		TokenExpiry:       &expiry,
		ConnectedBy:       operatorID,
	}
	if _, err := s.accounts.UpsertActive(ctx, account); err != nil {
		return nil, fmt.Errorf("saving account: %w", err)
	}

	slog.Info("social account connected",
		"platform", account.Platform,
		"account_id", account.ID,
		"target", target.ID,
		"operator", operatorID,
		"expires_at", expiry,
	)
	return account, nil
}

func (s *connectService) Disconnect(ctx context.Context, p models.Platform) error {
	account, err := s.accounts.GetActiveByPlatform(ctx, p)
	if err != nil {
		return fmt.Errorf("loading account: %w", err)
	}
	if account == nil {
		return ErrNoActiveAccount
	}

	if _, err := s.accounts.Deactivate(ctx, account.ID); err != nil {
		return fmt.Errorf("deactivating account: %w", err)
	}

	slog.Info("social account disconnected", "platform", p, "account_id", account.ID)
	return nil
}

func (s *connectService) List(ctx context.Context) ([]*models.SocialAccount, error) {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	return accounts, nil
}
