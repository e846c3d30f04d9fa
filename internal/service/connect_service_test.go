package service

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/maheshrc27/portal-social/internal/models"
	"github.com/maheshrc27/portal-social/internal/platform"
	"github.com/maheshrc27/portal-social/pkg/utils"
)

func newTestConnectService(accounts *memAccounts, clients ...platform.Client) *connectService {
	regs := make([]platform.Registration, 0, len(clients))
	for _, c := range clients {
		regs = append(regs, platform.Registration{Client: c, Compose: platform.ComposeFeedPost})
	}
	return &connectService{
		accounts: accounts,
		clients:  platform.NewRegistry(regs...),
		states:   utils.NewStateIssuer("state-secret"),
		now:      func() time.Time { return testNow },
	}
}

func stateFrom(t *testing.T, authURL string) string {
	t.Helper()
	u, err := url.Parse(authURL)
	if err != nil {
		t.Fatalf("parse %q: %v", authURL, err)
	}
	return u.Query().Get("state")
}

func TestConnect_CallbackRoundTrip(t *testing.T) {
	accounts := newMemAccounts()
	ig := &fakeClient{platform: models.PlatformInstagram}
	svc := newTestConnectService(accounts, ig)

	authURL, err := svc.AuthorizationURL(testContext(t), models.PlatformInstagram, "editor-7")
	if err != nil {
		t.Fatalf("AuthorizationURL: %v", err)
	}

	account, err := svc.Callback(testContext(t), models.PlatformInstagram, "abc", stateFrom(t, authURL))
	if err != nil {
		t.Fatalf("Callback: %v", err)
	}

	if account.AccessToken != "long-short-abc" {
		t.Errorf("token = %q", account.AccessToken)
	}
	if account.ConnectedBy != "editor-7" || account.ExternalAccountID != "target-1" || !account.IsActive {
		t.Errorf("account = %+v", account)
	}
	if want := testNow.Add(platform.DefaultTokenValidity); !account.TokenExpiry.Equal(want) {
		t.Errorf("expiry = %v, want %v", account.TokenExpiry, want)
	}
}

func TestConnect_ShortLivedFallbackKeepsShortExpiry(t *testing.T) {
	accounts := newMemAccounts()
	ig := &fakeClient{
		platform: models.PlatformInstagram,
		upgradeFunc: func(_ context.Context, token string) (*platform.TokenGrant, error) {
			return &platform.TokenGrant{AccessToken: token, ExpiresIn: time.Hour}, nil
		},
	}
	svc := newTestConnectService(accounts, ig)

	account, err := svc.ConnectManual(testContext(t), models.PlatformInstagram, "editor-7", "IGQV-short")
	if err != nil {
		t.Fatalf("ConnectManual: %v", err)
	}
	if want := testNow.Add(time.Hour); !account.TokenExpiry.Equal(want) {
		t.Errorf("expiry = %v, want %v", account.TokenExpiry, want)
	}
}

func TestConnect_CallbackRejectsBadState(t *testing.T) {
	accounts := newMemAccounts()
	exchanged := false
	fb := &fakeClient{
		platform: models.PlatformFacebook,
		exchangeFunc: func(context.Context, string) (*platform.TokenGrant, error) {
			exchanged = true
			return &platform.TokenGrant{AccessToken: "x"}, nil
		},
	}
	ig := &fakeClient{platform: models.PlatformInstagram}
	svc := newTestConnectService(accounts, fb, ig)

	igURL, err := svc.AuthorizationURL(testContext(t), models.PlatformInstagram, "editor-7")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		state string
	}{
		{"state for another platform", stateFrom(t, igURL)},
		{"empty state", ""},
		{"garbage", "not-a-jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Callback(testContext(t), models.PlatformFacebook, "code", tt.state)
			if !errors.Is(err, utils.ErrInvalidState) {
				t.Errorf("err = %v, want ErrInvalidState", err)
			}
		})
	}
	if exchanged {
		t.Error("code exchanged despite invalid state")
	}
}

func TestConnect_Failures(t *testing.T) {
	fbUpgradeFails := &fakeClient{
		platform: models.PlatformFacebook,
		upgradeFunc: func(context.Context, string) (*platform.TokenGrant, error) {
			return nil, &platform.APIError{Platform: models.PlatformFacebook, Status: 400, Message: "bad token"}
		},
	}
	fbNoPage := &fakeClient{
		platform: models.PlatformFacebook,
		resolveFunc: func(context.Context, string) (*platform.Target, error) {
			return nil, &platform.NoTargetFoundError{Platform: models.PlatformFacebook, Reason: "no pages"}
		},
	}

	tests := []struct {
		name     string
		client   *fakeClient
		platform models.Platform
		token    string
		check    func(error) bool
	}{
		{"empty token", fbNoPage, models.PlatformFacebook, "  ", func(err error) bool { return errors.Is(err, ErrEmptyToken) }},
		{"unknown platform", fbNoPage, "tiktok", "tok", func(err error) bool { return errors.Is(err, ErrUnsupportedPlatform) }},
		{"upgrade fails", fbUpgradeFails, models.PlatformFacebook, "tok", func(err error) bool {
			var apiErr *platform.APIError
			return errors.As(err, &apiErr)
		}},
		{"no page", fbNoPage, models.PlatformFacebook, "tok", func(err error) bool {
			var nt *platform.NoTargetFoundError
			return errors.As(err, &nt)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accounts := newMemAccounts()
			svc := newTestConnectService(accounts, tt.client)

			_, err := svc.ConnectManual(testContext(t), tt.platform, "editor-1", tt.token)
			if !tt.check(err) {
				t.Errorf("unexpected err %v", err)
			}
			if list, _ := accounts.List(testContext(t)); len(list) != 0 {
				t.Errorf("account stored on failure: %+v", list)
			}
		})
	}
}

func TestConnect_ReconnectReplacesActiveRow(t *testing.T) {
	accounts := newMemAccounts()
	svc := newTestConnectService(accounts, &fakeClient{platform: models.PlatformFacebook})

	first, err := svc.ConnectManual(testContext(t), models.PlatformFacebook, "editor-1", "one")
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.ConnectManual(testContext(t), models.PlatformFacebook, "editor-2", "two")
	if err != nil {
		t.Fatal(err)
	}
	if first.ID != second.ID {
		t.Errorf("reconnect created a second active row: %d vs %d", first.ID, second.ID)
	}
	if got := accounts.get(first.ID); got.AccessToken != "long-two" || got.ConnectedBy != "editor-2" {
		t.Errorf("row not replaced: %+v", got)
	}
}

func TestConnect_DisconnectThenReconnect(t *testing.T) {
	accounts := newMemAccounts(activeAccount(models.PlatformFacebook, "fb-tok", expiresIn(day(30))))
	svc := newTestConnectService(accounts, &fakeClient{platform: models.PlatformFacebook})

	if err := svc.Disconnect(testContext(t), models.PlatformFacebook); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if err := svc.Disconnect(testContext(t), models.PlatformFacebook); !errors.Is(err, ErrNoActiveAccount) {
		t.Errorf("second Disconnect err = %v", err)
	}

	account, err := svc.ConnectManual(testContext(t), models.PlatformFacebook, "editor-1", "fresh")
	if err != nil {
		t.Fatal(err)
	}
	if account.ID == 1 {
		t.Error("reconnect reactivated the deactivated row")
	}
	if accounts.get(1).IsActive {
		t.Error("old row reactivated")
	}
}
