package service

import (
	"context"
	"sync"
	"time"

	"github.com/maheshrc27/portal-social/internal/models"
	"github.com/maheshrc27/portal-social/internal/platform"
	"github.com/maheshrc27/portal-social/internal/repository"
)

// memAccounts is an in-memory SocialAccountRepository with the same
// conditional-update and monotonic-deactivation rules as the SQL one.
type memAccounts struct {
	mu       sync.Mutex
	rows     map[int64]*models.SocialAccount
	nextID   int64
	setCalls int
}

func newMemAccounts(accounts ...*models.SocialAccount) *memAccounts {
	m := &memAccounts{rows: make(map[int64]*models.SocialAccount)}
	for _, a := range accounts {
		m.nextID++
		if a.ID == 0 {
			a.ID = m.nextID
		}
		cp := *a
		m.rows[a.ID] = &cp
	}
	return m
}

func (m *memAccounts) UpsertActive(_ context.Context, sa *models.SocialAccount) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.Platform == sa.Platform && row.IsActive {
			sa.ID = row.ID
			sa.IsActive = true
			cp := *sa
			m.rows[row.ID] = &cp
			return sa.ID, nil
		}
	}
	m.nextID++
	sa.ID = m.nextID
	sa.IsActive = true
	cp := *sa
	m.rows[sa.ID] = &cp
	return sa.ID, nil
}

func (m *memAccounts) GetByID(_ context.Context, id int64) (*models.SocialAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

func (m *memAccounts) GetActiveByPlatform(_ context.Context, p models.Platform) (*models.SocialAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.Platform == p && row.IsActive {
			cp := *row
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memAccounts) List(context.Context) ([]*models.SocialAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.SocialAccount
	for _, row := range m.rows {
		cp := *row
		cp.AccessToken = ""
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memAccounts) ListExpiring(_ context.Context, before time.Time) ([]*models.SocialAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.SocialAccount
	for _, row := range m.rows {
		if row.IsActive && (row.TokenExpiry == nil || !row.TokenExpiry.After(before)) {
			cp := *row
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memAccounts) SetToken(_ context.Context, id int64, expectedExpiry *time.Time, token string, expiry time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls++
	row, ok := m.rows[id]
	if !ok || !row.IsActive || !sameExpiry(row.TokenExpiry, expectedExpiry) {
		return repository.ErrStaleAccount
	}
	row.AccessToken = token
	row.TokenExpiry = &expiry
	return nil
}

func (m *memAccounts) Deactivate(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok || !row.IsActive {
		return false, nil
	}
	row.IsActive = false
	return true, nil
}

func (m *memAccounts) get(id int64) models.SocialAccount {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.rows[id]
}

func sameExpiry(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

type fakeClient struct {
	platform models.Platform

	mu           sync.Mutex
	refreshCalls int
	publishCalls int

	exchangeFunc func(ctx context.Context, code string) (*platform.TokenGrant, error)
	upgradeFunc  func(ctx context.Context, token string) (*platform.TokenGrant, error)
	refreshFunc  func(ctx context.Context, token string) (*platform.TokenGrant, error)
	resolveFunc  func(ctx context.Context, token string) (*platform.Target, error)
	publishFunc  func(ctx context.Context, target platform.Target, token string, post platform.Post) (*platform.PublishResult, error)
}

func (f *fakeClient) Platform() models.Platform        { return f.platform }
func (f *fakeClient) DefaultValidity() time.Duration   { return platform.DefaultTokenValidity }
func (f *fakeClient) AuthorizationURL(s string) string { return "https://auth.example/" + string(f.platform) + "?state=" + s }

func (f *fakeClient) ExchangeCode(ctx context.Context, code string) (*platform.TokenGrant, error) {
	if f.exchangeFunc != nil {
		return f.exchangeFunc(ctx, code)
	}
	return &platform.TokenGrant{AccessToken: "short-" + code, ExpiresIn: time.Hour}, nil
}

func (f *fakeClient) UpgradeToken(ctx context.Context, token string) (*platform.TokenGrant, error) {
	if f.upgradeFunc != nil {
		return f.upgradeFunc(ctx, token)
	}
	return &platform.TokenGrant{AccessToken: "long-" + token, ExpiresIn: platform.DefaultTokenValidity}, nil
}

func (f *fakeClient) RefreshToken(ctx context.Context, token string) (*platform.TokenGrant, error) {
	f.mu.Lock()
	f.refreshCalls++
	f.mu.Unlock()
	if f.refreshFunc != nil {
		return f.refreshFunc(ctx, token)
	}
	return &platform.TokenGrant{AccessToken: token + "-refreshed", ExpiresIn: platform.DefaultTokenValidity}, nil
}

func (f *fakeClient) ResolveTarget(ctx context.Context, token string) (*platform.Target, error) {
	if f.resolveFunc != nil {
		return f.resolveFunc(ctx, token)
	}
	return &platform.Target{ID: "target-1", Name: "The Daily"}, nil
}

func (f *fakeClient) Publish(ctx context.Context, target platform.Target, token string, post platform.Post) (*platform.PublishResult, error) {
	f.mu.Lock()
	f.publishCalls++
	f.mu.Unlock()
	if f.publishFunc != nil {
		return f.publishFunc(ctx, target, token, post)
	}
	return &platform.PublishResult{ExternalID: "post-1"}, nil
}

func (f *fakeClient) VerifyWebhookSignature([]byte, string) bool { return false }

func (f *fakeClient) counts() (refresh, publish int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshCalls, f.publishCalls
}

type fakeContent struct {
	content    map[int64]*models.Content
	err        error
	markCalls  int
	markedOnce bool
}

func (f *fakeContent) GetContent(_ context.Context, id int64) (*models.Content, error) {
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.content[id]
	if !ok {
		return nil, repository.ErrContentNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeContent) MarkPostedToSocial(_ context.Context, id int64) (bool, error) {
	f.markCalls++
	if f.markedOnce {
		return false, nil
	}
	f.markedOnce = true
	if c, ok := f.content[id]; ok {
		c.PostedToSocial = true
	}
	return true, nil
}

type fakeLogs struct {
	entries   []models.PublishLogEntry
	appendErr error
}

func (f *fakeLogs) Append(_ context.Context, e *models.PublishLogEntry) (int64, error) {
	if f.appendErr != nil {
		return 0, f.appendErr
	}
	e.ID = int64(len(f.entries) + 1)
	f.entries = append(f.entries, *e)
	return e.ID, nil
}

func (f *fakeLogs) ListByContentID(_ context.Context, contentID int64) ([]*models.PublishLogEntry, error) {
	var out []*models.PublishLogEntry
	for i := range f.entries {
		if f.entries[i].ContentID == contentID {
			out = append(out, &f.entries[i])
		}
	}
	return out, nil
}

var testNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func expiresIn(d time.Duration) *time.Time {
	t := testNow.Add(d)
	return &t
}

func day(n int) time.Duration { return time.Duration(n) * 24 * time.Hour }
