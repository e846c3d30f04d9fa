// Package platform hides each social network's protocol behind Client.
// Nothing outside this package sees HTTP status codes or Graph error bodies.
package platform

import (
	"context"
	"time"

	"github.com/maheshrc27/portal-social/internal/models"
)

// DefaultTokenValidity is how long a long-lived Meta token stays valid.
const DefaultTokenValidity = 60 * 24 * time.Hour

type TokenGrant struct {
	AccessToken string
	// ExpiresIn is zero when the platform did not report a lifetime.
	ExpiresIn time.Duration
}

// Target is the page or professional account posts are published to.
type Target struct {
	ID   string
	Name string
}

type Post struct {
	Message  string
	Link     string
	ImageURL string
	Caption  string
}

type PublishResult struct {
	ExternalID string
	Permalink  string
}

type Client interface {
	Platform() models.Platform
	DefaultValidity() time.Duration
	AuthorizationURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*TokenGrant, error)
	UpgradeToken(ctx context.Context, shortLivedToken string) (*TokenGrant, error)
	RefreshToken(ctx context.Context, currentToken string) (*TokenGrant, error)
	ResolveTarget(ctx context.Context, ownerToken string) (*Target, error)
	Publish(ctx context.Context, target Target, token string, post Post) (*PublishResult, error)
	VerifyWebhookSignature(payload []byte, signature string) bool
}

// ComposeFunc turns a content item into the payload a platform accepts.
type ComposeFunc func(c *models.Content) (Post, error)

type Registration struct {
	Client  Client
	Compose ComposeFunc
	// StageMedia asks the publisher to mirror Post.ImageURL before publishing.
	StageMedia bool
}

type Registry struct {
	regs map[models.Platform]Registration
}

func NewRegistry(regs ...Registration) *Registry {
	r := &Registry{regs: make(map[models.Platform]Registration, len(regs))}
	for _, reg := range regs {
		r.regs[reg.Client.Platform()] = reg
	}
	return r
}

func (r *Registry) Lookup(p models.Platform) (Registration, bool) {
	reg, ok := r.regs[p]
	return reg, ok
}

func (r *Registry) Client(p models.Platform) (Client, bool) {
	reg, ok := r.regs[p]
	if !ok {
		return nil, false
	}
	return reg.Client, true
}
