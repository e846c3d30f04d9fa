package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/maheshrc27/portal-social/internal/models"
	"github.com/maheshrc27/portal-social/internal/transfer"
	"github.com/maheshrc27/portal-social/pkg/utils"
	"golang.org/x/oauth2"
)

const (
	instagramScopes         = "instagram_business_basic,instagram_business_content_publish"
	instagramShortLivedTTL  = time.Hour
	containerStatusFinished = "FINISHED"
	containerStatusError    = "ERROR"
	containerStatusExpired  = "EXPIRED"
	containerStatusDone     = "PUBLISHED"
)

// DefaultContainerPoll is the wait budget for a media container to finish processing.
var DefaultContainerPoll = utils.PollPolicy{MaxAttempts: 10, Interval: 3 * time.Second}

// InstagramClient publishes single-image posts to an Instagram professional account.
type InstagramClient struct {
	cfg   Config
	oauth *oauth2.Config
	graph *graphClient
	poll  utils.PollPolicy
}

func NewInstagramClient(cfg Config, poll utils.PollPolicy) *InstagramClient {
	if cfg.GraphBaseURL == "" {
		cfg.GraphBaseURL = "https://graph.instagram.com"
	}
	if cfg.AuthorizeURL == "" {
		cfg.AuthorizeURL = "https://www.instagram.com/oauth/authorize"
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = "https://api.instagram.com/oauth/access_token"
	}
	if poll.MaxAttempts < 1 {
		poll = DefaultContainerPoll
	}

	return &InstagramClient{
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.AppID,
			ClientSecret: cfg.AppSecret,
			RedirectURL:  cfg.RedirectURI,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthorizeURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		graph: newGraphClient(models.PlatformInstagram, cfg.GraphBaseURL, cfg),
		poll:  poll,
	}
}

func (ig *InstagramClient) Platform() models.Platform { return models.PlatformInstagram }

func (ig *InstagramClient) DefaultValidity() time.Duration { return DefaultTokenValidity }

// AuthorizationURL is built by hand because Instagram wants comma separated scopes.
func (ig *InstagramClient) AuthorizationURL(state string) string {
	params := url.Values{}
	params.Add("client_id", ig.cfg.AppID)
	params.Add("scope", instagramScopes)
	params.Add("response_type", "code")
	params.Add("redirect_uri", ig.cfg.RedirectURI)
	params.Add("state", state)

	return fmt.Sprintf("%s?%s", ig.cfg.AuthorizeURL, params.Encode())
}

func (ig *InstagramClient) ExchangeCode(ctx context.Context, code string) (*TokenGrant, error) {
	tok, err := ig.oauth.Exchange(context.WithValue(ctx, oauth2.HTTPClient, ig.graph.http), code)
	if err != nil {
		slog.Info(err.Error())
		return nil, &AuthExchangeError{Platform: models.PlatformInstagram, Err: err}
	}

	// the token endpoint does not report a lifetime; short-lived tokens last an hour
	return &TokenGrant{AccessToken: tok.AccessToken, ExpiresIn: instagramShortLivedTTL}, nil
}

// UpgradeToken falls back to the short-lived token when the exchange fails:
// the account can still publish for an hour and the refresh sweep retries.
func (ig *InstagramClient) UpgradeToken(ctx context.Context, shortLivedToken string) (*TokenGrant, error) {
	params := url.Values{}
	params.Set("grant_type", "ig_exchange_token")
	params.Set("client_secret", ig.cfg.AppSecret)
	params.Set("access_token", shortLivedToken)

	var result transfer.InstagramToken
	err := ig.graph.get(ctx, "/access_token", params, &result)
	if err == nil && result.AccessToken == "" {
		err = emptyTokenError(models.PlatformInstagram, "ig_exchange_token")
	}
	if err != nil {
		slog.Warn("instagram long-lived token exchange failed, keeping short-lived token", "error", err)
		return &TokenGrant{AccessToken: shortLivedToken, ExpiresIn: instagramShortLivedTTL}, nil
	}

	return grantFromSeconds(result.AccessToken, result.ExpiresIn), nil
}

func (ig *InstagramClient) RefreshToken(ctx context.Context, currentToken string) (*TokenGrant, error) {
	params := url.Values{}
	params.Set("grant_type", "ig_refresh_token")
	params.Set("access_token", currentToken)

	var result transfer.InstagramToken
	if err := ig.graph.get(ctx, "/refresh_access_token", params, &result); err != nil {
		return nil, err
	}
	if result.AccessToken == "" {
		return nil, emptyTokenError(models.PlatformInstagram, "ig_refresh_token")
	}

	return grantFromSeconds(result.AccessToken, result.ExpiresIn), nil
}

// ResolveTarget requires a professional (business or creator) account; personal
// accounts cannot use the content publishing API.
func (ig *InstagramClient) ResolveTarget(ctx context.Context, ownerToken string) (*Target, error) {
	params := url.Values{}
	params.Set("fields", "id,user_id,username,account_type")
	params.Set("access_token", ownerToken)

	var info transfer.InstagramUserInfo
	if err := ig.graph.get(ctx, ig.versioned("/me"), params, &info); err != nil {
		return nil, err
	}

	id := info.UserID
	if id == "" {
		id = info.ID
	}
	if id == "" {
		return nil, &NoTargetFoundError{Platform: models.PlatformInstagram, Reason: "profile has no id"}
	}

	switch strings.ToUpper(info.AccountType) {
	case "BUSINESS", "MEDIA_CREATOR":
		return &Target{ID: id, Name: info.Username}, nil
	default:
		return nil, &NoTargetFoundError{
			Platform: models.PlatformInstagram,
			Reason:   fmt.Sprintf("account type %q is not a professional account", info.AccountType),
		}
	}
}

// Publish creates a media container, waits for it to finish processing,
// publishes it and looks up the permalink.
func (ig *InstagramClient) Publish(ctx context.Context, target Target, token string, post Post) (*PublishResult, error) {
	if post.ImageURL == "" {
		return nil, ErrMissingImage
	}

	containerID, err := ig.createContainer(ctx, target.ID, token, post)
	if err != nil {
		return nil, err
	}

	if err := ig.waitForContainer(ctx, containerID, token); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("creation_id", containerID)
	params.Set("access_token", token)

	var published transfer.GraphID
	if err := ig.graph.postForm(ctx, ig.versioned("/"+target.ID+"/media_publish"), params, &published); err != nil {
		return nil, err
	}
	if published.ID == "" {
		return nil, &APIError{Platform: models.PlatformInstagram, Message: "media_publish returned no media id"}
	}

	result := &PublishResult{ExternalID: published.ID}

	permalink, err := ig.permalink(ctx, published.ID, token)
	if err != nil {
		// the post is live; a missing permalink is not a publish failure
		slog.Warn("instagram permalink lookup failed", "media_id", published.ID, "error", err)
	} else {
		result.Permalink = permalink
	}

	return result, nil
}

func (ig *InstagramClient) createContainer(ctx context.Context, accountID, token string, post Post) (string, error) {
	params := url.Values{}
	params.Set("image_url", post.ImageURL)
	params.Set("caption", post.Caption)
	params.Set("access_token", token)

	var container transfer.GraphID
	if err := ig.graph.postForm(ctx, ig.versioned("/"+accountID+"/media"), params, &container); err != nil {
		return "", err
	}
	if container.ID == "" {
		return "", &APIError{Platform: models.PlatformInstagram, Message: "no media container id returned"}
	}
	return container.ID, nil
}

func (ig *InstagramClient) waitForContainer(ctx context.Context, containerID, token string) error {
	params := url.Values{}
	params.Set("fields", "id,status_code,status")
	params.Set("access_token", token)

	status, err := utils.Poll(ctx, ig.poll,
		func(ctx context.Context) (transfer.InstagramContainerStatus, error) {
			var s transfer.InstagramContainerStatus
			err := ig.graph.get(ctx, ig.versioned("/"+containerID), params, &s)
			return s, err
		},
		func(s transfer.InstagramContainerStatus) bool {
			switch s.StatusCode {
			case containerStatusFinished, containerStatusError, containerStatusExpired, containerStatusDone:
				return true
			}
			return false
		},
	)
	if err != nil {
		if errors.Is(err, utils.ErrPollExhausted) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return &APIError{
				Platform: models.PlatformInstagram,
				Message:  fmt.Sprintf("media container %s not ready (last status %q)", containerID, status.StatusCode),
				Err:      err,
			}
		}
		return err
	}

	if status.StatusCode != containerStatusFinished {
		return &APIError{
			Platform: models.PlatformInstagram,
			Message:  fmt.Sprintf("media container %s ended in %s: %s", containerID, status.StatusCode, status.Status),
		}
	}
	return nil
}

func (ig *InstagramClient) permalink(ctx context.Context, mediaID, token string) (string, error) {
	params := url.Values{}
	params.Set("fields", "id,permalink")
	params.Set("access_token", token)

	var media transfer.InstagramMedia
	if err := ig.graph.get(ctx, ig.versioned("/"+mediaID), params, &media); err != nil {
		return "", err
	}
	return media.Permalink, nil
}

func (ig *InstagramClient) versioned(path string) string {
	return "/" + ig.cfg.version() + path
}

func (ig *InstagramClient) VerifyWebhookSignature(payload []byte, signature string) bool {
	return verifySignature(ig.cfg.AppSecret, payload, signature)
}
