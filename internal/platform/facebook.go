package platform

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/maheshrc27/portal-social/internal/models"
	"github.com/maheshrc27/portal-social/internal/transfer"
	"golang.org/x/oauth2"
)

var facebookScopes = []string{"pages_show_list", "pages_manage_posts", "pages_read_engagement"}

// FacebookClient publishes link posts to a Facebook page the operator manages.
type FacebookClient struct {
	cfg   Config
	oauth *oauth2.Config
	graph *graphClient
}

func NewFacebookClient(cfg Config) *FacebookClient {
	if cfg.GraphBaseURL == "" {
		cfg.GraphBaseURL = "https://graph.facebook.com"
	}
	if cfg.AuthorizeURL == "" {
		cfg.AuthorizeURL = "https://www.facebook.com/" + cfg.version() + "/dialog/oauth"
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = cfg.GraphBaseURL + "/" + cfg.version() + "/oauth/access_token"
	}

	return &FacebookClient{
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.AppID,
			ClientSecret: cfg.AppSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       facebookScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthorizeURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		graph: newGraphClient(models.PlatformFacebook, cfg.GraphBaseURL, cfg),
	}
}

func (f *FacebookClient) Platform() models.Platform { return models.PlatformFacebook }

func (f *FacebookClient) DefaultValidity() time.Duration { return DefaultTokenValidity }

func (f *FacebookClient) AuthorizationURL(state string) string {
	return f.oauth.AuthCodeURL(state)
}

func (f *FacebookClient) ExchangeCode(ctx context.Context, code string) (*TokenGrant, error) {
	tok, err := f.oauth.Exchange(context.WithValue(ctx, oauth2.HTTPClient, f.graph.http), code)
	if err != nil {
		slog.Info(err.Error())
		return nil, &AuthExchangeError{Platform: models.PlatformFacebook, Err: err}
	}

	grant := &TokenGrant{AccessToken: tok.AccessToken}
	if !tok.Expiry.IsZero() {
		grant.ExpiresIn = time.Until(tok.Expiry)
	}
	return grant, nil
}

// UpgradeToken exchanges a short-lived user token for a ~60 day one. Facebook
// page tokens derived from a short-lived user token expire with it, so a
// failure here fails the connect flow.
func (f *FacebookClient) UpgradeToken(ctx context.Context, shortLivedToken string) (*TokenGrant, error) {
	return f.exchangeLongLived(ctx, shortLivedToken)
}

// RefreshToken re-runs the long-lived exchange; Facebook has no refresh grant.
// It only works while the current token is still valid.
func (f *FacebookClient) RefreshToken(ctx context.Context, currentToken string) (*TokenGrant, error) {
	return f.exchangeLongLived(ctx, currentToken)
}

func (f *FacebookClient) exchangeLongLived(ctx context.Context, token string) (*TokenGrant, error) {
	params := url.Values{}
	params.Set("grant_type", "fb_exchange_token")
	params.Set("client_id", f.cfg.AppID)
	params.Set("client_secret", f.cfg.AppSecret)
	params.Set("fb_exchange_token", token)

	var result transfer.FacebookToken
	if err := f.graph.get(ctx, "/"+f.cfg.version()+"/oauth/access_token", params, &result); err != nil {
		return nil, err
	}
	if result.AccessToken == "" {
		return nil, emptyTokenError(models.PlatformFacebook, "fb_exchange_token")
	}

	return grantFromSeconds(result.AccessToken, result.ExpiresIn), nil
}

// ResolveTarget picks the first page the user manages.
func (f *FacebookClient) ResolveTarget(ctx context.Context, ownerToken string) (*Target, error) {
	params := url.Values{}
	params.Set("fields", "id,name")
	params.Set("access_token", ownerToken)

	var pages transfer.FacebookPageList
	if err := f.graph.get(ctx, "/"+f.cfg.version()+"/me/accounts", params, &pages); err != nil {
		return nil, err
	}

	for _, page := range pages.Data {
		if page.ID != "" {
			return &Target{ID: page.ID, Name: page.Name}, nil
		}
	}

	return nil, &NoTargetFoundError{Platform: models.PlatformFacebook, Reason: "the account does not manage any page"}
}

func (f *FacebookClient) Publish(ctx context.Context, target Target, token string, post Post) (*PublishResult, error) {
	pageToken, err := f.pageToken(ctx, target.ID, token)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("message", post.Message)
	if post.Link != "" {
		params.Set("link", post.Link)
	}
	params.Set("access_token", pageToken)

	var result transfer.FacebookPostResponse
	if err := f.graph.postForm(ctx, "/"+f.cfg.version()+"/"+target.ID+"/feed", params, &result); err != nil {
		return nil, err
	}
	if result.ID == "" {
		return nil, &APIError{Platform: models.PlatformFacebook, Message: "feed post returned no id"}
	}

	return &PublishResult{
		ExternalID: result.ID,
		Permalink:  "https://www.facebook.com/" + result.ID,
	}, nil
}

func (f *FacebookClient) pageToken(ctx context.Context, pageID, userToken string) (string, error) {
	params := url.Values{}
	params.Set("fields", "access_token")
	params.Set("access_token", userToken)

	var page transfer.FacebookPage
	if err := f.graph.get(ctx, "/"+f.cfg.version()+"/"+pageID, params, &page); err != nil {
		return "", err
	}
	if page.AccessToken == "" {
		return "", &NoTargetFoundError{Platform: models.PlatformFacebook, Reason: "no page access token for page " + pageID}
	}
	return page.AccessToken, nil
}

func (f *FacebookClient) VerifyWebhookSignature(payload []byte, signature string) bool {
	return verifySignature(f.cfg.AppSecret, payload, signature)
}
