package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/maheshrc27/portal-social/internal/models"
	"github.com/maheshrc27/portal-social/internal/transfer"
	"golang.org/x/time/rate"
)

const maxGraphBody = 1 << 20

// Graph error codes Meta documents as throttling.
var rateLimitCodes = map[int]bool{4: true, 17: true, 32: true, 613: true}

// Config holds the static app credentials and endpoints of one platform client.
// Zero-valued endpoints fall back to the production hosts.
type Config struct {
	AppID        string
	AppSecret    string
	RedirectURI  string
	GraphVersion string
	// RateLimit is the number of outbound calls per second; 0 disables throttling.
	RateLimit  float64
	HTTPClient *http.Client

	AuthorizeURL string
	TokenURL     string
	GraphBaseURL string
}

func (c Config) version() string {
	if c.GraphVersion == "" {
		return "v21.0"
	}
	return c.GraphVersion
}

// NewHTTPClient returns the pooled client shared by the Graph clients.
func NewHTTPClient() *http.Client {
	transport := &http.Transport{
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 20 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   30 * time.Second,
	}
}

type graphClient struct {
	platform models.Platform
	baseURL  string
	http     *http.Client
	limiter  *rate.Limiter
}

func newGraphClient(p models.Platform, baseURL string, cfg Config) *graphClient {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = NewHTTPClient()
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	return &graphClient{
		platform: p,
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     httpClient,
		limiter:  limiter,
	}
}

func (g *graphClient) get(ctx context.Context, path string, params url.Values, out any) error {
	reqURL := g.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return &APIError{Platform: g.platform, Message: "building request", Err: err}
	}
	return g.do(req, out)
}

func (g *graphClient) postForm(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, strings.NewReader(params.Encode()))
	if err != nil {
		return &APIError{Platform: g.platform, Message: "building request", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return g.do(req, out)
}

func (g *graphClient) do(req *http.Request, out any) error {
	if err := g.limiter.Wait(req.Context()); err != nil {
		return &APIError{Platform: g.platform, Message: "waiting for rate limiter", Err: err}
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return &APIError{Platform: g.platform, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxGraphBody))
	if err != nil {
		return &APIError{Platform: g.platform, Status: resp.StatusCode, Message: "reading response body", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return translateError(g.platform, resp.StatusCode, resp.Header, body)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &APIError{Platform: g.platform, Status: resp.StatusCode, Message: "decoding response", Raw: string(body), Err: err}
	}
	return nil
}

// translateError maps a non-2xx Graph response onto the error taxonomy.
func translateError(p models.Platform, status int, header http.Header, body []byte) error {
	var ge transfer.GraphErrorResponse
	_ = json.Unmarshal(body, &ge)

	code := ge.Error.Code
	msg := ge.Error.Message
	if msg == "" {
		msg = http.StatusText(status)
	}

	switch {
	case code == 190 || status == http.StatusUnauthorized:
		return &TokenExpiredError{Platform: p, Message: msg}
	case status == http.StatusTooManyRequests || rateLimitCodes[code] || (code >= 80001 && code <= 80014):
		return &RateLimitError{Platform: p, RetryAfter: parseRetryAfter(header.Get("Retry-After")), Message: msg}
	default:
		return &APIError{Platform: p, Status: status, Code: code, Message: msg, Raw: string(body)}
	}
}

func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func grantFromSeconds(token string, expiresIn int64) *TokenGrant {
	return &TokenGrant{AccessToken: token, ExpiresIn: time.Duration(expiresIn) * time.Second}
}

func emptyTokenError(p models.Platform, op string) error {
	return &APIError{Platform: p, Message: fmt.Sprintf("%s returned no access token", op)}
}
