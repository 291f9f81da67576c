package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"limitedseller/lib/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/net/publicsuffix"
)

var tracer = otel.Tracer("platforms/market/core")

// ErrInvalidSession is returned by Authenticate when the remote identity
// check rejects the stored credential.
var ErrInvalidSession = errors.New("authentication failed, invalid session cookie")

const DefaultCookieName = ".ROBLOSECURITY"

const csrfHeader = "x-csrf-token"

var restyInstrumentOutput restyutil.InstrumentOutput

// SetRestyInstrumentOutput makes every client created afterwards dump full
// http messages to `output`.
func SetRestyInstrumentOutput(output restyutil.InstrumentOutput) {
	restyInstrumentOutput = output
}

// Endpoints are the base urls of the remote services, without trailing slash.
type Endpoints struct {
	Auth      string `json:"auth"`
	Users     string `json:"users"`
	Inventory string `json:"inventory"`
	Economy   string `json:"economy"`
}

func DefaultEndpoints() Endpoints {
	return Endpoints{
		Auth:      "https://auth.roblox.com",
		Users:     "https://users.roblox.com",
		Inventory: "https://inventory.roblox.com",
		Economy:   "https://economy.roblox.com",
	}
}

// Single points every endpoint at the same base url, mostly useful for tests
// and local proxies.
func Single(baseUrl string) Endpoints {
	baseUrl = strings.TrimRight(baseUrl, "/")
	return Endpoints{Auth: baseUrl, Users: baseUrl, Inventory: baseUrl, Economy: baseUrl}
}

func (e Endpoints) all() []string {
	return []string{e.Auth, e.Users, e.Inventory, e.Economy}
}

// Session is the authenticated identity of a run. It is read-only after
// Authenticate returns.
type Session struct {
	UserId    int64
	Username  string
	CsrfToken string
}

type Client struct {
	Endpoints Endpoints
	Http      *resty.Client

	session Session
}

type ClientOptions struct {
	Endpoints Endpoints
	Cookie    string
	// defaults to DefaultCookieName
	CookieName string
	// defaults to 30 seconds
	Timeout time.Duration
	// wraps the transport so TLS and headers look like a browser
	BrowserTransport bool
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.Cookie == "" {
		return nil, fmt.Errorf("session cookie is empty")
	}
	if opts.CookieName == "" {
		opts.CookieName = DefaultCookieName
	}
	if opts.Timeout == 0 {
		opts.Timeout = time.Second * 30
	}
	endpoints := Endpoints{
		Auth:      strings.TrimRight(opts.Endpoints.Auth, "/"),
		Users:     strings.TrimRight(opts.Endpoints.Users, "/"),
		Inventory: strings.TrimRight(opts.Endpoints.Inventory, "/"),
		Economy:   strings.TrimRight(opts.Endpoints.Economy, "/"),
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	for _, endpoint := range endpoints.all() {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint %q: %w", endpoint, err)
		}
		if u.Scheme != "https" && u.Scheme != "http" {
			return nil, fmt.Errorf("endpoint must be http(s), got %q", endpoint)
		}
		jar.SetCookies(u, []*http.Cookie{{
			Name:  opts.CookieName,
			Value: opts.Cookie,
			Path:  "/",
		}})
	}

	client := resty.New()
	client.SetCookieJar(jar)
	client.SetTimeout(opts.Timeout)
	client.SetHeader("accept", "application/json")
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	if opts.BrowserTransport {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		client.SetTransport(cloudflarebp.AddCloudFlareByPass(transport))
	}

	restyutil.InstrumentClient(client, otel.Tracer("platforms/market/http"), restyInstrumentOutput)

	return &Client{
		Endpoints: endpoints,
		Http:      client,
	}, nil
}

// Session returns the identity established by Authenticate, the zero value
// if Authenticate has not succeeded.
func (c *Client) Session() Session {
	return c.session
}

type authenticatedUser struct {
	Id   int64  `json:"id"`
	Name string `json:"name"`
}

// Authenticate obtains the anti-forgery token and resolves the identity the
// session cookie belongs to. Any non-200 from the identity check is reported
// as ErrInvalidSession.
func (c *Client) Authenticate(ctx context.Context) (Session, error) {
	ctx, span := tracer.Start(ctx, "client:Authenticate")
	defer span.End()

	// the logout endpoint always rejects the first call with a fresh csrf
	// token in the response headers, the session itself is left intact
	res, err := c.Http.R().
		SetContext(ctx).
		Post(c.Endpoints.Auth + "/v2/logout")
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch csrf token")
		return Session{}, fmt.Errorf("fetch csrf token: %w", err)
	}
	csrf := res.Header().Get(csrfHeader)
	if csrf != "" {
		c.Http.SetHeader(csrfHeader, csrf)
	}

	res, err = c.Http.R().
		SetContext(ctx).
		Get(c.Endpoints.Users + "/v1/users/authenticated")
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch authenticated user")
		return Session{}, fmt.Errorf("fetch authenticated user: %w", err)
	}
	if res.StatusCode() != http.StatusOK {
		span.SetStatus(codes.Error, ErrInvalidSession.Error())
		return Session{}, fmt.Errorf("%w (status %d)", ErrInvalidSession, res.StatusCode())
	}

	var user authenticatedUser
	err = json.Unmarshal(res.Body(), &user)
	if err != nil {
		span.SetStatus(codes.Error, "failed to decode authenticated user")
		return Session{}, fmt.Errorf("decode authenticated user: %w", err)
	}
	if user.Id == 0 {
		span.SetStatus(codes.Error, ErrInvalidSession.Error())
		return Session{}, fmt.Errorf("%w (no user id)", ErrInvalidSession)
	}

	c.session = Session{
		UserId:    user.Id,
		Username:  user.Name,
		CsrfToken: csrf,
	}
	span.SetAttributes(attribute.Int64("user_id", user.Id))

	return c.session, nil
}
