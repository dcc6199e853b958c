// Package netx builds the HTTP clients used by tools and model providers.
package netx

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/net/proxy"

	"github.com/soyeahso/voicebot/internal/logging"
)

// DefaultUserAgent is sent when Options.UserAgent is empty.
const DefaultUserAgent = "voicebot/1.0"

// Options configures a client.
type Options struct {
	// Proxy is a SOCKS5 address ("host:port" or "socks5://host:port").
	// Empty means direct connections.
	Proxy     string
	Timeout   time.Duration
	Retries   int
	UserAgent string
	Log       *logging.Logger
}

// NewClient returns an *http.Client that retries failed requests with
// backoff. Retries of 0 disables retrying.
func NewClient(opts Options) (*http.Client, error) {
	transport, err := Transport(opts.Proxy)
	if err != nil {
		return nil, err
	}

	log := opts.Log
	if log == nil {
		log = logging.Nop()
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = &http.Client{
		Transport: &userAgentTransport{base: transport, agent: userAgent(opts.UserAgent)},
		Timeout:   opts.Timeout,
	}
	rc.RetryMax = max(opts.Retries, 0)
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 5 * time.Second
	rc.Logger = log.Sub("http")

	client := rc.StandardClient()
	client.Timeout = opts.Timeout
	return client, nil
}

// NewPlainClient returns a client without retries, for callers that run
// their own retry policy (the model SDK, failover).
func NewPlainClient(opts Options) (*http.Client, error) {
	transport, err := Transport(opts.Proxy)
	if err != nil {
		return nil, err
	}
	return &http.Client{
		Transport: &userAgentTransport{base: transport, agent: userAgent(opts.UserAgent)},
		Timeout:   opts.Timeout,
	}, nil
}

// Transport returns an HTTP transport dialing through the given SOCKS5
// proxy, or a clone of the default transport when proxyAddr is empty.
func Transport(proxyAddr string) (*http.Transport, error) {
	base := http.DefaultTransport.(*http.Transport).Clone()
	if proxyAddr == "" {
		return base, nil
	}

	addr, auth, err := parseProxy(proxyAddr)
	if err != nil {
		return nil, err
	}
	dialer, err := proxy.SOCKS5("tcp", addr, auth, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("socks5 proxy %s: %w", addr, err)
	}

	base.Proxy = nil
	if cd, ok := dialer.(proxy.ContextDialer); ok {
		base.DialContext = cd.DialContext
	} else {
		base.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		}
	}
	return base, nil
}

func parseProxy(s string) (string, *proxy.Auth, error) {
	if !strings.Contains(s, "://") {
		return s, nil, nil
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", nil, fmt.Errorf("invalid proxy %q: %w", s, err)
	}
	if u.Scheme != "socks5" && u.Scheme != "socks5h" {
		return "", nil, fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", nil, fmt.Errorf("invalid proxy %q: missing host", s)
	}
	var auth *proxy.Auth
	if u.User != nil {
		pw, _ := u.User.Password()
		auth = &proxy.Auth{User: u.User.Username(), Password: pw}
	}
	return u.Host, auth, nil
}

func userAgent(s string) string {
	if s == "" {
		return DefaultUserAgent
	}
	return s
}

type userAgentTransport struct {
	base  http.RoundTripper
	agent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.agent)
	}
	return t.base.RoundTrip(req)
}
