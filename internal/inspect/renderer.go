package inspect

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"
)

const maxPageSize = 8 << 20 // 8MB

var (
	ErrLoginFailed    = errors.New("prtg login failed")
	ErrSessionExpired = errors.New("prtg session expired")
)

// SessionOptions configures how the renderer talks to PRTG.
type SessionOptions struct {
	BaseURL  string
	Username string
	// Password enables form login; Passhash enables per-request query auth.
	Password           string
	Passhash           string
	InsecureSkipVerify bool
	// Timeout bounds each page fetch, including a login it triggers.
	Timeout time.Duration
}

// HTTPRenderer fetches PRTG pages over one reusable HTTP session.
//
// The session (client and cookie jar) is created lazily and shared across
// targets and cycles. Any transport failure or a response that lands on the
// login page drops the session; the next Render builds a fresh one and logs
// in again.
type HTTPRenderer struct {
	opts   SessionOptions
	logger *slog.Logger

	mu       sync.Mutex
	client   *http.Client
	loggedIn bool
}

// NewHTTPRenderer creates a renderer. No connection is made until the first
// Render.
func NewHTTPRenderer(opts SessionOptions, logger *slog.Logger) *HTTPRenderer {
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	return &HTTPRenderer{opts: opts, logger: logger}
}

// Render fetches rawURL and parses it.
func (r *HTTPRenderer) Render(ctx context.Context, rawURL string) (*Document, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	client, err := r.session(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.withAuth(rawURL), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		r.Reset()
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if isLoginPage(resp.Request.URL) {
		r.Reset()
		return nil, ErrSessionExpired
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetching page: unexpected status %d", resp.StatusCode)
	}

	doc, err := ParseDocument(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Reset drops the current session. The next Render starts a new one.
func (r *HTTPRenderer) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropLocked()
}

// Close releases idle connections.
func (r *HTTPRenderer) Close() {
	r.Reset()
}

func (r *HTTPRenderer) dropLocked() {
	if r.client != nil {
		r.client.CloseIdleConnections()
	}
	r.client = nil
	r.loggedIn = false
}

func (r *HTTPRenderer) session(ctx context.Context) (*http.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.client == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("creating cookie jar: %w", err)
		}
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if r.opts.InsecureSkipVerify {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		}
		r.client = &http.Client{Transport: transport, Jar: jar}
		r.logger.Debug("prtg session created", "base_url", r.opts.BaseURL)
	}

	if r.opts.Password != "" && !r.loggedIn {
		if err := r.login(ctx, r.client); err != nil {
			r.dropLocked()
			return nil, err
		}
		r.loggedIn = true
	}
	return r.client, nil
}

func (r *HTTPRenderer) login(ctx context.Context, client *http.Client) error {
	form := url.Values{
		"loginurl": {""},
		"username": {r.opts.Username},
		"password": {r.opts.Password},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		r.opts.BaseURL+"/public/checklogin.htm", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("creating login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	r.logger.Info("logging in to prtg", "base_url", r.opts.BaseURL, "username", r.opts.Username)
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxPageSize))
	_ = resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: status %d", ErrLoginFailed, resp.StatusCode)
	}
	if isLoginPage(resp.Request.URL) {
		return fmt.Errorf("%w: check username and password", ErrLoginFailed)
	}
	r.logger.Info("prtg login succeeded")
	return nil
}

func (r *HTTPRenderer) withAuth(rawURL string) string {
	if r.opts.Passhash == "" {
		return rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	q.Set("username", r.opts.Username)
	q.Set("passhash", r.opts.Passhash)
	u.RawQuery = q.Encode()
	return u.String()
}

func isLoginPage(u *url.URL) bool {
	return u != nil && strings.Contains(strings.ToLower(u.Path), "login")
}
