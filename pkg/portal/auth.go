package portal

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	errs "tcphotos/pkg/errors"
	"tcphotos/pkg/logger"
	"tcphotos/pkg/ratelimit"
	"tcphotos/pkg/retry"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// Options configures an Authenticator. Zero values fall back to defaults.
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	Limiter   ratelimit.Limiter
	Retry     *retry.Config
	Logger    logger.Logger
	// Transport overrides the HTTP transport, mainly for tests
	Transport http.RoundTripper
}

// Authenticator signs in to the portal and produces Sessions
type Authenticator struct {
	opts Options
}

// NewAuthenticator creates an Authenticator with the given options
func NewAuthenticator(opts Options) *Authenticator {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.Limiter == nil {
		opts.Limiter = ratelimit.Unlimited{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.GetLogger()
	}
	if opts.Retry == nil {
		opts.Retry = retry.DefaultConfig()
		opts.Retry.Logger = opts.Logger
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &Authenticator{opts: opts}
}

// Authenticate signs in with email and password and returns a Session
// carrying the resulting cookies.
func (a *Authenticator) Authenticate(ctx context.Context, email, password string) (*Session, error) {
	const op = "sign in"

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	s := &Session{
		httpClient: &http.Client{
			Timeout:   a.opts.Timeout,
			Jar:       jar,
			Transport: a.opts.Transport,
		},
		headers: map[string]string{
			"User-Agent":      a.opts.UserAgent,
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.5",
		},
		baseURL: a.opts.BaseURL,
		limiter: a.opts.Limiter,
		retry:   a.opts.Retry,
		logger:  a.opts.Logger.WithField("component", "portal"),
	}

	signInURL := SignInURL(a.opts.BaseURL)
	s.logger.InfoWithFields("signing in", map[string]interface{}{
		"url":   signInURL,
		"email": email,
	})

	page, err := s.getWithRetry(ctx, op, signInURL)
	if err != nil {
		if errs.StatusCode(err) != 0 {
			return nil, authStatusError(op, errs.StatusCode(err), err)
		}
		return nil, err
	}

	token, err := extractCSRFToken(page)
	if err != nil {
		return nil, err
	}
	s.csrfToken = token

	form := url.Values{}
	form.Set("authenticity_token", token)
	form.Set("soul[login]", email)
	form.Set("soul[password]", password)
	form.Set("soul[remember_me]", "0")
	form.Set("commit", "Sign in")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, signInURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeRequest, op, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.do(req, op)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeNetwork, op, fmt.Errorf("failed to read response body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, authStatusError(op, resp.StatusCode, nil)
	}
	if bodyRequiresSignIn(body) {
		s.logger.Warn("portal rejected the credentials")
		return nil, errs.Authentication(op, "credentials rejected by portal")
	}

	s.logger.Info("signed in")
	return s, nil
}

// extractCSRFToken reads the content of the csrf-token meta tag
func extractCSRFToken(page []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return "", errs.Wrap(errs.ErrorTypeAuth, "parse sign-in page", err)
	}

	token, ok := doc.Find(`meta[name="csrf-token"]`).First().Attr("content")
	if !ok || strings.TrimSpace(token) == "" {
		return "", errs.Authentication("parse sign-in page", "csrf-token not found")
	}
	return token, nil
}

func authStatusError(op string, status int, cause error) error {
	return &errs.Error{
		Type:    errs.ErrorTypeAuth,
		Op:      op,
		Message: fmt.Sprintf("unexpected status code: %d", status),
		Code:    status,
		Err:     cause,
	}
}
