package portal

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	errs "tcphotos/pkg/errors"
	"tcphotos/pkg/logger"
	"tcphotos/pkg/ratelimit"
	"tcphotos/pkg/retry"
)

// Session is an authenticated portal context. It is created by
// Authenticator.Authenticate and is read-only afterwards.
type Session struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	csrfToken  string
	limiter    ratelimit.Limiter
	retry      *retry.Config
	logger     logger.Logger
}

// CSRFToken returns the anti-forgery token captured at sign-in
func (s *Session) CSRFToken() string {
	return s.csrfToken
}

// BaseURL returns the portal base URL the session was created for
func (s *Session) BaseURL() string {
	return s.baseURL
}

// FetchPostsPage returns the raw JSON body of one page of posts
func (s *Session) FetchPostsPage(ctx context.Context, schoolID, childID int64, page int) ([]byte, error) {
	u := PostsURL(s.baseURL, schoolID, childID, page)
	s.logger.DebugWithFields("fetching posts page", map[string]interface{}{
		"page": page,
		"url":  u,
	})
	return s.getWithRetry(ctx, fmt.Sprintf("fetch page %d", page), u)
}

// Download returns the raw bytes behind a photo URL
func (s *Session) Download(ctx context.Context, photoURL string) ([]byte, error) {
	s.logger.DebugWithFields("downloading photo", map[string]interface{}{
		"url": photoURL,
	})
	data, err := s.getWithRetry(ctx, "download photo", photoURL)
	if err != nil {
		return nil, err
	}
	s.logger.DebugWithFields("successfully downloaded photo", map[string]interface{}{
		"url":   photoURL,
		"bytes": len(data),
	})
	return data, nil
}

func (s *Session) getWithRetry(ctx context.Context, op, rawURL string) ([]byte, error) {
	return retry.DoWithResult(ctx, func(ctx context.Context) ([]byte, error) {
		return s.get(ctx, op, rawURL)
	}, s.retry)
}

// get performs one throttled GET and returns the body of a 2xx response
func (s *Session) get(ctx context.Context, op, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeRequest, op, err)
	}

	resp, err := s.do(req, op)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.logger.WarnWithFields("unexpected response status", map[string]interface{}{
			"op":     op,
			"status": resp.StatusCode,
			"url":    rawURL,
		})
		return nil, errs.Request(op, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeNetwork, op, fmt.Errorf("failed to read response body: %w", err))
	}
	return body, nil
}

// do applies the browser headers and the rate limiter, then sends req
func (s *Session) do(req *http.Request, op string) (*http.Response, error) {
	for key, value := range s.headers {
		if req.Header.Get(key) == "" {
			req.Header.Set(key, value)
		}
	}

	if err := s.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}

	start := time.Now()
	s.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := s.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errs.Wrap(errs.ErrorTypeNetwork, op, err)
	}

	s.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})
	return resp, nil
}

func bodyRequiresSignIn(body []byte) bool {
	return strings.Contains(string(body), signInRequiredMarker)
}
