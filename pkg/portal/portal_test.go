package portal

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	errs "tcphotos/pkg/errors"
	"tcphotos/pkg/logger"
	"tcphotos/pkg/retry"
)

const signInPage = `<html><head><meta name="csrf-token" content="tok123"></head><body>Sign in</body></html>`

type fakePortal struct {
	server      *httptest.Server
	postedForm  map[string]string
	pageHits    atomic.Int32
	pageStatus  []int
	rejectLogin bool
}

func newFakePortal(t *testing.T) *fakePortal {
	t.Helper()
	fp := &fakePortal{}
	mux := http.NewServeMux()
	mux.HandleFunc(SignInPath, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			assert.Equal(t, "en-US,en;q=0.5", r.Header.Get("Accept-Language"))
			assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla/5.0")
			fmt.Fprint(w, signInPage)
		case http.MethodPost:
			assert.NoError(t, r.ParseForm())
			fp.postedForm = map[string]string{}
			for k := range r.PostForm {
				fp.postedForm[k] = r.PostForm.Get(k)
			}
			if fp.rejectLogin {
				fmt.Fprint(w, "<p>You need to sign in or sign up before continuing.</p>")
				return
			}
			http.SetCookie(w, &http.Cookie{Name: "_session", Value: "abc", Path: "/"})
			fmt.Fprint(w, "<p>Welcome</p>")
		}
	})
	mux.HandleFunc("/s/7/children/9/posts.json", func(w http.ResponseWriter, r *http.Request) {
		n := int(fp.pageHits.Add(1))
		if n <= len(fp.pageStatus) && fp.pageStatus[n-1] != http.StatusOK {
			w.WriteHeader(fp.pageStatus[n-1])
			return
		}
		cookie, err := r.Cookie("_session")
		if err != nil || cookie.Value != "abc" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Equal(t, "en", r.URL.Query().Get("locale"))
		fmt.Fprintf(w, `[{"id":%s,"original_photo_url":"x"}]`, r.URL.Query().Get("page"))
	})
	mux.HandleFunc("/photo.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte{0xff, 0xd8, 0xff, 0xd9})
	})
	fp.server = httptest.NewServer(mux)
	t.Cleanup(fp.server.Close)
	return fp
}

func newTestAuthenticator(base string) *Authenticator {
	return NewAuthenticator(Options{
		BaseURL: base,
		Logger:  logger.NewNopLogger(),
		Retry: &retry.Config{
			MaxAttempts: 3,
			Backoff:     &retry.ConstantBackoff{Delay: time.Millisecond},
			Logger:      logger.NewNopLogger(),
		},
	})
}

func TestAuthenticate(t *testing.T) {
	fp := newFakePortal(t)

	s, err := newTestAuthenticator(fp.server.URL).Authenticate(context.Background(), "me@example.com", "secret")
	require.NoError(t, err)

	assert.Equal(t, "tok123", s.CSRFToken())
	assert.Equal(t, map[string]string{
		"authenticity_token": "tok123",
		"soul[login]":        "me@example.com",
		"soul[password]":     "secret",
		"soul[remember_me]":  "0",
		"commit":             "Sign in",
	}, fp.postedForm)
}

func TestAuthenticateRejected(t *testing.T) {
	fp := newFakePortal(t)
	fp.rejectLogin = true

	_, err := newTestAuthenticator(fp.server.URL).Authenticate(context.Background(), "me@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeAuth))
}

func TestAuthenticateMissingToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><head></head></html>")
	}))
	defer server.Close()

	_, err := newTestAuthenticator(server.URL).Authenticate(context.Background(), "a", "b")
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeAuth))
	assert.Contains(t, err.Error(), "csrf-token")
}

func TestAuthenticateStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := newTestAuthenticator(server.URL).Authenticate(context.Background(), "a", "b")
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeAuth))
	assert.Equal(t, http.StatusForbidden, errs.StatusCode(err))
}

func TestFetchPostsPage(t *testing.T) {
	fp := newFakePortal(t)
	s, err := newTestAuthenticator(fp.server.URL).Authenticate(context.Background(), "a", "b")
	require.NoError(t, err)

	body, err := s.FetchPostsPage(context.Background(), 7, 9, 2)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":2,"original_photo_url":"x"}]`, string(body))
}

func TestFetchPostsPageRetriesServerErrors(t *testing.T) {
	fp := newFakePortal(t)
	fp.pageStatus = []int{http.StatusBadGateway, http.StatusTooManyRequests}
	s, err := newTestAuthenticator(fp.server.URL).Authenticate(context.Background(), "a", "b")
	require.NoError(t, err)

	body, err := s.FetchPostsPage(context.Background(), 7, 9, 1)
	require.NoError(t, err)
	assert.NotEmpty(t, body)
	assert.Equal(t, int32(3), fp.pageHits.Load())
}

func TestFetchPostsPageClientError(t *testing.T) {
	fp := newFakePortal(t)
	fp.pageStatus = []int{http.StatusNotFound}
	s, err := newTestAuthenticator(fp.server.URL).Authenticate(context.Background(), "a", "b")
	require.NoError(t, err)

	_, err = s.FetchPostsPage(context.Background(), 7, 9, 1)
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeRequest))
	assert.Equal(t, http.StatusNotFound, errs.StatusCode(err))
	assert.Equal(t, int32(1), fp.pageHits.Load())
}

func TestDownload(t *testing.T) {
	fp := newFakePortal(t)
	s, err := newTestAuthenticator(fp.server.URL).Authenticate(context.Background(), "a", "b")
	require.NoError(t, err)

	data, err := s.Download(context.Background(), fp.server.URL+"/photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xd8, 0xff, 0xd9}, data)
}

func TestNetworkErrorIsTyped(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	base := server.URL
	server.Close()

	_, err := newTestAuthenticator(base).Authenticate(context.Background(), "a", "b")
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeNetwork))
}

func TestPostsURL(t *testing.T) {
	assert.Equal(t,
		"https://example.com/s/1/children/2/posts.json?locale=en&page=3",
		PostsURL("https://example.com/", 1, 2, 3))
	assert.Equal(t, "https://example.com/souls/sign_in", SignInURL("https://example.com"))
}

func TestPostHasPhoto(t *testing.T) {
	assert.True(t, Post{OriginalPhotoURL: "http://x"}.HasPhoto())
	assert.False(t, Post{}.HasPhoto())
}
