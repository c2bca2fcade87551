package scraper

import (
	"context"

	"tcphotos/pkg/portal"
)

// Session is the authenticated portal access the pipeline needs.
// *portal.Session implements it.
type Session interface {
	FetchPostsPage(ctx context.Context, schoolID, childID int64, page int) ([]byte, error)
	Download(ctx context.Context, photoURL string) ([]byte, error)
}

// Authenticator produces a Session from credentials
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (Session, error)
}

// Observer receives progress events during a run. All methods are called
// from the run's goroutine.
type Observer interface {
	PageFetched(page, records int, source string)
	CrawlFinished(total, withPhotos int)
	PhotoStarted(post portal.Post)
	PhotoFinished(result *EmbedResult)
	PhotoFailed(post portal.Post, err error)
}

// FromPortal adapts a portal.Authenticator to Authenticator
func FromPortal(a *portal.Authenticator) Authenticator {
	return portalAuthenticator{a}
}

type portalAuthenticator struct {
	a *portal.Authenticator
}

func (p portalAuthenticator) Authenticate(ctx context.Context, email, password string) (Session, error) {
	s, err := p.a.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s, nil
}

type nopObserver struct{}

func (nopObserver) PageFetched(int, int, string)   {}
func (nopObserver) CrawlFinished(int, int)         {}
func (nopObserver) PhotoStarted(portal.Post)       {}
func (nopObserver) PhotoFinished(*EmbedResult)     {}
func (nopObserver) PhotoFailed(portal.Post, error) {}
