package portal

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultBaseURL is the public Transparent Classroom host
	DefaultBaseURL = "https://www.transparentclassroom.com"

	// SignInPath serves both the sign-in form and its submission
	SignInPath = "/souls/sign_in"

	// signInRequiredMarker appears on the sign-in page when a submission was rejected
	signInRequiredMarker = "You need to sign in"
)

// SignInURL returns the sign-in URL for base
func SignInURL(base string) string {
	return strings.TrimRight(base, "/") + SignInPath
}

// PostsURL returns the URL of one page of a child's posts
func PostsURL(base string, schoolID, childID int64, page int) string {
	q := url.Values{}
	q.Set("locale", "en")
	q.Set("page", strconv.Itoa(page))
	return fmt.Sprintf("%s/s/%d/children/%d/posts.json?%s",
		strings.TrimRight(base, "/"), schoolID, childID, q.Encode())
}
