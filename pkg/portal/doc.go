// Package portal talks to the Transparent Classroom web application.
//
// An Authenticator performs the form-based sign-in: it fetches the sign-in
// page, extracts the csrf-token meta tag with goquery and posts the
// credentials. The resulting Session keeps the cookie jar and browser-like
// headers and is passed explicitly to every page fetch and photo download.
// GETs through a Session are throttled by a ratelimit.Limiter and retried on
// transient failures.
package portal
