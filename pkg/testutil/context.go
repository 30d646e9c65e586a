package testutil

import (
	"net/http"
	"time"

	id "moniftar/pkg/domain"
	"moniftar/pkg/requestcontext"
)

// AsAdmin marks the request as coming from an admin whose first login is done.
func AsAdmin(req *http.Request) *http.Request {
	return WithPrincipal(req, requestcontext.Principal{
		VolunteerID: id.NewVolunteerID(),
		IsAdmin:     true,
	})
}

// AsOperator marks the request as coming from a field volunteer attached to loc.
func AsOperator(req *http.Request, loc id.LocationID) *http.Request {
	return WithPrincipal(req, requestcontext.Principal{
		VolunteerID:  id.NewVolunteerID(),
		HomeLocation: &loc,
	})
}

// WithPrincipal simulates what the auth middleware does for a valid token.
func WithPrincipal(req *http.Request, p requestcontext.Principal) *http.Request {
	return req.WithContext(requestcontext.WithPrincipal(req.Context(), p))
}

// AtTime pins the request clock.
func AtTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}
