// Package requestcontext provides HTTP-independent accessors for request-scoped
// values.
//
// Middleware sets the values; services and handlers read them:
//
//	p, ok := requestcontext.PrincipalFrom(ctx)
//	requestID := requestcontext.RequestID(ctx)
//	now := requestcontext.Now(ctx)
//
// Tests inject them directly:
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//	ctx = requestcontext.WithPrincipal(ctx, requestcontext.Principal{IsAdmin: true})
package requestcontext

import (
	"context"
	"time"

	id "moniftar/pkg/domain"
)

type (
	principalKey   struct{}
	clientIPKey    struct{}
	userAgentKey   struct{}
	deviceKey      struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Principal is the authenticated volunteer behind a request. Roles are plain
// fields and are checked by value.
type Principal struct {
	VolunteerID       id.VolunteerID
	IsAdmin           bool
	FirstLoginPending bool
	HomeLocation      *id.LocationID
	TokenID           string
	ExpiresAt         time.Time
}

// CanAdminister reports whether the principal may run admin-only operations.
func (p Principal) CanAdminister() bool {
	return p.IsAdmin && !p.FirstLoginPending
}

// CanOperate reports whether the principal may scan vouchers: any volunteer
// whose first login is complete.
func (p Principal) CanOperate() bool {
	return !p.FirstLoginPending
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// VolunteerID returns the authenticated volunteer, or the nil ID.
func VolunteerID(ctx context.Context) id.VolunteerID {
	if p, ok := PrincipalFrom(ctx); ok {
		return p.VolunteerID
	}
	return id.VolunteerID{}
}

// -----------------------------------------------------------------------------
// Client metadata
// -----------------------------------------------------------------------------

func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(clientIPKey{}).(string); ok {
		return ip
	}
	return ""
}

func UserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(userAgentKey{}).(string); ok {
		return ua
	}
	return ""
}

// Device returns the short device label derived from the User-Agent
// (for example "Android/Chrome").
func Device(ctx context.Context) string {
	if d, ok := ctx.Value(deviceKey{}).(string); ok {
		return d
	}
	return ""
}

// WithClientMetadata injects client IP, User-Agent and device label.
func WithClientMetadata(ctx context.Context, clientIP, userAgent, device string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey{}, clientIP)
	ctx = context.WithValue(ctx, userAgentKey{}, userAgent)
	ctx = context.WithValue(ctx, deviceKey{}, device)
	return ctx
}

// -----------------------------------------------------------------------------
// Request metadata
// -----------------------------------------------------------------------------

func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return reqID
	}
	return ""
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now retrieves the request-scoped time. Falls back to time.Now() outside HTTP
// (bootstrap, tests without injection).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime pins the time seen by everything downstream of ctx.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
