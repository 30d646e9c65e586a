// Package token issues and validates the volunteers' access tokens.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"moniftar/internal/domain"
	dErrors "moniftar/pkg/domain-errors"
)

// Claims carries the principal of an access token.
type Claims struct {
	VolunteerID       string `json:"volunteer_id"`
	IsAdmin           bool   `json:"is_admin"`
	FirstLoginPending bool   `json:"first_login_pending"`
	HomeLocation      string `json:"home_location,omitempty"`
	jwt.RegisteredClaims
}

// Issued is a signed token with the values needed to revoke it later.
type Issued struct {
	Token     string
	JTI       string
	ExpiresAt time.Time
}

// JWTService handles JWT creation and validation
type JWTService struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
}

func NewJWTService(signingKey string, issuer string, ttl time.Duration) *JWTService {
	return &JWTService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		ttl:        ttl,
	}
}

// TTL is the lifetime of issued tokens.
func (s *JWTService) TTL() time.Duration { return s.ttl }

// Generate signs a token for v's current role and profile state.
func (s *JWTService) Generate(v *domain.Volunteer, now time.Time) (*Issued, error) {
	claims := Claims{
		VolunteerID:       v.ID.String(),
		IsAdmin:           v.IsAdmin,
		FirstLoginPending: v.FirstLoginPending,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   v.Code,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	}
	if v.HomeLocation != nil {
		claims.HomeLocation = v.HomeLocation.String()
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}
	return &Issued{Token: signed, JTI: claims.ID, ExpiresAt: claims.ExpiresAt.Time}, nil
}

func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithExpirationRequired())

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}
