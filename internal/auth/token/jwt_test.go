package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moniftar/internal/domain"
	id "moniftar/pkg/domain"
	dErrors "moniftar/pkg/domain-errors"
)

var jwtService = NewJWTService("test-signing-key", "test-issuer", time.Hour)

func volunteer(t *testing.T) *domain.Volunteer {
	t.Helper()
	v, err := domain.NewVolunteer(id.NewVolunteerID(), "+33612000001", []byte("hash"), false, time.Now())
	require.NoError(t, err)
	return v
}

func Test_GenerateAccessToken(t *testing.T) {
	v := volunteer(t)
	issued, err := jwtService.Generate(v, time.Now())
	require.NoError(t, err)
	require.NotEmpty(t, issued.Token)
	require.NotEmpty(t, issued.JTI)

	claims, err := jwtService.ValidateToken(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, v.ID.String(), claims.VolunteerID)
	assert.Equal(t, v.Code, claims.Subject)
	assert.True(t, claims.FirstLoginPending)
	assert.False(t, claims.IsAdmin)
	assert.Empty(t, claims.HomeLocation)
	assert.Equal(t, issued.JTI, claims.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func Test_GenerateCarriesHomeLocation(t *testing.T) {
	v := volunteer(t)
	loc := id.NewLocationID()
	require.NoError(t, v.CompleteFirstLogin("Sara", "B", &loc, []byte("hash2")))

	issued, err := jwtService.Generate(v, time.Now())
	require.NoError(t, err)

	mw, err := NewJWTServiceAdapter(jwtService).ValidateToken(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, loc.String(), mw.HomeLocation)
	assert.False(t, mw.FirstLoginPending)
	assert.Equal(t, issued.JTI, mw.JTI)
	assert.WithinDuration(t, issued.ExpiresAt, mw.ExpiresAt, time.Second)
}

func Test_ValidateToken_InvalidToken(t *testing.T) {
	_, err := jwtService.ValidateToken("invalid-token-string")
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "invalid token"))
}

func Test_ValidateToken_ExpiredToken(t *testing.T) {
	issued, err := jwtService.Generate(volunteer(t), time.Now().Add(-2*time.Hour))
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(issued.Token)
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "token has expired"))
}

func Test_ValidateToken_WrongKeyOrIssuer(t *testing.T) {
	v := volunteer(t)
	for _, other := range []*JWTService{
		NewJWTService("another-key", "test-issuer", time.Hour),
		NewJWTService("test-signing-key", "someone-else", time.Hour),
	} {
		issued, err := other.Generate(v, time.Now())
		require.NoError(t, err)
		_, err = jwtService.ValidateToken(issued.Token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	}
}

func Test_ValidateToken_RejectsOtherAlgorithms(t *testing.T) {
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		VolunteerID: id.NewVolunteerID().String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "test-issuer",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(unsigned)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
