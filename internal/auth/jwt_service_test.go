package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "authsvc/internal/errors"
)

func TestJWTService_IssueVerifyRoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", "authsvc", time.Minute)

	token, err := svc.Issue(Principal{ID: "user-1"})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, 2, strings.Count(token, "."))

	p, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", p.ID)
}

func TestJWTService_TokensDifferAcrossIssues(t *testing.T) {
	svc := NewJWTService("test-secret", "authsvc", time.Minute)

	a, err := svc.Issue(Principal{ID: "user-1"})
	require.NoError(t, err)
	b, err := svc.Issue(Principal{ID: "user-1"})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestJWTService_ClaimsShape(t *testing.T) {
	svc := NewJWTService("test-secret", "authsvc", time.Minute)
	token, err := svc.Issue(Principal{ID: "user-1"})
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(token, claims)
	require.NoError(t, err)

	for _, k := range []string{"sub", "iss", "iat", "nbf", "exp", "jti"} {
		assert.Contains(t, claims, k)
	}
	assert.NotContains(t, claims, "email")
}

func TestJWTService_SigningFailure(t *testing.T) {
	_, err := NewJWTService("", "authsvc", time.Minute).Issue(Principal{ID: "user-1"})
	assert.ErrorIs(t, err, apperrors.ErrSigningFailure)

	_, err = NewJWTService("test-secret", "authsvc", time.Minute).Issue(Principal{})
	assert.ErrorIs(t, err, apperrors.ErrSigningFailure)
}

func TestJWTService_VerifyRejects(t *testing.T) {
	svc := NewJWTService("test-secret", "authsvc", time.Minute)
	valid, err := svc.Issue(Principal{ID: "user-1"})
	require.NoError(t, err)

	expiredSvc := NewJWTService("test-secret", "authsvc", time.Minute)
	expiredSvc.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expired, err := expiredSvc.Issue(Principal{ID: "user-1"})
	require.NoError(t, err)

	otherIssuer, err := NewJWTService("test-secret", "someone-else", time.Minute).Issue(Principal{ID: "user-1"})
	require.NoError(t, err)

	otherKey, err := NewJWTService("other-secret", "authsvc", time.Minute).Issue(Principal{ID: "user-1"})
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "user-1",
		Issuer:    "authsvc",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "user-1",
		Issuer:  "authsvc",
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tests := map[string]string{
		"expired":      expired,
		"other issuer": otherIssuer,
		"other key":    otherKey,
		"alg none":     unsigned,
		"no expiry":    noExpiry,
		"tampered":     valid + "x",
		"garbage":      "not-a-token",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Verify(token)
			assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
		})
	}
}

func TestNewJWTService_DefaultTTL(t *testing.T) {
	assert.Equal(t, AccessTokenExpiry, NewJWTService("s", "", 0).ttl)
}
