package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "authsvc/internal/errors"
)

// AccessTokenExpiry is the default duration for which tokens are valid.
const AccessTokenExpiry = 15 * time.Minute

// TokenIssuer converts a principal into a signed bearer token.
type TokenIssuer interface {
	Issue(p Principal) (string, error)
}

// TokenVerifier recovers the principal from a bearer token.
type TokenVerifier interface {
	Verify(token string) (Principal, error)
}

// JWTService handles JWT token generation and validation.
type JWTService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

var (
	_ TokenIssuer   = (*JWTService)(nil)
	_ TokenVerifier = (*JWTService)(nil)
)

// NewJWTService creates a new JWT service. A non-positive ttl uses AccessTokenExpiry.
func NewJWTService(secret, issuer string, ttl time.Duration) *JWTService {
	if ttl <= 0 {
		ttl = AccessTokenExpiry
	}
	return &JWTService{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs a token binding p.ID as subject with an expiry.
func (s *JWTService) Issue(p Principal) (string, error) {
	if len(s.secret) == 0 {
		return "", fmt.Errorf("no signing key configured: %w", apperrors.ErrSigningFailure)
	}
	if p.ID == "" {
		return "", fmt.Errorf("principal without identity: %w", apperrors.ErrSigningFailure)
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.New().String(),
		Subject:   p.ID,
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %v: %w", err, apperrors.ErrSigningFailure)
	}
	return token, nil
}

// Verify checks signature, algorithm, expiry and issuer and returns the principal.
func (s *JWTService) Verify(tokenString string) (Principal, error) {
	if len(s.secret) == 0 {
		return Principal{}, apperrors.ErrInvalidToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, opts...)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return Principal{}, apperrors.ErrInvalidToken
	}

	return Principal{ID: claims.Subject}, nil
}
