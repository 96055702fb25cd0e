// Package auth issues and verifies the stateless session tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophdiary/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

// Claims is the signed token payload: the standard claims plus the
// identity the token was issued to.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"id"`
	UserName string `json:"username"`
}

// TokenID returns the jti claim.
func (c *Claims) TokenID() string {
	return c.ID
}

// Revoker is the revocation hook consulted by Verify. Implementations
// remember revoked token ids until the given time.
type Revoker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	Revoke(ctx context.Context, tokenID string, until time.Time) error
}

// TokenService signs tokens with an HMAC secret (HS256).
type TokenService struct {
	secret   []byte
	validity time.Duration
	horizon  time.Duration
	revoker  Revoker
	now      func() time.Time
}

// NewTokenService builds a TokenService. A zero validity issues tokens
// without an exp claim; horizon bounds how long such tokens stay on the
// revocation list. revoker may be nil.
func NewTokenService(secret []byte, validity, horizon time.Duration, revoker Revoker) *TokenService {
	return &TokenService{
		secret:   secret,
		validity: validity,
		horizon:  horizon,
		revoker:  revoker,
		now:      time.Now,
	}
}

// Issue signs a token binding userID and userName.
func (s *TokenService) Issue(userID, userName string) (string, error) {
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       ulid.Make().String(),
			IssuedAt: jwt.NewNumericDate(now),
		},
		UserID:   userID,
		UserName: userName,
	}
	if s.validity > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.validity))
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify checks signature, structure, expiry and revocation of tokenString
// and returns its claims. Every failure matches common.ErrInvalidToken.
func (s *TokenService) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, common.ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}), jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: expired", common.ErrInvalidToken)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.UserID == "" {
		return nil, common.ErrInvalidToken
	}

	if s.revoker != nil && claims.TokenID() != "" {
		revoked, err := s.revoker.IsRevoked(ctx, claims.TokenID())
		if err != nil {
			return nil, fmt.Errorf("%w: revocation check: %v", common.ErrSessionUnavailable, err)
		}
		if revoked {
			return nil, fmt.Errorf("%w: revoked", common.ErrInvalidToken)
		}
	}

	return claims, nil
}

// Revoke puts the token described by claims on the revocation list until
// it expires, or for the configured horizon when it never does.
func (s *TokenService) Revoke(ctx context.Context, claims *Claims) error {
	if s.revoker == nil {
		return errors.New("token revocation is not configured")
	}
	if claims.TokenID() == "" {
		return fmt.Errorf("%w: no token id", common.ErrInvalidToken)
	}

	until := s.now().Add(s.horizon)
	if claims.ExpiresAt != nil {
		until = claims.ExpiresAt.Time
	}

	if err := s.revoker.Revoke(ctx, claims.TokenID(), until); err != nil {
		return fmt.Errorf("%w: %v", common.ErrSessionUnavailable, err)
	}
	return nil
}
