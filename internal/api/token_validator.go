package api

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/emrecanguldogan/HealthChain/pkg/types"
)

// TokenValidator validates session JWTs. The wallet address travels in
// the token claims; downstream components receive it explicitly instead
// of reading ambient wallet state.
type TokenValidator struct {
	jwtSecret []byte
	issuer    string
}

// NewTokenValidator creates a new token validator
func NewTokenValidator(secret, issuer string) *TokenValidator {
	return &TokenValidator{
		jwtSecret: []byte(secret),
		issuer:    issuer,
	}
}

// JWTClaims represents session token claims
type JWTClaims struct {
	WalletAddress string `json:"wallet_address"`
	Role          string `json:"role"`
	Network       string `json:"network"`
	jwt.RegisteredClaims
}

// ValidateJWT validates a session token and returns the wallet claims
func (tv *TokenValidator) ValidateJWT(tokenString string) (*types.SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tv.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	if claims.ExpiresAt != nil && claims.ExpiresAt.Time.Before(time.Now()) {
		return nil, fmt.Errorf("token expired")
	}

	if claims.WalletAddress == "" {
		return nil, fmt.Errorf("token carries no wallet address")
	}

	return &types.SessionClaims{
		WalletAddress: claims.WalletAddress,
		Role:          types.Role(claims.Role),
		Network:       claims.Network,
	}, nil
}

// IssueToken issues a session token for a wallet address
func (tv *TokenValidator) IssueToken(claims *types.SessionClaims, ttl time.Duration) (string, error) {
	now := time.Now()

	jwtClaims := &JWTClaims{
		WalletAddress: claims.WalletAddress,
		Role:          string(claims.Role),
		Network:       claims.Network,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tv.issuer,
			Subject:   claims.WalletAddress,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims)
	signed, err := token.SignedString(tv.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}
