package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emrecanguldogan/HealthChain/pkg/types"
)

func TestIssueAndValidateToken(t *testing.T) {
	tv := NewTokenValidator("test-secret", "healthchain-test")

	token, err := tv.IssueToken(&types.SessionClaims{
		WalletAddress: "ST2CY5V39NHDPWSXMW9QDT3HC3GD6Q6XX4CFRK9AG",
		Role:          types.RolePatient,
		Network:       "testnet",
	}, time.Hour)
	require.NoError(t, err)

	claims, err := tv.ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "ST2CY5V39NHDPWSXMW9QDT3HC3GD6Q6XX4CFRK9AG", claims.WalletAddress)
	assert.Equal(t, types.RolePatient, claims.Role)
	assert.Equal(t, "testnet", claims.Network)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenValidator("secret-a", "healthchain-test")
	validator := NewTokenValidator("secret-b", "healthchain-test")

	token, err := issuer.IssueToken(&types.SessionClaims{WalletAddress: "ST1"}, time.Hour)
	require.NoError(t, err)

	_, err = validator.ValidateJWT(token)
	assert.Error(t, err)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	tv := NewTokenValidator("test-secret", "healthchain-test")

	token, err := tv.IssueToken(&types.SessionClaims{WalletAddress: "ST1"}, -time.Minute)
	require.NoError(t, err)

	_, err = tv.ValidateJWT(token)
	assert.Error(t, err)
}

func TestValidateRejectsTokenWithoutWallet(t *testing.T) {
	tv := NewTokenValidator("test-secret", "healthchain-test")

	token, err := tv.IssueToken(&types.SessionClaims{}, time.Hour)
	require.NoError(t, err)

	_, err = tv.ValidateJWT(token)
	assert.Error(t, err)
}

func TestValidateRejectsGarbage(t *testing.T) {
	tv := NewTokenValidator("test-secret", "healthchain-test")

	_, err := tv.ValidateJWT("not.a.token")
	assert.Error(t, err)
}
