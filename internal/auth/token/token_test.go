package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndValidate(t *testing.T) {
	mgr := NewManager("test-secret", 30*24*time.Hour)

	signed, err := mgr.Issue("donor-123", time.Now())
	require.NoError(t, err)

	claims, err := mgr.ValidateToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "donor-123", claims.DonorID)
	assert.NotEmpty(t, claims.JTI)
}

func TestValidateRejectsExpired(t *testing.T) {
	mgr := NewManager("test-secret", time.Hour)

	signed, err := mgr.Issue("donor-123", time.Now().Add(-2*time.Hour))
	require.NoError(t, err)

	_, err = mgr.ValidateToken(signed)
	require.Error(t, err)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	signed, err := NewManager("secret-a", time.Hour).Issue("donor-123", time.Now())
	require.NoError(t, err)

	_, err = NewManager("secret-b", time.Hour).ValidateToken(signed)
	require.Error(t, err)
}

func TestValidateRejectsNoneAlgorithm(t *testing.T) {
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject: "donor-123",
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewManager("test-secret", time.Hour).ValidateToken(unsigned)
	require.Error(t, err)
}

func TestValidateRejectsGarbage(t *testing.T) {
	_, err := NewManager("test-secret", time.Hour).ValidateToken("not-a-token")
	require.Error(t, err)
}
