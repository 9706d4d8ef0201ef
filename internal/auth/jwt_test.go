package auth_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldsuite/fieldops/internal/access"
	"github.com/fieldsuite/fieldops/internal/auth"
)

func TestTokenRoundTrip(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()
	userID := uuid.New()

	token, err := auth.IssueAccessToken("test-secret", tenantID, userID, access.RoleManager, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := auth.ValidateToken("test-secret", token)
	require.NoError(t, err)
	assert.Equal(t, tenantID.String(), claims.TenantID)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "manager", claims.Role)
	assert.Equal(t, "access", claims.TokenType)
	assert.Equal(t, "fieldops", claims.Issuer)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	t.Parallel()

	token, err := auth.IssueAccessToken("secret-a", uuid.New(), uuid.New(), access.RoleOwner, time.Hour)
	require.NoError(t, err)

	_, err = auth.ValidateToken("secret-b", token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestValidateTokenExpired(t *testing.T) {
	t.Parallel()

	token, err := auth.IssueAccessToken("test-secret", uuid.New(), uuid.New(), access.RoleOwner, -time.Minute)
	require.NoError(t, err)

	_, err = auth.ValidateToken("test-secret", token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestValidateTokenGarbage(t *testing.T) {
	t.Parallel()

	_, err := auth.ValidateToken("test-secret", "not.a.jwt")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestRefreshTokenType(t *testing.T) {
	t.Parallel()

	token, err := auth.IssueRefreshToken("test-secret", uuid.New(), uuid.New(), access.RoleClient, time.Hour)
	require.NoError(t, err)

	claims, err := auth.ValidateToken("test-secret", token)
	require.NoError(t, err)
	assert.Equal(t, "refresh", claims.TokenType)
}
