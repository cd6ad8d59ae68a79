package tokens

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func TestSignAndParse(t *testing.T) {
	tok, err := Sign("3f1c", "admin", time.Minute, secret)
	require.NoError(t, err)

	claims, err := AccessClaimsFromToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, "3f1c", claims.Subject)
	assert.Equal(t, "admin", claims.Role)
}

func TestParse_Rejects(t *testing.T) {
	expired, err := Sign("u", "user", -time.Minute, secret)
	require.NoError(t, err)
	_, err = AccessClaimsFromToken(expired, secret)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	other, err := Sign("u", "user", time.Minute, []byte("other"))
	require.NoError(t, err)
	_, err = AccessClaimsFromToken(other, secret)
	assert.Error(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodHS512, AccessClaims{Role: "admin"})
	s, err := none.SignedString(secret)
	require.NoError(t, err)
	_, err = AccessClaimsFromToken(s, secret)
	assert.Error(t, err)
}
