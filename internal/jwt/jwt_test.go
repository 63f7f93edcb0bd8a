package jwt

import (
	"path/filepath"
	"testing"
	"time"

	jwtgo "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func loadTestKeys() {
	publicKey = loadPublicKey(filepath.Join("testdata", "public.pem"))
	privateKey = loadPrivateKey(filepath.Join("testdata", "private.key"))
}

func signClaims(t *testing.T, claims jwtgo.RegisteredClaims) string {
	t.Helper()

	token := jwtgo.NewWithClaims(jwtgo.SigningMethodRS256, claims)
	signedToken, err := token.SignedString(privateKey)
	assert.NoError(t, err)
	return signedToken
}

func TestSignAndValidUsername(t *testing.T) {
	loadTestKeys()

	sign, err := Sign("alice")
	assert.NoError(t, err)

	username, err := ValidUsername(sign)
	assert.NoError(t, err)
	assert.Equal(t, "alice", username)
}

func TestValidUsername_invalidAudience(t *testing.T) {
	loadTestKeys()

	signedToken := signClaims(t, jwtgo.RegisteredClaims{
		Audience: jwtgo.ClaimStrings{"different-audience"},
		ID:       uuid.New().String(),
		IssuedAt: jwtgo.NewNumericDate(time.Now()),
		Issuer:   Issuer,
		Subject:  "alice",
	})

	username, err := ValidUsername(signedToken)
	assert.EqualError(t, err, "invalid audience")
	assert.Equal(t, "", username)
}

func TestValidUsername_invalidIssuer(t *testing.T) {
	loadTestKeys()

	signedToken := signClaims(t, jwtgo.RegisteredClaims{
		Audience: jwtgo.ClaimStrings{Audience},
		ID:       uuid.New().String(),
		IssuedAt: jwtgo.NewNumericDate(time.Now()),
		Issuer:   "invalid-issuer",
		Subject:  "alice",
	})

	username, err := ValidUsername(signedToken)
	assert.EqualError(t, err, "invalid issuer")
	assert.Equal(t, "", username)
}

func TestValidUsername_missingSubject(t *testing.T) {
	loadTestKeys()

	signedToken := signClaims(t, jwtgo.RegisteredClaims{
		Audience: jwtgo.ClaimStrings{Audience},
		ID:       uuid.New().String(),
		IssuedAt: jwtgo.NewNumericDate(time.Now()),
		Issuer:   Issuer,
	})

	username, err := ValidUsername(signedToken)
	assert.EqualError(t, err, "missing subject")
	assert.Equal(t, "", username)
}

func TestValidUsername_expired(t *testing.T) {
	loadTestKeys()

	signedToken := signClaims(t, jwtgo.RegisteredClaims{
		Audience:  jwtgo.ClaimStrings{Audience},
		ID:        uuid.New().String(),
		IssuedAt:  jwtgo.NewNumericDate(time.Now()),
		ExpiresAt: jwtgo.NewNumericDate(time.Now().Add(time.Hour * -1)),
		Issuer:    Issuer,
		Subject:   "alice",
	})

	username, err := ValidUsername(signedToken)
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "token is expired")
	}
	assert.Equal(t, "", username)
}

func TestValidUsername_garbage(t *testing.T) {
	loadTestKeys()

	username, err := ValidUsername("not-a-token")
	assert.Error(t, err)
	assert.Equal(t, "", username)
}
