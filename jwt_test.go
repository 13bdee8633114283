package main

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayerTokenRoundTrip(t *testing.T) {
	tok, err := signLayerToken("secret", "projects/p/maps/abc", time.Minute)
	require.NoError(t, err)

	name, err := parseLayerToken("secret", tok)
	require.NoError(t, err)
	assert.Equal(t, "projects/p/maps/abc", name)

	_, err = parseLayerToken("other", tok)
	assert.Error(t, err)
}

func TestLayerTokenExpired(t *testing.T) {
	tok, err := signLayerToken("secret", "projects/p/maps/abc", -time.Minute)
	require.NoError(t, err)
	_, err = parseLayerToken("secret", tok)
	assert.Error(t, err)
}

func TestLayerTokenRejectsForeignClaims(t *testing.T) {
	sign := func(claims jwt.MapClaims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
		require.NoError(t, err)
		return s
	}
	exp := time.Now().Add(time.Hour).Unix()

	_, err := parseLayerToken("secret", sign(jwt.MapClaims{"sub": "m", "iss": "someone-else", "exp": exp}))
	assert.Error(t, err, "issuer")
	_, err = parseLayerToken("secret", sign(jwt.MapClaims{"sub": "m", "iss": tokenIssuer}))
	assert.Error(t, err, "expiry required")
	_, err = parseLayerToken("secret", sign(jwt.MapClaims{"iss": tokenIssuer, "exp": exp}))
	assert.Error(t, err, "subject required")
}
