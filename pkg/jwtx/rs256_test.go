package jwtx_test

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/aussiebroadwan/owsgate/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const testIssuer = "owsgate"

func newRSASigner(t *testing.T, kid string) *jwtx.RS256Signer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	s, err := jwtx.NewSignerRS256(kid, key)
	require.NoError(t, err)
	return s
}

func TestRS256SignAndVerify(t *testing.T) {
	signer := newRSASigner(t, "cert-1")
	keys := jwtx.NewKeySet()
	require.NoError(t, keys.AddSigner(signer))

	now := time.Now().UTC()
	claims := jwtx.NewAccessClaims("client-1", []string{"compute", "register"}, time.Hour, testIssuer, now)
	tok, err := signer.Sign(claims)
	require.NoError(t, err)

	got, err := jwtx.NewVerifierRS256(keys, jwtx.VerifyOptions{Issuer: testIssuer}).Verify(tok)
	require.NoError(t, err)
	require.Equal(t, "client-1", got.Subject)
	require.Equal(t, []string{"compute", "register"}, got.Scopes())
	require.Equal(t, claims.ID, got.ID)
	require.True(t, got.HasAnyScope([]string{"register"}))
	require.False(t, got.HasAnyScope([]string{"admin"}))
}

func TestRS256VerifyFailures(t *testing.T) {
	signer := newRSASigner(t, "cert-1")
	keys := jwtx.NewKeySet()
	require.NoError(t, keys.AddSigner(signer))
	now := time.Now().UTC()

	sign := func(c jwtx.Claims) string {
		tok, err := signer.Sign(c)
		require.NoError(t, err)
		return tok
	}

	t.Run("wrong issuer", func(t *testing.T) {
		tok := sign(jwtx.NewAccessClaims("c", nil, time.Hour, "someone-else", now))
		_, err := jwtx.NewVerifierRS256(keys, jwtx.VerifyOptions{Issuer: testIssuer}).Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrIssuer)
	})

	t.Run("expired", func(t *testing.T) {
		tok := sign(jwtx.NewAccessClaims("c", nil, time.Minute, testIssuer, now.Add(-time.Hour)))
		_, err := jwtx.NewVerifierRS256(keys, jwtx.VerifyOptions{Issuer: testIssuer}).Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})

	t.Run("expired but inside leeway", func(t *testing.T) {
		tok := sign(jwtx.NewAccessClaims("c", nil, time.Minute, testIssuer, now.Add(-90*time.Second)))
		_, err := jwtx.NewVerifierRS256(keys, jwtx.VerifyOptions{Leeway: time.Minute}).Verify(tok)
		require.NoError(t, err)
	})

	t.Run("signed by another key", func(t *testing.T) {
		other := newRSASigner(t, "cert-1")
		tok, err := other.Sign(jwtx.NewAccessClaims("c", nil, time.Hour, testIssuer, now))
		require.NoError(t, err)
		_, err = jwtx.NewVerifierRS256(keys, jwtx.VerifyOptions{}).Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	})

	t.Run("unknown kid", func(t *testing.T) {
		other := newRSASigner(t, "cert-2")
		tok, err := other.Sign(jwtx.NewAccessClaims("c", nil, time.Hour, testIssuer, now))
		require.NoError(t, err)
		_, err = jwtx.NewVerifierRS256(keys, jwtx.VerifyOptions{}).Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrUnknownKID)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := jwtx.NewVerifierRS256(keys, jwtx.VerifyOptions{}).Verify("not.a.jwt")
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})

	t.Run("hmac token is rejected", func(t *testing.T) {
		hs, err := jwtx.NewSignerHS256([]byte("secret"))
		require.NoError(t, err)
		tok, err := hs.Sign(jwtx.NewAccessClaims("c", nil, time.Hour, testIssuer, now))
		require.NoError(t, err)
		_, err = jwtx.NewVerifierRS256(keys, jwtx.VerifyOptions{}).Verify(tok)
		require.Error(t, err)
	})
}

func TestKeySet(t *testing.T) {
	a := newRSASigner(t, "a")
	b := newRSASigner(t, "b")

	keys := jwtx.NewKeySet()
	require.NoError(t, keys.AddSigner(a))

	// A lone key answers kid-less lookups.
	_, err := keys.Lookup("")
	require.NoError(t, err)

	require.NoError(t, keys.AddSigner(b))
	_, err = keys.Lookup("")
	require.ErrorIs(t, err, jwtx.ErrNoKey)

	// Re-adding a kid replaces it instead of duplicating the JWKS entry.
	require.NoError(t, keys.AddSigner(newRSASigner(t, "a")))
	require.Equal(t, 2, keys.Len())
	require.Len(t, keys.PublicJWKS().Keys, 2)

	_, err = keys.Lookup("missing")
	require.ErrorIs(t, err, jwtx.ErrNoKey)

	require.Error(t, keys.AddJWK(jwtx.JWK{Kty: "EC"}))
}

func TestJWKPEM(t *testing.T) {
	jwk := newRSASigner(t, "k").PublicJWK()
	require.Equal(t, "RS256", jwk.Alg)
	require.Equal(t, "sig", jwk.Use)

	out, err := jwk.PEM()
	require.NoError(t, err)
	require.Contains(t, out, "-----BEGIN PUBLIC KEY-----")
}
