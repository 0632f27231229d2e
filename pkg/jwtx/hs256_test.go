package jwtx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/owsgate/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestHS256SignAndVerify(t *testing.T) {
	secret := []byte("shared-secret")
	signer, err := jwtx.NewSignerHS256(secret)
	require.NoError(t, err)
	require.Equal(t, "HS256", signer.Alg())

	now := time.Now().UTC()
	tok, err := signer.Sign(jwtx.NewReferenceClaims("ref-1", time.Hour, testIssuer, now))
	require.NoError(t, err)

	v, err := jwtx.NewVerifierHS256(secret, jwtx.VerifyOptions{Issuer: testIssuer})
	require.NoError(t, err)

	got, err := v.Verify(tok)
	require.NoError(t, err)
	require.Equal(t, "ref-1", got.Ref)
	require.Empty(t, got.Subject)

	t.Run("different secret", func(t *testing.T) {
		other, err := jwtx.NewVerifierHS256([]byte("other"), jwtx.VerifyOptions{})
		require.NoError(t, err)
		_, err = other.Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	})

	t.Run("clock past expiry", func(t *testing.T) {
		late, err := jwtx.NewVerifierHS256(secret, jwtx.VerifyOptions{
			Now: func() time.Time { return now.Add(2 * time.Hour) },
		})
		require.NoError(t, err)
		_, err = late.Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})
}

func TestHS256RejectsEmptySecret(t *testing.T) {
	_, err := jwtx.NewSignerHS256(nil)
	require.Error(t, err)
	_, err = jwtx.NewVerifierHS256([]byte{}, jwtx.VerifyOptions{})
	require.Error(t, err)
}

func TestClaimsValidateExpiry(t *testing.T) {
	now := time.Now().UTC()

	c := jwtx.NewAccessClaims("s", nil, time.Minute, testIssuer, now)
	require.NoError(t, c.ValidateExpiry(now, 0))
	require.ErrorIs(t, c.ValidateExpiry(now.Add(2*time.Minute), 0), jwtx.ErrExpired)
	require.ErrorIs(t, c.ValidateExpiry(now.Add(-time.Minute), 0), jwtx.ErrNotYetValid)
	require.NoError(t, c.ValidateExpiry(now.Add(-time.Minute), 2*time.Minute))

	require.NoError(t, c.ValidateIssuer(""))
	require.ErrorIs(t, c.ValidateIssuer("other"), jwtx.ErrIssuer)
}

func TestClaimsWithoutLifetimeOmitExp(t *testing.T) {
	now := time.Now().UTC()

	for _, c := range []jwtx.Claims{
		jwtx.NewAccessClaims("s", nil, 0, testIssuer, now),
		jwtx.NewReferenceClaims("ref", -time.Second, testIssuer, now),
	} {
		require.Nil(t, c.ExpiresAt)
		require.Nil(t, c.Expiry())
		require.NoError(t, c.ValidateExpiry(now.AddDate(5, 0, 0), 0))
	}

	c := jwtx.NewReferenceClaims("ref", time.Minute, testIssuer, now)
	require.NotNil(t, c.Expiry())
	require.WithinDuration(t, now.Add(time.Minute), *c.Expiry(), time.Second)
}
