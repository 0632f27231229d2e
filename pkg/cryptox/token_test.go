package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	seen := make(map[string]struct{})
	for range 100 {
		tok, err := GenerateToken(TokenSize256)
		require.NoError(t, err)
		require.Len(t, tok, 43)
		require.NotContains(t, seen, tok)
		seen[tok] = struct{}{}
	}

	short, err := GenerateToken(TokenSize128)
	require.NoError(t, err)
	require.Len(t, short, 22)
}

func TestGenerateTokenRejectsNonPositiveSize(t *testing.T) {
	for _, n := range []int{0, -1} {
		tok, err := GenerateToken(n)
		require.Error(t, err)
		require.Empty(t, tok)
	}
}

func TestFingerprints(t *testing.T) {
	require.Equal(t, FingerprintToken("a"), FingerprintToken("a"))
	require.NotEqual(t, FingerprintToken("a"), FingerprintToken("b"))
	require.Len(t, FingerprintToken("a"), 43)

	require.Len(t, FingerprintDER([]byte{1, 2, 3}), 64)
}
