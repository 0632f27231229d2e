package tokens

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/owsgate/internal/gateway/domain"
	"github.com/aussiebroadwan/owsgate/internal/gateway/store"
	"github.com/aussiebroadwan/owsgate/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

// memTokens is an in-memory store.Tokens.
type memTokens struct {
	mu   sync.Mutex
	rows map[string]domain.Token
}

func newMemTokens() *memTokens {
	return &memTokens{rows: make(map[string]domain.Token)}
}

func (m *memTokens) CreateToken(_ context.Context, t domain.Token, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[hash]; ok {
		return store.ErrAlreadyExists
	}
	t.AccessToken = ""
	m.rows[hash] = t
	return nil
}

func (m *memTokens) GetTokenByAccessToken(_ context.Context, hash string) (domain.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.rows[hash]
	if !ok {
		return domain.Token{}, store.ErrNotFound
	}
	return t, nil
}

func (m *memTokens) DeleteExpiredTokens(context.Context, time.Time) (int64, error) { return 0, nil }
func (m *memTokens) DeleteTokensByClient(context.Context, string) error           { return nil }

type panicTokens struct{ *memTokens }

func (p *panicTokens) GetTokenByAccessToken(context.Context, string) (domain.Token, error) {
	panic("boom")
}

func req() Request {
	return Request{ClientID: "client-1", Scopes: []string{"compute"}}
}

func TestParseKind(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Kind{
		"random_token":   KindRandom,
		" Signed_Token ": KindSigned,
		"custom_token":   KindCustom,
	} {
		got, err := ParseKind(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := ParseKind("jwt")
	require.Error(t, err)
}

func TestRandom(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("issue then validate", func(t *testing.T) {
		repo := newMemTokens()
		s := NewRandom(repo, time.Hour)

		tok, err := s.Generate(ctx, req())
		require.NoError(t, err)
		require.Equal(t, domain.TokenTypeBearer, tok.TokenType)
		require.Len(t, tok.AccessToken, 43)
		require.NotNil(t, tok.ExpiresAt)

		_, err = repo.GetTokenByAccessToken(ctx, cryptox.FingerprintToken(tok.AccessToken))
		require.NoError(t, err, "stored under its fingerprint")

		require.True(t, s.Validate(ctx, tok.AccessToken, []string{"compute"}))
		require.True(t, s.Validate(ctx, tok.AccessToken, nil))
	})

	t.Run("expired", func(t *testing.T) {
		s := NewRandom(newMemTokens(), time.Minute)
		tok, err := s.Generate(ctx, req())
		require.NoError(t, err)

		s.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
		require.False(t, s.Validate(ctx, tok.AccessToken, []string{"compute"}))
	})

	t.Run("never expires", func(t *testing.T) {
		s := NewRandom(newMemTokens(), 0)
		tok, err := s.Generate(ctx, req())
		require.NoError(t, err)
		require.Nil(t, tok.ExpiresAt)

		s.now = func() time.Time { return time.Now().AddDate(10, 0, 0) }
		require.True(t, s.Validate(ctx, tok.AccessToken, []string{"compute"}))
	})

	t.Run("disjoint scopes", func(t *testing.T) {
		s := NewRandom(newMemTokens(), time.Hour)
		tok, err := s.Generate(ctx, req())
		require.NoError(t, err)
		require.False(t, s.Validate(ctx, tok.AccessToken, []string{"admin"}))
	})

	t.Run("unknown and empty", func(t *testing.T) {
		s := NewRandom(newMemTokens(), time.Hour)
		require.False(t, s.Validate(ctx, "nope", nil))
		require.False(t, s.Validate(ctx, "", nil))
	})

	t.Run("panic is false", func(t *testing.T) {
		s := NewRandom(&panicTokens{memTokens: newMemTokens()}, time.Hour)
		require.NotPanics(t, func() {
			require.False(t, s.Validate(ctx, "anything", nil))
		})
	})
}

// writeCert creates a matching key and self-signed certificate.
func writeCert(t *testing.T) (certPEM, keyPEM []byte) {
	t.Helper()

	keyPEM, err := cryptox.GenerateRSAKey(2048)
	require.NoError(t, err)
	certPEM, err = cryptox.SelfSignedCertificate(keyPEM, "owsgate-test", time.Hour)
	require.NoError(t, err)
	return certPEM, keyPEM
}

func TestSigned(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	certPEM, keyPEM := writeCert(t)
	s, err := NewSigned(certPEM, keyPEM, "owsgate", time.Hour)
	require.NoError(t, err)

	tok, err := s.Generate(ctx, req())
	require.NoError(t, err)

	t.Run("same key", func(t *testing.T) {
		require.True(t, s.Validate(ctx, tok.AccessToken, []string{"compute"}))
	})

	t.Run("disjoint scopes", func(t *testing.T) {
		require.False(t, s.Validate(ctx, tok.AccessToken, []string{"admin"}))
	})

	t.Run("different key", func(t *testing.T) {
		otherCert, otherKey := writeCert(t)
		other, err := NewSigned(otherCert, otherKey, "owsgate", time.Hour)
		require.NoError(t, err)
		require.False(t, other.Validate(ctx, tok.AccessToken, []string{"compute"}))
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other, err := NewSigned(certPEM, keyPEM, "someone-else", time.Hour)
		require.NoError(t, err)
		require.False(t, other.Validate(ctx, tok.AccessToken, []string{"compute"}))
	})

	t.Run("expired", func(t *testing.T) {
		later, err := NewSigned(certPEM, keyPEM, "owsgate", time.Hour)
		require.NoError(t, err)
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		require.False(t, later.Validate(ctx, tok.AccessToken, []string{"compute"}))
	})

	t.Run("garbage", func(t *testing.T) {
		require.False(t, s.Validate(ctx, "not.a.jwt", nil))
	})

	t.Run("never expires", func(t *testing.T) {
		forever, err := NewSigned(certPEM, keyPEM, "owsgate", 0)
		require.NoError(t, err)
		tok, err := forever.Generate(ctx, req())
		require.NoError(t, err)
		require.Nil(t, tok.ExpiresAt)
		require.Zero(t, tok.ExpiresIn(time.Now()))

		forever.now = func() time.Time { return time.Now().AddDate(10, 0, 0) }
		require.True(t, forever.Validate(ctx, tok.AccessToken, []string{"compute"}))
	})

	t.Run("publishes its key", func(t *testing.T) {
		jwks := s.PublicJWKS()
		require.Len(t, jwks.Keys, 1)
		require.Equal(t, "RS256", jwks.Keys[0].Alg)
		require.Len(t, jwks.Keys[0].Kid, 64)
	})

	t.Run("mismatched key and certificate", func(t *testing.T) {
		_, otherKey := writeCert(t)
		_, err := NewSigned(certPEM, otherKey, "owsgate", time.Hour)
		require.Error(t, err)
	})
}

func TestSignedFromFiles(t *testing.T) {
	t.Parallel()

	certPEM, keyPEM := writeCert(t)
	dir := t.TempDir()
	certFile := filepath.Join(dir, "cert.pem")
	keyFile := filepath.Join(dir, "key.pem")
	require.NoError(t, os.WriteFile(certFile, certPEM, 0o600))
	require.NoError(t, os.WriteFile(keyFile, keyPEM, 0o600))

	s, err := New(Config{Kind: KindSigned, CertFile: certFile, KeyFile: keyFile, Issuer: "owsgate", ExpiresIn: time.Hour})
	require.NoError(t, err)
	require.Equal(t, KindSigned, s.Kind())

	_, err = New(Config{Kind: KindSigned, CertFile: filepath.Join(dir, "missing"), KeyFile: keyFile})
	require.Error(t, err)
}

func TestCustom(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s, err := NewCustom([]byte("shared-secret"), "owsgate", time.Hour)
	require.NoError(t, err)

	tok, err := s.Generate(ctx, req())
	require.NoError(t, err)

	t.Run("same key", func(t *testing.T) {
		require.True(t, s.Validate(ctx, tok.AccessToken, []string{"compute"}))
	})

	t.Run("different key", func(t *testing.T) {
		other, err := NewCustom([]byte("other-secret"), "owsgate", time.Hour)
		require.NoError(t, err)
		require.False(t, other.Validate(ctx, tok.AccessToken, nil))
	})

	t.Run("expired does not panic", func(t *testing.T) {
		later, err := NewCustom([]byte("shared-secret"), "owsgate", time.Hour)
		require.NoError(t, err)
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		require.NotPanics(t, func() {
			require.False(t, later.Validate(ctx, tok.AccessToken, nil))
		})
	})

	t.Run("never expires", func(t *testing.T) {
		forever, err := NewCustom([]byte("shared-secret"), "owsgate", 0)
		require.NoError(t, err)
		tok, err := forever.Generate(ctx, req())
		require.NoError(t, err)
		require.Nil(t, tok.ExpiresAt)
		require.Zero(t, tok.ExpiresIn(time.Now()))

		forever.now = func() time.Time { return time.Now().AddDate(10, 0, 0) }
		require.True(t, forever.Validate(ctx, tok.AccessToken, nil))
	})

	t.Run("empty secret", func(t *testing.T) {
		_, err := NewCustom(nil, "owsgate", time.Hour)
		require.Error(t, err)
	})
}

func TestNew(t *testing.T) {
	t.Parallel()

	s, err := New(Config{Kind: KindRandom, Tokens: newMemTokens(), ExpiresIn: time.Hour})
	require.NoError(t, err)
	require.Equal(t, KindRandom, s.Kind())

	_, err = New(Config{Kind: KindRandom})
	require.Error(t, err)

	s, err = New(Config{Kind: KindCustom, Secret: "x", Issuer: "owsgate", ExpiresIn: time.Hour})
	require.NoError(t, err)
	require.Equal(t, KindCustom, s.Kind())
	require.Empty(t, PublicJWKS(s).Keys)

	_, err = New(Config{Kind: "bogus"})
	require.Error(t, err)
}
