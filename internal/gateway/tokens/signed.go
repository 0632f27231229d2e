package tokens

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/aussiebroadwan/owsgate/internal/gateway/domain"
	"github.com/aussiebroadwan/owsgate/pkg/cryptox"
	"github.com/aussiebroadwan/owsgate/pkg/idx"
	"github.com/aussiebroadwan/owsgate/pkg/jwtx"
)

// Signed issues RS256 JWTs signed with the private key of an X.509
// certificate. Tokens are verified with the certificate's public key and
// are never stored.
type Signed struct {
	issuer string
	ttl    time.Duration
	signer *jwtx.RS256Signer
	keys   *jwtx.KeySet
	now    func() time.Time
}

// NewSignedFromFiles reads PEM encoded certificate and key files.
func NewSignedFromFiles(certFile, keyFile, issuer string, ttl time.Duration) (*Signed, error) {
	certPEM, err := os.ReadFile(certFile)
	if err != nil {
		return nil, fmt.Errorf("tokens: read certificate: %w", err)
	}
	keyPEM, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("tokens: read private key: %w", err)
	}
	return NewSigned(certPEM, keyPEM, issuer, ttl)
}

// NewSigned builds the strategy from PEM bytes. The key must belong to the
// certificate. The kid is the certificate's SHA-256 fingerprint.
func NewSigned(certPEM, keyPEM []byte, issuer string, ttl time.Duration) (*Signed, error) {
	cert, err := cryptox.ParseCertificate(certPEM)
	if err != nil {
		return nil, fmt.Errorf("tokens: %w", err)
	}
	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("tokens: certificate does not carry an RSA public key")
	}

	key, err := cryptox.ParseRSAPrivateKey(keyPEM)
	if err != nil {
		return nil, fmt.Errorf("tokens: %w", err)
	}
	if !key.PublicKey.Equal(pub) {
		return nil, errors.New("tokens: private key does not match certificate")
	}

	kid := cryptox.FingerprintDER(cert.Raw)
	signer, err := jwtx.NewSignerRS256(kid, key)
	if err != nil {
		return nil, fmt.Errorf("tokens: %w", err)
	}

	keys := jwtx.NewKeySet()
	if err := keys.AddRSA(kid, pub); err != nil {
		return nil, fmt.Errorf("tokens: %w", err)
	}

	return &Signed{
		issuer: issuer,
		ttl:    ttl,
		signer: signer,
		keys:   keys,
		now:    time.Now,
	}, nil
}

func (s *Signed) Kind() Kind { return KindSigned }

func (s *Signed) Generate(_ context.Context, req Request) (*domain.Token, error) {
	now := s.now().UTC()
	claims := jwtx.NewAccessClaims(req.ClientID, req.Scopes, s.ttl, s.issuer, now)

	raw, err := s.signer.Sign(claims)
	if err != nil {
		return nil, fmt.Errorf("tokens: sign: %w", err)
	}

	return &domain.Token{
		ID:          idx.NewAt(now).String(),
		ClientID:    req.ClientID,
		TokenType:   domain.TokenTypeBearer,
		AccessToken: raw,
		ExpiresAt:   claims.Expiry(),
		Scopes:      req.Scopes,
		CreatedAt:   now,
	}, nil
}

func (s *Signed) Validate(ctx context.Context, token string, scopes []string) bool {
	return safeValidate(ctx, KindSigned, func() bool {
		verifier := jwtx.NewVerifierRS256(s.keys, jwtx.VerifyOptions{Issuer: s.issuer, Now: s.now})
		claims, err := verifier.Verify(token)
		if err != nil {
			return rejected(ctx, KindSigned, "verification failed", err)
		}
		if !claims.HasAnyScope(scopes) {
			return rejected(ctx, KindSigned, "scope mismatch", nil)
		}
		return true
	})
}

// PublicJWKS returns the verification key for publishing.
func (s *Signed) PublicJWKS() jwtx.JWKS {
	return s.keys.PublicJWKS()
}

var _ Strategy = (*Signed)(nil)
