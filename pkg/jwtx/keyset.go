package jwtx

import (
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"math/big"
	"sync"
)

var ErrNoKey = errors.New("jwtx: key not found")

// KeySet holds RSA verification keys by kid and the JWKS that publishes them.
// It is safe for concurrent use.
type KeySet struct {
	mu   sync.RWMutex
	jwks JWKS
	pub  map[string]*rsa.PublicKey
}

func NewKeySet() *KeySet {
	return &KeySet{pub: make(map[string]*rsa.PublicKey)}
}

// AddSigner registers the public half of s.
func (k *KeySet) AddSigner(s *RS256Signer) error {
	return k.AddJWK(s.PublicJWK())
}

// AddRSA registers pub under kid.
func (k *KeySet) AddRSA(kid string, pub *rsa.PublicKey) error {
	return k.AddJWK(NewRSAJWK(kid, "sig", "RS256", pub))
}

// AddJWK parses j and adds it. Re-adding a kid replaces the key.
func (k *KeySet) AddJWK(j JWK) error {
	pub, err := j.rsaPublicKey()
	if err != nil {
		return err
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if _, exists := k.pub[j.Kid]; exists {
		keys := k.jwks.Keys[:0]
		for _, existing := range k.jwks.Keys {
			if existing.Kid != j.Kid {
				keys = append(keys, existing)
			}
		}
		k.jwks.Keys = keys
	}
	k.pub[j.Kid] = pub
	k.jwks.Keys = append(k.jwks.Keys, j)
	return nil
}

// Lookup returns the key for kid. An empty kid resolves only when the set
// holds exactly one key.
func (k *KeySet) Lookup(kid string) (*rsa.PublicKey, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	if kid == "" {
		if len(k.pub) != 1 {
			return nil, ErrNoKey
		}
		for _, pub := range k.pub {
			return pub, nil
		}
	}

	if pub, ok := k.pub[kid]; ok {
		return pub, nil
	}
	return nil, ErrNoKey
}

// PublicJWKS returns a copy of the published key set.
func (k *KeySet) PublicJWKS() JWKS {
	k.mu.RLock()
	defer k.mu.RUnlock()

	out := JWKS{Keys: make([]JWK, len(k.jwks.Keys))}
	copy(out.Keys, k.jwks.Keys)
	return out
}

// Len is the number of keys held.
func (k *KeySet) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.pub)
}

func (j JWK) rsaPublicKey() (*rsa.PublicKey, error) {
	if j.Kty != "RSA" {
		return nil, errors.New("jwtx: unsupported kty " + j.Kty)
	}
	nb, err := base64.RawURLEncoding.DecodeString(j.N)
	if err != nil {
		return nil, err
	}
	eb, err := base64.RawURLEncoding.DecodeString(j.E)
	if err != nil {
		return nil, err
	}
	if len(nb) == 0 || len(eb) == 0 {
		return nil, errors.New("jwtx: empty RSA modulus or exponent")
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nb),
		E: int(new(big.Int).SetBytes(eb).Int64()),
	}, nil
}
