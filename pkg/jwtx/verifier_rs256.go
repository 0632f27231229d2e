package jwtx

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// RS256Verifier validates RS256 tokens against the keys of a KeySet.
type RS256Verifier struct {
	keys *KeySet
	opts VerifyOptions
}

func NewVerifierRS256(keys *KeySet, opts VerifyOptions) *RS256Verifier {
	return &RS256Verifier{keys: keys, opts: opts}
}

func (v *RS256Verifier) Verify(tokenStr string) (*Claims, error) {
	return parse(tokenStr, jwt.SigningMethodRS256.Alg(), v.opts, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)

		// Tokens from a single-certificate issuer may omit kid.
		pub, err := v.keys.Lookup(kid)
		if err != nil {
			return nil, fmt.Errorf("%w %q", ErrUnknownKID, kid)
		}
		return pub, nil
	})
}

var _ Verifier = (*RS256Verifier)(nil)

