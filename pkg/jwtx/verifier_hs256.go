package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// HS256Verifier validates tokens signed with a shared secret.
type HS256Verifier struct {
	secret []byte
	opts   VerifyOptions
}

func NewVerifierHS256(secret []byte, opts VerifyOptions) (*HS256Verifier, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwtx: empty HMAC secret")
	}
	return &HS256Verifier{secret: secret, opts: opts}, nil
}

func (v *HS256Verifier) Verify(tokenStr string) (*Claims, error) {
	return parse(tokenStr, jwt.SigningMethodHS256.Alg(), v.opts, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
}

var _ Verifier = (*HS256Verifier)(nil)
