package httpx

import "context"

type ctxKey string

const (
	// CtxKeyPrincipal holds the authenticated admin user name.
	CtxKeyPrincipal ctxKey = "principal"
)

// PrincipalFromContext returns the user set by BasicAuth, if any.
func PrincipalFromContext(ctx context.Context) string {
	p, _ := ctx.Value(CtxKeyPrincipal).(string)
	return p
}
