package http

import (
	"net/http"

	"github.com/aussiebroadwan/owsgate/internal/gateway/tokens"
	"github.com/aussiebroadwan/owsgate/pkg/authsdk"
	"github.com/aussiebroadwan/owsgate/pkg/httpx"
)

// JWKSHandler exposes the keys that verify signed tokens. Strategies
// without public keys publish an empty set.
//
//	@Summary		Get JWKS
//	@Description	Returns the JSON Web Key Set used to verify signed_token access tokens.
//	@Tags			well-known
//	@Produce		json
//	@Success		200	{object}	authsdk.JWKSResponse	"The JSON Web Key Set"
//	@Router			/.well-known/jwks.json [get].
func JWKSHandler(strategy tokens.Strategy) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, authsdk.JWKSResponse(tokens.PublicJWKS(strategy)))
	}
}
