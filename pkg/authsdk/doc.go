/*
Package authsdk is a Go client for the owsgate security gateway.

It covers the OAuth2 client-credentials token endpoint, client registration,
the service administration API, health checks and calls through the proxy.
The error and response types are shared with the server so both sides agree
on the wire format.

	client := authsdk.NewSDKClient("https://gateway.example.com")

	reg, err := client.RegisterClient(ctx, "admin", "s3cret", authsdk.RegisterClientRequest{
		Name:        "my-app",
		RedirectURI: "https://my-app.example.com/callback",
	})

	tok, err := client.ClientCredentialsGrant(ctx, reg.ClientID, reg.ClientSecret, []string{"compute"})

	resp, err := client.Proxy(ctx, tok.AccessToken, "emu", "", "service=WPS&request=GetCapabilities")

Errors returned by the gateway's JSON endpoints are *OAuth2Error values.
Errors from the proxy are OGC exception reports and are returned as
*OWSException.
*/
package authsdk
