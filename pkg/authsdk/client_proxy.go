package authsdk

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Proxy issues a GET through the gateway to the named service. The caller
// owns the returned body. A non-2xx answer is returned as an error.
func (c *SDKClient) Proxy(ctx context.Context, accessToken, service, extraPath, rawQuery string) (*http.Response, error) {
	path := strings.TrimSuffix(c.ProtectedPath, "/") + "/proxy/" + url.PathEscape(service)
	if extraPath != "" {
		path += "/" + strings.TrimPrefix(extraPath, "/")
	}
	if rawQuery != "" {
		path += "?" + rawQuery
	}

	resp, err := c.do(ctx, http.MethodGet, path, nil, withBearer(accessToken))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		return nil, parseErrorResponse(resp, b)
	}
	return resp, nil
}
