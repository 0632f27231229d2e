package authsdk

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/owsgate/pkg/httpx"
)

// OAuth2 error codes (RFC 6749 section 5.2) plus the admin API codes.
const (
	ErrorCodeInvalidRequest       = "invalid_request"
	ErrorCodeInvalidClient        = "invalid_client"
	ErrorCodeInvalidGrant         = "invalid_grant"
	ErrorCodeUnsupportedGrantType = "unsupported_grant_type"
	ErrorCodeInvalidScope         = "invalid_scope"
	ErrorCodeServerError          = "server_error"
	ErrorCodeNotFound             = "not_found"
	ErrorCodeConflict             = "conflict"
)

// OAuth2Error is an RFC 6749 error body. Handlers write it with WriteError
// and the SDK decodes failed responses into it.
type OAuth2Error struct {
	StatusCode  int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *OAuth2Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes e as a non-cacheable JSON response. invalid_client on
// 401 carries a Basic challenge as RFC 6749 requires.
func (e *OAuth2Error) WriteError(w http.ResponseWriter) {
	if e.StatusCode == http.StatusUnauthorized && e.Code == ErrorCodeInvalidClient {
		w.Header().Set("WWW-Authenticate", `Basic realm="owsgate"`)
	}
	httpx.WriteJSON(w, e.StatusCode, ErrorResponse{Error: e.Code, ErrorDescription: e.Description})
}

// WithDescription returns a copy of e with a different description.
func (e *OAuth2Error) WithDescription(desc string) *OAuth2Error {
	c := *e
	c.Description = desc
	return &c
}

var (
	ErrInvalidRequest = &OAuth2Error{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request is malformed or missing required parameters",
	}
	ErrInvalidClient = &OAuth2Error{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidClient,
		Description: "client authentication failed",
	}
	ErrUnsupportedGrantType = &OAuth2Error{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeUnsupportedGrantType,
		Description: "only the client_credentials grant is supported",
	}
	ErrInvalidScope = &OAuth2Error{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidScope,
		Description: "requested scope exceeds the scope granted to the client",
	}
	ErrServerError = &OAuth2Error{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}
	ErrInvalidContentType = &OAuth2Error{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "content-type must be application/x-www-form-urlencoded",
	}
	ErrInvalidFormBody = &OAuth2Error{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "invalid form body",
	}
	ErrInvalidJSONBody = &OAuth2Error{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "invalid JSON body",
	}
	ErrNotFound = &OAuth2Error{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeNotFound,
		Description: "resource not found",
	}
	ErrConflict = &OAuth2Error{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeConflict,
		Description: "resource already exists",
	}
)

// OWSException is an OGC exception report returned by the proxy.
type OWSException struct {
	StatusCode int
	Code       string
	Locator    string
	Text       string
}

func (e *OWSException) Error() string {
	return fmt.Sprintf("ows %s (%d): %s", e.Code, e.StatusCode, e.Text)
}

type exceptionReport struct {
	XMLName    xml.Name `xml:"ExceptionReport"`
	Exceptions []struct {
		Code    string `xml:"exceptionCode,attr"`
		Locator string `xml:"locator,attr"`
		Text    string `xml:"ExceptionText"`
	} `xml:"Exception"`
}

// parseErrorResponse turns a failed response into a typed error. OAuth2
// JSON bodies become *OAuth2Error and OWS exception reports *OWSException.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &OAuth2Error{
			StatusCode:  resp.StatusCode,
			Code:        errResp.Error,
			Description: errResp.ErrorDescription,
		}
	}

	var owsJSON OWSExceptionJSON
	if err := json.Unmarshal(body, &owsJSON); err == nil && owsJSON.Code != "" {
		return &OWSException{
			StatusCode: resp.StatusCode,
			Code:       owsJSON.Code,
			Locator:    owsJSON.Locator,
			Text:       owsJSON.Description,
		}
	}

	var report exceptionReport
	if err := xml.Unmarshal(body, &report); err == nil && len(report.Exceptions) > 0 {
		ex := report.Exceptions[0]
		return &OWSException{
			StatusCode: resp.StatusCode,
			Code:       ex.Code,
			Locator:    ex.Locator,
			Text:       ex.Text,
		}
	}

	return &OAuth2Error{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
