package proxy

import (
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/owsgate/pkg/httpx"
)

// Kind classifies proxy failures. Each kind maps to one OWS exception code
// and HTTP status.
type Kind int

const (
	// KindNoApplicableCode is an unclassified internal failure.
	KindNoApplicableCode Kind = iota
	// KindForbidden means the caller may not use the service or the
	// backend answered with a forbidden content type.
	KindForbidden
	// KindFailed means the request could not be completed.
	KindFailed
)

// Code is the OWS exceptionCode for k.
func (k Kind) Code() string {
	switch k {
	case KindForbidden:
		return "AccessForbidden"
	case KindFailed:
		return "AccessFailed"
	default:
		return "NoApplicableCode"
	}
}

// Status is the HTTP status for k.
func (k Kind) Status() int {
	switch k {
	case KindForbidden:
		return http.StatusForbidden
	case KindFailed:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) String() string { return k.Code() }

// Error is a classified proxy failure. Reason is safe to show to callers;
// Err is kept for logs only.
type Error struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind.Code(), e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind.Code(), e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// Forbidden returns a KindForbidden error.
func Forbidden(reason string) *Error {
	return &Error{Kind: KindForbidden, Reason: reason}
}

// Failed returns a KindFailed error wrapping cause.
func Failed(reason string, cause error) *Error {
	return &Error{Kind: KindFailed, Reason: reason, Err: cause}
}

// NoApplicableCode returns a KindNoApplicableCode error wrapping cause.
func NoApplicableCode(reason string, cause error) *Error {
	return &Error{Kind: KindNoApplicableCode, Reason: reason, Err: cause}
}

// Classify returns err as an *Error, wrapping anything unclassified as
// NoApplicableCode.
func Classify(err error) *Error {
	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}
	return NoApplicableCode("Unhandled error: "+err.Error(), err)
}

const (
	owsNamespace      = "http://www.opengis.net/ows/1.1"
	xsiNamespace      = "http://www.w3.org/2001/XMLSchema-instance"
	owsSchemaLocation = "http://www.opengis.net/ows/1.1 http://schemas.opengis.net/ows/1.1.0/owsExceptionReport.xsd"
)

type exceptionReport struct {
	XMLName        xml.Name     `xml:"ExceptionReport"`
	Version        string       `xml:"version,attr"`
	Xmlns          string       `xml:"xmlns,attr"`
	XmlnsXSI       string       `xml:"xmlns:xsi,attr"`
	SchemaLocation string       `xml:"xsi:schemaLocation,attr"`
	Exception      owsException `xml:"Exception"`
}

type owsException struct {
	Code    string `xml:"exceptionCode,attr"`
	Locator string `xml:"locator,attr"`
	Text    string `xml:"ExceptionText"`
}

type exceptionJSON struct {
	Code        string `json:"code"`
	Locator     string `json:"locator"`
	Description string `json:"description"`
}

// marshalReport renders e as an OWS 1.1 ExceptionReport document.
func (e *Error) marshalReport() ([]byte, error) {
	body, err := xml.MarshalIndent(exceptionReport{
		Version:        "1.0.0",
		Xmlns:          owsNamespace,
		XmlnsXSI:       xsiNamespace,
		SchemaLocation: owsSchemaLocation,
		Exception: owsException{
			Code:    e.Kind.Code(),
			Locator: e.Kind.Code(),
			Text:    e.Reason,
		},
	}, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}

// WriteError renders err for r. Callers preferring JSON get a JSON body;
// everyone else gets the ExceptionReport XML.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	pe := Classify(err)

	if httpx.PrefersJSON(r) {
		httpx.WriteJSON(w, pe.Kind.Status(), exceptionJSON{
			Code:        pe.Kind.Code(),
			Locator:     pe.Kind.Code(),
			Description: pe.Reason,
		})
		return
	}

	body, mErr := pe.marshalReport()
	if mErr != nil {
		http.Error(w, pe.Reason, pe.Kind.Status())
		return
	}
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(pe.Kind.Status())
	_, _ = w.Write(body)
}
