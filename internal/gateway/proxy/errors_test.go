package proxy

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err    *Error
		code   string
		status int
	}{
		{Forbidden("no"), "AccessForbidden", http.StatusForbidden},
		{Failed("broken", nil), "AccessFailed", http.StatusBadRequest},
		{NoApplicableCode("boom", nil), "NoApplicableCode", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			require.Equal(t, tt.code, tt.err.Kind.Code())
			require.Equal(t, tt.status, tt.err.Kind.Status())
		})
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	f := Failed("x", nil)
	require.Same(t, f, Classify(f))

	wrapped := Classify(errors.Join(errors.New("outer"), f))
	require.Equal(t, KindFailed, wrapped.Kind)

	raw := errors.New("dial tcp: refused")
	pe := Classify(raw)
	require.Equal(t, KindNoApplicableCode, pe.Kind)
	require.Equal(t, "Unhandled error: dial tcp: refused", pe.Reason)
	require.ErrorIs(t, pe, raw)
}

func TestWriteErrorXML(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteError(rec, httptest.NewRequest(http.MethodGet, "/", nil), Forbidden("Access to service is forbidden."))

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "text/xml; charset=utf-8", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Body.String(), `<?xml version="1.0" encoding="UTF-8"?>`)
	require.Contains(t, rec.Body.String(), `xmlns="http://www.opengis.net/ows/1.1"`)

	var report struct {
		Version   string `xml:"version,attr"`
		Exception struct {
			Code    string `xml:"exceptionCode,attr"`
			Locator string `xml:"locator,attr"`
			Text    string `xml:"ExceptionText"`
		} `xml:"Exception"`
	}
	require.NoError(t, xml.Unmarshal(rec.Body.Bytes(), &report))
	require.Equal(t, "1.0.0", report.Version)
	require.Equal(t, "AccessForbidden", report.Exception.Code)
	require.Equal(t, "Access to service is forbidden.", report.Exception.Text)
}

func TestWriteErrorJSON(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	WriteError(rec, req, errors.New("kaput"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "NoApplicableCode", body["code"])
	require.Equal(t, "Unhandled error: kaput", body["description"])
}

func TestWriteErrorEscapesReason(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteError(rec, httptest.NewRequest(http.MethodGet, "/", nil), Failed("Could not find service: <x&y>", nil))

	require.Contains(t, rec.Body.String(), "Could not find service: &lt;x&amp;y&gt;")
}
