package proxy

import (
	"mime"
	"strings"
)

// allowedContentTypes are the base media types a buffered backend may
// return.
var allowedContentTypes = map[string]struct{}{
	"application/xml":                      {},
	"text/xml":                             {},
	"application/vnd.ogc.se_xml":           {},
	"application/vnd.ogc.se+xml":           {},
	"application/vnd.ogc.wms_xml":          {},
	"application/vnd.google-earth.kml+xml": {},
	"application/vnd.google-earth.kmz":     {},
	"image/png":                            {},
	"image/gif":                            {},
	"image/jpeg":                           {},
	"application/json":                     {},
}

// baseMediaType lower-cases ct and strips its parameters.
func baseMediaType(ct string) string {
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		return mt
	}
	base, _, _ := strings.Cut(ct, ";")
	return strings.ToLower(strings.TrimSpace(base))
}

// contentTypeAllowed reports whether the base type of ct is on the
// allow-list.
func contentTypeAllowed(ct string) bool {
	_, ok := allowedContentTypes[baseMediaType(ct)]
	return ok
}

// isRewritable reports whether bodies of this type get URL rewriting.
func isRewritable(ct string) bool {
	switch baseMediaType(ct) {
	case "text/xml", "application/xml":
		return true
	}
	return false
}
