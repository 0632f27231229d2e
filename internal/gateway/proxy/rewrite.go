package proxy

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// checkXML decodes body as XML to the end. Encodings other than UTF-8
// declared in the prolog are honoured, and UTF-16 bodies are recognised by
// their byte order mark or leading '<'.
func checkXML(body []byte) error {
	var src io.Reader = bytes.NewReader(body)

	utf16Body := false
	if order, ok := utf16Order(body); ok {
		src = transform.NewReader(src, unicode.UTF16(order, unicode.UseBOM).NewDecoder())
		utf16Body = true
	}

	dec := xml.NewDecoder(src)
	dec.CharsetReader = func(label string, in io.Reader) (io.Reader, error) {
		if utf16Body && isUTF16Label(label) {
			return in, nil
		}
		return charset.NewReaderLabel(label, in)
	}

	sawElement := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if _, ok := tok.(xml.StartElement); ok {
			sawElement = true
		}
	}
	if !sawElement {
		return errors.New("proxy: no root element")
	}
	return nil
}

// rewriteDocument replaces from with to in the encoding the document is
// written in. Nothing else in the document changes.
func rewriteDocument(body []byte, from, to string) ([]byte, error) {
	if from == "" || from == to {
		return body, nil
	}

	var enc encoding.Encoding
	if order, ok := utf16Order(body); ok {
		enc = unicode.UTF16(order, unicode.IgnoreBOM)
	} else {
		label := declaredEncoding(body)
		if label == "" || strings.EqualFold(label, "utf-8") {
			return rewriteURLs(body, from, to), nil
		}
		if enc, _ = charset.Lookup(label); enc == nil {
			return body, fmt.Errorf("proxy: unsupported document encoding %q", label)
		}
	}

	encoder := enc.NewEncoder()
	f, err := encoder.Bytes([]byte(from))
	if err != nil {
		return body, fmt.Errorf("proxy: encode backend url: %w", err)
	}
	t, err := encoder.Bytes([]byte(to))
	if err != nil {
		return body, fmt.Errorf("proxy: encode public url: %w", err)
	}
	return bytes.ReplaceAll(body, f, t), nil
}

// rewriteURLs replaces every occurrence of from with to in an
// ASCII-compatible body.
func rewriteURLs(body []byte, from, to string) []byte {
	if from == "" || from == to {
		return body
	}
	return bytes.ReplaceAll(body, []byte(from), []byte(to))
}

var prologEncoding = regexp.MustCompile(`^\s*<\?xml[^>]*?\sencoding\s*=\s*["']([A-Za-z0-9._:-]+)["']`)

// declaredEncoding returns the encoding named in the XML prolog, if any.
func declaredEncoding(body []byte) string {
	body = bytes.TrimPrefix(body, []byte("\xef\xbb\xbf"))
	if m := prologEncoding.FindSubmatch(body); m != nil {
		return string(m[1])
	}
	return ""
}

// utf16Order sniffs a UTF-16 body from its BOM or from a leading '<'
// written as two bytes.
func utf16Order(body []byte) (unicode.Endianness, bool) {
	switch {
	case bytes.HasPrefix(body, []byte{0xff, 0xfe}), bytes.HasPrefix(body, []byte{'<', 0}):
		return unicode.LittleEndian, true
	case bytes.HasPrefix(body, []byte{0xfe, 0xff}), bytes.HasPrefix(body, []byte{0, '<'}):
		return unicode.BigEndian, true
	}
	return unicode.BigEndian, false
}

func isUTF16Label(label string) bool {
	l := strings.ToLower(strings.ReplaceAll(label, "_", "-"))
	return strings.HasPrefix(l, "utf-16") || strings.HasPrefix(l, "utf16")
}
