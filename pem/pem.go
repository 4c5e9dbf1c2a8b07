// Package pem reads and writes the strict PEM framing used for key files:
// one BEGIN/END pair, an optional header block, and a base64 body wrapped at 64 columns.
package pem

import (
	"bytes"
	"encoding/base64"
	"strings"

	"github.com/aacfactory/afkey/keyerrors"
)

const (
	lineLength  = 64
	beginPrefix = "-----BEGIN "
	endPrefix   = "-----END "
	boundary    = "-----"
)

type Header struct {
	Key   string
	Value string
}

type Document struct {
	Type    string
	Headers []Header
	Bytes   []byte
}

func (doc *Document) Header(key string) (value string, has bool) {
	for _, header := range doc.Headers {
		if header.Key == key {
			value = header.Value
			has = true
			return
		}
	}
	return
}

func Decode(text []byte) (doc *Document, err error) {
	lines := splitLines(text)
	if len(lines) < 2 {
		err = keyerrors.New(keyerrors.PemFormatKind, "pem: missing BEGIN or END line")
		return
	}
	label, labelErr := parseBoundary(lines[0], beginPrefix)
	if labelErr != nil {
		err = labelErr
		return
	}
	endLabel, endErr := parseBoundary(lines[len(lines)-1], endPrefix)
	if endErr != nil {
		err = endErr
		return
	}
	if endLabel != label {
		err = keyerrors.New(keyerrors.PemFormatKind, "pem: END label %q does not match BEGIN label %q", endLabel, label)
		return
	}
	inner := lines[1 : len(lines)-1]
	headers, body, headersErr := parseHeaders(inner)
	if headersErr != nil {
		err = headersErr
		return
	}
	if len(body) == 0 {
		err = keyerrors.New(keyerrors.PemFormatKind, "pem: empty body")
		return
	}
	var encoded strings.Builder
	for i, line := range body {
		last := i == len(body)-1
		if !last && len(line) != lineLength {
			err = keyerrors.New(keyerrors.PemFormatKind, "pem: body line %d has %d characters, want %d", i+1, len(line), lineLength)
			return
		}
		if last && (len(line) == 0 || len(line) > lineLength) {
			err = keyerrors.New(keyerrors.PemFormatKind, "pem: final body line has %d characters, want 1 to %d", len(line), lineLength)
			return
		}
		encoded.WriteString(line)
	}
	der, decodeErr := base64.StdEncoding.Strict().DecodeString(encoded.String())
	if decodeErr != nil {
		err = keyerrors.Wrap(keyerrors.PemFormatKind, decodeErr, "pem: invalid base64 body")
		return
	}
	doc = &Document{
		Type:    label,
		Headers: headers,
		Bytes:   der,
	}
	return
}

// Encode writes doc with the same framing Decode accepts.
func Encode(doc *Document) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, base64.StdEncoding.EncodedLen(len(doc.Bytes))+128))
	buf.WriteString(beginPrefix)
	buf.WriteString(doc.Type)
	buf.WriteString(boundary)
	buf.WriteByte('\n')
	if len(doc.Headers) > 0 {
		for _, header := range doc.Headers {
			buf.WriteString(header.Key)
			buf.WriteString(": ")
			buf.WriteString(header.Value)
			buf.WriteByte('\n')
		}
		buf.WriteByte('\n')
	}
	encoded := base64.StdEncoding.EncodeToString(doc.Bytes)
	for len(encoded) > lineLength {
		buf.WriteString(encoded[:lineLength])
		buf.WriteByte('\n')
		encoded = encoded[lineLength:]
	}
	if len(encoded) > 0 {
		buf.WriteString(encoded)
		buf.WriteByte('\n')
	}
	buf.WriteString(endPrefix)
	buf.WriteString(doc.Type)
	buf.WriteString(boundary)
	buf.WriteByte('\n')
	return buf.Bytes()
}

func splitLines(text []byte) []string {
	raw := strings.Split(string(text), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		lines = append(lines, strings.TrimSuffix(line, "\r"))
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func parseBoundary(line string, prefix string) (label string, err error) {
	if !strings.HasPrefix(line, prefix) || !strings.HasSuffix(line, boundary) || len(line) < len(prefix)+len(boundary) {
		err = keyerrors.New(keyerrors.PemFormatKind, "pem: invalid %sline", strings.TrimPrefix(prefix, boundary))
		return
	}
	label = line[len(prefix) : len(line)-len(boundary)]
	if !validLabel(label) {
		err = keyerrors.New(keyerrors.PemFormatKind, "pem: invalid label %q", label)
		label = ""
		return
	}
	return
}

// validLabel accepts printable ASCII without '-'. Spaces are allowed only singly between
// words, so "PRIVATE  KEY" and labels with edge spaces are rejected.
func validLabel(label string) bool {
	if label == "" {
		return false
	}
	if label[0] == ' ' || label[len(label)-1] == ' ' {
		return false
	}
	for i := 0; i < len(label); i++ {
		c := label[i]
		if c == ' ' {
			if label[i-1] == ' ' {
				return false
			}
			continue
		}
		if c < 0x21 || c > 0x7e || c == '-' {
			return false
		}
	}
	return true
}

func parseHeaders(lines []string) (headers []Header, body []string, err error) {
	if len(lines) == 0 || !strings.Contains(lines[0], ":") {
		body = lines
		return
	}
	for i, line := range lines {
		if line == "" {
			body = lines[i+1:]
			return
		}
		idx := strings.IndexByte(line, ':')
		if idx < 1 {
			err = keyerrors.New(keyerrors.PemFormatKind, "pem: invalid header line %d", i+1)
			return
		}
		headers = append(headers, Header{
			Key:   strings.TrimSpace(line[:idx]),
			Value: strings.TrimSpace(line[idx+1:]),
		})
	}
	err = keyerrors.New(keyerrors.PemFormatKind, "pem: header block is not terminated by a blank line")
	return
}
