// Package signature derives content digests used to detect whether a
// document changed between scans.
package signature

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
)

// Hash returns the lower-case hex SHA-256 of v.
//
//   - string: its UTF-8 bytes
//   - []byte: the bytes as-is
//   - nil:    the empty byte sequence
//   - other:  the JSON encoding of v, map keys sorted and <, >, & left
//     unescaped so the digest matches the extension's JSON.stringify
func Hash(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return HashBytes(nil), nil
	case string:
		return HashString(t), nil
	case []byte:
		return HashBytes(t), nil
	case json.RawMessage:
		return HashBytes(t), nil
	default:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(t); err != nil {
			return "", err
		}
		// Encode terminates with a newline
		return HashBytes(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
	}
}

func HashString(s string) string {
	return HashBytes([]byte(s))
}

func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// PortalSignature identifies text scraped from the portal modal.
func PortalSignature(url, text string) string {
	return HashString(url + "|portal|" + text)
}

// PDFSignature prefers the cheap HTTP validators (ETag, Last-Modified,
// Content-Length) and only hashes the whole body when none are present.
func PDFSignature(url string, header http.Header, body []byte) string {
	seed := make([]string, 0, 3)
	for _, k := range []string{"ETag", "Last-Modified", "Content-Length"} {
		if v := header.Get(k); v != "" {
			seed = append(seed, v)
		}
	}
	if len(seed) == 0 {
		return HashBytes(body)
	}
	return HashString(url + "|pdf|" + strings.Join(seed, "|"))
}
