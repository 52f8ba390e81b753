package fingerprint

import (
	"net/url"
	"path"
	"strings"
)

// Variant names the extraction method that produced a document's text.
type Variant string

const (
	VariantPortal Variant = "portal"
	VariantPDF    Variant = "pdf"
)

// Build returns the cache key for a document:
//
//	origin + normalizedPath + "|" + variant + "|" + signature
//
// Query string and fragment are not part of the key. If rawURL is not an
// absolute URL, the raw string is used in place of origin+path.
func Build(rawURL string, variant Variant, signature string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return rawURL + "|" + string(variant) + "|" + signature
	}
	return origin(u) + NormalizePath(u.EscapedPath()) + "|" + string(variant) + "|" + signature
}

// NormalizePath resolves "." and ".." segments the way a browser URL
// parser does, collapses repeated separators and drops the trailing
// separator. The root (and the empty path) normalize to "/".
func NormalizePath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

func origin(u *url.URL) string {
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}
	if strings.Contains(host, ":") {
		// IPv6 literal
		host = "[" + host + "]"
	}
	if port != "" {
		host += ":" + port
	}
	return scheme + "://" + host
}
