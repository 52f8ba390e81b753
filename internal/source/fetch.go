package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	appLog "schoolcal/internal/log"
)

// maxDocumentBytes bounds a single downloaded document.
const maxDocumentBytes = 50 << 20

// Document is a downloaded file together with the response headers that
// identify its version (ETag, Last-Modified, Content-Length).
type Document struct {
	URL    string
	Body   []byte
	Header http.Header
}

// Fetcher downloads documents over HTTP.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a Fetcher. A nil client gets a 30s timeout default.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{
			Timeout: 30 * time.Second,
		}
	}
	return &Fetcher{client: client}
}

// Fetch GETs url and returns the body with its validator headers.
// Cookie forwarding is up to the caller's client (portal documents usually
// need the user's session).
func (f *Fetcher) Fetch(ctx context.Context, url string) (Document, error) {
	if url == "" {
		return Document{}, errors.New("source URL is empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Document{}, err
	}

	appLog.Debug("document fetch start", "url", RedactURL(url))

	resp, err := f.client.Do(req)
	if err != nil {
		return Document{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Document{}, fmt.Errorf("document fetch: %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes+1))
	if err != nil {
		return Document{}, err
	}
	if len(body) > maxDocumentBytes {
		return Document{}, fmt.Errorf("document fetch: body exceeds %d bytes", maxDocumentBytes)
	}

	appLog.Info("document fetch success", "url", RedactURL(url), "bytes", len(body),
		"etag", resp.Header.Get("ETag") != "", "last_modified", resp.Header.Get("Last-Modified") != "")

	return Document{
		URL:    url,
		Body:   body,
		Header: resp.Header.Clone(),
	}, nil
}

// RedactURL hides everything after the host for logging purposes.
//
//	https://engage.lis.school/path/to/private.pdf?token=abcd
//	-> https://engage.lis.school/...(redacted)
func RedactURL(u string) string {
	const redactedSuffix = "/...(redacted)"

	// Find scheme separator.
	i := -1
	for idx := 0; idx+2 < len(u); idx++ {
		if u[idx:idx+3] == "://" {
			i = idx + 3
			break
		}
	}
	if i == -1 {
		return "url://...(redacted)"
	}

	// Find next slash after host.
	j := i
	for j < len(u) && u[j] != '/' {
		j++
	}
	return u[:j] + redactedSuffix
}
