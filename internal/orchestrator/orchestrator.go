// Package orchestrator runs a scan: read the document, fingerprint it,
// consult the extraction cache and call the extraction service on a miss.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"schoolcal/internal/capture"
	"schoolcal/internal/fingerprint"
	appLog "schoolcal/internal/log"
	"schoolcal/internal/model"
	"schoolcal/internal/signature"
	"schoolcal/internal/source"
)

//go:generate mockgen -source=orchestrator.go -destination=mocks/mock_orchestrator.go -package=mocks

var ErrUnsupportedHost = errors.New("scan: unsupported host")

// PortalReader returns the text of the portal modal on a page, or "".
type PortalReader interface {
	PortalText(ctx context.Context, url string) (string, error)
}

// DocumentFetcher downloads the document behind a URL.
type DocumentFetcher interface {
	Fetch(ctx context.Context, url string) (source.Document, error)
}

// PDFTextReader extracts the text layer of a PDF.
type PDFTextReader interface {
	Text(data []byte) (string, error)
}

// Extractor turns text into events.
type Extractor interface {
	Extract(ctx context.Context, text string) ([]model.EventRecord, error)
}

// Cache is the subset of the extraction cache a scan needs.
type Cache interface {
	Get(fp string) (model.Extraction, bool)
	Set(fp string, x model.Extraction)
	Clear(fp string)
}

// Result is what a scan hands back to the client.
type Result struct {
	Fingerprint string              `json:"fingerprint"`
	Variant     fingerprint.Variant `json:"variant"`
	Text        string              `json:"text"`
	Events      []model.EventRecord `json:"events"`
	FromCache   bool                `json:"from_cache"`
}

type Orchestrator struct {
	portal    PortalReader
	fetcher   DocumentFetcher
	pdf       PDFTextReader
	extractor Extractor
	cache     Cache

	// allowedHosts limits scans to the school portal. Empty allows any host.
	allowedHosts []string
}

func New(portal PortalReader, fetcher DocumentFetcher, pdf PDFTextReader, extractor Extractor, cache Cache, allowedHosts []string) *Orchestrator {
	return &Orchestrator{
		portal:       portal,
		fetcher:      fetcher,
		pdf:          pdf,
		extractor:    extractor,
		cache:        cache,
		allowedHosts: allowedHosts,
	}
}

// Scan reads rawURL, preferring the portal modal text over the PDF behind
// the URL. With forceFresh the cached entry is dropped before extraction.
//
// An extraction service failure yields an empty event list and is not
// cached, so the next scan retries.
func (o *Orchestrator) Scan(ctx context.Context, rawURL string, forceFresh bool) (Result, error) {
	if !o.hostAllowed(rawURL) {
		return Result{}, fmt.Errorf("%w: %s", ErrUnsupportedHost, source.RedactURL(rawURL))
	}

	res, pdfBody, err := o.read(ctx, rawURL)
	if err != nil {
		return Result{}, err
	}

	if forceFresh {
		o.cache.Clear(res.Fingerprint)
	} else if cached, ok := o.cache.Get(res.Fingerprint); ok {
		appLog.Info("scan cache hit", "variant", res.Variant, "events", len(cached.Events))
		res.FromCache = true
		res.Events = cached.Events
		if cached.Text != "" {
			res.Text = cached.Text
		}
		return res, nil
	}

	// PDF text is only needed on a miss.
	if res.Variant == fingerprint.VariantPDF {
		text, err := o.pdf.Text(pdfBody)
		if err != nil {
			return Result{}, fmt.Errorf("scan: read pdf: %w", err)
		}
		res.Text = text
	}

	events, err := o.extractor.Extract(ctx, res.Text)
	if err != nil {
		appLog.Error("scan extraction failed", err, "variant", res.Variant)
		res.Events = []model.EventRecord{}
		return res, nil
	}
	if events == nil {
		events = []model.EventRecord{}
	}
	res.Events = events

	o.cache.Set(res.Fingerprint, model.Extraction{Text: res.Text, Events: events})
	appLog.Info("scan extracted", "variant", res.Variant, "events", len(events), "force", forceFresh)
	return res, nil
}

// read decides the variant and computes the fingerprint. For PDFs the raw
// body is returned so text extraction can wait until a cache miss.
func (o *Orchestrator) read(ctx context.Context, rawURL string) (Result, []byte, error) {
	if o.portal != nil {
		text, err := o.portal.PortalText(ctx, rawURL)
		if err != nil {
			appLog.Error("portal capture failed; trying pdf", err, "url", source.RedactURL(rawURL))
		} else if len(text) > capture.MinPortalText {
			sig := signature.PortalSignature(rawURL, text)
			return Result{
				Fingerprint: fingerprint.Build(rawURL, fingerprint.VariantPortal, sig),
				Variant:     fingerprint.VariantPortal,
				Text:        text,
			}, nil, nil
		}
	}

	doc, err := o.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return Result{}, nil, fmt.Errorf("scan: fetch document: %w", err)
	}
	sig := signature.PDFSignature(rawURL, doc.Header, doc.Body)
	return Result{
		Fingerprint: fingerprint.Build(rawURL, fingerprint.VariantPDF, sig),
		Variant:     fingerprint.VariantPDF,
	}, doc.Body, nil
}

func (o *Orchestrator) hostAllowed(rawURL string) bool {
	if len(o.allowedHosts) == 0 {
		return true
	}
	host := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		host = strings.ToLower(u.Hostname())
	}
	for _, h := range o.allowedHosts {
		if h != "" && strings.Contains(host, strings.ToLower(h)) {
			return true
		}
	}
	return false
}
