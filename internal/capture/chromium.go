package capture

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// Defaults for portal text capture.
const (
	DefaultSelector   = ".portalModalInner"
	DefaultTimeoutSec = 30
	// MinPortalText is the shortest modal text treated as a real document;
	// anything shorter is usually an empty shell or a loading placeholder.
	MinPortalText = 100
)

// Options defines parameters for a Chromium-based text capture.
type Options struct {
	// URL to open, e.g. "https://engage.lis.school/...".
	URL string

	// Selector of the element whose innerText is captured. If empty,
	// DefaultSelector is used.
	Selector string

	// Wait is how long to wait for the element after navigation. The modal
	// is optional, so a missing element after Wait is not an error.
	Wait time.Duration

	// Timeout bounds the entire capture operation. If zero, a sane default
	// (DefaultTimeoutSec) is used.
	Timeout time.Duration
}

// PortalText launches a headless Chromium instance via chromedp, navigates
// to opts.URL and returns the trimmed innerText of opts.Selector. It returns
// "" (and no error) when the element does not show up within opts.Wait.
func PortalText(parentCtx context.Context, opts Options) (string, error) {
	if opts.URL == "" {
		return "", fmt.Errorf("capture: URL is required")
	}
	if opts.Selector == "" {
		opts.Selector = DefaultSelector
	}
	if opts.Wait <= 0 {
		opts.Wait = 5 * time.Second
	}
	if opts.Timeout <= 0 {
		opts.Timeout = time.Duration(DefaultTimeoutSec) * time.Second
	}

	// Create a new chromedp context.
	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()

	// Apply timeout to the entire capture sequence.
	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	if err := chromedp.Run(ctx, chromedp.Navigate(opts.URL)); err != nil {
		return "", fmt.Errorf("capture: navigate failed: %w", err)
	}

	waitCtx, waitCancel := context.WithTimeout(ctx, opts.Wait)
	defer waitCancel()

	var text string
	err := chromedp.Run(waitCtx,
		chromedp.WaitReady(opts.Selector, chromedp.ByQuery),
		chromedp.Text(opts.Selector, &text, chromedp.ByQuery),
	)
	if err != nil {
		if waitCtx.Err() != nil && ctx.Err() == nil {
			// modal never appeared
			return "", nil
		}
		return "", fmt.Errorf("capture: read %s failed: %w", opts.Selector, err)
	}
	return strings.TrimSpace(text), nil
}

// Browser adapts PortalText to the orchestrator's portal reader interface.
type Browser struct {
	Selector string
	Wait     time.Duration
	Timeout  time.Duration
}

func (b Browser) PortalText(ctx context.Context, url string) (string, error) {
	return PortalText(ctx, Options{URL: url, Selector: b.Selector, Wait: b.Wait, Timeout: b.Timeout})
}
