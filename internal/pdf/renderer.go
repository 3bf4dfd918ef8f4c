// Package pdf renders HTML to PDF through a shared headless browser. One
// browser process serves the whole application; a weighted semaphore caps
// concurrent page renders so a burst of export requests cannot exhaust the
// host.
package pdf

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"golang.org/x/sync/semaphore"
)

// Legal-ish page size used by the printable CARF form: 8.5in x 13in.
const (
	paperWidthIn  = 8.5
	paperHeightIn = 13.0
)

// Renderer owns the headless browser.
type Renderer struct {
	browser *rod.Browser
	sem     *semaphore.Weighted
	timeout time.Duration
}

// NewRenderer launches the headless browser. maxConcurrent caps simultaneous
// renders; timeout bounds each render end to end.
func NewRenderer(maxConcurrent int, timeout time.Duration) (*Renderer, error) {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	url, err := launcher.New().Headless(true).Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch headless browser: %w", err)
	}

	browser := rod.New().ControlURL(url)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to headless browser: %w", err)
	}

	return &Renderer{
		browser: browser,
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
		timeout: timeout,
	}, nil
}

// Render produces PDF bytes for the given HTML document.
func (r *Renderer) Render(ctx context.Context, html string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("render slot unavailable: %w", err)
	}
	defer r.sem.Release(1)

	page, err := r.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	defer func() { _ = page.Close() }()
	page = page.Context(ctx)

	if err := page.SetDocumentContent(html); err != nil {
		return nil, fmt.Errorf("failed to set page content: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("failed waiting for page load: %w", err)
	}

	width := paperWidthIn
	height := paperHeightIn
	stream, err := page.PDF(&proto.PagePrintToPDF{
		PaperWidth:      &width,
		PaperHeight:     &height,
		PrintBackground: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to print pdf: %w", err)
	}

	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("failed to read pdf stream: %w", err)
	}
	return data, nil
}

// Close shuts the browser down. Call on shutdown.
func (r *Renderer) Close() error {
	return r.browser.Close()
}
