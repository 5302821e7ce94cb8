package export

import (
	"context"
	"fmt"
	"time"

	"cvforge/internal/errors"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// ChromeRenderer prints HTML to PDF in a headless Chrome.
type ChromeRenderer struct {
	execPath string
	timeout  time.Duration
	paper    Paper
}

// NewChromeRenderer returns a renderer. An empty execPath lets chromedp find
// Chrome on the system.
func NewChromeRenderer(execPath string, timeout time.Duration, paper Paper) *ChromeRenderer {
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &ChromeRenderer{execPath: execPath, timeout: timeout, paper: paper}
}

// RenderPDF loads html into a blank page and prints it.
func (c *ChromeRenderer) RenderPDF(ctx context.Context, html []byte) ([]byte, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if c.execPath != "" {
		opts = append(opts, chromedp.ExecPath(c.execPath))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, c.timeout)
	defer cancel()

	var pdf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, string(html)).Do(ctx)
		}),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(c.paper.Width).
				WithPaperHeight(c.paper.Height).
				WithPreferCSSPageSize(false).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = data
			return nil
		}),
	)
	if err != nil {
		if ctx.Err() == nil && browserCtx.Err() == context.DeadlineExceeded {
			return nil, errors.NewIOError(errors.ErrCodeExportFailed,
				fmt.Sprintf("PDF rendering timed out after %s", c.timeout), err)
		}
		return nil, errors.NewIOError(errors.ErrCodeExportFailed, "PDF rendering failed (is Chrome installed?)", err)
	}
	return pdf, nil
}
