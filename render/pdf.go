package render

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"checkeasy-report/config"
	"checkeasy-report/models"
	"checkeasy-report/utils"
)

const printTimeout = 60 * time.Second

// A4 in inches.
const (
	paperWidth  = 8.27
	paperHeight = 11.69
)

// Printer prints report pages to PDF with headless Chrome.
type Printer struct {
	chromeBin string
	retry     *utils.RetryConfig
	logger    *utils.Logger
}

// NewPrinter creates a Printer. The browser is located from CHROME_BIN, then
// from PATH and the usual install locations.
func NewPrinter(cfg *config.Config, retry *utils.RetryConfig, logger *utils.Logger) *Printer {
	return &Printer{chromeBin: findChromeBinary(cfg.ChromeBin), retry: retry, logger: logger}
}

// PDF renders the report and prints it.
func (p *Printer) PDF(ctx context.Context, r *models.MappedRapport) ([]byte, error) {
	html, err := HTML(r)
	if err != nil {
		return nil, err
	}
	return p.Print(ctx, html)
}

// Print converts an HTML document to PDF.
func (p *Printer) Print(ctx context.Context, html []byte) ([]byte, error) {
	p.logger.Debug("[pdf] Using browser binary: %q", p.chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
	)
	if p.chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(p.chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	var pdf []byte
	err := p.retry.Do(ctx, "print pdf", func(ctx context.Context) error {
		// Suppress chromedp log noise
		browserCtx, cancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
		defer cancel()

		browserCtx, cancelTimeout := context.WithTimeout(browserCtx, printTimeout)
		defer cancelTimeout()

		return chromedp.Run(browserCtx,
			chromedp.Navigate("about:blank"),
			chromedp.ActionFunc(func(ctx context.Context) error {
				tree, err := page.GetFrameTree().Do(ctx)
				if err != nil {
					return err
				}
				return page.SetDocumentContent(tree.Frame.ID, string(html)).Do(ctx)
			}),
			chromedp.Sleep(500*time.Millisecond),
			chromedp.ActionFunc(func(ctx context.Context) error {
				buf, _, err := page.PrintToPDF().
					WithPrintBackground(true).
					WithPaperWidth(paperWidth).
					WithPaperHeight(paperHeight).
					Do(ctx)
				if err != nil {
					return err
				}
				pdf = buf
				return nil
			}),
		)
	})
	if err != nil {
		return nil, fmt.Errorf("print pdf: %w", err)
	}

	p.logger.Info("[pdf] Printed %d bytes", len(pdf))
	return pdf, nil
}

// WriteFile prints the report to path, creating parent directories.
func (p *Printer) WriteFile(ctx context.Context, path string, r *models.MappedRapport) error {
	pdf, err := p.PDF(ctx, r)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, pdf, 0o644); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	p.logger.Info("[pdf] Saved %s", path)
	return nil
}

// findChromeBinary locates Chrome/Chromium binary.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
