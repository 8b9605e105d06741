package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/maltedev/product-page-scraper/internal/config"
	"github.com/playwright-community/playwright-go"
)

// Browser renders pages in headless chromium and returns the resulting
// markup. It is used when a product page needs JavaScript to fill in.
type Browser struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	timeout time.Duration
	logger  *slog.Logger
}

type Options struct {
	Headless       bool
	Timeout        time.Duration
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
	AcceptLanguage string
	Locale         string
}

func DefaultOptions() *Options {
	return &Options{
		Headless:       true,
		Timeout:        30 * time.Second,
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		ViewportWidth:  1920,
		ViewportHeight: 1080,
		AcceptLanguage: "pt-BR,pt;q=0.9,en;q=0.8",
		Locale:         "pt-BR",
	}
}

// OptionsFromConfig starts from DefaultOptions and applies the browser
// section and the scraper user agent.
func OptionsFromConfig(cfg *config.Config) *Options {
	opts := DefaultOptions()
	opts.Headless = cfg.Browser.Headless
	if cfg.Browser.Timeout > 0 {
		opts.Timeout = cfg.Browser.Timeout
	}
	if cfg.Browser.AcceptLanguage != "" {
		opts.AcceptLanguage = cfg.Browser.AcceptLanguage
	}
	if cfg.Browser.Locale != "" {
		opts.Locale = cfg.Browser.Locale
	}
	if cfg.Scraper.UserAgent != "" {
		opts.UserAgent = cfg.Scraper.UserAgent
	}
	return opts
}

func New(opts *Options, logger *slog.Logger) (*Browser, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultOptions().Timeout
	}
	if opts.ViewportWidth == 0 || opts.ViewportHeight == 0 {
		opts.ViewportWidth, opts.ViewportHeight = 1920, 1080
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: &opts.Headless,
		Args: []string{
			"--disable-dev-shm-usage",
			"--no-sandbox",
		},
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	contextOpts := playwright.BrowserNewContextOptions{
		AcceptDownloads:   playwright.Bool(false),
		JavaScriptEnabled: playwright.Bool(true),
		Viewport: &playwright.Size{
			Width:  opts.ViewportWidth,
			Height: opts.ViewportHeight,
		},
	}
	if opts.UserAgent != "" {
		contextOpts.UserAgent = &opts.UserAgent
	}
	if opts.Locale != "" {
		contextOpts.Locale = &opts.Locale
	}
	if opts.AcceptLanguage != "" {
		contextOpts.ExtraHttpHeaders = map[string]string{"Accept-Language": opts.AcceptLanguage}
	}

	context, err := browser.NewContext(contextOpts)
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	return &Browser{
		pw:      pw,
		browser: browser,
		context: context,
		timeout: opts.Timeout,
		logger:  logger.With("component", "browser"),
	}, nil
}

func (b *Browser) Name() string {
	return "browser"
}

// Fetch navigates a fresh page to url and returns the rendered HTML.
func (b *Browser) Fetch(ctx context.Context, url string) (string, error) {
	timeout := b.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	page, err := b.NewPage()
	if err != nil {
		return "", err
	}
	defer page.Close()

	// Closing the page aborts a navigation still in flight on cancellation.
	stop := context.AfterFunc(ctx, func() {
		page.Close()
	})
	defer stop()

	resp, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(timeout.Milliseconds())),
	})
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", fmt.Errorf("failed to navigate to %s: %w", url, ctxErr)
	}
	if err != nil {
		return "", fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if resp != nil && !resp.Ok() {
		return "", fmt.Errorf("navigation to %s returned status %d", url, resp.Status())
	}

	html, err := page.Content()
	if err != nil {
		return "", fmt.Errorf("failed to get page content: %w", err)
	}

	b.logger.Debug("rendered page", "url", url, "bytes", len(html))
	return html, nil
}

func (b *Browser) NewPage() (playwright.Page, error) {
	page, err := b.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create new page: %w", err)
	}

	page.SetDefaultTimeout(float64(b.timeout.Milliseconds()))

	return page, nil
}

func (b *Browser) Close() error {
	var errs []error

	if b.context != nil {
		if err := b.context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close context: %w", err))
		}
	}

	if b.browser != nil {
		if err := b.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
		}
	}

	if b.pw != nil {
		if err := b.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during close: %v", errs)
	}

	return nil
}
