package transcript

import (
	"context"
	"errors"
	"log"
	nurl "net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/go-shiori/go-readability"
)

// PageProvider renders a page in headless Chrome and extracts its readable
// text. Pages that populate transcripts late get a bounded number of
// attempts with a fixed delay between them.
type PageProvider struct {
	URL      string
	Timeout  time.Duration // per-attempt render budget
	MaxChars int
	Attempts int
	Delay    time.Duration
	Logger   *log.Logger
}

func (p PageProvider) SourceText(ctx context.Context) (string, error) {
	logger := p.Logger
	if logger == nil {
		logger = log.New(log.Writer(), "[PAGE] ", log.LstdFlags)
	}
	if strings.TrimSpace(p.URL) == "" {
		return "", errors.New("invalid url")
	}
	pageURL, err := nurl.Parse(p.URL)
	if err != nil {
		return "", errors.New("invalid url")
	}
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 3
	}
	delay := p.Delay
	if delay <= 0 {
		delay = 1200 * time.Millisecond
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}

		actx, cancel := context.WithTimeout(ctx, timeout)
		html, err := fetchHTML(actx, p.URL)
		cancel()
		if err != nil {
			lastErr = err
			logger.Printf("render attempt %d/%d failed: %v", i+1, attempts, err)
			continue
		}

		article, err := readability.FromReader(strings.NewReader(html), pageURL)
		if err != nil {
			lastErr = err
			logger.Printf("extract attempt %d/%d failed: %v", i+1, attempts, err)
			continue
		}
		text := strings.TrimSpace(article.TextContent)
		if p.MaxChars > 0 && len(text) > p.MaxChars {
			text = text[:p.MaxChars]
		}
		if text != "" {
			return text, nil
		}
		logger.Printf("attempt %d/%d produced no text", i+1, attempts)
	}
	if lastErr != nil {
		return "", lastErr
	}
	return "", nil
}

func fetchHTML(ctx context.Context, url string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
	)
	actx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	bctx, cancelBrowser := chromedp.NewContext(actx)
	defer cancelBrowser()

	var html string
	err := chromedp.Run(bctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	return html, err
}
