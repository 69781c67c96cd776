// Package crawler implements C9: an optional, disabled-by-default headless
// browser inspection of a URL's rendered DOM. Grounded on moku's
// internal/webclient/chromedp_client.go — same chromedp + cdproto/network
// navigation shape and the same waitNetworkIdle event-listener pattern,
// rebuilt around goquery DOM evidence extraction (spec.md §4.7) instead of
// moku's raw-HTML diffing use case.
package crawler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/catalog"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/logging"
	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/model"
)

const defaultNetworkIdleWindow = 1500 * time.Millisecond

// Crawler runs headless navigations on a bounded worker pool — each
// instance is resource-heavy (spec.md §5's "runs on a bounded concurrency
// pool"), so concurrent crawls beyond maxConcurrency block on a semaphore.
type Crawler struct {
	catalog *catalog.Catalog
	logger  logging.Logger
	sem     chan struct{}
	drift   *DriftTracker
	weights *catalog.WeightsTable
}

func New(cat *catalog.Catalog, weights *catalog.WeightsTable, logger logging.Logger, maxConcurrency int) *Crawler {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &Crawler{
		catalog: cat,
		weights: weights,
		logger:  logger.With(logging.Field{Key: "component", Value: "crawler"}),
		sem:     make(chan struct{}, maxConcurrency),
		drift:   NewDriftTracker(),
	}
}

// Crawl implements C9's contract: crawl(url, timeout, maxRedirects) ->
// CrawlReport | Unavailable. It never panics on navigation failure; an SSL
// error is always captured as first-class evidence even when the rest of
// the page never loads (spec.md §4.7).
func (c *Crawler) Crawl(ctx context.Context, rawURL string, timeout time.Duration, maxRedirects int) model.Result[model.CrawlReport] {
	select {
	case c.sem <- struct{}{}:
		defer func() { <-c.sem }()
	case <-ctx.Done():
		return model.Unavailable[model.CrawlReport]("crawler pool: " + ctx.Err().Error())
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
	defer allocCancel()
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	var (
		html         string
		redirects    []string
		sslError     bool
		finalURL     = rawURL
		statusCode   int
	)

	chromedp.ListenTarget(browserCtx, func(ev interface{}) {
		switch e := ev.(type) {
		case *network.EventRequestWillBeSent:
			if e.RedirectResponse != nil {
				redirects = append(redirects, e.RedirectResponse.URL)
			}
		case *network.EventResponseReceived:
			if e.Response.URL == rawURL || len(redirects) > 0 {
				statusCode = int(e.Response.Status)
				finalURL = e.Response.URL
			}
		case *network.EventLoadingFailed:
			if strings.Contains(strings.ToLower(e.ErrorText), "cert") || strings.Contains(strings.ToLower(e.ErrorText), "ssl") {
				sslError = true
			}
		}
	})

	idleChan := waitNetworkIdle(browserCtx, defaultNetworkIdleWindow)

	err := chromedp.Run(browserCtx, chromedp.Navigate(rawURL))
	if err != nil {
		lowerErr := strings.ToLower(err.Error())
		if strings.Contains(lowerErr, "cert") || strings.Contains(lowerErr, "ssl") {
			sslError = true
		}
		report := model.CrawlReport{
			Enabled:  true,
			FinalURL: finalURL,
			Evidence: &model.CrawlEvidence{SSLError: sslError},
		}
		if sslError {
			return model.Ok(report)
		}
		return model.Unavailable[model.CrawlReport]("crawler: navigate: " + err.Error())
	}

	select {
	case <-idleChan:
	case <-browserCtx.Done():
	case <-time.After(timeout):
	}

	if err := chromedp.Run(browserCtx, chromedp.OuterHTML("html", &html)); err != nil {
		return model.Unavailable[model.CrawlReport]("crawler: extract html: " + err.Error())
	}

	if len(redirects) > maxRedirects {
		redirects = redirects[:maxRedirects]
	}

	evidence := c.extractEvidence(html, finalURL)
	evidence.SSLError = sslError

	normalizedText := normalizeForComparison(html)
	if host := hostOf(finalURL); host != "" {
		if sig := c.drift.Check(host, normalizedText, c.weights); sig != nil {
			evidence.ContentChangedSinceLastCrawl = true
		}
	}

	report := model.CrawlReport{
		Enabled:         true,
		Status:          statusCode,
		FinalURL:        finalURL,
		RedirectChain:   redirects,
		HTMLFingerprint: fingerprintText(normalizedText),
		Evidence:        evidence,
	}
	return model.Ok(report)
}

// waitNetworkIdle mirrors moku's chromedp_client.go helper: it signals once
// no request has been in flight for idleAfter. Unlike the teacher's
// version, the timer/counter pair is reset defensively with a mutex to
// avoid a send on a closed channel if the caller gives up first.
func waitNetworkIdle(ctx context.Context, idleAfter time.Duration) chan struct{} {
	idleChan := make(chan struct{}, 1)
	var activeReqs int32
	var timer *time.Timer
	var timerMutex sync.Mutex
	var once sync.Once

	signal := func() {
		once.Do(func() {
			select {
			case idleChan <- struct{}{}:
			default:
			}
		})
	}

	startTimer := func() {
		timerMutex.Lock()
		defer timerMutex.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(idleAfter, func() {
			if atomic.LoadInt32(&activeReqs) == 0 {
				signal()
			}
		})
	}

	startTimer()

	chromedp.ListenTarget(ctx, func(ev interface{}) {
		switch ev.(type) {
		case *network.EventRequestWillBeSent:
			atomic.AddInt32(&activeReqs, 1)
		case *network.EventLoadingFinished, *network.EventLoadingFailed:
			if atomic.AddInt32(&activeReqs, -1) <= 0 {
				startTimer()
			}
		}
	})

	return idleChan
}

// normalizeForComparison strips scripts/styles/whitespace, so cosmetic
// re-renders of an otherwise identical page compare equal both when
// fingerprinted and when diffed for drift.
func normalizeForComparison(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	doc.Find("script,style").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func fingerprintText(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
