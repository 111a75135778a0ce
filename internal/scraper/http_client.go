package scraper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"golang.org/x/time/rate"

	"github.com/Vodeneev/kyoteibet/internal/pkg/config"
)

// chromeMu serializes all Chrome usage so only one instance runs at a time.
var chromeMu sync.Mutex

// Pages smaller than this are the anti-bot stub, not real content.
const blockedPageSize = 5000

const noDataMarker = "データがありません"

// Client fetches boatrace.jp pages. One shared http.Client with connection
// pooling, a politeness rate limit across all callers, and an optional
// headless-browser fallback for when plain HTTP gets the stub page.
type Client struct {
	httpClient *http.Client
	cfg        *config.ScraperConfig
	baseURL    string
	limiter    *rate.Limiter
}

func NewClient(cfg *config.ScraperConfig) *Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://www.boatrace.jp/owpc/pc/race"
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		cfg:     cfg,
		baseURL: baseURL,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1),
	}
}

func (c *Client) pageURL(page string, key raceParams) string {
	return fmt.Sprintf("%s/%s?rno=%d&jcd=%02d&hd=%s", c.baseURL, page, key.race, key.venue, key.date)
}

type raceParams struct {
	date  string
	venue int
	race  int
}

// fetchPage gets one page, classifying the stub page and the no-data page
// into their sentinels. A blocked response triggers one headless-browser
// retry when that is enabled.
func (c *Client) fetchPage(ctx context.Context, url string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	body, err := c.fetchPlain(ctx, url)
	if err == ErrBlocked && c.cfg.UseChromedp {
		slog.Debug("Plain HTTP blocked, retrying with headless browser", "url", url)
		body, err = c.fetchWithJS(ctx, url)
	}
	if err != nil {
		return "", err
	}

	if strings.Contains(body, noDataMarker) {
		return "", ErrNoData
	}
	return body, nil
}

func (c *Client) fetchPlain(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}

	if len(body) < blockedPageSize && !strings.Contains(string(body), noDataMarker) {
		return "", ErrBlocked
	}
	return string(body), nil
}

// fetchWithJS renders the page in headless Chrome. Only used as a fallback,
// so starting a browser per call is acceptable.
func (c *Client) fetchWithJS(ctx context.Context, url string) (string, error) {
	chromeMu.Lock()
	defer chromeMu.Unlock()

	chromeDir, err := os.MkdirTemp("", "kyoteibet_chrome_")
	if err != nil {
		return "", fmt.Errorf("create chrome temp dir: %w", err)
	}
	defer os.RemoveAll(chromeDir)

	timeout := c.cfg.Timeout
	if timeout < 30*time.Second {
		timeout = 30 * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.UserDataDir(chromeDir),
		chromedp.UserAgent(c.cfg.UserAgent),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(runCtx, opts...)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	var html string
	err = chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(2*time.Second),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("chromedp navigation: %w", err)
	}

	if len(html) < blockedPageSize && !strings.Contains(html, noDataMarker) {
		return "", ErrBlocked
	}
	return html, nil
}
