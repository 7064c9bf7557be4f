// Package scraper fetches match markup and momentum feeds and parses the
// collaborator inputs of an analysis: oracle set scores and momentum series.
package scraper

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Vodeneev/tennispbp/internal/pkg/models"
)

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/142.0.0.0 Safari/537.36"

// Config configures a Client.
type Config struct {
	Timeout     time.Duration `yaml:"timeout"`
	UserAgent   string        `yaml:"user_agent"`
	UseBrowser  bool          `yaml:"use_browser"`
	BrowserWait time.Duration `yaml:"browser_wait"`
	InsecureTLS bool          `yaml:"insecure_tls"`
	// MaxBodyBytes caps a decoded response body.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.BrowserWait <= 0 {
		cfg.BrowserWait = 3 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DisableCompression = true // Accept-Encoding is set by hand, see decodeBody
	if transport.TLSClientConfig == nil {
		transport.TLSClientConfig = &tls.Config{}
	}
	if cfg.InsecureTLS {
		transport.TLSClientConfig.InsecureSkipVerify = true
	}
	transport.Proxy = http.ProxyFromEnvironment

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout, Transport: transport},
	}
}

// FetchMarkup returns the page markup, rendered in headless Chrome when the
// client is configured to use the browser.
func (c *Client) FetchMarkup(ctx context.Context, url string) (string, error) {
	if c.cfg.UseBrowser {
		return renderWithBrowser(ctx, url, c.cfg)
	}
	body, err := c.doRequest(ctx, url, "text/html,application/xhtml+xml,*/*")
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// FetchMomentum downloads and parses a provider momentum feed.
func (c *Client) FetchMomentum(ctx context.Context, url string) ([]models.MomentumPoint, error) {
	body, err := c.doRequest(ctx, url, "application/json, text/plain, */*")
	if err != nil {
		return nil, err
	}
	points, err := ParseMomentumAPI(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse momentum feed %s: %w", url, err)
	}
	return points, nil
}

func (c *Client) doRequest(ctx context.Context, url, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", "en,ru;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br, zstd")
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Connection", "keep-alive")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		preview := strings.TrimSpace(string(b))
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		slog.Warn("Scraper request failed", "url", url, "status", resp.StatusCode, "body_preview", preview)
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	return decodeBody(resp, c.cfg.MaxBodyBytes)
}
