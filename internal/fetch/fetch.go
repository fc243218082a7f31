// Package fetch downloads candidate pages with a browser user agent, a timeout,
// a body cap and per-host rate limiting.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

const (
	// BrowserUserAgent avoids trivial bot blocking on scholarship sites.
	BrowserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/120.0.0.0 Safari/537.36"

	defaultTimeout      = 15 * time.Second
	defaultMaxBodyBytes = 10 << 20
	maxRedirects        = 10
	pdfMagic            = "%PDF-"
)

// Fetcher returns the body of a page as UTF-8 text. PDF bodies are returned byte
// for byte.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Options configures a Client.
type Options struct {
	Timeout      time.Duration
	UserAgent    string
	RatePerHost  float64
	Burst        int
	MaxBodyBytes int64
}

// Client is the http Fetcher.
type Client struct {
	hc        *http.Client
	limiter   *HostLimiter
	userAgent string
	maxBody   int64
	logger    *zap.Logger
}

func New(opts Options, log *zap.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = BrowserUserAgent
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		hc: &http.Client{
			Timeout: opts.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return errors.New("too many redirects")
				}
				return nil
			},
		},
		limiter:   NewHostLimiter(opts.RatePerHost, opts.Burst),
		userAgent: opts.UserAgent,
		maxBody:   opts.MaxBodyBytes,
		logger:    log,
	}
}

// Fetch downloads url. Non-2xx responses, timeouts and oversized bodies are errors.
func (c *Client) Fetch(ctx context.Context, url string) (string, error) {
	if err := c.limiter.WaitURL(ctx, url); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", c.userAgent)

	c.logger.Debug("fetch page", zap.String("url", url))

	resp, err := c.hc.Do(req)
	if err != nil {
		c.logger.Warn("fetch failed", zap.String("url", url), zap.Error(err))
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("fetch failed", zap.String("url", url), zap.Int("status", resp.StatusCode))
		return "", fmt.Errorf("bad status: %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return "", err
	}
	if int64(len(body)) > c.maxBody {
		return "", fmt.Errorf("body exceeds %d bytes", c.maxBody)
	}

	contentType := resp.Header.Get("Content-Type")
	pdf := IsPDFContentType(contentType) ||
		bytes.HasPrefix(body, []byte(pdfMagic)) ||
		strings.HasSuffix(strings.ToLower(url), ".pdf")

	c.logger.Debug("fetched page",
		zap.String("url", url),
		zap.Int("bytes", len(body)),
		zap.Bool("pdf", pdf),
	)

	// Go strings hold arbitrary bytes, so PDF bodies survive unchanged.
	if pdf {
		return string(body), nil
	}

	text, err := decodeText(body, contentType)
	if err != nil {
		c.logger.Warn("charset decoding failed, keeping raw body", zap.String("url", url), zap.Error(err))
		return string(body), nil
	}
	return text, nil
}

// decodeText converts body to UTF-8 using the charset from contentType, a meta
// tag, or content sniffing, in that order.
func decodeText(body []byte, contentType string) (string, error) {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return "", err
	}

	decoded, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

// IsPDFContentType reports whether a Content-Type header names a PDF.
func IsPDFContentType(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "application/pdf")
}
