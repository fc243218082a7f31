// Package parse converts fetched HTML pages and PDFs into cleaned plain text
// for extraction. Parsing problems yield an empty string.
package parse

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/ledongthuc/pdf"
	"github.com/spigell/scholara/internal/textutil"
	"go.uber.org/zap"
)

const (
	pdfMagic = "%PDF-"
	maxPages = 20
	// Readability output shorter than this is treated as a miss.
	minReadableChars = 100
)

// Parser turns raw page content into text.
type Parser interface {
	Parse(raw, url string) string
}

// Content dispatches on the URL suffix or the PDF magic bytes.
type Content struct {
	maxChars int
	logger   *zap.Logger
}

func New(maxChars int, log *zap.Logger) *Content {
	if maxChars <= 0 {
		maxChars = textutil.DefaultMaxChars
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Content{maxChars: maxChars, logger: log}
}

func (c *Content) Parse(raw, pageURL string) string {
	if IsPDF(raw, pageURL) {
		return c.PDF(raw)
	}
	return c.HTML(raw, pageURL)
}

// IsPDF reports whether the content should be read as a PDF.
func IsPDF(raw, pageURL string) bool {
	if strings.HasSuffix(strings.ToLower(pageURL), ".pdf") {
		return true
	}
	return strings.HasPrefix(raw, pdfMagic)
}

// HTML extracts the main article text, falling back to the whole document minus
// scripts, styles and page chrome.
func (c *Content) HTML(raw, pageURL string) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		base = &url.URL{}
	}

	if article, err := readability.FromReader(strings.NewReader(raw), base); err == nil {
		if text := strings.TrimSpace(article.TextContent); len([]rune(text)) > minReadableChars {
			return textutil.Truncate(textutil.CleanText(text), c.maxChars)
		}
	} else {
		c.logger.Debug("readability failed, falling back to goquery", zap.String("url", pageURL), zap.Error(err))
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		c.logger.Warn("html parsing failed", zap.String("url", pageURL), zap.Error(err))
		return ""
	}

	doc.Find("script, style, nav, footer, header, noscript").Remove()

	var parts []string
	doc.Find("body").Each(func(_ int, s *goquery.Selection) {
		parts = append(parts, s.Text())
	})
	if len(parts) == 0 {
		parts = append(parts, doc.Text())
	}

	return textutil.Truncate(textutil.CleanText(strings.Join(parts, " ")), c.maxChars)
}

// PDF reads the text of the first pages of a PDF document.
func (c *Content) PDF(raw string) (text string) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("pdf parsing failed", zap.String("panic", fmt.Sprint(r)))
			text = ""
		}
	}()

	data := []byte(raw)
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		c.logger.Warn("pdf parsing failed", zap.Error(err))
		return ""
	}

	pages := reader.NumPage()
	if pages > maxPages {
		pages = maxPages
	}

	var chunks []string
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			c.logger.Debug("pdf page skipped", zap.Int("page", i), zap.Error(err))
			continue
		}
		if strings.TrimSpace(content) != "" {
			chunks = append(chunks, content)
		}
	}

	return textutil.Truncate(textutil.CleanText(strings.Join(chunks, "\n\n")), c.maxChars)
}
