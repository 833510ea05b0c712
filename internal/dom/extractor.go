// Package dom derives DomFeatures from a captured HTML snapshot when the
// caller did not compute them in the page host.
package dom

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/phishnet/phish-detector/internal/core"
	"go.uber.org/zap"
)

// Extractor computes page features from raw HTML
type Extractor struct {
	logger *zap.Logger
}

// NewExtractor creates a new DOM feature extractor
func NewExtractor(logger *zap.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Extract parses html as the page served at pageURL.
//
// redirectCount is always 0 since a static snapshot carries no navigation
// history. An unparsable pageURL is tolerated: relative links are then
// skipped and the connection is reported as insecure.
func (e *Extractor) Extract(pageURL, html string) (*core.DomFeatures, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	base, err := url.Parse(pageURL)
	if err != nil || base.Host == "" {
		e.logger.Debug("Page URL not usable as link base", zap.String("url", pageURL))
		base = nil
	}

	features := &core.DomFeatures{
		FormCount:          doc.Find("form").Length(),
		PasswordFieldCount: passwordInputs(doc).Length(),
		ImageCount:         doc.Find("img").Length(),
		IframeCount:        doc.Find("iframe").Length(),
		HasLoginForm:       hasLoginForm(doc),
		ContainsLogoImages: containsLogoImages(doc),
		IsSecureConnection: base != nil && strings.EqualFold(base.Scheme, "https"),
	}
	features.ExternalLinkCount = countExternalLinks(doc, base)

	return features, nil
}

func hasLoginForm(doc *goquery.Document) bool {
	if doc.Find("form").Length() == 0 {
		return false
	}
	if passwordInputs(doc).Length() > 0 {
		return true
	}
	return doc.Find("input[name]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		name, _ := s.Attr("name")
		return strings.Contains(name, "pass") || strings.Contains(name, "login")
	}).Length() > 0
}

func passwordInputs(doc *goquery.Document) *goquery.Selection {
	return doc.Find("input[type]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.EqualFold(strings.TrimSpace(s.AttrOr("type", "")), "password")
	})
}

func containsLogoImages(doc *goquery.Document) bool {
	found := false
	doc.Find("img").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src := strings.ToLower(s.AttrOr("src", ""))
		alt := strings.ToLower(s.AttrOr("alt", ""))
		if strings.Contains(src, "logo") || strings.Contains(alt, "logo") {
			found = true
			return false
		}
		w, h := dimension(s, "width"), dimension(s, "height")
		if w > 100 && h < 100 && w > h {
			found = true
			return false
		}
		return true
	})
	return found
}

// dimension reads a numeric width/height attribute, tolerating a px suffix.
// Missing or non-numeric values count as 0.
func dimension(s *goquery.Selection, attr string) int {
	v := strings.TrimSpace(s.AttrOr(attr, ""))
	v = strings.TrimSuffix(strings.ToLower(v), "px")
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0
	}
	return n
}

func countExternalLinks(doc *goquery.Document, base *url.URL) int {
	var pageHost string
	if base != nil {
		pageHost = strings.ToLower(base.Hostname())
	}

	count := 0
	doc.Find("a[href], area[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		if base != nil {
			ref = base.ResolveReference(ref)
		} else if !ref.IsAbs() {
			return
		}
		host := strings.ToLower(ref.Hostname())
		// mailto:, javascript: and similar resolve without a host
		if host == "" {
			return
		}
		if host != pageHost {
			count++
		}
	})
	return count
}
