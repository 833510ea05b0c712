package core

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
)

// ipv4Pattern does not check that octets are <= 255
var ipv4Pattern = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}$`)

var suspiciousKeywords = []string{
	"login", "signin", "verify", "secure", "account", "password",
	"confirm", "update", "banking", "payment", "wallet", "authenticate",
}

var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
	"ws":    "80",
	"wss":   "443",
	"ftp":   "21",
}

var urlShorteners = []string{
	"bit.ly", "tinyurl.com", "goo.gl", "t.co", "is.gd",
	"cli.gs", "ow.ly", "su.pr", "twurl.nl", "snipurl.com",
}

// URLFeatureExtractor derives heuristic signals from URL strings
type URLFeatureExtractor struct {
	logger *zap.Logger
}

// NewURLFeatureExtractor creates a new URL feature extractor
func NewURLFeatureExtractor(logger *zap.Logger) *URLFeatureExtractor {
	return &URLFeatureExtractor{logger: logger}
}

// Extract parses rawURL into features. A URL that cannot be parsed yields
// zero-valued features; the failure is only logged.
func (e *URLFeatureExtractor) Extract(rawURL string) URLFeatures {
	u, err := parseAbsoluteURL(rawURL)
	if err != nil {
		e.logger.Warn("Falling back to neutral URL features",
			zap.String("url", rawURL),
			zap.Error(err))
		return URLFeatures{}
	}

	domain := strings.ToLower(u.Hostname())
	labels := strings.Split(domain, ".")

	tld := ""
	if len(labels) > 1 {
		tld = labels[len(labels)-1]
	}

	containsIP := ipv4Pattern.MatchString(domain)
	subdomains := countSubdomains(domain, labels, containsIP)

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}

	lowered := strings.ToLower(rawURL)
	hasKeywords := false
	for _, keyword := range suspiciousKeywords {
		if strings.Contains(lowered, keyword) {
			hasKeywords = true
			break
		}
	}

	isShortener := false
	for _, shortener := range urlShorteners {
		if strings.Contains(domain, shortener) {
			isShortener = true
			break
		}
	}

	port := u.Port()
	// an explicit default port for the scheme counts as no port
	if port == defaultPorts[strings.ToLower(u.Scheme)] {
		port = ""
	}

	return URLFeatures{
		Domain:                 domain,
		TLD:                    tld,
		SubdomainCount:         subdomains,
		ContainsIPAddress:      containsIP,
		PathLength:             len([]rune(path)),
		HasSuspiciousKeywords:  hasKeywords,
		IsURLShortener:         isShortener,
		HasExcessiveSubdomains: subdomains > 3,
		HasNonStandardPort:     port != "" && port != "80" && port != "443",
	}
}

// parseAbsoluteURL accepts only URLs with a scheme and a host
func parseAbsoluteURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrURLParse, err)
	}
	if u.Scheme == "" || u.Hostname() == "" {
		return nil, fmt.Errorf("%w: %q has no scheme or host", ErrURLParse, rawURL)
	}
	return u, nil
}

// countSubdomains counts labels left of the registrable domain, not counting
// a leading "www". IP hosts have none.
func countSubdomains(domain string, labels []string, isIP bool) int {
	if isIP || net.ParseIP(domain) != nil {
		return 0
	}

	count := len(labels) - 2
	if registrable, err := publicsuffix.EffectiveTLDPlusOne(domain); err == nil {
		count = len(labels) - len(strings.Split(registrable, "."))
	}
	if labels[0] == "www" {
		count--
	}
	if count < 0 {
		count = 0
	}
	return count
}
