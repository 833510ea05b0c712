package core

import (
	"fmt"
)

const urlPromptFormat = `You are a phishing detection system. Analyze this URL for phishing indicators: %s

URL characteristics:
- Domain: %s
- TLD: %s
- Path length: %d
- Number of subdomains: %d
- Contains IP address: %t
- Contains suspicious keywords: %t
- Known URL shortener: %t
- Excessive subdomains: %t
- Non-standard port: %t

Provide an analysis of whether this URL is likely a phishing attempt.
Respond with a JSON object with the following structure:
{
  "isPhishing": boolean,
  "confidenceScore": integer between 0 and 100,
  "reasons": array of strings explaining the determination,
  "riskLevel": "low", "medium", or "high"
}

Respond only with the JSON object and nothing else.`

const contentPromptFormat = `You are a phishing detection system. Analyze this webpage content for phishing indicators. The webpage is located at: %s

Content overview:
%s

Page characteristics:
- Form elements: %d
- Password fields: %d
- External links: %d
- Images: %d
- Iframes: %d
- Brand logos detected: %t
- Login form detected: %t
- Secure connection: %t
- Redirects: %d

Based on the content and characteristics, determine if this is a phishing page.
Consider:
1. Does it impersonate a legitimate website?
2. Does it ask for sensitive information in a suspicious manner?
3. Are there inconsistencies in branding or content?
4. Are there grammatical errors typical of phishing sites?

Respond with a JSON object with the following structure:
{
  "isPhishing": boolean,
  "confidenceScore": integer between 0 and 100,
  "suspiciousElements": array of strings describing suspicious elements,
  "possibleTargetBrand": string (name of brand being impersonated, if any),
  "riskLevel": "low", "medium", or "high",
  "recommendation": string (action to take)
}

Respond only with the JSON object and nothing else.`

// BuildURLPrompt builds the classifier prompt for a URL analysis
func BuildURLPrompt(url string, f URLFeatures) string {
	return fmt.Sprintf(urlPromptFormat,
		url,
		f.Domain,
		f.TLD,
		f.PathLength,
		f.SubdomainCount,
		f.ContainsIPAddress,
		f.HasSuspiciousKeywords,
		f.IsURLShortener,
		f.HasExcessiveSubdomains,
		f.HasNonStandardPort,
	)
}

// BuildContentPrompt builds the classifier prompt for a page content analysis.
// content must already be truncated.
func BuildContentPrompt(url, content string, d DomFeatures) string {
	return fmt.Sprintf(contentPromptFormat,
		url,
		content,
		d.FormCount,
		d.PasswordFieldCount,
		d.ExternalLinkCount,
		d.ImageCount,
		d.IframeCount,
		d.ContainsLogoImages,
		d.HasLoginForm,
		d.IsSecureConnection,
		d.RedirectCount,
	)
}
