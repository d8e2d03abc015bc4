// Package detect identifies legal documents (privacy policies, terms of
// service, cookie policies, copyright and legal notices) from URLs and page
// content. Fast favors recall and runs once per archive record; Deep favors
// precision and runs only on records that survived the fast pass.
package detect

import (
	"regexp"
	"strings"
)

// FastResult is the outcome of the phase-1 detector.
type FastResult struct {
	IsLegal    bool    `json:"is_legal"`
	Confidence float64 `json:"confidence"`
	Method     string  `json:"detection_method"`
}

var fastURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)privacy`),
	regexp.MustCompile(`(?i)terms`),
	regexp.MustCompile(`(?i)legal`),
	regexp.MustCompile(`(?i)cookie`),
	regexp.MustCompile(`(?i)policy`),
	regexp.MustCompile(`(?i)agreement`),
	regexp.MustCompile(`(?i)disclaimer`),
	regexp.MustCompile(`(?i)copyright`),
	regexp.MustCompile(`(?i)license`),
	regexp.MustCompile(`(?i)tos\b`),
	regexp.MustCompile(`(?i)gdpr`),
	regexp.MustCompile(`(?i)impressum`),
	regexp.MustCompile(`(?i)ccpa`),
	regexp.MustCompile(`(?i)dmca`),
}

var fastKeywords = []string{
	"privacy", "terms", "legal", "cookie", "policy", "agreement",
	"copyright", "license", "gdpr", "ccpa", "dmca", "disclaimer",
	"impressum", "datenschutz", "mentions", "legales",
}

// fastSampleSize bounds how much content the fast keyword scan inspects.
const fastSampleSize = 2000

// Fast runs the phase-1 detector on a record's URL and raw payload.
// URL matches win immediately; otherwise at least two distinct keywords in
// the leading content sample are required.
func Fast(url string, payload []byte) FastResult {
	for _, p := range fastURLPatterns {
		if p.MatchString(url) {
			return FastResult{IsLegal: true, Confidence: 0.7, Method: "url_pattern"}
		}
	}

	sample := payload
	if len(sample) > fastSampleSize {
		sample = sample[:fastSampleSize]
	}
	content := strings.ToLower(string(sample))

	matches := 0
	for _, kw := range fastKeywords {
		if strings.Contains(content, kw) {
			matches++
		}
	}
	if matches >= 2 {
		conf := 0.3 + float64(matches)*0.1
		if conf > 0.9 {
			conf = 0.9
		}
		return FastResult{IsLegal: true, Confidence: conf, Method: "fast_keywords"}
	}

	return FastResult{Method: "fast_rejection"}
}
