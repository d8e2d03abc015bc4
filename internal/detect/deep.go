package detect

import (
	"regexp"
	"sort"
	"strings"
)

// DeepResult is the outcome of the phase-2 detector: a per-type confidence
// breakdown with the strongest type driving the overall verdict.
type DeepResult struct {
	IsLegal       bool               `json:"is_legal"`
	DocumentTypes []string           `json:"document_types"`
	Scores        map[string]float64 `json:"confidence_scores"`
	Confidence    float64            `json:"total_confidence"`
	PrimaryType   string             `json:"primary_type,omitempty"`
}

// typePatterns groups the signals for one legal document type.
type typePatterns struct {
	url      []*regexp.Regexp
	content  []*regexp.Regexp
	keywords []string
}

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(`(?i)` + e)
	}
	return out
}

var deepPatterns = map[string]typePatterns{
	"privacy": {
		url: compileAll(
			`privacy[_-]?policy`, `privacy[_-]?notice`, `privacy[_-]?statement`,
			`datenschutz`, `politique[_-]?confidentialite`, `privacidad`,
		),
		content: compileAll(
			`we collect.*information`, `personal data`, `data protection`,
			`cookies.*tracking`, `third[_-]?party.*services`, `gdpr`,
			`california.*privacy.*rights`, `ccpa`, `opt[_-]?out`,
		),
		keywords: []string{
			"personal information", "data collection", "privacy policy",
			"cookies", "tracking", "third party", "gdpr", "ccpa",
		},
	},
	"terms": {
		url: compileAll(
			`terms[_-]?of[_-]?(use|service)`, `terms[_-]?conditions`,
			`user[_-]?agreement`, `service[_-]?agreement`, `tos\b`,
		),
		content: compileAll(
			`terms.*conditions`, `user.*agreement`, `service.*agreement`,
			`prohibited.*use`, `limitation.*liability`, `governing.*law`,
		),
		keywords: []string{
			"terms of service", "user agreement", "prohibited use",
			"limitation of liability", "governing law", "dispute resolution",
		},
	},
	"cookies": {
		url: compileAll(`cookie[_-]?policy`, `cookie[_-]?notice`, `cookie[_-]?consent`),
		content: compileAll(
			`cookies.*website`, `essential.*cookies`, `analytics.*cookies`,
			`advertising.*cookies`, `cookie.*consent`, `manage.*cookies`,
		),
		keywords: []string{
			"cookie policy", "essential cookies", "analytics cookies",
			"advertising cookies", "cookie consent", "manage cookies",
		},
	},
	"copyright": {
		url: compileAll(`copyright`, `dmca`, `intellectual[_-]?property`),
		content: compileAll(
			`copyright.*notice`, `all.*rights.*reserved`, `dmca.*takedown`,
			`intellectual.*property`, `trademark`, `license.*agreement`,
		),
		keywords: []string{
			"copyright notice", "all rights reserved", "dmca takedown",
			"intellectual property", "trademark", "license agreement",
		},
	},
	"legal": {
		url: compileAll(`legal[_-]?notice`, `disclaimer`, `impressum`, `mentions[_-]?legales`),
		content: compileAll(
			`legal.*notice`, `disclaimer`, `limitation.*liability`,
			`governing.*law`, `jurisdiction`, `dispute.*resolution`,
		),
		keywords: []string{
			"legal notice", "disclaimer", "limitation of liability",
			"governing law", "jurisdiction", "dispute resolution",
		},
	},
}

// typeThreshold is the minimum per-type score for a document type to count.
const typeThreshold = 0.3

// deepContentSample bounds raw-HTML inspection when no clean text is available.
const deepContentSample = 5000

// Deep runs the phase-2 detector. cleanText, when non-empty, is preferred
// over the raw HTML sample for content scoring.
func Deep(url, htmlContent, cleanText string) DeepResult {
	res := DeepResult{Scores: make(map[string]float64)}

	content := cleanText
	if content == "" {
		content = htmlContent
		if len(content) > deepContentSample {
			content = content[:deepContentSample]
		}
	}
	contentLower := strings.ToLower(content)

	for docType, patterns := range deepPatterns {
		score := scoreType(url, content, contentLower, patterns)
		if score > typeThreshold {
			res.DocumentTypes = append(res.DocumentTypes, docType)
			res.Scores[docType] = score
		}
	}

	sort.Strings(res.DocumentTypes)
	for _, docType := range res.DocumentTypes {
		if score := res.Scores[docType]; score > res.Confidence {
			res.Confidence = score
			res.PrimaryType = docType
		}
	}
	res.IsLegal = len(res.DocumentTypes) > 0
	return res
}

// scoreType weights URL matches 0.4, content pattern matches 0.2, and keyword
// hits 0.1, capped at 1.0.
func scoreType(url, content, contentLower string, p typePatterns) float64 {
	score := 0.0
	for _, pat := range p.url {
		if pat.MatchString(url) {
			score += 0.4
		}
	}
	for _, pat := range p.content {
		if pat.MatchString(content) {
			score += 0.2
		}
	}
	for _, kw := range p.keywords {
		if strings.Contains(contentLower, kw) {
			score += 0.1
		}
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
