// Package analyze invokes Claude to extract structured clause analyses from
// legal document text. Any call or parse failure yields the well-defined
// empty analysis so a single document can never abort a phase.
package analyze

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/legalcrawl/internal/model"
	"github.com/sells-group/legalcrawl/pkg/anthropic"
)

// Config configures the analyzer.
type Config struct {
	Model       string
	MaxTokens   int64
	Temperature float64
}

// Analyzer classifies clause content one document at a time and keeps a
// running usage-unit counter across calls.
type Analyzer struct {
	client     anthropic.Client
	cfg        Config
	tokensUsed int64
	calls      int
}

// New creates an Analyzer.
func New(client anthropic.Client, cfg Config) *Analyzer {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2000
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.1
	}
	return &Analyzer{client: client, cfg: cfg}
}

// AnalyzeDocument classifies one document's clean text. It returns the
// analysis and the tokens consumed by this call; malformed or empty model
// output is replaced by the empty analysis rather than surfaced as an error.
func (a *Analyzer) AnalyzeDocument(ctx context.Context, cleanText, url string) (model.Analysis, int) {
	a.calls++
	temp := a.cfg.Temperature

	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       a.cfg.Model,
		MaxTokens:   a.cfg.MaxTokens,
		System:      systemPrompt,
		Messages:    []anthropic.Message{{Role: "user", Content: userPrompt(cleanText, url)}},
		Temperature: &temp,
	})
	if err != nil {
		zap.L().Error("clause analysis call failed",
			zap.String("url", url), zap.Error(err))
		return model.EmptyAnalysis(), 0
	}

	tokens := int(resp.Usage.Total())
	a.tokensUsed += resp.Usage.Total()

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		zap.L().Warn("empty clause analysis response", zap.String("url", url))
		return model.EmptyAnalysis(), tokens
	}

	analysis, ok := parseAnalysis(text)
	if !ok {
		zap.L().Error("malformed clause analysis response",
			zap.String("url", url),
			zap.String("head", head(text, 200)),
		)
		return model.EmptyAnalysis(), tokens
	}
	return analysis, tokens
}

// TokensUsed returns the cumulative usage-unit count across all calls.
func (a *Analyzer) TokensUsed() int {
	return int(a.tokensUsed)
}

// Calls returns the number of classification calls made.
func (a *Analyzer) Calls() int {
	return a.calls
}

// parseAnalysis decodes the model's JSON, tolerating markdown code fences.
func parseAnalysis(text string) (model.Analysis, bool) {
	text = stripFences(text)

	var analysis model.Analysis
	if err := json.Unmarshal([]byte(text), &analysis); err != nil {
		return model.Analysis{}, false
	}
	// Normalize nils so downstream counts and snapshots are stable.
	empty := model.EmptyAnalysis()
	if analysis.CopyrightClauses == nil {
		analysis.CopyrightClauses = empty.CopyrightClauses
	}
	if analysis.AccessLevel.Level == "" {
		analysis.AccessLevel = empty.AccessLevel
	}
	if analysis.AccessLevel.Indicators == nil {
		analysis.AccessLevel.Indicators = []string{}
	}
	if analysis.TechnicalProtectionMeasures == nil {
		analysis.TechnicalProtectionMeasures = empty.TechnicalProtectionMeasures
	}
	if analysis.LiabilityClauses == nil {
		analysis.LiabilityClauses = empty.LiabilityClauses
	}
	if analysis.JurisdictionClauses == nil {
		analysis.JurisdictionClauses = empty.JurisdictionClauses
	}
	if analysis.DataLicensing == nil {
		analysis.DataLicensing = empty.DataLicensing
	}
	return analysis, true
}

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

func head(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
