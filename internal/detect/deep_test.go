package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeepPrivacyPolicy(t *testing.T) {
	text := "We collect personal information from visitors. Personal data is processed " +
		"under data protection law. See our privacy policy for GDPR and CCPA details, " +
		"including how to opt-out of tracking cookies."

	res := Deep("https://example.com/privacy-policy", "", text)
	require.True(t, res.IsLegal)
	assert.Contains(t, res.DocumentTypes, "privacy")
	assert.Equal(t, "privacy", res.PrimaryType)
	assert.Greater(t, res.Confidence, typeThreshold)
	assert.LessOrEqual(t, res.Confidence, 1.0)
}

func TestDeepTermsOfService(t *testing.T) {
	text := "This user agreement sets out the terms and conditions of use. " +
		"Prohibited use of the service is described below. Limitation of liability " +
		"and governing law clauses apply; dispute resolution is by arbitration."

	res := Deep("https://example.com/terms-of-service", "", text)
	require.True(t, res.IsLegal)
	assert.Equal(t, "terms", res.PrimaryType)
}

func TestDeepMultipleTypesSorted(t *testing.T) {
	text := "Our privacy policy explains personal data handling and cookie consent. " +
		"Essential cookies and analytics cookies are described in the cookie policy. " +
		"You can manage cookies at any time. We collect personal information under GDPR."

	res := Deep("https://example.com/privacy-policy", "", text)
	require.True(t, res.IsLegal)
	require.GreaterOrEqual(t, len(res.DocumentTypes), 2)
	for i := 1; i < len(res.DocumentTypes); i++ {
		assert.Less(t, res.DocumentTypes[i-1], res.DocumentTypes[i], "document types must be sorted")
	}
	for _, dt := range res.DocumentTypes {
		assert.Greater(t, res.Scores[dt], typeThreshold)
	}
}

func TestDeepRejectsNonLegalContent(t *testing.T) {
	res := Deep("https://example.com/blog/recipe", "",
		"Preheat the oven to 180 degrees and whisk the eggs with the sugar.")
	assert.False(t, res.IsLegal)
	assert.Empty(t, res.DocumentTypes)
	assert.Empty(t, res.PrimaryType)
	assert.Zero(t, res.Confidence)
}

func TestDeepFallsBackToHTMLSample(t *testing.T) {
	html := "<html><body><h1>Privacy Policy</h1><p>We collect personal information. " +
		"Personal data and data protection under GDPR. Opt-out of tracking and cookies " +
		"via third party settings.</p></body></html>"

	res := Deep("https://example.com/privacy-policy", html, "")
	assert.True(t, res.IsLegal)
	assert.Contains(t, res.DocumentTypes, "privacy")
}

func TestDeepConfidenceIsMaxScore(t *testing.T) {
	text := "Copyright notice: all rights reserved. DMCA takedown requests honored. " +
		"Intellectual property and trademark information. License agreement terms."

	res := Deep("https://example.com/copyright", "", text)
	require.True(t, res.IsLegal)
	for _, dt := range res.DocumentTypes {
		assert.GreaterOrEqual(t, res.Confidence, res.Scores[dt])
	}
	assert.Equal(t, res.Confidence, res.Scores[res.PrimaryType])
}
