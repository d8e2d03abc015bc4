package analyze

import "fmt"

// systemPrompt instructs the model to return only the analysis JSON.
const systemPrompt = `You are a legal AI assistant specialized in analyzing web legal documents (privacy policies, terms of service, etc.) for specific copyright and access control clauses.

Your task is to identify and classify specific types of legal clauses in the provided text.

IMPORTANT: Return ONLY a valid JSON object with no additional text, formatting, or explanations.

JSON Structure:
{
    "copyright_clauses": [
        {
            "text": "exact quote from document",
            "category": "one of the categories below",
            "confidence": 0.8,
            "context": "surrounding context"
        }
    ],
    "access_level": {
        "level": "L0_OPEN_ACCESS",
        "indicators": ["list of specific indicators found"],
        "confidence": 0.8
    },
    "technical_protection_measures": ["list of TPM mentions"],
    "liability_clauses": ["list of liability/indemnification clauses"],
    "jurisdiction_clauses": ["list of jurisdiction/governing law clauses"],
    "data_licensing": ["list of specific data licensing terms"]
}

COPYRIGHT CATEGORIES:
- COPYRIGHT_RETAINED_SITE: Website/service provider retains copyright
- COPYRIGHT_RETAINED_USER: User retains copyright over submitted content
- COPYRIGHT_LICENSED_TO_SITE: User grants specific license to site
- COPYRIGHT_WAIVED: Copyright is waived (public domain)
- HARD_NEGATIVE_DMCA: DMCA/copyright infringement procedures
- HARD_NEGATIVE_THIRD_PARTY: Third-party content/links copyright
- HARD_NEGATIVE_LICENSE_GRANT: User grants license (not full retention)
- EASY_NEGATIVE_IRRELEVANT: Clearly not about copyright
- AMBIGUOUS_COPYRIGHT: Unclear copyright clauses

ACCESS LEVELS:
- L0_OPEN_ACCESS: Standard HTML, simple GET request
- L1_ROBOTS_DISALLOW: robots.txt restrictions
- L2_DYNAMIC_CONTENT: Requires JavaScript rendering
- L3_ACCESS_CONTROL_SIMPLE: Login required, no anti-bot
- L4_ACCESS_CONTROL_CAPTCHA: CAPTCHA protected
- L5_ANTI_BOT_SERVICE: Advanced anti-bot (Cloudflare, etc.)
- L6_PAYWALL: Behind paywall
- L7_BLOCKED: Geo-blocked or unavailable

Return only the JSON object, no other text.`

// maxDocumentChars bounds how much document text is sent per call.
const maxDocumentChars = 4000

// userPrompt formats the per-document prompt, truncating long documents.
func userPrompt(text, url string) string {
	if len(text) > maxDocumentChars {
		text = text[:maxDocumentChars] + "... [truncated]"
	}
	return fmt.Sprintf("Analyze this legal document from URL: %s\n\nDocument text:\n%s\n\nReturn only valid JSON following the specified format.", url, text)
}
