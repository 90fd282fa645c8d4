package oracle

import (
	"fmt"
	"strings"

	"claimcheck/internal/model"
)

// BuildJudgmentPrompt builds the evidence-grounded verdict prompt. The
// schema instructions are part of the contract: the parser rejects
// responses without a verdict field.
func BuildJudgmentPrompt(claimText string, evidence []model.Evidence) string {
	var evidenceBlock string
	if len(evidence) > 0 {
		var lines []string
		for i, e := range evidence {
			date := e.Date
			if date == "" {
				date = "unknown"
			}
			u := e.URL
			if u == "" {
				u = "N/A"
			}
			snippet := e.Snippet
			if snippet == "" {
				snippet = "N/A"
			}
			lines = append(lines, fmt.Sprintf("%d) Source: %s | URL: %s | Date: %s | Content: %s",
				i+1, e.Source, u, date, snippet))
		}
		evidenceBlock = strings.Join(lines, "\n")
	} else {
		evidenceBlock = "No external evidence available. Analyze based on claim plausibility and common knowledge about Mumbai."
	}

	return fmt.Sprintf(`You are an expert fact-checker specializing in Mumbai news and events. Your job is to verify claims about Mumbai (local trains, traffic, floods, accidents, etc.).

CLAIM TO VERIFY: """%s"""

AVAILABLE EVIDENCE:
%s

INSTRUCTIONS:
1. If evidence supports the claim, verdict is "confirmed"
2. If evidence contradicts the claim, verdict is "contradicted"
3. If no clear evidence or ambiguous, verdict is "insufficient"
4. Always provide a clear rationale explaining your reasoning
5. Be specific about Mumbai locations, train lines, and local context

Return ONLY valid JSON in this exact format:
{
  "verdict": "confirmed" | "contradicted" | "insufficient",
  "confidence": <number between 0.0 and 1.0>,
  "rationale": "<2-3 sentences explaining your verdict with specific details>",
  "evidence_used": [{"url": "<source url>", "excerpt": "<relevant quote>"}],
  "key_facts": ["<fact 1>", "<fact 2>"]
}`, claimText, evidenceBlock)
}

// BuildDirectAnalysisPrompt builds the evidence-free analysis prompt, used
// only when the grounded judgment yields nothing usable
func BuildDirectAnalysisPrompt(claimText string) string {
	return fmt.Sprintf(`You are a Mumbai fact-checker AI. Analyze this claim and provide insights even without external evidence.

CLAIM: """%s"""

Analyze this claim about Mumbai considering:
1. Is this claim plausible based on Mumbai's geography, infrastructure, and common events?
2. Does it contain any red flags for misinformation (sensationalism, vague details, urgency)?
3. What would be needed to verify this claim?
4. What is the potential impact if this is false?

Return JSON:
{
  "verdict": "likely_true" | "likely_false" | "needs_verification",
  "confidence": <0.0 to 1.0>,
  "analysis": "<detailed analysis in 3-4 sentences>",
  "red_flags": ["<flag 1>", "<flag 2>"],
  "verification_steps": ["<step 1>", "<step 2>"],
  "impact_if_false": "<potential harm>"
}`, claimText)
}

// BuildExplanationPrompt builds a per-language explanation prompt for the
// fused verdict
func BuildExplanationPrompt(claimText string, status model.Status, evidence []model.Evidence, lang string) string {
	langName := "English"
	switch lang {
	case "hi":
		langName = "Hindi"
	case "mr":
		langName = "Marathi"
	}

	var evidenceText string
	if len(evidence) > 0 {
		var lines []string
		for i, e := range evidence {
			if i >= 3 {
				break
			}
			u := e.URL
			if u == "" {
				u = "Source"
			}
			snippet := clip(e.Snippet, 150)
			lines = append(lines, fmt.Sprintf("- %s: %q", u, snippet))
		}
		evidenceText = strings.Join(lines, "\n")
	} else {
		evidenceText = "Based on analysis of the claim content."
	}

	glyph, label := VerdictGlyph(status)

	return fmt.Sprintf(`Generate a helpful fact-check explanation in %s for sharing on social media.

CLAIM: """%s"""
VERDICT: %s
EVIDENCE:
%s

FORMAT YOUR RESPONSE AS:
%s %s: [One clear sentence about what the claim states]

[2-3 sentences explaining WHY this verdict was reached, citing specific evidence or reasoning]

[One action recommendation - what should people do with this information]

RULES:
- Write in %s language
- Keep total response under 300 characters for sharing
- Be clear, factual, and helpful
- Do not include JSON, just the formatted text message`,
		langName, claimText, label, evidenceText, glyph, label, langName)
}

// VerdictGlyph returns the status glyph and label used in explanations
func VerdictGlyph(status model.Status) (glyph, label string) {
	switch status {
	case model.StatusConfirmed:
		return "✅", "TRUE"
	case model.StatusContradicted:
		return "❌", "FALSE"
	default:
		return "⚠️", "UNVERIFIED"
	}
}
