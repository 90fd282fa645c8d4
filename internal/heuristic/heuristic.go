// Package heuristic is the deterministic last-resort verdict tier. It makes
// no network calls and never fails, which is what guarantees the pipeline
// always terminates with a verdict.
package heuristic

import (
	"strings"

	"claimcheck/internal/model"
)

// Verdict is the heuristic's output
type Verdict struct {
	Status     model.Status
	Confidence float64
	// Rule names the branch that fired, for diagnostics
	Rule string
}

// Location tokens recognized as Mumbai-relevant
var locationTokens = []string{
	"mumbai", "bandra", "andheri", "dadar", "thane", "borivali", "churchgate",
	"kurla", "vashi", "chembur", "ghatkopar", "malad", "goregaon", "santacruz",
	"vile parle", "byculla", "colaba", "worli", "powai", "mulund", "sion",
	"western line", "central line", "harbour line", "local train",
}

// Crisis keywords indicating a localized crisis event
var crisisTokens = []string{
	"flood", "flooding", "waterlogging", "fire", "collapse", "collapsed",
	"derail", "derailed", "accident", "stampede", "riot", "evacuate",
	"evacuation", "landslide", "outage", "blast", "leak", "injured", "death",
	"drowned", "stranded", "heavy rain", "cyclone", "storm",
	"बाढ़", "आग", "पूर", "अपघात",
}

// Misinformation-style urgency markers
var urgencyMarkers = []string{
	"share this", "forward this", "forward to everyone", "breaking",
	"urgent", "share before deleted", "media is hiding", "viral",
	"शेयर करें", "फॉरवर्ड करें", "शेअर करा",
}

// Placeholder snippets that scrapers return when they have nothing real
var placeholderSnippets = []string{
	"no result", "no results found", "matched seed image", "n/a",
	"page not found",
}

// minRealSnippetLen is the minimum length for a snippet to count as real
// corroboration
const minRealSnippetLen = 30

// Evaluate scores a claim from text and evidence alone.
//
// Branch order resolves the rule-precedence ambiguity deliberately: the
// crisis-specific no-evidence rule (0.4) fires before the generic default
// (0.3), so 0.3 is only reachable for non-crisis, non-Mumbai claims.
func Evaluate(text string, evidence []model.Evidence) Verdict {
	lower := strings.ToLower(text)

	isMumbai := containsAny(lower, locationTokens)
	isCrisis := containsAny(lower, crisisTokens)
	hasUrgency := containsAny(lower, urgencyMarkers)
	hasRealEvidence := hasRelevantEvidence(lower, evidence)

	switch {
	case hasRealEvidence:
		return Verdict{Status: model.StatusConfirmed, Confidence: 0.75, Rule: "relevant-evidence"}
	case hasUrgency:
		return Verdict{Status: model.StatusContradicted, Confidence: 0.65, Rule: "urgency-markers"}
	case isCrisis:
		return Verdict{Status: model.StatusUnconfirmed, Confidence: 0.4, Rule: "crisis-no-evidence"}
	case isMumbai && len(evidence) > 0:
		return Verdict{Status: model.StatusUnconfirmed, Confidence: 0.55, Rule: "mumbai-weak-evidence"}
	default:
		return Verdict{Status: model.StatusUnconfirmed, Confidence: 0.3, Rule: "default"}
	}
}

// hasRelevantEvidence reports whether any evidence snippet is non-trivial
// and textually overlaps the claim's keyword or location tokens
func hasRelevantEvidence(lowerText string, evidence []model.Evidence) bool {
	for _, e := range evidence {
		snippet := strings.ToLower(strings.TrimSpace(e.Snippet))
		if len(snippet) <= minRealSnippetLen {
			continue
		}
		if isPlaceholder(snippet) {
			continue
		}
		if overlaps(lowerText, snippet, locationTokens) || overlaps(lowerText, snippet, crisisTokens) {
			return true
		}
	}
	return false
}

// overlaps reports whether text and snippet share at least one token from
// the given set
func overlaps(lowerText, snippet string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(lowerText, tok) && strings.Contains(snippet, tok) {
			return true
		}
	}
	return false
}

func isPlaceholder(snippet string) bool {
	for _, p := range placeholderSnippets {
		if strings.Contains(snippet, p) {
			return true
		}
	}
	return false
}

func containsAny(s string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(s, tok) {
			return true
		}
	}
	return false
}
