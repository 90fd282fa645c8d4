// Package fusion combines oracle verdicts, the heuristic verdict, image
// evidence and the recency assessment into one final status, confidence and
// priority. Precedence is fixed and ties break deterministically.
package fusion

import (
	"strings"

	"claimcheck/internal/heuristic"
	"claimcheck/internal/model"
	"claimcheck/internal/oracle"
)

// Confidence caps applied to direct (evidence-free) oracle verdicts
const (
	directTrueCap  = 0.85
	directFalseCap = 0.8
)

// Harm keywords raise base priority to 8
var harmKeywords = []string{
	"flood", "collapsed", "evacuate", "fire", "derail", "riot", "death",
	"injured", "bleeding", "stampede", "drowned", "blast",
}

// Inputs are the signals available after the oracle tier ran
type Inputs struct {
	ClaimText string
	// Grounded is the evidence-grounded oracle verdict, nil if unusable
	Grounded *oracle.GroundedVerdict
	// Direct is the evidence-free oracle verdict, nil if unusable or not
	// attempted
	Direct *oracle.DirectVerdict
	// Heuristic is the deterministic fallback, always present
	Heuristic heuristic.Verdict
	// Evidence is the gathered list, image-match items first
	Evidence []model.Evidence
	// Recency is the recency assessment for the claim
	Recency model.RecencyAssessment
}

// Diagnostics records which signals decided the outcome, persisted for audit
type Diagnostics struct {
	Tier          string `json:"tier"` // "grounded", "direct", or "heuristic"
	HeuristicRule string `json:"heuristic_rule,omitempty"`
	Rationale     string `json:"rationale,omitempty"`
	RecencyIssue  bool   `json:"recency_issue,omitempty"`
	RecencyNote   bool   `json:"recency_note,omitempty"`
	ImageOverride bool   `json:"image_override,omitempty"`
}

// Result is the fused verdict
type Result struct {
	Status      model.Status
	Confidence  float64
	Priority    int
	Evidence    []model.Evidence
	Diagnostics Diagnostics
}

// Fuse applies the tiered fusion rules, then the post-fusion overrides, in
// their fixed order.
func Fuse(in Inputs) Result {
	res := Result{}

	// Tier 1-3: first usable signal wins
	switch {
	case in.Grounded != nil:
		res.Diagnostics.Tier = "grounded"
		res.Diagnostics.Rationale = in.Grounded.Rationale
		res.Confidence = in.Grounded.ConfidenceOr(0.5)
		switch in.Grounded.Verdict {
		case oracle.VerdictConfirmed:
			res.Status = model.StatusConfirmed
		case oracle.VerdictContradicted:
			res.Status = model.StatusContradicted
		default:
			res.Status = model.StatusUnconfirmed
		}

	case in.Direct != nil:
		res.Diagnostics.Tier = "direct"
		res.Diagnostics.Rationale = in.Direct.Analysis
		res.Confidence = in.Direct.ConfidenceOr(0.5)
		switch in.Direct.Verdict {
		case oracle.VerdictLikelyTrue:
			res.Status = model.StatusConfirmed
			if res.Confidence > directTrueCap {
				res.Confidence = directTrueCap
			}
		case oracle.VerdictLikelyFalse:
			res.Status = model.StatusContradicted
			if res.Confidence > directFalseCap {
				res.Confidence = directFalseCap
			}
		default:
			res.Status = model.StatusUnconfirmed
		}

	default:
		res.Diagnostics.Tier = "heuristic"
		res.Diagnostics.HeuristicRule = in.Heuristic.Rule
		res.Status = in.Heuristic.Status
		res.Confidence = in.Heuristic.Confidence
	}

	// Recency override: a confirmed verdict built on stale evidence for a
	// current-tense claim is itself the misinformation signal
	recencyOverrideFired := false
	if in.Recency.Status == model.RecencyOldReshared && res.Status == model.StatusConfirmed {
		res.Status = model.StatusContradicted
		if res.Confidence < 0.7 {
			res.Confidence = 0.7
		}
		res.Diagnostics.RecencyIssue = true
		recencyOverrideFired = true
		if res.Diagnostics.Rationale != "" {
			res.Diagnostics.Rationale += " "
		}
		res.Diagnostics.Rationale += "The supporting evidence predates the claim by more than a month; this appears to be old news reshared as current."
	} else if in.Recency.Status == model.RecencyOld && res.Status == model.StatusConfirmed {
		res.Confidence -= 0.15
		if res.Confidence < 0.5 {
			res.Confidence = 0.5
		}
		res.Diagnostics.RecencyNote = true
	}

	// Image-evidence override: a reverse-image match against the
	// known-stale-image index outranks text-only reasoning
	if model.HasImageMatch(in.Evidence) {
		res.Status = model.StatusContradicted
		if res.Confidence < 0.85 {
			res.Confidence = 0.85
		}
		res.Diagnostics.ImageOverride = true
	}

	// Priority: monotonic in harm-keyword presence and confidence
	priority := 3
	if containsHarmKeyword(in.ClaimText) {
		priority = 8
	}
	if res.Confidence > 0.8 && priority < 7 {
		priority = 7
	}
	if recencyOverrideFired && priority < 7 {
		priority = 7
	}
	res.Priority = priority

	// Evidence: dedup by URL, then merge oracle-surfaced citations whose
	// URLs are new
	res.Evidence = mergeEvidence(in.Evidence, in.Grounded)

	return res
}

// mergeEvidence deduplicates by non-empty URL and appends oracle-surfaced
// evidence only when its URL is unseen. Image-match items keep their place
// at the front.
func mergeEvidence(evidence []model.Evidence, grounded *oracle.GroundedVerdict) []model.Evidence {
	seen := make(map[string]bool)
	merged := make([]model.Evidence, 0, len(evidence))

	for _, e := range evidence {
		if e.URL != "" {
			if seen[e.URL] {
				continue
			}
			seen[e.URL] = true
		}
		merged = append(merged, e)
	}

	if grounded != nil {
		for _, ref := range grounded.EvidenceUsed {
			if ref.URL == "" || seen[ref.URL] {
				continue
			}
			seen[ref.URL] = true
			merged = append(merged, model.Evidence{
				Source:  model.SourceAIAnalysis,
				URL:     ref.URL,
				Snippet: ref.Excerpt,
			})
		}
	}

	return merged
}

func containsHarmKeyword(text string) bool {
	lower := strings.ToLower(text)
	for _, k := range harmKeywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}
