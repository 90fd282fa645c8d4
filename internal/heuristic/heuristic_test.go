package heuristic

import (
	"testing"

	"claimcheck/internal/model"
)

func TestEvaluate_RelevantEvidence(t *testing.T) {
	evidence := []model.Evidence{
		{
			Source:  model.SourceOfficial,
			URL:     "https://news.example.com/bandra-flood",
			Snippet: "Heavy flooding reported across Bandra after overnight rain, civic teams deployed.",
		},
	}

	got := Evaluate("Flooding in Bandra near the station", evidence)

	if got.Status != model.StatusConfirmed {
		t.Errorf("Expected confirmed, got %s", got.Status)
	}
	if got.Confidence != 0.75 {
		t.Errorf("Expected confidence 0.75, got %.2f", got.Confidence)
	}
	if got.Rule != "relevant-evidence" {
		t.Errorf("Expected rule relevant-evidence, got %s", got.Rule)
	}
}

func TestEvaluate_UrgencyMarkers(t *testing.T) {
	got := Evaluate("Share this before it gets deleted! Government hiding the truth", nil)

	if got.Status != model.StatusContradicted {
		t.Errorf("Expected contradicted, got %s", got.Status)
	}
	if got.Confidence != 0.65 {
		t.Errorf("Expected confidence 0.65, got %.2f", got.Confidence)
	}
	if got.Rule != "urgency-markers" {
		t.Errorf("Expected rule urgency-markers, got %s", got.Rule)
	}
}

func TestEvaluate_CrisisNoEvidence(t *testing.T) {
	got := Evaluate("Heavy rain expected tomorrow in Thane", nil)

	if got.Status != model.StatusUnconfirmed {
		t.Errorf("Expected unconfirmed, got %s", got.Status)
	}
	if got.Confidence != 0.4 {
		t.Errorf("Expected confidence 0.4, got %.2f", got.Confidence)
	}
	if got.Rule != "crisis-no-evidence" {
		t.Errorf("Expected rule crisis-no-evidence, got %s", got.Rule)
	}
}

func TestEvaluate_MumbaiWeakEvidence(t *testing.T) {
	// Mumbai claim, no crisis keyword, evidence exists but is too thin to
	// count as corroboration
	evidence := []model.Evidence{
		{URL: "https://example.com/a", Snippet: "short"},
	}

	got := Evaluate("New footbridge opened at Andheri", evidence)

	if got.Status != model.StatusUnconfirmed {
		t.Errorf("Expected unconfirmed, got %s", got.Status)
	}
	if got.Confidence != 0.55 {
		t.Errorf("Expected confidence 0.55, got %.2f", got.Confidence)
	}
	if got.Rule != "mumbai-weak-evidence" {
		t.Errorf("Expected rule mumbai-weak-evidence, got %s", got.Rule)
	}
}

func TestEvaluate_Default(t *testing.T) {
	got := Evaluate("The library changed its opening hours", nil)

	if got.Status != model.StatusUnconfirmed {
		t.Errorf("Expected unconfirmed, got %s", got.Status)
	}
	if got.Confidence != 0.3 {
		t.Errorf("Expected confidence 0.3, got %.2f", got.Confidence)
	}
	if got.Rule != "default" {
		t.Errorf("Expected rule default, got %s", got.Rule)
	}
}

func TestEvaluate_BranchPrecedence(t *testing.T) {
	// A claim that trips every rule at once: real evidence wins
	evidence := []model.Evidence{
		{
			URL:     "https://news.example.com/mumbai",
			Snippet: "Officials confirmed flooding in Mumbai low-lying areas on Tuesday evening.",
		},
	}

	got := Evaluate("URGENT share this: flooding in Mumbai right now", evidence)
	if got.Rule != "relevant-evidence" {
		t.Errorf("Expected relevant-evidence to take precedence, got %s", got.Rule)
	}

	// Without usable evidence, urgency beats crisis
	got = Evaluate("URGENT share this: flooding in Mumbai right now", nil)
	if got.Rule != "urgency-markers" {
		t.Errorf("Expected urgency-markers to beat crisis rule, got %s", got.Rule)
	}

	// Crisis keyword beats the Mumbai weak-evidence rule
	got = Evaluate("Flooding in Mumbai", []model.Evidence{{URL: "https://example.com", Snippet: "x"}})
	if got.Rule != "crisis-no-evidence" {
		t.Errorf("Expected crisis-no-evidence to beat mumbai-weak-evidence, got %s", got.Rule)
	}
}

func TestEvaluate_PlaceholderSnippetsIgnored(t *testing.T) {
	evidence := []model.Evidence{
		{URL: "https://example.com/a", Snippet: "No results found for this query on the indexed news sources today"},
		{URL: "https://example.com/b", Snippet: "Matched seed image"},
	}

	got := Evaluate("Flooding reported in Dadar", evidence)

	if got.Rule != "crisis-no-evidence" {
		t.Errorf("Expected placeholder snippets to be ignored, got rule %s", got.Rule)
	}
}

func TestEvaluate_IrrelevantEvidenceIgnored(t *testing.T) {
	// Long, real-looking snippet that shares no location or crisis token
	// with the claim
	evidence := []model.Evidence{
		{
			URL:     "https://example.com/sports",
			Snippet: "The cricket team announced its squad for the upcoming tour on Monday.",
		},
	}

	got := Evaluate("Fire at a warehouse in Kurla", evidence)

	if got.Rule != "crisis-no-evidence" {
		t.Errorf("Expected irrelevant evidence to be ignored, got rule %s", got.Rule)
	}
}

func TestEvaluate_Multilingual(t *testing.T) {
	got := Evaluate("बांद्रा में बाढ़ का पानी भर गया", nil)
	if got.Rule != "crisis-no-evidence" {
		t.Errorf("Expected Hindi crisis keyword to fire crisis rule, got %s", got.Rule)
	}

	got = Evaluate("हे शेअर करा सगळ्यांना", nil)
	if got.Rule != "urgency-markers" {
		t.Errorf("Expected Marathi urgency marker to fire, got %s", got.Rule)
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	evidence := []model.Evidence{
		{URL: "https://example.com/a", Snippet: "Waterlogging at Sion circle slowed traffic for hours, officials said."},
	}
	text := "Waterlogging at Sion circle"

	first := Evaluate(text, evidence)
	for i := 0; i < 5; i++ {
		if got := Evaluate(text, evidence); got != first {
			t.Fatalf("Expected identical verdicts on repeated calls, got %+v vs %+v", got, first)
		}
	}
}
