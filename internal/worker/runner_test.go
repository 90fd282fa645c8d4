package worker

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"claimcheck/internal/explain"
	"claimcheck/internal/model"
	"claimcheck/internal/notify"
	"claimcheck/internal/oracle"
	"claimcheck/internal/store"
)

var testNow = time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

// stubGatherer returns a fixed evidence list
type stubGatherer struct {
	evidence []model.Evidence
}

func (s *stubGatherer) Gather(ctx context.Context, text string, media []string) []model.Evidence {
	return s.evidence
}

// stubOracle returns canned verdicts or errors
type stubOracle struct {
	grounded    *oracle.GroundedVerdict
	groundedErr error
	direct      *oracle.DirectVerdict
	directErr   error

	groundedCalls int
	directCalls   int
	panics        bool
}

func (s *stubOracle) JudgeWithEvidence(ctx context.Context, claimText string, evidence []model.Evidence) (*oracle.GroundedVerdict, error) {
	s.groundedCalls++
	if s.panics {
		panic("oracle exploded")
	}
	return s.grounded, s.groundedErr
}

func (s *stubOracle) AnalyzeDirect(ctx context.Context, claimText string) (*oracle.DirectVerdict, error) {
	s.directCalls++
	return s.direct, s.directErr
}

// recordingNotifier captures notifications and can fail on demand
type recordingNotifier struct {
	sent []notify.Notification
	err  error
}

func (r *recordingNotifier) Notify(ctx context.Context, n notify.Notification) error {
	r.sent = append(r.sent, n)
	return r.err
}

func conf(v float64) *float64 { return &v }

func newTestRunner(st store.ClaimStore, g Gatherer, o Oracle, n Notifier) *Runner {
	r := NewRunner(st, g, nil, o, explain.New(nil), n, 0.85)
	r.now = func() time.Time { return testNow }
	return r
}

func createClaim(t *testing.T, st store.ClaimStore, claim *model.Claim) {
	t.Helper()
	if err := st.Create(context.Background(), claim); err != nil {
		t.Fatalf("Expected no error creating claim, got %v", err)
	}
}

func TestProcess_GroundedVerdictCompletes(t *testing.T) {
	st := store.NewMemoryStore()
	createClaim(t, st, &model.Claim{ID: "c-1", Text: "Flooding in Bandra right now"})

	o := &stubOracle{
		grounded: &oracle.GroundedVerdict{
			Verdict:    oracle.VerdictConfirmed,
			Confidence: conf(0.9),
			Rationale:  "Two recent official reports describe the flooding.",
		},
	}
	g := &stubGatherer{evidence: []model.Evidence{
		{Source: model.SourceOfficial, URL: "https://news.example.com/a",
			Snippet: "Flooding reported across Bandra on Thursday morning.",
			Date:    testNow.AddDate(0, 0, -1).Format("2006-01-02")},
	}}
	n := &recordingNotifier{}
	r := newTestRunner(st, g, o, n)

	if err := r.Process(context.Background(), model.VerificationJob{ClaimID: "c-1"}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	got, err := st.Get(context.Background(), "c-1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got.Status != model.StatusConfirmed {
		t.Errorf("Expected confirmed, got %s", got.Status)
	}
	if got.Confidence != 0.9 {
		t.Errorf("Expected confidence 0.9, got %.2f", got.Confidence)
	}
	if got.VerifiedAt == nil {
		t.Error("Expected VerifiedAt set")
	}
	for _, lang := range model.Languages {
		if got.Explanations[lang] == "" {
			t.Errorf("Expected %s explanation", lang)
		}
	}
	if o.directCalls != 0 {
		t.Errorf("Expected no direct analysis when grounded verdict usable, got %d calls", o.directCalls)
	}
	if len(n.sent) != 1 {
		t.Fatalf("Expected 1 notification, got %d", len(n.sent))
	}
	if !n.sent[0].Publish {
		t.Error("Expected auto-publish at priority>=7 and confidence>=0.85")
	}
}

func TestProcess_FallsBackToDirectThenHeuristic(t *testing.T) {
	st := store.NewMemoryStore()
	createClaim(t, st, &model.Claim{ID: "c-1", Text: "Heavy rain expected tomorrow in Thane"})

	// Both oracle tiers unusable: the deterministic heuristic decides
	o := &stubOracle{
		groundedErr: errors.New("no JSON object in response"),
		directErr:   errors.New("oracle unreachable"),
	}
	r := newTestRunner(st, &stubGatherer{}, o, nil)

	if err := r.Process(context.Background(), model.VerificationJob{ClaimID: "c-1"}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	got, _ := st.Get(context.Background(), "c-1")
	if got.Status != model.StatusUnconfirmed {
		t.Errorf("Expected unconfirmed from heuristic, got %s", got.Status)
	}
	if got.Confidence != 0.4 {
		t.Errorf("Expected crisis heuristic confidence 0.4, got %.2f", got.Confidence)
	}
	if o.directCalls != 1 {
		t.Errorf("Expected direct analysis attempted once, got %d", o.directCalls)
	}
	if !strings.Contains(string(stringifyDiagnostics(t, st, "c-1")), `"tier":"heuristic"`) {
		t.Error("Expected heuristic tier recorded in diagnostics")
	}
}

// stringifyDiagnostics is a shim: the memory store does not persist
// diagnostics, so re-run verify to inspect them
func stringifyDiagnostics(t *testing.T, st store.ClaimStore, id string) []byte {
	t.Helper()
	// Diagnostics live in the Result; exercise verify directly
	claim, err := st.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Expected claim, got %v", err)
	}
	o := &stubOracle{groundedErr: errors.New("unusable"), directErr: errors.New("unusable")}
	r := newTestRunner(st, &stubGatherer{}, o, nil)
	result, err := r.verify(context.Background(), claim)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	return result.Diagnostics
}

func TestProcess_MissingClaimFailsWithoutWrites(t *testing.T) {
	st := store.NewMemoryStore()
	r := newTestRunner(st, &stubGatherer{}, &stubOracle{}, nil)

	err := r.Process(context.Background(), model.VerificationJob{ClaimID: "ghost"})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestProcess_PanicForcesUnconfirmed(t *testing.T) {
	st := store.NewMemoryStore()
	createClaim(t, st, &model.Claim{ID: "c-1", Text: "Flooding in Bandra today"})

	o := &stubOracle{panics: true}
	n := &recordingNotifier{}
	r := newTestRunner(st, &stubGatherer{}, o, n)

	err := r.Process(context.Background(), model.VerificationJob{ClaimID: "c-1"})
	if err == nil {
		t.Fatal("Expected error from panicking pipeline")
	}
	if !strings.Contains(err.Error(), "pipeline panic") {
		t.Errorf("Expected panic converted to error, got %v", err)
	}

	got, _ := st.Get(context.Background(), "c-1")
	if got.Status != model.StatusUnconfirmed {
		t.Errorf("Expected claim forced to unconfirmed, got %s", got.Status)
	}
	if got.VerifiedAt != nil {
		t.Error("Expected no VerifiedAt on a failed attempt")
	}
	if len(n.sent) != 0 {
		t.Errorf("Expected no notification on failure, got %d", len(n.sent))
	}
}

func TestProcess_NotificationFailureDoesNotFailJob(t *testing.T) {
	st := store.NewMemoryStore()
	createClaim(t, st, &model.Claim{ID: "c-1", Text: "Flooding in Bandra right now"})

	o := &stubOracle{grounded: &oracle.GroundedVerdict{Verdict: oracle.VerdictConfirmed, Confidence: conf(0.9)}}
	n := &recordingNotifier{err: errors.New("webhook down")}
	r := newTestRunner(st, &stubGatherer{}, o, n)

	if err := r.Process(context.Background(), model.VerificationJob{ClaimID: "c-1"}); err != nil {
		t.Errorf("Expected notification failure swallowed, got %v", err)
	}

	got, _ := st.Get(context.Background(), "c-1")
	if !got.Status.IsTerminal() {
		t.Errorf("Expected terminal status, got %s", got.Status)
	}
}

func TestProcess_IdempotentRerun(t *testing.T) {
	st := store.NewMemoryStore()
	createClaim(t, st, &model.Claim{ID: "c-1", Text: "Flooding in Bandra right now"})

	o := &stubOracle{grounded: &oracle.GroundedVerdict{Verdict: oracle.VerdictConfirmed, Confidence: conf(0.9)}}
	r := newTestRunner(st, &stubGatherer{}, o, nil)

	if err := r.Process(context.Background(), model.VerificationJob{ClaimID: "c-1"}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	first, _ := st.Get(context.Background(), "c-1")

	// At-least-once delivery means the same job can arrive twice
	if err := r.Process(context.Background(), model.VerificationJob{ClaimID: "c-1", Attempt: 1}); err != nil {
		t.Fatalf("Expected no error on re-run, got %v", err)
	}
	second, _ := st.Get(context.Background(), "c-1")

	if second.Status != first.Status || second.Confidence != first.Confidence {
		t.Errorf("Expected identical terminal result on re-run, got %s/%.2f vs %s/%.2f",
			second.Status, second.Confidence, first.Status, first.Confidence)
	}
	if len(second.Evidence) != len(first.Evidence) {
		t.Errorf("Expected evidence overwritten not appended, got %d vs %d",
			len(second.Evidence), len(first.Evidence))
	}
}

func TestProcess_RecencyOverrideScenario(t *testing.T) {
	st := store.NewMemoryStore()
	createClaim(t, st, &model.Claim{ID: "c-1", Text: "Flooding in Bandra right now, trains stopped"})

	// Oracle confirms against evidence that is over a year old
	o := &stubOracle{
		grounded: &oracle.GroundedVerdict{Verdict: oracle.VerdictConfirmed, Confidence: conf(0.8)},
	}
	g := &stubGatherer{evidence: []model.Evidence{
		{Source: model.SourceOfficial, URL: "https://news.example.com/2025-flood",
			Snippet: "Bandra subway flooded after record rainfall last monsoon.",
			Date:    testNow.AddDate(-1, -1, 0).Format("2006-01-02")},
	}}
	r := newTestRunner(st, g, o, nil)

	if err := r.Process(context.Background(), model.VerificationJob{ClaimID: "c-1"}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	got, _ := st.Get(context.Background(), "c-1")
	if got.Status != model.StatusContradicted {
		t.Errorf("Expected old-reshared override to contradicted, got %s", got.Status)
	}
	if got.Confidence < 0.7 {
		t.Errorf("Expected confidence at least 0.7, got %.2f", got.Confidence)
	}
	if got.Priority < 7 {
		t.Errorf("Expected priority at least 7, got %d", got.Priority)
	}
	if got.Extracted.Recency == nil || got.Extracted.Recency.Status != model.RecencyOldReshared {
		t.Fatalf("Expected old_reshared recency persisted, got %+v", got.Extracted.Recency)
	}
	if !strings.HasPrefix(got.Explanations["en"], "⚠️") {
		t.Errorf("Expected English explanation to lead with the recency warning, got %q", got.Explanations["en"])
	}
}

func TestProcess_ImageMatchDominates(t *testing.T) {
	st := store.NewMemoryStore()
	createClaim(t, st, &model.Claim{
		ID:    "c-1",
		Text:  "Photo shows flooding at Andheri station today",
		Media: []string{"https://img.example.com/x.jpg"},
	})

	o := &stubOracle{
		grounded: &oracle.GroundedVerdict{Verdict: oracle.VerdictConfirmed, Confidence: conf(0.6)},
	}
	g := &stubGatherer{evidence: []model.Evidence{
		{Source: model.SourceImageMatch, URL: "https://archive.example.com/2019-photo",
			Snippet: "Matched seed image", Date: "2019-08-10"},
	}}
	r := newTestRunner(st, g, o, nil)

	if err := r.Process(context.Background(), model.VerificationJob{ClaimID: "c-1"}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	got, _ := st.Get(context.Background(), "c-1")
	if got.Status != model.StatusContradicted {
		t.Errorf("Expected image match to force contradicted, got %s", got.Status)
	}
	if got.Confidence < 0.85 {
		t.Errorf("Expected confidence at least 0.85, got %.2f", got.Confidence)
	}
}
