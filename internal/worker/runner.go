// Package worker owns the verification job lifecycle: it drives the
// pipeline stages for one claim at a time and guarantees every claim
// reaches a terminal state exactly once per attempt.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"claimcheck/internal/fusion"
	"claimcheck/internal/heuristic"
	"claimcheck/internal/model"
	"claimcheck/internal/notify"
	"claimcheck/internal/oracle"
	"claimcheck/internal/recency"
	"claimcheck/internal/store"
)

// Gatherer collects evidence for a claim
type Gatherer interface {
	Gather(ctx context.Context, text string, media []string) []model.Evidence
}

// Prober backfills missing evidence dates
type Prober interface {
	Backfill(ctx context.Context, evidence []model.Evidence) []model.Evidence
}

// Oracle is the reasoning-oracle adapter surface the runner needs
type Oracle interface {
	JudgeWithEvidence(ctx context.Context, claimText string, evidence []model.Evidence) (*oracle.GroundedVerdict, error)
	AnalyzeDirect(ctx context.Context, claimText string) (*oracle.DirectVerdict, error)
}

// Explainer renders multilingual explanations for a fused verdict
type Explainer interface {
	Generate(ctx context.Context, claimText string, status model.Status, confidence float64, evidence []model.Evidence, rationale string, rec model.RecencyAssessment) map[string]string
}

// Notifier pushes best-effort completion notifications
type Notifier interface {
	Notify(ctx context.Context, n notify.Notification) error
}

// Runner executes the verification pipeline for one claim per job
type Runner struct {
	store     store.ClaimStore
	gatherer  Gatherer
	prober    Prober // nil disables probing
	oracle    Oracle
	heuristic func(text string, evidence []model.Evidence) heuristic.Verdict
	explainer Explainer
	notifier  Notifier // nil disables notifications

	autoPublishConfidence float64
	now                   func() time.Time
}

// NewRunner wires a Runner from its collaborators
func NewRunner(st store.ClaimStore, g Gatherer, p Prober, o Oracle, e Explainer, n Notifier, autoPublishConfidence float64) *Runner {
	if autoPublishConfidence <= 0 {
		autoPublishConfidence = 0.85
	}
	return &Runner{
		store:                 st,
		gatherer:              g,
		prober:                p,
		oracle:                o,
		heuristic:             heuristic.Evaluate,
		explainer:             e,
		notifier:              n,
		autoPublishConfidence: autoPublishConfidence,
		now:                   time.Now,
	}
}

// Process handles one delivered job. The state machine is strict:
// in_progress is persisted before any external call, and any pipeline
// failure forces the claim to unconfirmed before the error is surfaced to
// the queue for its own retry accounting.
func (r *Runner) Process(ctx context.Context, job model.VerificationJob) error {
	claim, err := r.store.Get(ctx, job.ClaimID)
	if err != nil {
		return fmt.Errorf("load claim %s: %w", job.ClaimID, err)
	}

	// Persisted first so a crash mid-run leaves the claim visibly being
	// processed rather than silently pending. A store failure here fails
	// the attempt without a forced terminal write.
	if err := r.store.SetStatus(ctx, claim.ID, model.StatusInProgress); err != nil {
		return fmt.Errorf("mark in_progress: %w", err)
	}

	result, err := r.verify(ctx, claim)
	if err != nil {
		log.Printf("worker: pipeline failed for claim %s: %v", claim.ID, err)
		if serr := r.store.SetStatus(ctx, claim.ID, model.StatusUnconfirmed); serr != nil {
			log.Printf("worker: forcing unconfirmed for claim %s failed: %v", claim.ID, serr)
		}
		return err
	}

	if err := r.store.Complete(ctx, claim.ID, result); err != nil {
		return fmt.Errorf("persist result for claim %s: %w", claim.ID, err)
	}

	log.Printf("worker: claim %s verified -> %s (confidence %.2f, priority %d)",
		claim.ID, result.Status, result.Confidence, result.Priority)

	r.notifyCompletion(ctx, claim.ID, result)
	return nil
}

// verify runs the pipeline stages in order. It recovers panics so that the
// single catch at the job boundary in Process sees them as errors.
func (r *Runner) verify(ctx context.Context, claim *model.Claim) (result store.Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("pipeline panic: %v", p)
		}
	}()

	// Stage 1: gather evidence (best-effort per source)
	evidence := r.gatherer.Gather(ctx, claim.Text, claim.Media)

	// Stage 2: backfill missing dates so undated scraper results can still
	// produce a dated recency verdict
	if r.prober != nil {
		evidence = r.prober.Backfill(ctx, evidence)
	}

	// Stage 3: recency analysis (pure)
	rec := recency.Analyze(claim.Text, evidence, r.now())

	// Stage 4: oracle tiers; the direct analysis runs only when the
	// grounded judgment yielded nothing usable
	grounded, gerr := r.oracle.JudgeWithEvidence(ctx, claim.Text, evidence)
	var direct *oracle.DirectVerdict
	if gerr != nil {
		log.Printf("worker: grounded judgment unusable for claim %s: %v", claim.ID, gerr)
		var derr error
		direct, derr = r.oracle.AnalyzeDirect(ctx, claim.Text)
		if derr != nil {
			log.Printf("worker: direct analysis unusable for claim %s: %v", claim.ID, derr)
		}
	}

	// Stage 5: deterministic fallback, always computed
	heur := r.heuristic(claim.Text, evidence)

	// Stage 6: fusion
	fused := fusion.Fuse(fusion.Inputs{
		ClaimText: claim.Text,
		Grounded:  grounded,
		Direct:    direct,
		Heuristic: heur,
		Evidence:  evidence,
		Recency:   rec,
	})

	// Stage 7: explanations (never fails)
	explanations := r.explainer.Generate(ctx, claim.Text, fused.Status, fused.Confidence,
		fused.Evidence, fused.Diagnostics.Rationale, rec)

	diagnostics, merr := json.Marshal(fused.Diagnostics)
	if merr != nil {
		diagnostics = nil
	}

	return store.Result{
		Status:       fused.Status,
		Confidence:   fused.Confidence,
		Priority:     fused.Priority,
		Evidence:     fused.Evidence,
		Explanations: explanations,
		Recency:      &rec,
		Diagnostics:  diagnostics,
	}, nil
}

// notifyCompletion delivers the best-effort completion push. Errors are
// logged only; notification must never fail the job.
func (r *Runner) notifyCompletion(ctx context.Context, claimID string, result store.Result) {
	if r.notifier == nil {
		return
	}
	publish := result.Priority >= 7 &&
		result.Confidence >= r.autoPublishConfidence &&
		result.Status != model.StatusUnconfirmed
	n := notify.Notification{
		ClaimID:    claimID,
		Status:     result.Status,
		Confidence: result.Confidence,
		Priority:   result.Priority,
		Publish:    publish,
	}
	if err := r.notifier.Notify(ctx, n); err != nil {
		log.Printf("worker: notification for claim %s failed: %v", claimID, err)
	}
}
