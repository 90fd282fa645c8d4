package model

import "time"

// Status is the lifecycle state of a claim
type Status string

const (
	StatusPending      Status = "pending"      // Submitted, waiting for a worker
	StatusInProgress   Status = "in_progress"  // A worker is verifying it
	StatusConfirmed    Status = "confirmed"    // Terminal: evidence supports the claim
	StatusContradicted Status = "contradicted" // Terminal: evidence refutes the claim
	StatusUnconfirmed  Status = "unconfirmed"  // Terminal: could not be verified
)

// IsTerminal reports whether no further pipeline-driven transition occurs
func (s Status) IsTerminal() bool {
	return s == StatusConfirmed || s == StatusContradicted || s == StatusUnconfirmed
}

// OriginalSource records where a claim was scraped or submitted from.
// It is an opaque passthrough for downstream consumers.
type OriginalSource struct {
	Platform string `json:"platform,omitempty"` // e.g. "twitter", "whatsapp", "web"
	PostID   string `json:"post_id,omitempty"`
	Author   string `json:"author,omitempty"`
	URL      string `json:"url,omitempty"`
}

// Extracted holds structured data derived from the claim text.
// Entities and Location come from the claim-extractor at ingest time and are
// never consulted by the pipeline; Recency is attached on completion.
type Extracted struct {
	Entities []string           `json:"entities,omitempty"`
	Location string             `json:"location,omitempty"`
	Numbers  []string           `json:"numbers,omitempty"`
	Recency  *RecencyAssessment `json:"recency,omitempty"`
}

// Claim is a unit of verification work
type Claim struct {
	ID             string            `json:"id"`
	Text           string            `json:"text"`
	Media          []string          `json:"media,omitempty"`
	OriginalSource OriginalSource    `json:"original_source"`
	Status         Status            `json:"status"`
	Confidence     float64           `json:"confidence"`
	Priority       int               `json:"priority"`
	Evidence       []Evidence        `json:"evidence,omitempty"`
	Explanations   map[string]string `json:"explanations,omitempty"` // keyed by "en", "hi", "mr"
	Extracted      Extracted         `json:"extracted"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
	VerifiedAt     *time.Time        `json:"verified_at,omitempty"`
}

// VerificationJob is the queued unit of work; it carries only the claim id.
// The queue guarantees at-least-once delivery, so the pipeline must be safe
// to re-run on the same claim.
type VerificationJob struct {
	ClaimID string `json:"claim_id"`
	Attempt int    `json:"attempt"`
}

// Languages are the fixed explanation languages
var Languages = []string{"en", "hi", "mr"}

const (
	// MinClaimTextLen and MaxClaimTextLen bound submitted claim text
	MinClaimTextLen = 10
	MaxClaimTextLen = 5000

	// MaxMediaURLs bounds the media list on a claim
	MaxMediaURLs = 10
)
