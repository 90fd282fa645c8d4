// Package store persists claims. The pipeline treats it as an opaque claim
// store: read one, update fields, last-writer-wins per field set.
package store

import (
	"context"
	"encoding/json"
	"errors"

	"claimcheck/internal/model"
)

// ErrNotFound is returned when a claim id does not exist
var ErrNotFound = errors.New("claim not found")

// Result is the terminal field set written exactly once per successful
// verification run. A re-run overwrites it wholesale, never appends.
type Result struct {
	Status       model.Status
	Confidence   float64
	Priority     int
	Evidence     []model.Evidence
	Explanations map[string]string
	Recency      *model.RecencyAssessment
	Diagnostics  json.RawMessage
}

// ClaimStore is the persistence contract used by the API and the runner
type ClaimStore interface {
	// Create inserts a new pending claim
	Create(ctx context.Context, claim *model.Claim) error

	// Get reads one claim by id, returning ErrNotFound when absent
	Get(ctx context.Context, id string) (*model.Claim, error)

	// List returns the most recently created claims, newest first
	List(ctx context.Context, limit int) ([]model.Claim, error)

	// SetStatus updates just the lifecycle status
	SetStatus(ctx context.Context, id string, status model.Status) error

	// Complete writes the terminal result in one update
	Complete(ctx context.Context, id string, result Result) error
}
