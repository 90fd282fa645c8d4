package model

// RecencyStatus classifies how fresh a claim's supporting evidence is
type RecencyStatus string

const (
	RecencyCurrent       RecencyStatus = "current"        // Current-tense claim backed by recent evidence
	RecencyRecent        RecencyStatus = "recent"         // Latest evidence is at most 3 days old
	RecencyModeratelyOld RecencyStatus = "moderately_old" // Latest evidence is 4-30 days old
	RecencyOld           RecencyStatus = "old"            // Latest evidence is more than 30 days old
	RecencyOldReshared   RecencyStatus = "old_reshared"   // Current-tense claim backed only by old evidence
	RecencyUnknown       RecencyStatus = "unknown"        // No parseable evidence dates
)

// RecencyAssessment is the recency analyzer's verdict, embedded into
// Claim.Extracted on completion.
type RecencyAssessment struct {
	Status                  RecencyStatus `json:"status"`
	DaysSinceLatestEvidence *int          `json:"days_since_latest_evidence,omitempty"`
	LatestEvidenceDate      string        `json:"latest_evidence_date,omitempty"`
	IsOldNews               bool          `json:"is_old_news"`
	IsCurrentEvent          bool          `json:"is_current_event"`
	Warning                 string        `json:"warning,omitempty"`
}
