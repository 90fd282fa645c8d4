package recency

import (
	"fmt"
	"strings"
	"time"

	"claimcheck/internal/model"
)

// Marker sets for temporal language in claim text. Matching is
// case-insensitive substring search across English, Hindi and Marathi.
var (
	currentMarkers = []string{
		"today", "right now", "now", "currently", "breaking", "just in",
		"happening", "at this moment", "live",
		"अभी", "आज", "इस समय", "ताज़ा",
		"सध्या", "आत्ता", "आज रोजी",
	}
	pastMarkers = []string{
		"yesterday", "last week", "last month", "last year", "days ago",
		"weeks ago", "earlier this",
		"कल", "पिछले हफ्ते", "पिछले महीने",
		"काल", "गेल्या आठवड्यात", "गेल्या महिन्यात",
	}
)

// dateLayouts are tried in order when parsing evidence dates
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	"Jan 2, 2006",
	"2 Jan 2006",
	"02/01/2006",
}

// Age buckets for days since the latest parseable evidence date
const (
	recentMaxDays        = 3
	moderatelyOldMaxDays = 30
)

// Analyze classifies whether a claim's evidence is fresh enough to support
// a current-event framing. It is a pure function of its inputs: repeated
// calls with identical (text, evidence, now) return identical assessments.
func Analyze(text string, evidence []model.Evidence, now time.Time) model.RecencyAssessment {
	lower := strings.ToLower(text)

	hasCurrent := containsAny(lower, currentMarkers)
	hasPast := containsAny(lower, pastMarkers)

	latest, ok := latestEvidenceDate(evidence)

	assessment := model.RecencyAssessment{
		Status:         model.RecencyUnknown,
		IsCurrentEvent: hasCurrent,
	}

	if !ok {
		// No parseable dates: past markers alone still tell us the claim
		// itself is framed as old news
		assessment.IsOldNews = hasPast && !hasCurrent
		return assessment
	}

	days := int(now.Sub(latest).Hours() / 24)
	if days < 0 {
		days = 0
	}
	assessment.DaysSinceLatestEvidence = &days
	assessment.LatestEvidenceDate = latest.Format("2006-01-02")

	// First match wins
	switch {
	case hasCurrent && days > moderatelyOldMaxDays:
		assessment.Status = model.RecencyOldReshared
		assessment.IsOldNews = true
		assessment.Warning = fmt.Sprintf(
			"⚠️ This claim uses current-event language, but the latest evidence is %d days old (dated %s). It may be old news being reshared as new.",
			days, assessment.LatestEvidenceDate)
	case hasCurrent && days <= recentMaxDays:
		assessment.Status = model.RecencyCurrent
	case days <= recentMaxDays:
		assessment.Status = model.RecencyRecent
	case days <= moderatelyOldMaxDays:
		assessment.Status = model.RecencyModeratelyOld
		assessment.Warning = fmt.Sprintf(
			"Note: the latest evidence for this claim is %d days old (dated %s).",
			days, assessment.LatestEvidenceDate)
	default:
		assessment.Status = model.RecencyOld
		assessment.IsOldNews = true
		assessment.Warning = fmt.Sprintf(
			"Note: this claim is supported only by old evidence, %d days old (dated %s).",
			days, assessment.LatestEvidenceDate)
	}

	return assessment
}

// latestEvidenceDate parses all evidence dates, discarding unparseable
// ones, and returns the most recent
func latestEvidenceDate(evidence []model.Evidence) (time.Time, bool) {
	var latest time.Time
	found := false
	for _, e := range evidence {
		t, ok := ParseDate(e.Date)
		if !ok {
			continue
		}
		if !found || t.After(latest) {
			latest = t
			found = true
		}
	}
	return latest, found
}

// ParseDate parses an evidence date string against the known layouts
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// containsAny matches each marker against the text. Multi-word and
// non-Latin markers use substring matching; single English words must match
// a whole token so "now" does not fire inside "known".
func containsAny(lower string, markers []string) bool {
	var tokens []string
	for _, m := range markers {
		if strings.ContainsRune(m, ' ') || !isASCII(m) {
			if strings.Contains(lower, m) {
				return true
			}
			continue
		}
		if tokens == nil {
			tokens = strings.FieldsFunc(lower, func(r rune) bool {
				return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
			})
		}
		for _, tok := range tokens {
			if tok == m {
				return true
			}
		}
	}
	return false
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > 127 {
			return false
		}
	}
	return true
}
