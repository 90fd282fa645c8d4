package model

// Evidence source tags. Image-match evidence outweighs everything else in
// fusion; oracle-surfaced evidence is appended last.
const (
	SourceOfficial   = "official"
	SourceImageMatch = "image-match"
	SourceAIAnalysis = "ai-analysis"
)

// Evidence is a single external corroborating or contradicting data point.
// Ordering within a claim's evidence list is significant: image-match items
// sit at the front, everything else keeps gatherer insertion order.
type Evidence struct {
	Source  string `json:"source"`            // origin tag, free text
	URL     string `json:"url,omitempty"`
	Snippet string `json:"snippet,omitempty"` // excerpt or title from the source
	Date    string `json:"date,omitempty"`    // ISO-8601 when the source provided one; may be unparseable
}

// HasImageMatch reports whether any evidence item came from the image matcher
func HasImageMatch(evidence []Evidence) bool {
	for _, e := range evidence {
		if e.Source == SourceImageMatch {
			return true
		}
	}
	return false
}
