// Package explain renders human-readable multilingual explanations for a
// fused verdict. Generation must never fail the job: the oracle path falls
// back to local templates, and the templates fall back to static defaults.
package explain

import (
	"context"
	"fmt"
	"strings"

	"claimcheck/internal/model"
	"claimcheck/internal/oracle"
)

// maxClaimExcerpt bounds the claim text echoed into explanations
const maxClaimExcerpt = 120

// Oracle generates free-text output for an explanation prompt
type Oracle interface {
	Explain(ctx context.Context, prompt string) (string, error)
}

// Generator produces explanations in the three fixed languages
type Generator struct {
	oracle Oracle // nil disables oracle-generated explanations
}

// New creates a Generator. A nil oracle is valid; only templates are used.
func New(o Oracle) *Generator {
	return &Generator{oracle: o}
}

// Generate returns explanations keyed by language code. The recency warning
// is prepended to the English explanation whenever present, and to the
// other languages too when the claim is old news.
func (g *Generator) Generate(ctx context.Context, claimText string, status model.Status, confidence float64, evidence []model.Evidence, rationale string, rec model.RecencyAssessment) map[string]string {
	explanations := make(map[string]string, len(model.Languages))

	for _, lang := range model.Languages {
		text := g.oracleExplanation(ctx, claimText, status, evidence, lang)
		if text == "" {
			text = renderTemplate(lang, claimText, status, confidence, evidence, rationale)
		}
		explanations[lang] = text
	}

	if rec.Warning != "" {
		explanations["en"] = rec.Warning + "\n\n" + explanations["en"]
		if rec.IsOldNews {
			for _, lang := range []string{"hi", "mr"} {
				explanations[lang] = rec.Warning + "\n\n" + explanations[lang]
			}
		}
	}

	return explanations
}

// oracleExplanation asks the oracle for a language-specific message,
// returning "" on any failure
func (g *Generator) oracleExplanation(ctx context.Context, claimText string, status model.Status, evidence []model.Evidence, lang string) string {
	if g.oracle == nil {
		return ""
	}
	prompt := oracle.BuildExplanationPrompt(claimText, status, evidence, lang)
	text, err := g.oracle.Explain(ctx, prompt)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

// renderTemplate builds a local explanation from the fused verdict
func renderTemplate(lang string, claimText string, status model.Status, confidence float64, evidence []model.Evidence, rationale string) string {
	glyph, _ := oracle.VerdictGlyph(status)
	excerpt := truncate(claimText, maxClaimExcerpt)
	pct := int(confidence * 100)

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s %s: %q\n", glyph, statusLabel(lang, status), excerpt))
	b.WriteString(fmt.Sprintf("%s: %d%%\n", confidenceLabel(lang), pct))

	if rationale != "" {
		b.WriteString(rationale)
		b.WriteString("\n")
	}

	count := 0
	for _, e := range evidence {
		if e.Snippet == "" || count >= 3 {
			continue
		}
		b.WriteString("• " + truncate(e.Snippet, 150) + "\n")
		count++
	}

	out := strings.TrimSpace(b.String())
	if out == "" {
		return defaultMessage(lang, status)
	}
	return out
}

func statusLabel(lang string, status model.Status) string {
	switch lang {
	case "hi":
		switch status {
		case model.StatusConfirmed:
			return "सही"
		case model.StatusContradicted:
			return "गलत"
		default:
			return "असत्यापित"
		}
	case "mr":
		switch status {
		case model.StatusConfirmed:
			return "खरे"
		case model.StatusContradicted:
			return "खोटे"
		default:
			return "अपुष्ट"
		}
	default:
		switch status {
		case model.StatusConfirmed:
			return "TRUE"
		case model.StatusContradicted:
			return "FALSE"
		default:
			return "UNVERIFIED"
		}
	}
}

func confidenceLabel(lang string) string {
	switch lang {
	case "hi":
		return "विश्वास स्तर"
	case "mr":
		return "विश्वास पातळी"
	default:
		return "Confidence"
	}
}

// defaultMessage is the static per-language per-status fallback
func defaultMessage(lang string, status model.Status) string {
	type key struct {
		lang   string
		status model.Status
	}
	messages := map[key]string{
		{"en", model.StatusConfirmed}:    "✅ This claim is supported by available evidence.",
		{"en", model.StatusContradicted}: "❌ This claim is contradicted by available evidence. Please do not share it further.",
		{"en", model.StatusUnconfirmed}:  "⚠️ This claim could not be verified. Treat it with caution until official sources confirm it.",
		{"hi", model.StatusConfirmed}:    "✅ उपलब्ध साक्ष्य इस दावे का समर्थन करते हैं।",
		{"hi", model.StatusContradicted}: "❌ उपलब्ध साक्ष्य इस दावे का खंडन करते हैं। कृपया इसे आगे साझा न करें।",
		{"hi", model.StatusUnconfirmed}:  "⚠️ इस दावे की पुष्टि नहीं हो सकी। आधिकारिक पुष्टि होने तक सावधानी बरतें।",
		{"mr", model.StatusConfirmed}:    "✅ उपलब्ध पुरावे या दाव्याचे समर्थन करतात.",
		{"mr", model.StatusContradicted}: "❌ उपलब्ध पुरावे या दाव्याचे खंडन करतात. कृपया हा पुढे पाठवू नका.",
		{"mr", model.StatusUnconfirmed}:  "⚠️ या दाव्याची पडताळणी होऊ शकली नाही. अधिकृत पुष्टी होईपर्यंत सावधगिरी बाळगा.",
	}
	if msg, ok := messages[key{lang, status}]; ok {
		return msg
	}
	return messages[key{"en", status}]
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
