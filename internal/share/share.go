// Package share builds the text shared for a scan result.
package share

import (
	"fmt"

	"golang.org/x/text/language"

	"github.com/sells-group/reail-cli/internal/deeplink"
	"github.com/sells-group/reail-cli/internal/model"
)

var (
	supported = []model.Language{model.LanguageEnglish, model.LanguageSpanish}
	matcher   = language.NewMatcher([]language.Tag{language.English, language.Spanish})
)

// MatchLanguage picks the supported language closest to prefs, which may be
// BCP 47 tags or Accept-Language values ("es-MX", "fr;q=0.9, es;q=0.8").
// English is the fallback.
func MatchLanguage(prefs ...string) model.Language {
	_, idx := language.MatchStrings(matcher, prefs...)
	if idx < 0 || idx >= len(supported) {
		return model.LanguageEnglish
	}
	return supported[idx]
}

type labels struct {
	verified, unverified, highRisk, score string
}

var catalog = map[model.Language]labels{
	model.LanguageEnglish: {"✅ Verified", "❓ Unverified", "⚠️ High Risk", "Score"},
	model.LanguageSpanish: {"✅ Verificado", "❓ No verificado", "⚠️ Alto riesgo", "Puntuación"},
}

// BadgeLabel returns the localized badge label.
func BadgeLabel(b model.Badge, lang model.Language) string {
	s := text(lang)
	switch b {
	case model.BadgeVerified:
		return s.verified
	case model.BadgeHighRisk:
		return s.highRisk
	default:
		return s.unverified
	}
}

// Message builds the share text for r with an app link back to the result.
func Message(r *model.ScanResult, lang model.Language, links deeplink.Links) string {
	lang = MatchLanguage(string(lang))
	s := text(lang)
	return fmt.Sprintf("REAiL Scan: %s\n%s • %s: %d/100\n\n%s",
		r.Domain, BadgeLabel(r.Badge, lang), s.score, r.Score, links.ResultLink(r.ID, lang))
}

func text(lang model.Language) labels {
	if s, ok := catalog[lang]; ok {
		return s
	}
	return catalog[model.LanguageEnglish]
}
