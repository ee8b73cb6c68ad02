package prompt

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"server/internal/domain"
)

// ConceptArt renders the vendor prompt for the concept-art stage out of the
// pipeline's config snapshot. Deterministic: the same config always yields
// the same prompt.
func ConceptArt(cfg domain.PipelineConfig) string {
	c := cases.Title(language.Und)

	subject := fmt.Sprintf("%s (%s)", cfg.Name, cfg.Type)
	if cfg.Subtype != "" {
		subject = fmt.Sprintf("%s (%s %s)", cfg.Name, cfg.Subtype, cfg.Type)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Concept art of %s. %s.", subject, strings.TrimRight(cfg.Description, "."))
	fmt.Fprintf(&b, " %s style, %s quality.", c.String(cfg.Style), cfg.Quality)
	b.WriteString(" Full-body front view, neutral background, suitable as reference for 3D modeling.")
	if hint := languageName(cfg.Locale); hint != "" {
		fmt.Fprintf(&b, " Any lettering or signage rendered in %s.", hint)
	}
	return b.String()
}

// Model3D renders the prompt handed to the 3D generation vendor.
func Model3D(cfg domain.PipelineConfig) string {
	c := cases.Title(language.Und)
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s, %s. %s style, game-ready topology.",
		c.String(cfg.Type), cfg.Name, strings.TrimRight(cfg.Description, "."), cfg.Style)
	if hint := languageName(cfg.Locale); hint != "" {
		fmt.Fprintf(&b, " Texture text and decals in %s.", hint)
	}
	return b.String()
}

// languageName spells out the locale's language in English so the prompt
// stays self-describing. English itself and unknown tags yield no hint.
func languageName(locale string) string {
	if locale == "" || locale == "en" {
		return ""
	}
	tag := language.Make(locale)
	if tag.IsRoot() {
		return ""
	}
	return display.English.Languages().Name(tag)
}
