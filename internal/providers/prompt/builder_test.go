package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"server/internal/domain"
)

func baseConfig() domain.PipelineConfig {
	cfg := domain.PipelineConfig{Name: "Quest Giver", Description: "A wise old NPC."}
	cfg.ApplyDefaults()
	return cfg
}

func TestConceptArtPrompt(t *testing.T) {
	cfg := baseConfig()
	p := ConceptArt(cfg)

	assert.Contains(t, p, "Concept art of Quest Giver (character)")
	assert.Contains(t, p, "A wise old NPC.")
	assert.Contains(t, p, "Realistic style, standard quality")
	assert.Contains(t, p, "reference for 3D modeling")
	// No double period from the trimmed description.
	assert.NotContains(t, p, "NPC..")

	assert.Equal(t, p, ConceptArt(cfg), "prompt must be deterministic")
}

func TestConceptArtPromptWithSubtype(t *testing.T) {
	cfg := baseConfig()
	cfg.Subtype = "humanoid"
	assert.Contains(t, ConceptArt(cfg), "Quest Giver (humanoid character)")
}

func TestModel3DPrompt(t *testing.T) {
	cfg := baseConfig()
	cfg.Style = "stylized"
	p := Model3D(cfg)

	assert.Contains(t, p, "Character Quest Giver")
	assert.Contains(t, p, "stylized style")
	assert.Contains(t, p, "game-ready topology")
}

func TestPromptsCarryLocaleHint(t *testing.T) {
	cfg := baseConfig()
	cfg.Locale = "id"

	assert.Contains(t, ConceptArt(cfg), "lettering or signage rendered in Indonesian")
	assert.Contains(t, Model3D(cfg), "decals in Indonesian")
}

func TestPromptsSkipLocaleHintForEnglish(t *testing.T) {
	for _, locale := range []string{"", "en"} {
		cfg := baseConfig()
		cfg.Locale = locale
		assert.NotContains(t, ConceptArt(cfg), "lettering", "locale %q", locale)
		assert.NotContains(t, Model3D(cfg), "decals", "locale %q", locale)
	}
}
