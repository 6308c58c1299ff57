package langdetect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ContactScanner/internal/config"
)

func testLanguageConfig() config.LanguageConfig {
	return config.LanguageConfig{
		Keywords: map[string][]string{
			"en": {"the", "and", "manager", "engineer"},
			"de": {"und", "der", "bei", "leiter"},
			"fr": {"et", "le", "chez", "chef"},
		},
		Diacritics: map[string]string{
			"de": "äöüß",
			"fr": "éèêàç",
		},
	}
}

func TestDetectFromHTMLLang(t *testing.T) {
	t.Parallel()

	d := NewDetector(testLanguageConfig())
	guess := d.Detect("de-DE")

	assert.Equal(t, "de", guess.Detected)
	assert.InDelta(t, 1.0, guess.Confidence, 1e-9)
	assert.Contains(t, guess.Indicators, "html lang=de")
}

func TestDetectKeywordAndDiacriticVotes(t *testing.T) {
	t.Parallel()

	d := NewDetector(testLanguageConfig())
	guess := d.Detect("", "Leiter Vertrieb bei Müller GmbH", "Ich arbeite gerne mit Kunden und Partnern")

	assert.Equal(t, "de", guess.Detected)
	assert.Greater(t, guess.Confidence, 0.5)
	assert.NotEmpty(t, guess.Indicators)
}

func TestDetectConflictingSignalsPrefersPageLang(t *testing.T) {
	t.Parallel()

	d := NewDetector(testLanguageConfig())

	// One English keyword against the page-level attribute: attribute wins.
	guess := d.Detect("fr", "Manager")
	assert.Equal(t, "fr", guess.Detected)
	assert.Less(t, guess.Confidence, 1.0)
}

func TestDetectUnknown(t *testing.T) {
	t.Parallel()

	d := NewDetector(testLanguageConfig())
	guess := d.Detect("", "xyzzy plugh")

	require.Equal(t, "unknown", guess.Detected)
	assert.Zero(t, guess.Confidence)
}
