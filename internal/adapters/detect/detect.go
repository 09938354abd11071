// Package detect maps input text to an ISO-639-1 language code. Short texts
// are classified by script ranges before the statistical detector gets a
// look, because statistical models are unreliable under ~10 characters.
package detect

import (
	"strings"
	"unicode"

	"github.com/pemistahl/lingua-go"
)

const shortTextThreshold = 10

// Detector combines script-range heuristics with a lingua statistical model.
type Detector struct {
	lingua lingua.LanguageDetector
}

func New() *Detector {
	languages := []lingua.Language{
		lingua.English, lingua.Korean, lingua.Japanese, lingua.Chinese,
		lingua.Spanish, lingua.French, lingua.German, lingua.Portuguese,
		lingua.Russian, lingua.Arabic, lingua.Italian, lingua.Vietnamese,
	}
	d := lingua.NewLanguageDetectorBuilder().
		FromLanguages(languages...).
		Build()
	return &Detector{lingua: d}
}

// Detect returns the ISO-639-1 code for text, defaulting to "en".
func (d *Detector) Detect(text string) string {
	clean := strings.TrimSpace(text)
	if clean == "" {
		return "en"
	}
	if code := detectByScript(clean); code != "" {
		return code
	}
	if len([]rune(clean)) < shortTextThreshold {
		// Too short for the statistical model and no distinctive script.
		return "en"
	}
	if lang, ok := d.lingua.DetectLanguageOf(clean); ok {
		return strings.ToLower(lang.IsoCode639_1().String())
	}
	return "en"
}

// detectByScript returns a language code when the text contains characters
// from a script that pins the language down, or "" when inconclusive.
// Kana outranks Han so Japanese text with leading kanji is not taken for
// Chinese.
func detectByScript(s string) string {
	hasHan := false
	for _, r := range s {
		switch {
		case unicode.Is(unicode.Hangul, r):
			return "ko"
		case unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r):
			return "ja"
		case unicode.Is(unicode.Arabic, r):
			return "ar"
		case unicode.Is(unicode.Cyrillic, r):
			return "ru"
		case unicode.Is(unicode.Han, r):
			hasHan = true
		}
	}
	if hasHan {
		return "zh"
	}
	return ""
}
