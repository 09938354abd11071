// Package offline is a static phrase-table translator. It never fails,
// which makes it the guaranteed terminal link of the fallback chain, and it
// is unmetered: no quota gate is consulted.
package offline

import (
	"context"
	"strings"

	"lingochat/internal/domain"
)

const (
	// MatchConfidence is assigned when a known phrase is found in the input.
	MatchConfidence = 0.6
	// MissConfidence marks the "translation unavailable" passthrough.
	MissConfidence = 0.1
	// UnavailableMarker is appended to the original text on a miss.
	UnavailableMarker = " (translation unavailable)"
)

type langPair struct{ src, dst string }

// phrase tables are matched by case-insensitive substring containment
// against the input; first match wins, so longer phrases come first.
type entry struct{ phrase, translation string }

var phrases = map[langPair][]entry{
	{"en", "ko"}: {
		{"thank you", "감사합니다"},
		{"goodbye", "안녕히 가세요"},
		{"good morning", "좋은 아침입니다"},
		{"hello", "안녕하세요"},
		{"thanks", "감사합니다"},
		{"sorry", "죄송합니다"},
		{"yes", "네"},
		{"bye", "안녕히 가세요"},
		{"no", "아니요"},
		{"hi", "안녕하세요"},
	},
	{"en", "ja"}: {
		{"thank you", "ありがとうございます"},
		{"goodbye", "さようなら"},
		{"hello", "こんにちは"},
		{"thanks", "ありがとう"},
		{"sorry", "すみません"},
		{"bye", "さようなら"},
		{"hi", "こんにちは"},
	},
	{"en", "es"}: {
		{"thank you", "gracias"},
		{"good morning", "buenos días"},
		{"goodbye", "adiós"},
		{"hello", "hola"},
		{"thanks", "gracias"},
		{"sorry", "lo siento"},
		{"bye", "adiós"},
		{"hi", "hola"},
	},
	{"en", "fr"}: {
		{"thank you", "merci"},
		{"goodbye", "au revoir"},
		{"hello", "bonjour"},
		{"thanks", "merci"},
		{"sorry", "désolé"},
		{"bye", "au revoir"},
		{"hi", "salut"},
	},
	{"en", "de"}: {
		{"thank you", "danke schön"},
		{"goodbye", "auf wiedersehen"},
		{"hello", "hallo"},
		{"thanks", "danke"},
		{"bye", "tschüss"},
		{"hi", "hallo"},
	},
	{"en", "zh"}: {
		{"thank you", "谢谢"},
		{"goodbye", "再见"},
		{"hello", "你好"},
		{"thanks", "谢谢"},
		{"bye", "再见"},
		{"hi", "你好"},
	},
	{"ko", "en"}: {
		{"안녕하세요", "hello"},
		{"감사합니다", "thank you"},
		{"죄송합니다", "sorry"},
		{"안녕", "hi"},
	},
	{"ja", "en"}: {
		{"ありがとうございます", "thank you"},
		{"こんにちは", "hello"},
		{"さようなら", "goodbye"},
	},
	{"es", "en"}: {
		{"buenos días", "good morning"},
		{"gracias", "thank you"},
		{"hola", "hello"},
		{"adiós", "goodbye"},
	},
}

type Dictionary struct{}

func New() *Dictionary { return &Dictionary{} }

func (d *Dictionary) Tag() domain.ProviderTag { return domain.ProviderOffline }

// Translate looks the input up in the phrase table for (source, target).
// On a miss it returns the original text with an explicit marker instead of
// failing.
func (d *Dictionary) Translate(_ context.Context, text, source, target string) (domain.TranslationResult, error) {
	lower := strings.ToLower(text)
	for _, e := range phrases[langPair{source, target}] {
		if strings.Contains(lower, strings.ToLower(e.phrase)) {
			return domain.TranslationResult{
				TranslatedText: e.translation,
				SourceLanguage: source,
				TargetLanguage: target,
				Confidence:     MatchConfidence,
				Provider:       domain.ProviderOffline,
			}, nil
		}
	}
	return domain.TranslationResult{
		TranslatedText: text + UnavailableMarker,
		SourceLanguage: source,
		TargetLanguage: target,
		Confidence:     MissConfidence,
		Provider:       domain.ProviderOffline,
	}, nil
}
