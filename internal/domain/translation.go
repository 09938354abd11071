package domain

import "fmt"

// ProviderTag identifies one of the built-in translation providers.
// The set is closed: adding a provider means extending the constants,
// ParseProviderTag, and the adapter registry together.
type ProviderTag string

const (
	ProviderMyMemory       ProviderTag = "mymemory"
	ProviderLibreTranslate ProviderTag = "libretranslate"
	ProviderOffline        ProviderTag = "offline"
)

// AutoProvider is the settings sentinel meaning "use the default chain".
const AutoProvider = "auto"

// AutoLanguage marks a source language that was not resolved at request time.
const AutoLanguage = "auto"

func ParseProviderTag(s string) (ProviderTag, error) {
	switch ProviderTag(s) {
	case ProviderMyMemory, ProviderLibreTranslate, ProviderOffline:
		return ProviderTag(s), nil
	}
	return "", fmt.Errorf("unknown provider: %q", s)
}

// TranslationResult is the outcome of one successful translation.
// Provider always names the adapter that actually produced the text,
// never one that was tried and failed.
type TranslationResult struct {
	TranslatedText string      `json:"translated_text"`
	SourceLanguage string      `json:"source_language"`
	TargetLanguage string      `json:"target_language"`
	Confidence     float64     `json:"confidence"`
	Provider       ProviderTag `json:"provider"`
}
