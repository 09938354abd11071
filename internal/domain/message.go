package domain

import "time"

// Message is a chat message fanned out to multiple target languages.
// Translations maps target language code to translated text and is filled
// in incrementally, one language at a time, as provider calls settle.
type Message struct {
	ID                 string            `json:"id"`
	Text               string            `json:"text"`
	SourceLang         string            `json:"source_lang"`
	Translations       map[string]string `json:"translations"`
	TranslationPending bool              `json:"translation_pending"`
	// TranslationWarning is a non-fatal aggregate note set after all
	// languages settled when one or more of them failed. Per-language
	// failures additionally leave a placeholder in Translations.
	TranslationWarning string    `json:"translation_warning,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
