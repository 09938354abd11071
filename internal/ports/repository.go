package ports

import (
	"context"

	"lingochat/internal/domain"
)

// Fixed keys for JSON blobs held in the key/value store.
const (
	KeyQuotas   = "translation-quotas"
	KeySettings = "translation-settings"
)

// KVStore is a durable key/value store for small JSON blobs.
type KVStore interface {
	// Get returns ("", nil) when the key has never been written.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// MessageRepository persists chat messages and supports partial per-language
// updates by message ID, so listeners see each translation as it lands.
type MessageRepository interface {
	Create(ctx context.Context, m *domain.Message) error
	Get(ctx context.Context, id string) (*domain.Message, error)
	// SetTranslation merges one language's text into the message's
	// translations map, overwriting any previous value for that language.
	SetTranslation(ctx context.Context, id, lang, text string) error
	// FinishTranslations clears the pending flag and records an aggregate
	// warning ("" when every language succeeded).
	FinishTranslations(ctx context.Context, id, warning string) error
	List(ctx context.Context, limit int) ([]*domain.Message, error)
}
