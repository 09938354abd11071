package ports

import (
	"context"

	"lingochat/internal/domain"
)

// Provider is a single translation backend.
type Provider interface {
	// Translate converts text from source to target language. Implementations
	// fail with *domain.QuotaExceededError before any I/O when their budget
	// is spent, or *domain.ProviderError on network/parse failure. The
	// offline dictionary never fails.
	Translate(ctx context.Context, text, source, target string) (domain.TranslationResult, error)
	Tag() domain.ProviderTag
}

// Detector maps input text to an ISO-639-1 code. Implementations must handle
// short texts via script heuristics and default to "en" when nothing matches.
type Detector interface {
	Detect(text string) string
}

// QuotaGate is consulted by metered provider adapters. CanUse is checked
// before any request is dispatched; RecordUse is called only after a request
// actually went out, not when it was blocked by quota.
type QuotaGate interface {
	CanUse(tag domain.ProviderTag) bool
	RecordUse(ctx context.Context, tag domain.ProviderTag) error
}
