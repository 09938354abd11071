package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyInput is returned when the text to translate is empty after
// trimming. It is never retried.
var ErrEmptyInput = errors.New("translate: empty input text")

// QuotaExceededError means a provider's daily budget is spent. It is raised
// before any network I/O and treated like a provider failure for
// chain-advancement purposes.
type QuotaExceededError struct {
	Provider ProviderTag
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("%s: daily quota exceeded", e.Provider)
}

// ProviderError wraps a network, HTTP, or parse failure from one adapter.
// For LibreTranslate it aggregates the failures of every mirror.
type ProviderError struct {
	Provider ProviderTag
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// AllProvidersFailedError is raised only when every link in the configured
// fallback chain failed. Attempts holds one entry per link, in chain order.
type AllProvidersFailedError struct {
	Attempts []error
}

func (e *AllProvidersFailedError) Error() string {
	msgs := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		msgs = append(msgs, a.Error())
	}
	return "all translation providers failed: " + strings.Join(msgs, "; ")
}
