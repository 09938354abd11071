// Package translator orchestrates the translation pipeline: source-language
// resolution, cache lookup, provider fallback chain, and cache write-back.
package translator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"lingochat/internal/adapters/provider/registry"
	"lingochat/internal/domain"
	"lingochat/internal/ports"
)

const (
	// cacheReadFloor: cached results at or below this confidence are not
	// trusted on read. Keeps low-quality offline answers from being
	// replayed as authoritative.
	cacheReadFloor = 0.5
	// cacheWriteFloor: results at or below this confidence are never cached.
	cacheWriteFloor = 0.3

	defaultAttemptTimeout = 15 * time.Second
)

// Common greeting/farewell words that free-tier providers most often
// mistranslate. Any input containing one of these clears the whole cache
// before lookup, so a previously cached bad answer cannot poison future
// identical lookups. Deliberately blunt; correctness over performance.
var cacheBustWords = []string{"thank you", "goodbye", "hello", "thanks", "bye", "hi"}

// Deps are the collaborators of the engine.
type Deps struct {
	Providers *registry.Registry
	Detector  ports.Detector
	Cache     *Cache
	Store     ports.KVStore
	Log       *slog.Logger
}

// Service is the translation engine. It owns the process-wide cache and
// settings and is safe for concurrent use.
type Service struct {
	d              Deps
	attemptTimeout time.Duration

	mu       sync.RWMutex
	settings domain.TranslationSettings
}

type Option func(*Service)

// WithAttemptTimeout bounds each single provider attempt so one
// unresponsive backend cannot stall the whole chain.
func WithAttemptTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.attemptTimeout = d
		}
	}
}

// New constructs the engine, loading persisted settings (or defaults on
// first run).
func New(ctx context.Context, d Deps, opts ...Option) (*Service, error) {
	if d.Log == nil {
		d.Log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if d.Cache == nil {
		d.Cache = NewCache()
	}
	s := &Service{
		d:              d,
		attemptTimeout: defaultAttemptTimeout,
		settings:       domain.DefaultSettings(),
	}
	for _, o := range opts {
		o(s)
	}

	raw, err := d.Store.Get(ctx, ports.KeySettings)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &s.settings); err != nil {
			return nil, fmt.Errorf("decode settings: %w", err)
		}
	}
	return s, nil
}

// Settings returns a copy of the current engine settings.
func (s *Service) Settings() domain.TranslationSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// UpdateSettings applies and persists new settings.
func (s *Service) UpdateSettings(ctx context.Context, settings domain.TranslationSettings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := s.d.Store.Set(ctx, ports.KeySettings, string(raw)); err != nil {
		return fmt.Errorf("persist settings: %w", err)
	}
	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()
	return nil
}

// Translate runs the single-target pipeline. source may be "" to let the
// engine resolve it (detector, or "en" when detection is off).
func (s *Service) Translate(ctx context.Context, text, target, source string) (domain.TranslationResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.TranslationResult{}, domain.ErrEmptyInput
	}
	settings := s.Settings()

	src := source
	if src == "" || src == domain.AutoLanguage {
		if settings.AutoDetectLanguage && s.d.Detector != nil {
			src = s.d.Detector.Detect(text)
		} else {
			src = "en"
		}
	}

	// Same language in and out: nothing to do, and neither cache nor
	// providers should be touched.
	if src == target {
		return domain.TranslationResult{
			TranslatedText: text,
			SourceLanguage: src,
			TargetLanguage: target,
			Confidence:     1.0,
			Provider:       domain.ProviderOffline,
		}, nil
	}

	if containsCacheBustWord(text) {
		s.d.Log.Debug("common word in input, clearing translation cache", "text_len", len(text))
		s.d.Cache.Clear()
	}

	if settings.CacheTranslations {
		if hit := s.d.Cache.Get(text, src, target); hit != nil && hit.Confidence > cacheReadFloor {
			s.d.Log.Debug("cache hit", "source", src, "target", target, "provider", hit.Provider)
			return *hit, nil
		}
	}

	res, err := s.runChain(ctx, text, src, target, settings)
	if err != nil {
		return domain.TranslationResult{}, err
	}

	if settings.CacheTranslations && res.Confidence > cacheWriteFloor {
		s.d.Cache.Set(text, src, target, res)
	}
	return res, nil
}

// TranslateToMultiple translates text into every target language
// concurrently and returns one result per language. A failed language gets
// a placeholder result instead of failing the batch.
func (s *Service) TranslateToMultiple(ctx context.Context, text string, targets []string, source string) map[string]domain.TranslationResult {
	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		out = make(map[string]domain.TranslationResult, len(targets))
	)
	for _, target := range targets {
		wg.Add(1)
		go func(lang string) {
			defer wg.Done()
			res, err := s.Translate(ctx, text, lang, source)
			if err != nil {
				s.d.Log.Warn("translation failed", "target", lang, "error", err)
				res = FailureResult(source, lang)
			}
			mu.Lock()
			out[lang] = res
			mu.Unlock()
		}(target)
	}
	wg.Wait()
	return out
}

// FailurePlaceholder is the text recorded for a language whose translation
// failed.
func FailurePlaceholder(lang string) string {
	return fmt.Sprintf("[번역 실패: %s]", lang)
}

// FailureResult is the per-language placeholder used when one target of a
// multi-language request fails.
func FailureResult(source, lang string) domain.TranslationResult {
	return domain.TranslationResult{
		TranslatedText: FailurePlaceholder(lang),
		SourceLanguage: source,
		TargetLanguage: lang,
		Confidence:     0,
		Provider:       domain.ProviderOffline,
	}
}

// runChain tries each provider in the configured chain until one succeeds.
// A provider failure of any kind advances to the next link, never retries
// the same one. Chain exhaustion surfaces every attempt's reason.
func (s *Service) runChain(ctx context.Context, text, src, target string, settings domain.TranslationSettings) (domain.TranslationResult, error) {
	chain := buildChain(settings)
	attempts := make([]error, 0, len(chain))
	for _, tag := range chain {
		p, ok := s.d.Providers.Get(tag)
		if !ok {
			attempts = append(attempts, fmt.Errorf("%s: not configured", tag))
			continue
		}
		actx, cancel := context.WithTimeout(ctx, s.attemptTimeout)
		res, err := p.Translate(actx, text, src, target)
		cancel()
		if err != nil {
			s.d.Log.Debug("provider failed, advancing chain", "provider", tag, "error", err)
			attempts = append(attempts, err)
			continue
		}
		return res, nil
	}
	return domain.TranslationResult{}, &domain.AllProvidersFailedError{Attempts: attempts}
}

// buildChain resolves the ordered provider list from settings. The order is
// fixed, not adaptive.
func buildChain(settings domain.TranslationSettings) []domain.ProviderTag {
	var chain []domain.ProviderTag
	if settings.PreferredProvider != domain.AutoProvider {
		if tag, err := domain.ParseProviderTag(settings.PreferredProvider); err == nil {
			chain = append(chain, tag)
		}
	}
	if len(chain) == 0 {
		chain = []domain.ProviderTag{domain.ProviderMyMemory, domain.ProviderLibreTranslate}
	}
	if settings.FallbackToOffline && !containsTag(chain, domain.ProviderOffline) {
		chain = append(chain, domain.ProviderOffline)
	}
	return chain
}

func containsTag(chain []domain.ProviderTag, tag domain.ProviderTag) bool {
	for _, t := range chain {
		if t == tag {
			return true
		}
	}
	return false
}

func containsCacheBustWord(text string) bool {
	lower := strings.ToLower(text)
	for _, w := range cacheBustWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
