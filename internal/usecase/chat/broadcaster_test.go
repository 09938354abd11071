package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lingochat/internal/adapters/provider/registry"
	"lingochat/internal/domain"
	"lingochat/internal/usecase/translator"
)

// memMessages is an in-memory MessageRepository that records every partial
// update so tests can assert on progressive delivery.
type memMessages struct {
	mu       sync.Mutex
	messages map[string]*domain.Message
	partials []string // languages in publish order
}

func newMemMessages() *memMessages {
	return &memMessages{messages: map[string]*domain.Message{}}
}

func (m *memMessages) Create(_ context.Context, msg *domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *msg
	cp.Translations = map[string]string{}
	for k, v := range msg.Translations {
		cp.Translations[k] = v
	}
	m.messages[msg.ID] = &cp
	return nil
}

func (m *memMessages) Get(_ context.Context, id string) (*domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[id]
	if !ok {
		return nil, nil
	}
	cp := *msg
	cp.Translations = map[string]string{}
	for k, v := range msg.Translations {
		cp.Translations[k] = v
	}
	return &cp, nil
}

func (m *memMessages) SetTranslation(_ context.Context, id, lang, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[id]
	if !ok {
		return fmt.Errorf("message not found: %s", id)
	}
	msg.Translations[lang] = text
	m.partials = append(m.partials, lang)
	return nil
}

func (m *memMessages) FinishTranslations(_ context.Context, id, warning string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[id]
	if !ok {
		return fmt.Errorf("message not found: %s", id)
	}
	msg.TranslationPending = false
	msg.TranslationWarning = warning
	return nil
}

func (m *memMessages) List(_ context.Context, _ int) ([]*domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Message, 0, len(m.messages))
	for _, msg := range m.messages {
		out = append(out, msg)
	}
	return out, nil
}

func (m *memMessages) partialCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.partials)
}

// perLangProvider succeeds except for the languages in fail.
type perLangProvider struct {
	fail map[string]bool
}

func (p *perLangProvider) Tag() domain.ProviderTag { return domain.ProviderMyMemory }

func (p *perLangProvider) Translate(_ context.Context, text, source, target string) (domain.TranslationResult, error) {
	if p.fail[target] {
		return domain.TranslationResult{}, &domain.ProviderError{
			Provider: domain.ProviderMyMemory,
			Err:      errors.New("backend down for " + target),
		}
	}
	return domain.TranslationResult{
		TranslatedText: target + ":" + text,
		SourceLanguage: source,
		TargetLanguage: target,
		Confidence:     0.9,
		Provider:       domain.ProviderMyMemory,
	}, nil
}

type memKV struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemKV() *memKV { return &memKV{data: map[string]string{}} }

func (m *memKV) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *memKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func newBroadcaster(t *testing.T, repo *memMessages, failLangs ...string) *Broadcaster {
	t.Helper()
	fail := map[string]bool{}
	for _, l := range failLangs {
		fail[l] = true
	}
	reg := registry.New()
	reg.Register(&perLangProvider{fail: fail})
	engine, err := translator.New(context.Background(), translator.Deps{
		Providers: reg,
		Cache:     translator.NewCache(),
		Store:     newMemKV(),
	})
	require.NoError(t, err)

	// No offline terminal link: a failing language must actually fail.
	settings := engine.Settings()
	settings.FallbackToOffline = false
	settings.AutoDetectLanguage = false
	require.NoError(t, engine.UpdateSettings(context.Background(), settings))

	return New(Deps{Messages: repo, Engine: engine})
}

func TestSendTranslatesAllTargets(t *testing.T) {
	repo := newMemMessages()
	b := newBroadcaster(t, repo)

	msg, err := b.Send(context.Background(), "good evening", "en", []string{"ko", "ja", "es"})
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.False(t, msg.TranslationPending)
	assert.Empty(t, msg.TranslationWarning)
	assert.Equal(t, map[string]string{
		"ko": "ko:good evening",
		"ja": "ja:good evening",
		"es": "es:good evening",
	}, msg.Translations)
	assert.Equal(t, 3, repo.partialCount(), "each language is published individually")
}

func TestSendOneLanguageFailsOthersSurvive(t *testing.T) {
	repo := newMemMessages()
	b := newBroadcaster(t, repo, "ja")

	msg, err := b.Send(context.Background(), "good evening", "en", []string{"ko", "ja", "es"})
	require.NoError(t, err, "per-language failures never fail the send")
	assert.Equal(t, "ko:good evening", msg.Translations["ko"])
	assert.Equal(t, "es:good evening", msg.Translations["es"])
	assert.Equal(t, translator.FailurePlaceholder("ja"), msg.Translations["ja"])
	assert.False(t, msg.TranslationPending)
	assert.Contains(t, msg.TranslationWarning, "1 of 3")
	assert.Contains(t, msg.TranslationWarning, "ja")
}

func TestSendAllLanguagesFail(t *testing.T) {
	repo := newMemMessages()
	b := newBroadcaster(t, repo, "ko", "ja")

	msg, err := b.Send(context.Background(), "good evening", "en", []string{"ko", "ja"})
	require.NoError(t, err)
	assert.Equal(t, translator.FailurePlaceholder("ko"), msg.Translations["ko"])
	assert.Equal(t, translator.FailurePlaceholder("ja"), msg.Translations["ja"])
	assert.Contains(t, msg.TranslationWarning, "2 of 2")
}

func TestSendNoTargets(t *testing.T) {
	repo := newMemMessages()
	b := newBroadcaster(t, repo)

	msg, err := b.Send(context.Background(), "untranslated note", "en", nil)
	require.NoError(t, err)
	assert.False(t, msg.TranslationPending)
	assert.Empty(t, msg.Translations)
}

func TestSendEmptyText(t *testing.T) {
	b := newBroadcaster(t, newMemMessages())
	_, err := b.Send(context.Background(), "  ", "en", []string{"ko"})
	assert.ErrorIs(t, err, domain.ErrEmptyInput)
}

func TestRetranslateOverwrites(t *testing.T) {
	repo := newMemMessages()

	// First pass: ja fails and leaves a placeholder.
	failed := newBroadcaster(t, repo, "ja")
	msg, err := failed.Send(context.Background(), "good evening", "en", []string{"ja"})
	require.NoError(t, err)
	require.Equal(t, translator.FailurePlaceholder("ja"), msg.Translations["ja"])

	// Second pass against a healthy backend overwrites the placeholder.
	healthy := newBroadcaster(t, repo)
	require.NoError(t, healthy.Retranslate(context.Background(), msg.ID, []string{"ja"}))
	got, err := repo.Get(context.Background(), msg.ID)
	require.NoError(t, err)
	assert.Equal(t, "ja:good evening", got.Translations["ja"])
	assert.Empty(t, got.TranslationWarning)
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []string
}

func (e *recordingEmitter) Emit(name string, _ any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, name)
}

func TestSendEmitsLifecycleEvents(t *testing.T) {
	b := newBroadcaster(t, newMemMessages())
	em := &recordingEmitter{}
	b.SetEmitter(em)

	_, err := b.Send(context.Background(), "good evening", "en", []string{"ko", "ja"})
	require.NoError(t, err)

	em.mu.Lock()
	defer em.mu.Unlock()
	assert.Equal(t, "message.translating", em.events[0])
	assert.Equal(t, "message.done", em.events[len(em.events)-1])
	count := 0
	for _, name := range em.events {
		if name == "message.translated" {
			count++
		}
	}
	assert.Equal(t, 2, count)
}
