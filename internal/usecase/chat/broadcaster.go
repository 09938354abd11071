// Package chat fans one message out to several target languages and
// publishes each translation the moment it settles, instead of holding the
// message hostage to the slowest language.
package chat

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"lingochat/internal/domain"
	"lingochat/internal/ports"
	"lingochat/internal/usecase/translator"
)

// EventEmitter surfaces per-language progress to interested listeners
// (UI bridges, log sinks). Optional.
type EventEmitter interface {
	Emit(name string, payload any)
}

type Deps struct {
	Messages ports.MessageRepository
	Engine   *translator.Service
	Log      *slog.Logger
}

// Broadcaster delivers chat messages with progressive per-language
// translation.
type Broadcaster struct {
	d  Deps
	em EventEmitter
}

func New(d Deps) *Broadcaster {
	if d.Log == nil {
		d.Log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Broadcaster{d: d}
}

func (b *Broadcaster) SetEmitter(em EventEmitter) { b.em = em }

// Send stores the message with an empty translations map, then translates
// into every target concurrently. Each language is published individually
// as it completes; a failed language gets a placeholder and never blocks or
// fails its siblings. After all targets settle, one final update clears the
// pending flag and records an aggregate warning when anything failed.
func (b *Broadcaster) Send(ctx context.Context, text, sourceLang string, targets []string) (*domain.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ErrEmptyInput
	}
	msg := &domain.Message{
		ID:                 uuid.NewString(),
		Text:               text,
		SourceLang:         sourceLang,
		Translations:       map[string]string{},
		TranslationPending: len(targets) > 0,
	}
	if err := b.d.Messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	if len(targets) == 0 {
		return msg, nil
	}
	b.emit("message.translating", map[string]any{"message_id": msg.ID, "targets": targets})
	b.translateInto(ctx, msg.ID, text, sourceLang, targets)
	return b.d.Messages.Get(ctx, msg.ID)
}

// Retranslate re-runs translation for an existing message, overwriting its
// translations map. Safe to invoke on an already-translated message.
func (b *Broadcaster) Retranslate(ctx context.Context, messageID string, targets []string) error {
	msg, err := b.d.Messages.Get(ctx, messageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return fmt.Errorf("message not found: %s", messageID)
	}
	b.translateInto(ctx, msg.ID, msg.Text, msg.SourceLang, targets)
	return nil
}

// translateInto launches one translation per target and waits for every
// outcome; nothing is dropped or cancelled because a sibling failed.
func (b *Broadcaster) translateInto(ctx context.Context, messageID, text, sourceLang string, targets []string) {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed []string
	)
	for _, target := range targets {
		wg.Add(1)
		go func(lang string) {
			defer wg.Done()
			res, err := b.d.Engine.Translate(ctx, text, lang, sourceLang)
			out := res.TranslatedText
			if err != nil {
				b.d.Log.Warn("translation failed for language", "message_id", messageID, "target", lang, "error", err)
				out = translator.FailurePlaceholder(lang)
				mu.Lock()
				failed = append(failed, lang)
				mu.Unlock()
			}
			if perr := b.d.Messages.SetTranslation(ctx, messageID, lang, out); perr != nil {
				b.d.Log.Error("publish translation", "message_id", messageID, "target", lang, "error", perr)
			}
			b.emit("message.translated", map[string]any{
				"message_id": messageID,
				"lang":       lang,
				"text":       out,
				"failed":     err != nil,
			})
		}(target)
	}
	wg.Wait()

	warning := ""
	if len(failed) > 0 {
		warning = fmt.Sprintf("translation failed for %d of %d languages: %s",
			len(failed), len(targets), strings.Join(failed, ", "))
	}
	if err := b.d.Messages.FinishTranslations(ctx, messageID, warning); err != nil {
		b.d.Log.Error("finish translations", "message_id", messageID, "error", err)
	}
	b.emit("message.done", map[string]any{"message_id": messageID, "warning": warning})
}

func (b *Broadcaster) emit(name string, payload any) {
	if b.em != nil {
		b.em.Emit(name, payload)
	}
}
