// Package libretranslate adapts LibreTranslate instances. A configured
// primary URL, if any, is tried first, then a fixed list of public mirrors;
// only after every mirror failed does the adapter report an error. This
// mirror fallback is a second layer nested beneath the engine's top-level
// provider chain.
package libretranslate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"lingochat/internal/domain"
	"lingochat/internal/ports"
)

// PublicMirrors are community instances tried after the configured primary.
var PublicMirrors = []string{
	"https://libretranslate.de",
	"https://translate.terraprint.co",
	"https://lt.vern.cc",
}

// Confidence assigned to successful responses; LibreTranslate reports no
// per-translation match score.
const fixedConfidence = 0.85

type Client struct {
	mirrors []string
	quota   ports.QuotaGate
	http    *resty.Client
}

type Option func(*Client)

// WithMirrors replaces the mirror list entirely (tests).
func WithMirrors(urls ...string) Option {
	return func(c *Client) { c.mirrors = urls }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(d) }
}

// New creates a LibreTranslate adapter. primaryURL may be empty, in which
// case only the public mirrors are used.
func New(primaryURL string, quota ports.QuotaGate, opts ...Option) *Client {
	var mirrors []string
	if primaryURL != "" {
		mirrors = append(mirrors, strings.TrimRight(primaryURL, "/"))
	}
	mirrors = append(mirrors, PublicMirrors...)
	c := &Client{
		mirrors: mirrors,
		quota:   quota,
		http:    resty.New().SetTimeout(10 * time.Second),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Tag() domain.ProviderTag { return domain.ProviderLibreTranslate }

func (c *Client) Translate(ctx context.Context, text, source, target string) (domain.TranslationResult, error) {
	if c.quota != nil && !c.quota.CanUse(domain.ProviderLibreTranslate) {
		return domain.TranslationResult{}, &domain.QuotaExceededError{Provider: domain.ProviderLibreTranslate}
	}

	src := source
	if src == "" {
		src = domain.AutoLanguage
	}

	var lastErr error
	for _, mirror := range c.mirrors {
		translated, err := c.translateVia(ctx, mirror, text, src, target)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}
		return domain.TranslationResult{
			TranslatedText: translated,
			SourceLanguage: src,
			TargetLanguage: target,
			Confidence:     fixedConfidence,
			Provider:       domain.ProviderLibreTranslate,
		}, nil
	}
	return domain.TranslationResult{}, &domain.ProviderError{
		Provider: domain.ProviderLibreTranslate,
		Err:      fmt.Errorf("all %d mirrors failed, last: %w", len(c.mirrors), lastErr),
	}
}

func (c *Client) translateVia(ctx context.Context, mirror, text, src, target string) (string, error) {
	var body struct {
		TranslatedText string `json:"translatedText"`
		Error          string `json:"error"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{
			"q":      text,
			"source": src,
			"target": target,
			"format": "text",
		}).
		SetResult(&body).
		Post(strings.TrimRight(mirror, "/") + "/translate")
	if c.quota != nil && resp != nil {
		_ = c.quota.RecordUse(ctx, domain.ProviderLibreTranslate)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", mirror, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("%s: http %s", mirror, resp.Status())
	}
	translated := strings.TrimSpace(body.TranslatedText)
	if translated == "" {
		if body.Error != "" {
			return "", fmt.Errorf("%s: %s", mirror, body.Error)
		}
		return "", fmt.Errorf("%s: empty translation", mirror)
	}
	return translated, nil
}
