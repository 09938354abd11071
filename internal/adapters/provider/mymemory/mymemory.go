// Package mymemory adapts the MyMemory free translation API. The free tier
// is known to return garbage for trivial inputs, so every response passes a
// low-trust quality filter before it is accepted.
package mymemory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"lingochat/internal/domain"
	"lingochat/internal/ports"
)

const defaultBaseURL = "https://api.mymemory.translated.net"

// QualityFilter inspects a candidate result and returns a non-nil error to
// reject it, which triggers fallback to the next provider. Kept as a
// replaceable function because the heuristics are phrase- and
// language-specific and need tuning without touching orchestration.
type QualityFilter func(input string, res domain.TranslationResult) error

type Client struct {
	baseURL string
	email   string
	quota   ports.QuotaGate
	filter  QualityFilter
	http    *resty.Client
}

type Option func(*Client)

// WithBaseURL overrides the API endpoint (tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithQualityFilter replaces the default response filter.
func WithQualityFilter(f QualityFilter) Option {
	return func(c *Client) { c.filter = f }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(d) }
}

// New creates a MyMemory adapter. email is the contact address sent as the
// "de" parameter, which raises the anonymous rate limit.
func New(email string, quota ports.QuotaGate, opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		email:   email,
		quota:   quota,
		filter:  DefaultQualityFilter,
		http:    resty.New().SetTimeout(10 * time.Second),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Tag() domain.ProviderTag { return domain.ProviderMyMemory }

func (c *Client) Translate(ctx context.Context, text, source, target string) (domain.TranslationResult, error) {
	if c.quota != nil && !c.quota.CanUse(domain.ProviderMyMemory) {
		return domain.TranslationResult{}, &domain.QuotaExceededError{Provider: domain.ProviderMyMemory}
	}

	src := source
	if src == "" || src == domain.AutoLanguage {
		src = "en"
	}

	var body struct {
		ResponseData struct {
			TranslatedText string  `json:"translatedText"`
			Match          float64 `json:"match"`
		} `json:"responseData"`
		ResponseStatus  any    `json:"responseStatus"`
		ResponseDetails string `json:"responseDetails"`
	}
	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("q", text).
		SetQueryParam("langpair", fmt.Sprintf("%s|%s", src, target)).
		SetResult(&body)
	if c.email != "" {
		req.SetQueryParam("de", c.email)
	}
	resp, err := req.Get(c.baseURL + "/get")
	if c.quota != nil && resp != nil {
		// The request went out; it counts against today's budget even when
		// the response is unusable.
		_ = c.quota.RecordUse(ctx, domain.ProviderMyMemory)
	}
	if err != nil {
		return domain.TranslationResult{}, &domain.ProviderError{Provider: domain.ProviderMyMemory, Err: err}
	}
	if resp.IsError() {
		return domain.TranslationResult{}, &domain.ProviderError{
			Provider: domain.ProviderMyMemory,
			Err:      fmt.Errorf("http %s", resp.Status()),
		}
	}
	translated := strings.TrimSpace(body.ResponseData.TranslatedText)
	if translated == "" {
		return domain.TranslationResult{}, &domain.ProviderError{
			Provider: domain.ProviderMyMemory,
			Err:      fmt.Errorf("empty translation: %s", body.ResponseDetails),
		}
	}

	res := domain.TranslationResult{
		TranslatedText: translated,
		SourceLanguage: src,
		TargetLanguage: target,
		Confidence:     clamp01(body.ResponseData.Match),
		Provider:       domain.ProviderMyMemory,
	}
	if c.filter != nil {
		if ferr := c.filter(text, res); ferr != nil {
			return domain.TranslationResult{}, &domain.ProviderError{Provider: domain.ProviderMyMemory, Err: ferr}
		}
	}
	return res, nil
}

const minAcceptableMatch = 0.3

// Phrases that bleed through untranslated when the free tier mismatches a
// memory segment.
var mistranslationFingerprints = []string{"my name is", "i am "}

// Greeting words whose Korean translations must carry the hangul greeting
// stem; a missing stem means the memory returned an unrelated segment.
var koreanGreetingStems = map[string]string{
	"hello": "안녕",
	"hi":    "안녕",
}

// DefaultQualityFilter rejects low-match responses and known mistranslation
// fingerprints.
func DefaultQualityFilter(input string, res domain.TranslationResult) error {
	if res.Confidence < minAcceptableMatch {
		return fmt.Errorf("match %.2f below threshold %.2f", res.Confidence, minAcceptableMatch)
	}
	lowerOut := strings.ToLower(res.TranslatedText)
	if res.TargetLanguage != "en" {
		for _, fp := range mistranslationFingerprints {
			if strings.Contains(lowerOut, fp) {
				return fmt.Errorf("mistranslation fingerprint %q in output", fp)
			}
		}
	}
	if res.TargetLanguage == "ko" {
		lowerIn := strings.ToLower(strings.TrimSpace(input))
		for word, stem := range koreanGreetingStems {
			if lowerIn == word && !strings.Contains(res.TranslatedText, stem) {
				return fmt.Errorf("greeting %q not transliterated to %q", word, stem)
			}
		}
	}
	return nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
