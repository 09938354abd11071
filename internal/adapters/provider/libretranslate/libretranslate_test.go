package libretranslate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lingochat/internal/domain"
)

type fakeGate struct {
	mu      sync.Mutex
	allowed bool
	used    int
}

func (g *fakeGate) CanUse(domain.ProviderTag) bool { return g.allowed }

func (g *fakeGate) RecordUse(context.Context, domain.ProviderTag) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.used++
	return nil
}

func (g *fakeGate) uses() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.used
}

func ltServer(t *testing.T, translated string, hits *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*hits++
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/translate", r.URL.Path)
		var body struct {
			Q      string `json:"q"`
			Source string `json:"source"`
			Target string `json:"target"`
			Format string `json:"format"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "text", body.Format)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"translatedText": translated})
	}))
}

func brokenServer(hits *int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		*hits++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
}

func TestTranslateFirstMirror(t *testing.T) {
	hits := 0
	srv := ltServer(t, "hola", &hits)
	defer srv.Close()

	c := New("", &fakeGate{allowed: true}, WithMirrors(srv.URL))
	res, err := c.Translate(context.Background(), "hello", "en", "es")
	require.NoError(t, err)
	assert.Equal(t, "hola", res.TranslatedText)
	assert.Equal(t, domain.ProviderLibreTranslate, res.Provider)
	assert.Equal(t, 1, hits)
}

func TestTranslateFallsThroughMirrors(t *testing.T) {
	badHits, goodHits := 0, 0
	bad := brokenServer(&badHits)
	defer bad.Close()
	good := ltServer(t, "bonjour", &goodHits)
	defer good.Close()

	gate := &fakeGate{allowed: true}
	c := New("", gate, WithMirrors(bad.URL, good.URL))
	res, err := c.Translate(context.Background(), "hello", "en", "fr")
	require.NoError(t, err)
	assert.Equal(t, "bonjour", res.TranslatedText)
	assert.Equal(t, 1, badHits)
	assert.Equal(t, 1, goodHits)
	assert.Equal(t, 2, gate.uses(), "every dispatched mirror attempt is metered")
}

func TestTranslateAllMirrorsExhausted(t *testing.T) {
	h1, h2 := 0, 0
	bad1 := brokenServer(&h1)
	defer bad1.Close()
	bad2 := brokenServer(&h2)
	defer bad2.Close()

	c := New("", &fakeGate{allowed: true}, WithMirrors(bad1.URL, bad2.URL))
	_, err := c.Translate(context.Background(), "hello", "en", "fr")

	var pe *domain.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Error(), "all 2 mirrors failed")
	assert.Equal(t, 1, h1)
	assert.Equal(t, 1, h2)
}

func TestTranslateQuotaBlockedBeforeIO(t *testing.T) {
	hits := 0
	srv := ltServer(t, "hola", &hits)
	defer srv.Close()

	c := New("", &fakeGate{allowed: false}, WithMirrors(srv.URL))
	_, err := c.Translate(context.Background(), "hello", "en", "es")

	var qe *domain.QuotaExceededError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, 0, hits)
}

func TestPrimaryURLPrecedesPublicMirrors(t *testing.T) {
	c := New("https://lt.internal.example", nil)
	require.Equal(t, "https://lt.internal.example", c.mirrors[0])
	assert.Equal(t, 1+len(PublicMirrors), len(c.mirrors))
}
