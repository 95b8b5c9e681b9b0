package websearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnhanceQuery(t *testing.T) {
	assert.Equal(t, "prazo do FGTS "+enhanceSuffix, enhanceQuery("prazo do FGTS "))
	assert.Equal(t, "férias na CLT", enhanceQuery("férias na CLT"))
	assert.Equal(t, "o que diz a legislação trabalhista?", enhanceQuery("o que diz a legislação trabalhista?"))
}

func TestFilterWorkplace(t *testing.T) {
	items := []Item{
		{Title: "Receita de bolo", Snippet: "farinha e ovos"},
		{Title: "Férias proporcionais", Snippet: "como calcular"},
		{Title: "Notícias", Snippet: "novo prazo do FGTS"},
	}
	got := filterWorkplace(items)
	require.Len(t, got, 2)
	assert.Equal(t, "Férias proporcionais", got[0].Title)
	assert.Equal(t, "Notícias", got[1].Title)
}

func TestGoogleSearcher_Search(t *testing.T) {
	var query url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[
			{"title":"FGTS: prazo de depósito","link":"https://www.gov.br/fgts","snippet":"O depósito do FGTS vence no dia 20.","displayLink":"www.gov.br"},
			{"title":"Receita de bolo","link":"https://example.com/bolo","snippet":"farinha","displayLink":"example.com"}
		]}`))
	}))
	defer srv.Close()

	s := NewGoogleSearcher(Config{APIKey: "key", EngineID: "cx", BaseURL: srv.URL, NumResults: 20})
	res, err := s.Search(context.Background(), "Qual o prazo do FGTS?")
	require.NoError(t, err)

	assert.Equal(t, "key", query.Get("key"))
	assert.Equal(t, "cx", query.Get("cx"))
	assert.Equal(t, "Qual o prazo do FGTS? "+enhanceSuffix, query.Get("q"))
	assert.Equal(t, "10", query.Get("num"))
	assert.Equal(t, "lang_pt", query.Get("lr"))

	assert.True(t, res.Success)
	require.Len(t, res.Evidence, 1)
	assert.Equal(t, "www.gov.br", res.Evidence[0].Source)
	assert.Equal(t, "https://www.gov.br/fgts", res.Evidence[0].URL)
	assert.Contains(t, res.Fragment, "Baseado em 1 resultados da web")
	assert.Contains(t, res.Fragment, "1. FGTS: prazo de depósito (www.gov.br)")
}

func TestGoogleSearcher_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := NewGoogleSearcher(Config{APIKey: "k", EngineID: "cx", BaseURL: srv.URL}).Search(context.Background(), "lei")
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestGoogleSearcher_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewGoogleSearcher(Config{APIKey: "k", EngineID: "cx", BaseURL: srv.URL}).Search(context.Background(), "lei")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
}

func TestGoogleSearcher_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewGoogleSearcher(Config{APIKey: "k", EngineID: "cx", BaseURL: "http://127.0.0.1:0"}).Search(ctx, "lei")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFallbackSearcher(t *testing.T) {
	s := NewFallbackSearcher(0)
	res, err := s.Search(context.Background(), "Como calcular férias?")
	require.NoError(t, err)
	assert.True(t, res.Success)
	require.Len(t, res.Evidence, 3)
	assert.Equal(t, "Cálculo de Férias - Guia Completo", res.Evidence[0].Title)
	assert.Contains(t, res.Fragment, "busca na web não configurada")

	res, err = NewFallbackSearcher(10).Search(context.Background(), "xyz")
	require.NoError(t, err)
	assert.Len(t, res.Evidence, len(references))
	assert.Equal(t, references[0].Title, res.Evidence[0].Title)
}

func TestNew(t *testing.T) {
	assert.IsType(t, &FallbackSearcher{}, New(Config{}))
	assert.IsType(t, &FallbackSearcher{}, New(Config{APIKey: "k"}))
	assert.IsType(t, &GoogleSearcher{}, New(Config{APIKey: "k", EngineID: "cx"}))
}
