package semanticscholar

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"scholar-export/config"
	"scholar-export/providers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestFetcher(baseURL string) *Fetcher {
	cfg := &config.Config{
		SemanticScholarBaseURL: baseURL,
		SemanticScholarAPIKey:  "key-123",
		SearchPageSize:         2,
		HTTPTimeout:            2 * time.Second,
		SearchRPS:              1000,
		UserAgent:              "scholar-export-test",
	}
	return NewFetcher(cfg, zap.NewNop())
}

func TestCursor_PagesUntilExhausted(t *testing.T) {
	var offsets []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/paper/search", r.URL.Path)
		assert.Equal(t, "key-123", r.Header.Get("x-api-key"))
		assert.Equal(t, searchFields, r.URL.Query().Get("fields"))
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		offset := r.URL.Query().Get("offset")
		offsets = append(offsets, offset)
		switch offset {
		case "0":
			w.Write([]byte(`{"total":3,"offset":0,"next":2,"data":[
				{"title":"A Study on X","authors":[{"name":"Jane Doe"},{"name":"John Roe"}],"year":2019,"citationCount":50,"url":"https://s2/a"},
				{"title":"Second","authors":[],"year":null}]}`))
		default:
			w.Write([]byte(`{"total":3,"offset":2,"data":[{"title":"Third","authors":[{"name":"Ann"}],"openAccessPdf":{"url":"https://pdf/3"}}]}`))
		}
	}))
	defer ts.Close()

	cur := newTestFetcher(ts.URL).Open("x")
	ctx := context.Background()

	first, err := cur.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A Study on X", first.TitleOrEmpty())
	assert.Equal(t, []string{"Jane Doe", "John Roe"}, first.Authors)
	assert.True(t, first.HasAuthors)
	assert.Equal(t, 2019, first.Year)
	require.NotNil(t, first.CitationCount)
	assert.Equal(t, 50, *first.CitationCount)
	assert.Equal(t, "https://s2/a", first.CitationURL)

	second, err := cur.Next(ctx)
	require.NoError(t, err)
	assert.True(t, second.HasAuthors)
	assert.Empty(t, second.Authors)
	assert.Nil(t, second.Year)
	assert.Nil(t, second.CitationCount)

	third, err := cur.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://pdf/3", third.EprintURL)

	_, err = cur.Next(ctx)
	assert.True(t, errors.Is(err, providers.ErrExhausted))
	_, err = cur.Next(ctx)
	assert.True(t, errors.Is(err, providers.ErrExhausted))

	assert.Equal(t, []string{"0", "2"}, offsets)
}

func TestCursor_StopsWhenNextDoesNotAdvance(t *testing.T) {
	var calls int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Write([]byte(`{"total":10,"offset":0,"next":0,"data":[{"title":"Loop A"},{"title":"Loop B"}]}`))
	}))
	defer ts.Close()

	cur := newTestFetcher(ts.URL).Open("x")
	ctx := context.Background()

	for _, want := range []string{"Loop A", "Loop B"} {
		raw, err := cur.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, raw.TitleOrEmpty())
	}
	_, err := cur.Next(ctx)
	assert.ErrorIs(t, err, providers.ErrExhausted)
	assert.Equal(t, 1, calls)
}

func TestCursor_MissingFieldsStayAbsent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"data":[{"paperId":"p1"}]}`))
	}))
	defer ts.Close()

	raw, err := newTestFetcher(ts.URL).Open("x").Next(context.Background())
	require.NoError(t, err)
	assert.Nil(t, raw.Title)
	assert.False(t, raw.HasAuthors)
}

func TestCursor_UpstreamErrorIsReturned(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	_, err := newTestFetcher(ts.URL).Open("x").Next(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, providers.ErrExhausted))
}

func TestCursor_EmptyResultIsExhausted(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"total":0,"offset":0,"data":[]}`))
	}))
	defer ts.Close()

	_, err := newTestFetcher(ts.URL).Open("nothing").Next(context.Background())
	assert.ErrorIs(t, err, providers.ErrExhausted)
}

func TestCursorsAreIndependent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"data":[{"title":"Only","authors":[{"name":"A"}]}]}`))
	}))
	defer ts.Close()

	f := newTestFetcher(ts.URL)
	a, b := f.Open("q"), f.Open("q")
	ctx := context.Background()

	_, err := a.Next(ctx)
	require.NoError(t, err)
	_, err = a.Next(ctx)
	assert.ErrorIs(t, err, providers.ErrExhausted)

	raw, err := b.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Only", raw.TitleOrEmpty())
}
