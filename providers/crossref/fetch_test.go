package crossref

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"scholar-export/config"
	"scholar-export/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestResolver(baseURL string) *Resolver {
	cfg := &config.Config{
		CrossrefBaseURL: baseURL,
		CrossrefMailto:  "dev@example.org",
		HTTPTimeout:     2 * time.Second,
		CrossrefRPS:     1000,
		UserAgent:       "scholar-export-test",
	}
	return NewResolver(cfg, zap.NewNop())
}

func crossrefServer(t *testing.T, search, work string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/works":
			assert.Equal(t, "1", r.URL.Query().Get("rows"))
			assert.Equal(t, "dev@example.org", r.URL.Query().Get("mailto"))
			w.Write([]byte(search))
		case strings.HasPrefix(r.URL.Path, "/works/"):
			if work == "" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.Write([]byte(work))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestResolve_FullHit(t *testing.T) {
	var gotQuery, gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/works" {
			gotQuery = r.URL.Query().Get("query.bibliographic")
			w.Write([]byte(`{"status":"ok","message":{"items":[{"DOI":"10.1000/xyz.123"}]}}`))
			return
		}
		gotPath = r.URL.Path
		w.Write([]byte(`{"status":"ok","message":{"DOI":"10.1000/xyz.123","container-title":["Journal of Tests"]}}`))
	}))
	defer ts.Close()

	doi, journal := newTestResolver(ts.URL).Resolve(context.Background(), "A Study on X")

	assert.Equal(t, "10.1000/xyz.123", doi)
	assert.Equal(t, "Journal of Tests", journal)
	assert.Equal(t, "A Study on X", gotQuery)
	assert.Equal(t, "/works/10.1000/xyz.123", gotPath)
}

func TestResolve_NoItemsGivesSentinels(t *testing.T) {
	ts := crossrefServer(t, `{"status":"ok","message":{"items":[]}}`, "")

	doi, journal := newTestResolver(ts.URL).Resolve(context.Background(), "Unknown")

	assert.Equal(t, models.DOINotFound, doi)
	assert.Equal(t, models.NotAvailable, journal)
}

func TestResolve_EmptyDOIIsMiss(t *testing.T) {
	ts := crossrefServer(t, `{"message":{"items":[{"DOI":"  "}]}}`, "")

	doi, journal := newTestResolver(ts.URL).Resolve(context.Background(), "Blank")

	assert.Equal(t, models.DOINotFound, doi)
	assert.Equal(t, models.NotAvailable, journal)
}

func TestResolve_VenueMissKeepsDOI(t *testing.T) {
	ts := crossrefServer(t, `{"message":{"items":[{"DOI":"10.5/abc"}]}}`, `{"message":{"container-title":[]}}`)

	doi, journal := newTestResolver(ts.URL).Resolve(context.Background(), "No venue")

	assert.Equal(t, "10.5/abc", doi)
	assert.Equal(t, models.JournalNameNotFound, journal)
}

func TestResolve_VenueNotFoundStatus(t *testing.T) {
	ts := crossrefServer(t, `{"message":{"items":[{"DOI":"10.5/abc"}]}}`, "")

	doi, journal := newTestResolver(ts.URL).Resolve(context.Background(), "Gone")

	assert.Equal(t, "10.5/abc", doi)
	assert.Equal(t, models.JournalNameNotFound, journal)
}

func TestResolve_OutageDegradesToSentinels(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	doi, journal := newTestResolver(ts.URL).Resolve(context.Background(), "Down")

	assert.Equal(t, models.DOINotFound, doi)
	assert.Equal(t, models.NotAvailable, journal)
}

func TestResolve_MalformedJSONIsMiss(t *testing.T) {
	ts := crossrefServer(t, `{"message":`, "")

	doi, _ := newTestResolver(ts.URL).Resolve(context.Background(), "Broken")
	assert.Equal(t, models.DOINotFound, doi)
}

func TestResolve_UnreachableHost(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := ts.URL
	ts.Close()

	doi, journal := newTestResolver(url).Resolve(context.Background(), "Nowhere")
	assert.Equal(t, models.DOINotFound, doi)
	assert.Equal(t, models.NotAvailable, journal)
}

func TestResolveVenue_SkipsBlankContainerTitles(t *testing.T) {
	ts := crossrefServer(t, "", `{"message":{"container-title":["", "Proceedings B"]}}`)

	name, ok := newTestResolver(ts.URL).ResolveVenue(context.Background(), "10.1/x")
	require.True(t, ok)
	assert.Equal(t, "Proceedings B", name)
}

func TestPing(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "0", r.URL.Query().Get("rows"))
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	require.NoError(t, newTestResolver(ts.URL).Ping(context.Background()))
}

func TestEscapeDOI(t *testing.T) {
	assert.Equal(t, "10.1000/a%20b", escapeDOI("10.1000/a b"))
	assert.Equal(t, "10.1000/x/y", escapeDOI("10.1000/x/y"))
}
