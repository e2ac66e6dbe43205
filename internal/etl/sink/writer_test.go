// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sink_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vivat7on/filmindex/internal/etl/backoff"
	"github.com/vivat7on/filmindex/internal/etl/sink"
	"github.com/vivat7on/filmindex/internal/platform/errkind"
)

// fastBackoff keeps retry-path tests from waiting out production pacing.
func fastBackoff() backoff.Config {
	return backoff.Config{Start: time.Millisecond, Factor: 2, Ceiling: 5 * time.Millisecond, MaxTries: 3}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestClient wraps handler so every response carries the
// "X-Elastic-Product" header the client's transport requires to trust a
// response as coming from a genuine Elasticsearch server.
func newTestClient(t *testing.T, handler http.HandlerFunc) *elasticsearch.Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{server.URL}})
	require.NoError(t, err)
	return client
}

type fakeDeadLetter struct {
	mu      sync.Mutex
	records []string
}

func (f *fakeDeadLetter) Record(_ context.Context, index, docID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, index+":"+docID)
	return nil
}

func TestEnsureIndices_CreatesEveryMissingIndex(t *testing.T) {
	var created []string
	var mu sync.Mutex

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodHead:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			mu.Lock()
			created = append(created, r.URL.Path)
			mu.Unlock()
			w.WriteHeader(http.StatusOK)
		default:
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	})

	writer := sink.NewWriter(client, "movies", "genres", "persons", nil, discardLogger())
	err := writer.EnsureIndices(context.Background())

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"/movies", "/genres", "/persons"}, created)
}

func TestEnsureIndices_SkipsIndicesThatAlreadyExist(t *testing.T) {
	putCalled := false

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodHead:
			w.WriteHeader(http.StatusOK)
		case http.MethodPut:
			putCalled = true
			w.WriteHeader(http.StatusOK)
		}
	})

	writer := sink.NewWriter(client, "movies", "genres", "persons", nil, discardLogger())
	err := writer.EnsureIndices(context.Background())

	require.NoError(t, err)
	assert.False(t, putCalled, "expected no index creation when indices already exist")
}

func TestEnsureIndices_CreateFailure_IsTransient(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodHead:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			w.WriteHeader(http.StatusInternalServerError)
		}
	})

	writer := sink.NewWriter(client, "movies", "genres", "persons", nil, discardLogger())
	writer.SetBackoffConfig(fastBackoff())
	err := writer.EnsureIndices(context.Background())

	require.Error(t, err)
	assert.True(t, errkind.IsTransient(err))
}

func TestEnsureIndices_CreateFailsOnceThenSucceeds_RetriesWithinOneCall(t *testing.T) {
	var putAttempts int32
	var mu sync.Mutex

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodHead:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			mu.Lock()
			putAttempts++
			attempt := putAttempts
			mu.Unlock()
			if attempt == 1 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.WriteHeader(http.StatusOK)
		}
	})

	writer := sink.NewWriter(client, "movies", "genres", "persons", nil, discardLogger())
	writer.SetBackoffConfig(fastBackoff())
	err := writer.EnsureIndices(context.Background())

	require.NoError(t, err)
	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, putAttempts, int32(2), "expected the failed create to be retried and eventually succeed")
}

func TestBulkGenres_EmptyDocs_SkipsRequestEntirely(t *testing.T) {
	client := newTestClient(t, func(http.ResponseWriter, *http.Request) {
		t.Fatal("no request should be sent for an empty batch")
	})

	writer := sink.NewWriter(client, "movies", "genres", "persons", nil, discardLogger())
	result, err := writer.BulkGenres(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, sink.BulkResult{}, result)
}

func TestBulkFilmWorks_AllSucceed(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/_bulk", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"errors":false,"items":[]}`))
	})

	writer := sink.NewWriter(client, "movies", "genres", "persons", nil, discardLogger())
	docs := []sink.FilmDocument{
		{ID: uuid.New(), Title: "Hackers"},
		{ID: uuid.New(), Title: "The Matrix"},
	}
	result, err := writer.BulkFilmWorks(context.Background(), docs)

	require.NoError(t, err)
	assert.Equal(t, sink.BulkResult{Indexed: 2}, result)
}

func TestBulkPersons_PartialFailure_RecordsDeadLetterAndAdvancesAnyway(t *testing.T) {
	failedID := uuid.New()
	okID := uuid.New()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		response := fmt.Sprintf(`{
			"errors": true,
			"items": [
				{"index": {"_id": %q, "status": 200}},
				{"index": {"_id": %q, "status": 400, "error": {"type": "mapper_parsing_exception", "reason": "bad field"}}}
			]
		}`, okID, failedID)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(response))
	})

	deadLetter := &fakeDeadLetter{}
	writer := sink.NewWriter(client, "movies", "genres", "persons", deadLetter, discardLogger())
	docs := []sink.PersonDocument{{ID: okID, Name: "Keanu Reeves"}, {ID: failedID, Name: "bad actor"}}
	result, err := writer.BulkPersons(context.Background(), docs)

	require.NoError(t, err)
	assert.Equal(t, sink.BulkResult{Indexed: 1, Failed: 1}, result)
	assert.Equal(t, []string{"persons:" + failedID.String()}, deadLetter.records)
}

func TestBulkGenres_RequestFails_ReturnsTransientError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	writer := sink.NewWriter(client, "movies", "genres", "persons", nil, discardLogger())
	writer.SetBackoffConfig(fastBackoff())
	_, err := writer.BulkGenres(context.Background(), []sink.GenreDocument{{ID: uuid.New(), Name: "Action"}})

	require.Error(t, err)
	assert.True(t, errkind.IsTransient(err))
}

func TestBulkFilmWorks_UndecodableResponse_ReturnsTransientError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("not json"))
	})

	writer := sink.NewWriter(client, "movies", "genres", "persons", nil, discardLogger())
	writer.SetBackoffConfig(fastBackoff())
	_, err := writer.BulkFilmWorks(context.Background(), []sink.FilmDocument{{ID: uuid.New(), Title: "Hackers"}})

	require.Error(t, err)
	assert.True(t, errkind.IsTransient(err))
}

func TestBulkFilmWorks_FailsOnceThenSucceeds_RetriesWithinOneCall(t *testing.T) {
	var attempts int32
	var mu sync.Mutex

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		attempts++
		attempt := attempts
		mu.Unlock()

		if attempt == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"errors":false,"items":[]}`))
	})

	writer := sink.NewWriter(client, "movies", "genres", "persons", nil, discardLogger())
	writer.SetBackoffConfig(fastBackoff())
	result, err := writer.BulkFilmWorks(context.Background(), []sink.FilmDocument{{ID: uuid.New(), Title: "Hackers"}})

	require.NoError(t, err)
	assert.Equal(t, sink.BulkResult{Indexed: 1}, result)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, int32(2), attempts, "expected the failed bulk request to be retried once and then succeed")
}

func TestGenreDocument_JSONShape(t *testing.T) {
	doc := sink.GenreDocument{ID: uuid.New(), Name: "Sci-Fi"}

	payload, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"name":"Sci-Fi"`)
}
