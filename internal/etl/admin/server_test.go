// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package admin

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vivat7on/filmindex/internal/platform/sec"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type serverTestResyncer struct{ err error }

func (f *serverTestResyncer) TriggerResync(context.Context) error { return f.err }

// Reaching into Server.httpServer.Handler from within the package avoids
// adding test-only exported surface just to drive routing assertions.
func TestNewServer_AdminTokenHashEmpty_DisablesResyncRoute(t *testing.T) {
	server := NewServer(context.Background(), Dependencies{
		Port:           "0",
		Health:         HealthDependencies{},
		Scheduler:      &serverTestResyncer{},
		AdminTokenHash: "",
	}, discardLogger())

	request := httptest.NewRequest(http.MethodPost, "/admin/resync", nil)
	recorder := httptest.NewRecorder()
	server.httpServer.Handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusNotFound, recorder.Code, "no AdminTokenHash means /admin/resync must not be mounted at all")
}

func TestNewServer_AdminTokenHashSet_MountsResyncRouteBehindAuth(t *testing.T) {
	hash, err := sec.HashPassword("operator-token")
	require.NoError(t, err)

	server := NewServer(context.Background(), Dependencies{
		Port:           "0",
		Health:         HealthDependencies{},
		Scheduler:      &serverTestResyncer{},
		AdminTokenHash: hash,
	}, discardLogger())

	request := httptest.NewRequest(http.MethodPost, "/admin/resync", nil)
	recorder := httptest.NewRecorder()
	server.httpServer.Handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code, "the route exists but requires a bearer token")
}

func TestNewServer_HealthRoutesAlwaysMounted(t *testing.T) {
	server := NewServer(context.Background(), Dependencies{
		Port:           "0",
		Health:         HealthDependencies{},
		Scheduler:      &serverTestResyncer{},
		AdminTokenHash: "",
	}, discardLogger())

	for _, path := range []string{"/health", "/ready"} {
		request := httptest.NewRequest(http.MethodGet, path, nil)
		recorder := httptest.NewRecorder()
		server.httpServer.Handler.ServeHTTP(recorder, request)
		assert.Equal(t, http.StatusOK, recorder.Code, "path %s", path)
	}
}
