// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package admin_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vivat7on/filmindex/internal/etl/admin"
)

type fakeResyncer struct {
	err error
}

func (f *fakeResyncer) TriggerResync(context.Context) error { return f.err }

func TestResyncHandler_Success(t *testing.T) {
	handler := admin.NewResyncHandler(&fakeResyncer{}, discardLogger())

	request := httptest.NewRequest(http.MethodPost, "/admin/resync", nil)
	recorder := httptest.NewRecorder()
	handler(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"resync_complete"`)
}

func TestResyncHandler_CoordinatorFailure_Returns500(t *testing.T) {
	handler := admin.NewResyncHandler(&fakeResyncer{err: errors.New("source unreachable")}, discardLogger())

	request := httptest.NewRequest(http.MethodPost, "/admin/resync", nil)
	recorder := httptest.NewRecorder()
	handler(recorder, request)

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "RESYNC_FAILED")
}
