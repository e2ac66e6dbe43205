// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package admin

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/vivat7on/filmindex/internal/platform/constants"
	"github.com/vivat7on/filmindex/internal/platform/respond"
)

// Resyncer triggers an out-of-band tick of the sync engine and blocks
// until it completes. [*scheduler.Scheduler] satisfies this.
type Resyncer interface {
	TriggerResync(ctx context.Context) error
}

type resyncHandler struct {
	scheduler Resyncer
	logger    *slog.Logger
}

// NewResyncHandler builds the POST /admin/resync [http.HandlerFunc]. The
// route it is mounted on must already be guarded by bearer-token
// authorization — this handler does not check credentials itself.
func NewResyncHandler(scheduler Resyncer, logger *slog.Logger) http.HandlerFunc {
	h := &resyncHandler{scheduler: scheduler, logger: logger}
	return h.handle
}

func (h *resyncHandler) handle(writer http.ResponseWriter, request *http.Request) {
	h.logger.Info("resync_triggered")

	if err := h.scheduler.TriggerResync(request.Context()); err != nil {
		respond.Error(writer, request, http.StatusInternalServerError, "RESYNC_FAILED", "resync tick failed", err)
		return
	}

	respond.OK(writer, map[string]string{
		constants.FieldStatus: "resync_complete",
	})
}
