// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package admin implements the sync engine's control-plane HTTP surface:
liveness/readiness probes and an operator-triggered resync endpoint. It
carries no film/genre/person documents — that is the read-side query API's
job, explicitly out of scope for this engine.
*/
package admin

import (
	"log/slog"
	"net/http"

	"github.com/vivat7on/filmindex/internal/platform/constants"
	"github.com/vivat7on/filmindex/internal/platform/respond"
)

// HealthDependencies holds the injectable dependency checkers for
// readiness probes.
type HealthDependencies struct {
	// CheckSink performs a shallow ping of the Elasticsearch client, the
	// one long-lived remote handle the engine holds across ticks.
	CheckSink func() error
}

type healthHandler struct {
	dependencies HealthDependencies
	logger       *slog.Logger
}

// NewHealthHandlers constructs the liveness and readiness [http.HandlerFunc] pair.
func NewHealthHandlers(deps HealthDependencies, logger *slog.Logger) (liveness, readiness http.HandlerFunc) {
	handler := &healthHandler{dependencies: deps, logger: logger}
	return handler.liveness, handler.readiness
}

// liveness handles GET /health. It reports 200 as long as the process is
// up; the source connection is opened fresh per tick, so there is nothing
// tick-scoped to check here.
func (h *healthHandler) liveness(writer http.ResponseWriter, _ *http.Request) {
	respond.OK(writer, map[string]string{
		constants.FieldStatus:  "ok",
		constants.FieldApp:     constants.AppName,
		constants.FieldVersion: constants.AppVersion,
	})
}

// readiness handles GET /ready. It pings the sink client; the source
// connection is per-tick and deliberately not probed here.
func (h *healthHandler) readiness(writer http.ResponseWriter, _ *http.Request) {
	type checkResult struct {
		Name  string `json:"name"`
		IsOK  bool   `json:"ok"`
		Error string `json:"error,omitempty"`
	}

	result := checkResult{Name: "elasticsearch", IsOK: true}
	if h.dependencies.CheckSink != nil {
		if err := h.dependencies.CheckSink(); err != nil {
			result.IsOK = false
			result.Error = err.Error()
			h.logger.Error("readiness_check_failed",
				slog.String("dependency", "elasticsearch"),
				slog.Any("error", err),
			)
		}
	}

	status := "ready"
	httpStatus := http.StatusOK
	if !result.IsOK {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	respond.JSON(writer, httpStatus, respond.SuccessEnvelope{Data: map[string]any{
		constants.FieldStatus: status,
		constants.FieldChecks: []checkResult{result},
	}})
}
