package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/duragraph/mediagraph/internal/application/service"
	"github.com/duragraph/mediagraph/internal/infrastructure/eventstream"
)

// RunHandler implements the single-graph run-control surface: start,
// stream, cancel.
type RunHandler struct {
	Runner *service.GraphRunner
	Bus    *eventstream.Bus
}

func NewRunHandler(runner *service.GraphRunner, bus *eventstream.Bus) *RunHandler {
	return &RunHandler{Runner: runner, Bus: bus}
}

// Start handles POST /runs.
func (h *RunHandler) Start(c echo.Context) error {
	var req StartRunRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: err.Error()})
	}
	if req.GraphID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: "graph_id is required"})
	}

	runID, err := h.Runner.StartRun(c.Request().Context(), req.GraphID, req.Targets, req.Force)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, StartRunResponse{RunID: runID})
}

// Cancel handles POST /runs/:run_id/cancel.
func (h *RunHandler) Cancel(c echo.Context) error {
	runID := c.Param("run_id")
	if err := h.Runner.CancelRun(runID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"run_id": runID, "status": "cancelled"})
}

// Stream handles GET /runs/:run_id/stream: an SSE feed of that run's
// events.
func (h *RunHandler) Stream(c echo.Context) error {
	runID := c.Param("run_id")
	if runID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: "run_id is required"})
	}
	return streamTopic(c, h.Bus, eventstream.Topic("run", runID))
}

// streamTopic writes SSE headers, subscribes to topic, and relays every
// published payload until the client disconnects or the subscription
// closes. A keepalive comment goes out every 30s so idle proxies don't
// close the connection.
func streamTopic(c echo.Context, bus *eventstream.Bus, topic string) error {
	c.Response().Header().Set("Content-Type", "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().WriteHeader(http.StatusOK)

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	messages, err := bus.Subscribe(ctx, topic)
	if err != nil {
		return err
	}

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			fmt.Fprint(c.Response(), ": keepalive\n\n")
			c.Response().Flush()
		case payload, ok := <-messages:
			if !ok {
				return nil
			}
			c.Response().Write(eventstream.FormatSSE(payload))
			c.Response().Flush()
		}
	}
}
