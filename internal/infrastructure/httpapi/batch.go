package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/duragraph/mediagraph/internal/application/service"
	"github.com/duragraph/mediagraph/internal/infrastructure/eventstream"
)

// BatchHandler implements the batch-shaped run-control surface: same
// start/stream/cancel shape as RunHandler but keyed by (experiment_id,
// graph_ids).
type BatchHandler struct {
	Runner *service.BatchRunner
	Bus    *eventstream.Bus
}

func NewBatchHandler(runner *service.BatchRunner, bus *eventstream.Bus) *BatchHandler {
	return &BatchHandler{Runner: runner, Bus: bus}
}

// Start handles POST /batches.
func (h *BatchHandler) Start(c echo.Context) error {
	var req StartBatchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: err.Error()})
	}
	if req.ExperimentID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: "experiment_id is required"})
	}
	if len(req.GraphIDs) == 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: "graph_ids must be non-empty"})
	}

	batchID, err := h.Runner.StartBatch(c.Request().Context(), req.ExperimentID, req.GraphIDs, req.Force)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, StartBatchResponse{BatchID: batchID})
}

// Cancel handles POST /batches/:batch_id/cancel.
func (h *BatchHandler) Cancel(c echo.Context) error {
	batchID := c.Param("batch_id")
	if err := h.Runner.CancelBatch(batchID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"batch_id": batchID, "status": "cancelled"})
}

// Stream handles GET /batches/:batch_id/stream.
func (h *BatchHandler) Stream(c echo.Context) error {
	batchID := c.Param("batch_id")
	if batchID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: "batch_id is required"})
	}
	return streamTopic(c, h.Bus, eventstream.Topic("batch", batchID))
}
