package httpapi

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/duragraph/mediagraph/internal/application/service"
	"github.com/duragraph/mediagraph/internal/infrastructure/eventstream"
	"github.com/duragraph/mediagraph/internal/infrastructure/monitoring"
)

// New assembles the echo server exposing the run-control surface: health
// and metrics endpoints, and start/stream/cancel for both single-graph
// runs and batches.
func New(graphRunner *service.GraphRunner, batchRunner *service.BatchRunner, bus *eventstream.Bus, metrics *monitoring.Metrics, version string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = ErrorHandler()

	e.Use(Logger())
	e.Use(Metrics(metrics))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	system := NewSystemHandler(version)
	e.GET("/ok", system.Ok)
	e.GET("/info", system.Info)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	run := NewRunHandler(graphRunner, bus)
	batch := NewBatchHandler(batchRunner, bus)

	api := e.Group("/api/v1")
	api.POST("/runs", run.Start)
	api.GET("/runs/:run_id/stream", run.Stream)
	api.POST("/runs/:run_id/cancel", run.Cancel)

	api.POST("/batches", batch.Start)
	api.GET("/batches/:batch_id/stream", batch.Stream)
	api.POST("/batches/:batch_id/cancel", batch.Cancel)

	return e
}
