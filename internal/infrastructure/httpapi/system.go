package httpapi

import (
	"net/http"
	"runtime"

	"github.com/labstack/echo/v4"
)

// SystemHandler exposes health and build info.
type SystemHandler struct {
	version string
}

func NewSystemHandler(version string) *SystemHandler {
	return &SystemHandler{version: version}
}

type okResponse struct {
	Ok bool `json:"ok"`
}

type infoResponse struct {
	Version      string   `json:"version"`
	GoVersion    string   `json:"go_version"`
	Platform     string   `json:"platform"`
	Architecture string   `json:"arch"`
	Capabilities []string `json:"capabilities"`
}

func (h *SystemHandler) Ok(c echo.Context) error {
	return c.JSON(http.StatusOK, okResponse{Ok: true})
}

func (h *SystemHandler) Info(c echo.Context) error {
	return c.JSON(http.StatusOK, infoResponse{
		Version:      h.version,
		GoVersion:    runtime.Version(),
		Platform:     runtime.GOOS,
		Architecture: runtime.GOARCH,
		Capabilities: []string{"graph-runs", "batch-runs", "streaming"},
	})
}
