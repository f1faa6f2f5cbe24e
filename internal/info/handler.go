package info

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

type InfoResponse struct {
	Name        string `json:"name" example:"perf-kpi-service"`
	Version     string `json:"version" example:"1.4.0"`
	Environment string `json:"environment" example:"production"`
	WindowMode  string `json:"window_mode" example:"previous_month"`
	StartedAt   string `json:"started_at" example:"2025-01-01T00:00:00Z"`
}

type Handler struct {
	resp InfoResponse
}

func NewHandler(name, version, environment, windowMode string, startedAt time.Time) *Handler {
	return &Handler{resp: InfoResponse{
		Name:        name,
		Version:     version,
		Environment: environment,
		WindowMode:  windowMode,
		StartedAt:   startedAt.UTC().Format(time.RFC3339),
	}}
}

// GetInfo godoc
// @Summary Service information
// @Tags Info
// @Produce json
// @Success 200 {object} InfoResponse
// @Router /info [get]
func (h *Handler) GetInfo(c *fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(h.resp)
}
