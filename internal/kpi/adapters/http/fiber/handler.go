package fiber

import (
	"context"
	"errors"
	"net/http"
	"time"

	"perf-kpi-service/internal/kpi/core/domain"
	"perf-kpi-service/internal/kpi/core/usecase"

	"github.com/gofiber/fiber/v2"
)

type CollectKpiUseCase interface {
	Execute(ctx context.Context, in usecase.CollectInput) (usecase.CollectResult, error)
}

type KpiHandler struct {
	uc CollectKpiUseCase
}

func NewKpiHandler(uc CollectKpiUseCase) *KpiHandler {
	return &KpiHandler{uc: uc}
}

// Collect godoc
// @Summary Compute and store KPIs
// @Description Computes the selected KPI (or ALL) over the requested window and stores one record per KPI.
// @Description Without dates the configured default window is used.
// @Tags KPI
// @Accept json
// @Produce json
// @Param kpiId query string false "PERF-01..PERF-06, PERF-02E, ALL or a comma separated list" default(ALL)
// @Param startDate query string false "Window start, e.g. 2024-12-01T00:00"
// @Param endDate query string false "Window end, e.g. 2025-01-01T00:00"
// @Param request body CollectRequest false "Same fields as the query parameters"
// @Success 200 {object} CollectResponse
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} CollectResponse
// @Router /collect [get]
// @Router /collect [post]
func (h *KpiHandler) Collect(c *fiber.Ctx) error {
	req, err := bindCollectRequest(c)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_body",
			Message: err.Error(),
		})
	}

	sel, err := domain.ParseSelector(req.KpiID)
	if err != nil {
		return badSelector(c, err)
	}

	return h.run(c, usecase.CollectInput{
		Selector: sel,
		Trigger:  domain.TriggerHTTP,
		Start:    req.StartDate,
		End:      req.EndDate,
	})
}

// CollectHourly godoc
// @Summary Compute the hourly error volume
// @Description Computes PERF-02E over [startDate, startDate+1h), or over the previous full hour when startDate is absent.
// @Tags KPI
// @Accept json
// @Produce json
// @Param startDate query string false "Hour start, e.g. 2024-12-01T10:00"
// @Param request body CollectRequest false "startDate may be sent in the body"
// @Success 200 {object} CollectResponse
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} CollectResponse
// @Router /collect/perf-02e [get]
// @Router /collect/perf-02e [post]
func (h *KpiHandler) CollectHourly(c *fiber.Ctx) error {
	req, err := bindCollectRequest(c)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_body",
			Message: err.Error(),
		})
	}

	return h.run(c, usecase.CollectInput{
		Selector: domain.NewSelector(domain.Perf02E),
		Trigger:  domain.TriggerHTTP,
		Start:    req.StartDate,
	})
}

func (h *KpiHandler) run(c *fiber.Ctx, in usecase.CollectInput) error {
	res, err := h.uc.Execute(c.UserContext(), in)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidWindowInput):
			return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
				Error:   "invalid_window",
				Message: err.Error(),
			})
		case errors.Is(err, domain.ErrInvalidSelector):
			return badSelector(c, err)
		default:
			return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
				Error: "internal_server_error",
			})
		}
	}

	resp := CollectResponse{
		RunID:     res.RunID,
		Succeeded: res.Succeeded(),
		Failed:    len(res.FailedIDs()),
		Results:   make([]KpiResultResponse, 0, len(res.Outcomes)),
	}
	for _, o := range res.Outcomes {
		r := KpiResultResponse{
			KpiID:       string(o.ID),
			WindowStart: o.Window.Start.Format(time.RFC3339),
			WindowEnd:   o.Window.End.Format(time.RFC3339),
			Status:      "ok",
		}
		if o.OK() {
			r.Value = o.Value.Text()
		} else {
			r.Status = "failed"
			r.Error = o.Err.Error()
		}
		resp.Results = append(resp.Results, r)
	}

	status := http.StatusOK
	if resp.Succeeded == 0 {
		status = http.StatusBadGateway
	}
	return c.Status(status).JSON(resp)
}

// bindCollectRequest merges an optional JSON body with the query string.
func bindCollectRequest(c *fiber.Ctx) (CollectRequest, error) {
	var req CollectRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return req, err
		}
	}
	if v := c.Query("kpiId"); v != "" {
		req.KpiID = v
	}
	if v := c.Query("startDate"); v != "" {
		req.StartDate = v
	}
	if v := c.Query("endDate"); v != "" {
		req.EndDate = v
	}
	return req, nil
}

func badSelector(c *fiber.Ctx, err error) error {
	return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
		Error:   "invalid_kpi",
		Message: err.Error(),
	})
}
