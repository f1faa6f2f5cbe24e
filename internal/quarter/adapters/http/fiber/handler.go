package fiber

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	kpidomain "perf-kpi-service/internal/kpi/core/domain"
	"perf-kpi-service/internal/quarter/core/domain"
	"perf-kpi-service/internal/quarter/core/usecase"

	"github.com/gofiber/fiber/v2"
)

type AggregateQuarterUseCase interface {
	Execute(ctx context.Context, in usecase.AggregateInput) (*domain.QuarterlySummary, error)
}

type QuarterHandler struct {
	uc  AggregateQuarterUseCase
	now func() time.Time
}

func NewQuarterHandler(uc AggregateQuarterUseCase) *QuarterHandler {
	return &QuarterHandler{uc: uc, now: time.Now}
}

// Aggregate godoc
// @Summary Publish a quarterly KPI summary
// @Description Rolls up the stored KPI records of the three months of a quarter and publishes them to the event stream.
// @Description LAST means the three full months before the current one.
// @Tags Quarter
// @Produce json
// @Param quarter path string true "Q1, Q2, Q3, Q4 or LAST"
// @Param year query int false "Calendar year for Q1..Q4, defaults to the current year"
// @Success 200 {object} QuarterResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /quarter/{quarter} [post]
// @Router /quarter/{quarter} [get]
func (h *QuarterHandler) Aggregate(c *fiber.Ctx) error {
	quarter := c.Params("quarter")

	year := h.now().Year()
	if raw := c.Query("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
				Error:   "invalid_quarter",
				Message: "invalid 'year' parameter",
			})
		}
		year = y
	}

	s, err := h.uc.Execute(c.UserContext(), usecase.AggregateInput{
		Quarter: quarter,
		Year:    year,
	})
	if err != nil {
		switch {
		case errors.Is(err, kpidomain.ErrInvalidQuarterInput):
			return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
				Error:   "invalid_quarter",
				Message: err.Error(),
			})
		case errors.Is(err, kpidomain.ErrPublish),
			errors.Is(err, kpidomain.ErrUpstreamUnavailable):
			return c.Status(http.StatusBadGateway).JSON(ErrorResponse{
				Error:   "publish_failed",
				Message: err.Error(),
			})
		default:
			return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
				Error:   "internal_server_error",
				Message: err.Error(),
			})
		}
	}

	return c.Status(http.StatusOK).JSON(QuarterResponse{
		Year:    s.Year,
		Quarter: string(s.Quarter),
		Key:     s.Key(),
		Months:  s.Records(),
	})
}
