package fiber_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	httpadapter "perf-kpi-service/internal/kpi/adapters/http/fiber"
	"perf-kpi-service/internal/kpi/core/domain"
	"perf-kpi-service/internal/kpi/core/usecase"

	"github.com/gofiber/fiber/v2"
)

// Fake usecase implementing the interface that handler depends on.
type fakeCollectUseCase struct {
	ExecuteFn func(ctx context.Context, in usecase.CollectInput) (usecase.CollectResult, error)
	lastInput usecase.CollectInput
	called    bool
}

func (f *fakeCollectUseCase) Execute(ctx context.Context, in usecase.CollectInput) (usecase.CollectResult, error) {
	f.called = true
	f.lastInput = in
	if f.ExecuteFn != nil {
		return f.ExecuteFn(ctx, in)
	}
	return usecase.CollectResult{}, nil
}

func setupApp(t *testing.T, uc httpadapter.CollectKpiUseCase) *fiber.App {
	t.Helper()
	app := fiber.New()
	h := httpadapter.NewKpiHandler(uc)
	app.Get("/collect", h.Collect)
	app.Post("/collect", h.Collect)
	app.Get("/collect/perf-02e", h.CollectHourly)
	app.Post("/collect/perf-02e", h.CollectHourly)
	return app
}

func decodeCollect(t *testing.T, resp *http.Response) httpadapter.CollectResponse {
	t.Helper()
	var body httpadapter.CollectResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

var december = domain.TimeWindow{
	Start: time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
	End:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
}

// ------------------------------------------------------------
// SUCCESS: single KPI from query string
// ------------------------------------------------------------

func TestCollect_Success_SingleKpi(t *testing.T) {
	uc := &fakeCollectUseCase{
		ExecuteFn: func(ctx context.Context, in usecase.CollectInput) (usecase.CollectResult, error) {
			return usecase.CollectResult{
				RunID: "run-1",
				Outcomes: []usecase.KpiOutcome{
					{ID: domain.Perf02, Window: december, Value: domain.CountValue(42)},
				},
			}, nil
		},
	}

	app := setupApp(t, uc)
	req := httptest.NewRequest(http.MethodGet, "/collect?kpiId=PERF-02&startDate=2024-12-01T00:00&endDate=2025-01-01T00:00", nil)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	if !uc.lastInput.Selector.Includes(domain.Perf02) || uc.lastInput.Selector.All() {
		t.Fatalf("expected PERF-02 selector, got %s", uc.lastInput.Selector)
	}
	if uc.lastInput.Start != "2024-12-01T00:00" || uc.lastInput.End != "2025-01-01T00:00" {
		t.Fatalf("unexpected bounds %q..%q", uc.lastInput.Start, uc.lastInput.End)
	}
	if uc.lastInput.Trigger != domain.TriggerHTTP {
		t.Fatalf("expected http trigger, got %s", uc.lastInput.Trigger)
	}

	body := decodeCollect(t, resp)
	if body.Succeeded != 1 || body.Failed != 0 {
		t.Fatalf("unexpected counts %+v", body)
	}
	if body.Results[0].Value != "42" || body.Results[0].Status != "ok" {
		t.Fatalf("unexpected result %+v", body.Results[0])
	}
}

// ------------------------------------------------------------
// SUCCESS: default selector is ALL, body fields are honored
// ------------------------------------------------------------

func TestCollect_PostBody_DefaultsToAll(t *testing.T) {
	uc := &fakeCollectUseCase{
		ExecuteFn: func(ctx context.Context, in usecase.CollectInput) (usecase.CollectResult, error) {
			return usecase.CollectResult{
				RunID:    "run-2",
				Outcomes: []usecase.KpiOutcome{{ID: domain.Perf01, Window: december, Value: domain.AvailabilityValue(99.9)}},
			}, nil
		},
	}

	app := setupApp(t, uc)
	req := httptest.NewRequest(http.MethodPost, "/collect", strings.NewReader(`{"startDate":"2024-12-01T00:00","endDate":"2025-01-01T00:00"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !uc.lastInput.Selector.All() {
		t.Fatalf("expected ALL selector, got %s", uc.lastInput.Selector)
	}
	if uc.lastInput.Start != "2024-12-01T00:00" {
		t.Fatalf("expected body startDate, got %q", uc.lastInput.Start)
	}
}

// ------------------------------------------------------------
// PARTIAL: one failure still returns 200 with details
// ------------------------------------------------------------

func TestCollect_PartialFailure_Returns200(t *testing.T) {
	uc := &fakeCollectUseCase{
		ExecuteFn: func(ctx context.Context, in usecase.CollectInput) (usecase.CollectResult, error) {
			return usecase.CollectResult{
				RunID: "run-3",
				Outcomes: []usecase.KpiOutcome{
					{ID: domain.Perf01, Window: december, Err: &domain.UpstreamError{Source: "status-api", StatusCode: 502}},
					{ID: domain.Perf02, Window: december, Value: domain.CountValue(7)},
				},
			}, nil
		},
	}

	app := setupApp(t, uc)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/collect?kpiId=ALL", nil))
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := decodeCollect(t, resp)
	if body.Succeeded != 1 || body.Failed != 1 {
		t.Fatalf("unexpected counts %+v", body)
	}
	if body.Results[0].Status != "failed" || body.Results[0].Error == "" {
		t.Fatalf("expected failed PERF-01 entry, got %+v", body.Results[0])
	}
}

// ------------------------------------------------------------
// ALL FAILED: 502
// ------------------------------------------------------------

func TestCollect_AllFailed_Returns502(t *testing.T) {
	uc := &fakeCollectUseCase{
		ExecuteFn: func(ctx context.Context, in usecase.CollectInput) (usecase.CollectResult, error) {
			return usecase.CollectResult{
				RunID: "run-4",
				Outcomes: []usecase.KpiOutcome{
					{ID: domain.Perf03, Window: december, Err: fmt.Errorf("%w: PERF-03", domain.ErrConfigurationMissing)},
				},
			}, nil
		},
	}

	app := setupApp(t, uc)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/collect?kpiId=PERF-03", nil))
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}
}

// ------------------------------------------------------------
// VALIDATION
// ------------------------------------------------------------

func TestCollect_UnknownKpi_Returns400(t *testing.T) {
	uc := &fakeCollectUseCase{}
	app := setupApp(t, uc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/collect?kpiId=PERF-99", nil))
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if uc.called {
		t.Fatalf("usecase must not be called for an unknown kpi")
	}
}

func TestCollect_InvalidWindow_Returns400(t *testing.T) {
	uc := &fakeCollectUseCase{
		ExecuteFn: func(ctx context.Context, in usecase.CollectInput) (usecase.CollectResult, error) {
			return usecase.CollectResult{}, fmt.Errorf("%w: start is not before end", domain.ErrInvalidWindowInput)
		},
	}

	app := setupApp(t, uc)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/collect?startDate=2025-01-01T00:00&endDate=2024-12-01T00:00", nil))
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	var body httpadapter.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != "invalid_window" {
		t.Fatalf("expected invalid_window, got %q", body.Error)
	}
}

func TestCollect_UnexpectedError_Returns500(t *testing.T) {
	uc := &fakeCollectUseCase{
		ExecuteFn: func(ctx context.Context, in usecase.CollectInput) (usecase.CollectResult, error) {
			return usecase.CollectResult{}, errors.New("boom")
		},
	}

	app := setupApp(t, uc)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/collect", nil))
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
}

// ------------------------------------------------------------
// HOURLY
// ------------------------------------------------------------

func TestCollectHourly_SelectsPerf02E(t *testing.T) {
	hour := domain.TimeWindow{
		Start: time.Date(2024, 12, 1, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 12, 1, 11, 0, 0, 0, time.UTC),
	}
	uc := &fakeCollectUseCase{
		ExecuteFn: func(ctx context.Context, in usecase.CollectInput) (usecase.CollectResult, error) {
			return usecase.CollectResult{
				RunID:    "run-5",
				Outcomes: []usecase.KpiOutcome{{ID: domain.Perf02E, Window: hour, Value: domain.CountValue(3)}},
			}, nil
		},
	}

	app := setupApp(t, uc)
	req := httptest.NewRequest(http.MethodPost, "/collect/perf-02e", strings.NewReader(`{"startDate":"2024-12-01T10:00"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	ids := uc.lastInput.Selector.IDs()
	if len(ids) != 1 || ids[0] != domain.Perf02E {
		t.Fatalf("expected PERF-02E only, got %v", ids)
	}
	if uc.lastInput.Start != "2024-12-01T10:00" || uc.lastInput.End != "" {
		t.Fatalf("unexpected bounds %q..%q", uc.lastInput.Start, uc.lastInput.End)
	}

	body := decodeCollect(t, resp)
	if body.Results[0].WindowStart != "2024-12-01T10:00:00Z" || body.Results[0].WindowEnd != "2024-12-01T11:00:00Z" {
		t.Fatalf("unexpected window %+v", body.Results[0])
	}
}

// ------------------------------------------------------------
// CONTEXT: request-scoped values reach the use case
// ------------------------------------------------------------

type ctxKey struct{}

func TestCollect_PassesUserContext(t *testing.T) {
	var got any
	uc := &fakeCollectUseCase{
		ExecuteFn: func(ctx context.Context, in usecase.CollectInput) (usecase.CollectResult, error) {
			got = ctx.Value(ctxKey{})
			return usecase.CollectResult{
				RunID:    "run-ctx",
				Outcomes: []usecase.KpiOutcome{{ID: domain.Perf02, Window: december, Value: domain.CountValue(1)}},
			}, nil
		},
	}

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.SetUserContext(context.WithValue(c.UserContext(), ctxKey{}, "req-7"))
		return c.Next()
	})
	h := httpadapter.NewKpiHandler(uc)
	app.Get("/collect", h.Collect)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/collect?kpiId=PERF-02", nil))
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got != "req-7" {
		t.Fatalf("expected the user context to reach the use case, got %v", got)
	}
}
