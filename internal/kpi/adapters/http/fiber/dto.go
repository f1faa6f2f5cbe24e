package fiber

// CollectRequest is the optional POST body; query parameters take
// precedence over body fields.
type CollectRequest struct {
	KpiID     string `json:"kpiId" example:"PERF-03"`
	StartDate string `json:"startDate" example:"2024-12-01T00:00"`
	EndDate   string `json:"endDate" example:"2025-01-01T00:00"`
}

type KpiResultResponse struct {
	KpiID       string `json:"kpi_id" example:"PERF-03"`
	WindowStart string `json:"window_start" example:"2024-12-01T00:00:00Z"`
	WindowEnd   string `json:"window_end" example:"2025-01-01T00:00:00Z"`
	Status      string `json:"status" example:"ok"`
	Value       string `json:"value,omitempty" example:"245.3"`
	Error       string `json:"error,omitempty"`
}

type CollectResponse struct {
	RunID     string              `json:"run_id"`
	Succeeded int                 `json:"succeeded"`
	Failed    int                 `json:"failed"`
	Results   []KpiResultResponse `json:"results"`
}

type ErrorResponse struct {
	Error   string `json:"error" example:"invalid_window"`
	Message string `json:"message" example:"startDate must be before endDate"`
}
