package fiber

import "perf-kpi-service/internal/quarter/core/domain"

type QuarterResponse struct {
	Year    int                    `json:"year" example:"2024"`
	Quarter string                 `json:"quarter" example:"Q4"`
	Key     string                 `json:"key" example:"2024-Q4"`
	Months  []domain.PayloadRecord `json:"months"`
}

type ErrorResponse struct {
	Error   string `json:"error" example:"invalid_quarter"`
	Message string `json:"message" example:"quarter must be one of Q1, Q2, Q3, Q4 or LAST"`
}
