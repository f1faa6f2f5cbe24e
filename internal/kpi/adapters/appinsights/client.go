package appinsights

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"perf-kpi-service/internal/kpi/core/domain"
	"perf-kpi-service/internal/kpi/core/ports"
	"perf-kpi-service/internal/platform/httpclient"
)

const sourceName = "metrics-api"

// latencyQuery is sent with its parameters bound separately, never
// interpolated.
const latencyQuery = `declare query_parameters(start:datetime, end:datetime, role:string, operation:string);
requests
| where timestamp >= start and timestamp < end
| where cloud_RoleName == role
| where operation_Name == operation
| summarize avg = avg(duration)
| project avg`

type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

type Client struct {
	cfg  Config
	http httpclient.Doer
}

func NewClient(cfg Config, doer httpclient.Doer) *Client {
	return &Client{cfg: cfg, http: doer}
}

var _ ports.LatencyQuerierPort = (*Client)(nil)

type queryRequest struct {
	Query      string            `json:"query"`
	Parameters map[string]string `json:"parameters"`
}

type queryResponse struct {
	Tables []struct {
		Rows [][]json.RawMessage `json:"rows"`
	} `json:"tables"`
}

func (c *Client) AverageDuration(ctx context.Context, q ports.LatencyQuery) (float64, error) {
	if c.cfg.URL == "" {
		return 0, fmt.Errorf("%w: APP_INSIGHTS_API_URL", domain.ErrConfigurationMissing)
	}
	if c.cfg.APIKey == "" {
		return 0, fmt.Errorf("%w: APP_INSIGHTS_API_KEY", domain.ErrConfigurationMissing)
	}

	body, err := json.Marshal(queryRequest{
		Query: latencyQuery,
		Parameters: map[string]string{
			"start":     q.Window.Start.UTC().Format(time.RFC3339),
			"end":       q.Window.End.UTC().Format(time.RFC3339),
			"role":      q.RoleName,
			"operation": q.OperationName,
		},
	})
	if err != nil {
		return 0, err
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.cfg.URL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.SetBody(body)

	if err := c.http.DoDeadline(req, resp, httpclient.Deadline(ctx, c.cfg.Timeout)); err != nil {
		return 0, fmt.Errorf("%w: %s: %v", domain.ErrUpstreamUnavailable, sourceName, err)
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return 0, &domain.UpstreamError{
			Source:     sourceName,
			StatusCode: resp.StatusCode(),
			Body:       httpclient.Truncate(resp.Body(), 2048),
		}
	}

	return parseAverage(resp.Body())
}

// parseAverage reads the first cell of the first row of the first table.
// An empty result means no matching requests and yields 0.
func parseAverage(body []byte) (float64, error) {
	var out queryResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return 0, fmt.Errorf("decode %s response: %w", sourceName, err)
	}
	if len(out.Tables) == 0 || len(out.Tables[0].Rows) == 0 || len(out.Tables[0].Rows[0]) == 0 {
		return 0, nil
	}

	cell := bytes.TrimSpace(out.Tables[0].Rows[0][0])
	if len(cell) == 0 || string(cell) == "null" {
		return math.NaN(), nil
	}

	if cell[0] == '"' {
		var s string
		if err := json.Unmarshal(cell, &s); err != nil {
			return 0, fmt.Errorf("decode %s cell: %w", sourceName, err)
		}
		if strings.EqualFold(s, "nan") || s == "" {
			return math.NaN(), nil
		}
		return strconv.ParseFloat(s, 64)
	}

	var v float64
	if err := json.Unmarshal(cell, &v); err != nil {
		return 0, fmt.Errorf("decode %s cell: %w", sourceName, err)
	}
	return v, nil
}
