package statuspage

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"perf-kpi-service/internal/kpi/core/domain"
	"perf-kpi-service/internal/kpi/core/ports"
	"perf-kpi-service/internal/platform/httpclient"
)

const (
	sourceName = "status-api"
	dayLayout  = "2006-01-02"
)

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

var _ ports.AvailabilityReaderPort = (*Client)(nil)

type availabilityResponse struct {
	Data struct {
		Attributes struct {
			Availability json.RawMessage `json:"availability"`
		} `json:"attributes"`
	} `json:"data"`
}

func (c *Client) Availability(ctx context.Context, from, to time.Time) (float64, error) {
	if c.cfg.URL == "" {
		return 0, fmt.Errorf("%w: BETTERSTACK_API_URL", domain.ErrConfigurationMissing)
	}
	if c.cfg.APIKey == "" {
		return 0, fmt.Errorf("%w: BETTERSTACK_API_KEY", domain.ErrConfigurationMissing)
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.cfg.URL)
	req.URI().QueryArgs().Set("from", from.Format(dayLayout))
	req.URI().QueryArgs().Set("to", to.Format(dayLayout))
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

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

	var out availabilityResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return 0, fmt.Errorf("decode %s response: %w", sourceName, err)
	}
	return parseAvailability(out.Data.Attributes.Availability)
}

// parseAvailability accepts the percentage as a JSON number or a numeric
// string.
func parseAvailability(raw json.RawMessage) (float64, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, fmt.Errorf("%s response has no data.attributes.availability", sourceName)
	}
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%s availability %q: %w", sourceName, s, err)
	}
	return v, nil
}
