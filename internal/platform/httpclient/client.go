// Package httpclient builds the fasthttp client shared by the outbound
// KPI source adapters.
package httpclient

import (
	"context"
	"time"

	"github.com/valyala/fasthttp"
)

const DefaultTimeout = 30 * time.Second

// Doer is the subset of *fasthttp.Client the adapters use.
type Doer interface {
	DoDeadline(req *fasthttp.Request, resp *fasthttp.Response, deadline time.Time) error
}

func New(name string, timeout time.Duration) *fasthttp.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &fasthttp.Client{
		Name:                name,
		ReadTimeout:         timeout,
		WriteTimeout:        timeout,
		MaxIdleConnDuration: 90 * time.Second,
		MaxConnsPerHost:     16,
	}
}

// Deadline picks the earlier of the context deadline and now+timeout.
func Deadline(ctx context.Context, timeout time.Duration) time.Time {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	d := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(d) {
		return ctxDeadline
	}
	return d
}

// Truncate shortens upstream bodies kept for diagnostics.
func Truncate(body []byte, max int) string {
	if len(body) <= max {
		return string(body)
	}
	return string(body[:max]) + "..."
}
