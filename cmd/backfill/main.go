// Command backfill recomputes KPIs over a historical range, chunk by chunk,
// and prints a JSON report of every chunk.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"perf-kpi-service/internal/app"
	"perf-kpi-service/internal/config"
	"perf-kpi-service/internal/kpi/core/domain"
	"perf-kpi-service/internal/kpi/core/usecase"
	"perf-kpi-service/internal/platform/logging"
)

type chunkReport struct {
	Start    string            `json:"start"`
	End      string            `json:"end"`
	RunID    string            `json:"run_id,omitempty"`
	OK       bool              `json:"ok"`
	Values   map[string]string `json:"values,omitempty"`
	Failures map[string]string `json:"failures,omitempty"`
	RunError string            `json:"run_error,omitempty"`
}

type report struct {
	Selector string        `json:"selector"`
	Start    string        `json:"start"`
	End      string        `json:"end"`
	Chunk    string        `json:"chunk"`
	Failed   int           `json:"failed_chunks"`
	Chunks   []chunkReport `json:"chunks"`
}

func main() {
	var (
		kpi   = flag.String("kpi", domain.SelectorAll, "KPI selector: ALL, a KPI id or a comma separated list")
		start = flag.String("start", "", "range start, e.g. 2024-12-01T00:00 (required)")
		end   = flag.String("end", "", "range end, exclusive (required)")
		chunk = flag.Duration("chunk", usecase.DefaultBackfillChunk, "chunk length; hourly KPIs force 1h chunks and a whole-hour range")
		out   = flag.String("out", "", "write the JSON report to this file instead of stdout")
	)
	flag.Parse()

	if *start == "" || *end == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("invalid timezone: %v", err)
	}

	sel, err := domain.ParseSelector(*kpi)
	if err != nil {
		log.Fatalf("invalid -kpi: %v", err)
	}
	from, err := parseTime(*start, loc)
	if err != nil {
		log.Fatalf("invalid -start: %v", err)
	}
	to, err := parseTime(*end, loc)
	if err != nil {
		log.Fatalf("invalid -end: %v", err)
	}

	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.ServiceName+"-backfill")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to start: %v", err)
	}

	code := run(ctx, a, usecase.BackfillInput{
		Selector: sel,
		Start:    from,
		End:      to,
		Chunk:    *chunk,
	}, *out)
	if err := a.Close(); err != nil {
		log.Printf("close: %v", err)
	}
	os.Exit(code)
}

func run(ctx context.Context, a *app.App, in usecase.BackfillInput, out string) int {
	res, err := a.Backfill.Execute(ctx, in)
	if err != nil && len(res.Chunks) == 0 {
		log.Printf("backfill failed: %v", err)
		return 1
	}

	rep := buildReport(in.Selector, in.Start, in.End, in.Chunk, res)
	if werr := writeReport(rep, out); werr != nil {
		log.Printf("write report: %v", werr)
		return 1
	}

	if err != nil || rep.Failed > 0 {
		return 1
	}
	return 0
}

func parseTime(raw string, loc *time.Location) (time.Time, error) {
	for _, layout := range usecase.InputTimeLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%q does not match any accepted layout", raw)
}

func buildReport(sel domain.Selector, from, to time.Time, chunk time.Duration, res usecase.BackfillResult) report {
	rep := report{
		Selector: sel.String(),
		Start:    from.Format(time.RFC3339),
		End:      to.Format(time.RFC3339),
		Chunk:    chunk.String(),
		Failed:   res.Failed(),
		Chunks:   make([]chunkReport, 0, len(res.Chunks)),
	}

	for _, c := range res.Chunks {
		cr := chunkReport{
			Start: c.Window.Start.Format(time.RFC3339),
			End:   c.Window.End.Format(time.RFC3339),
			RunID: c.Result.RunID,
			OK:    c.OK(),
		}
		if c.Err != nil {
			cr.RunError = c.Err.Error()
		}
		for _, o := range c.Result.Outcomes {
			if o.OK() {
				if cr.Values == nil {
					cr.Values = make(map[string]string)
				}
				cr.Values[string(o.ID)] = o.Value.Text()
				continue
			}
			if cr.Failures == nil {
				cr.Failures = make(map[string]string)
			}
			cr.Failures[string(o.ID)] = o.Err.Error()
		}
		rep.Chunks = append(rep.Chunks, cr)
	}
	return rep
}

func writeReport(rep report, path string) error {
	w := os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
