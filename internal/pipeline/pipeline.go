// Package pipeline orchestrates one full run: feed ingestion, parallel
// canonical view computation, report assembly. A run is a pure batch
// transformation; there is no partial-output state, the whole run either
// succeeds or fails.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/collectionsops/canonpipe/internal/canon"
	"github.com/collectionsops/canonpipe/internal/classify"
	"github.com/collectionsops/canonpipe/internal/config"
	"github.com/collectionsops/canonpipe/internal/domain"
	"github.com/collectionsops/canonpipe/internal/feed"
	"github.com/collectionsops/canonpipe/internal/metrics"
	"github.com/collectionsops/canonpipe/internal/report"
)

// RunResult holds everything one pipeline run produced.
type RunResult struct {
	RunID      string
	StartedAt  time.Time
	DurationMs int64

	AccountRows          int
	ActivityRows         int
	ActivityRowsSkipped  int
	InvalidDates         int
	UnclassifiedChannels int
	UnclassifiedContacts int

	ViewCounts map[string]int

	Mortgage           []report.MortgageRow
	Restructuring      []report.RestructuringRow
	CommercialPromises []report.CommercialPromiseRow
}

// Summary is the JSON shape served by the status endpoint and persisted
// with each run. Report rows themselves are not included.
type Summary struct {
	RunID                string         `json:"run_id"`
	StartedAt            time.Time      `json:"started_at"`
	DurationMs           int64          `json:"duration_ms"`
	AccountRows          int            `json:"account_rows"`
	ActivityRows         int            `json:"activity_rows"`
	ActivityRowsSkipped  int            `json:"activity_rows_skipped"`
	InvalidDates         int            `json:"invalid_dates"`
	UnclassifiedChannels int            `json:"unclassified_channels"`
	UnclassifiedContacts int            `json:"unclassified_contacts"`
	ViewRows             map[string]int `json:"view_rows"`
	ReportRows           map[string]int `json:"report_rows"`
}

// Summary projects the run result into its serializable summary.
func (r *RunResult) Summary() Summary {
	return Summary{
		RunID:                r.RunID,
		StartedAt:            r.StartedAt,
		DurationMs:           r.DurationMs,
		AccountRows:          r.AccountRows,
		ActivityRows:         r.ActivityRows,
		ActivityRowsSkipped:  r.ActivityRowsSkipped,
		InvalidDates:         r.InvalidDates,
		UnclassifiedChannels: r.UnclassifiedChannels,
		UnclassifiedContacts: r.UnclassifiedContacts,
		ViewRows:             r.ViewCounts,
		ReportRows: map[string]int{
			config.ReportMortgage:           len(r.Mortgage),
			config.ReportRestructuring:      len(r.Restructuring),
			config.ReportCommercialPromises: len(r.CommercialPromises),
		},
	}
}

// Pipeline runs the batch transformation and remembers the latest result
// for the status endpoint. Safe for concurrent Latest() readers while a
// run is in progress.
type Pipeline struct {
	latest atomic.Pointer[RunResult]
}

// New creates a Pipeline.
func New() *Pipeline {
	return &Pipeline{}
}

// Latest returns the most recent successful run result, or nil before the
// first one completes.
func (p *Pipeline) Latest() *RunResult {
	return p.latest.Load()
}

// viewTask names one canonical view computation.
type viewTask struct {
	name  string
	build func([]domain.ActivityEvent) ([]canon.Record, error)
}

type viewOutput struct {
	name string
	recs []canon.Record
}

// Run executes one full pipeline pass over the configured feeds.
func (p *Pipeline) Run(ctx context.Context, cfg *config.PipelineConfig) (*RunResult, error) {
	start := time.Now()
	metrics.RunsTotal.Inc()

	res, err := p.run(ctx, cfg, start)
	if err != nil {
		metrics.RunFailures.Inc()
		return nil, err
	}

	res.DurationMs = time.Since(start).Milliseconds()
	metrics.RunDuration.Observe(float64(res.DurationMs))
	p.latest.Store(res)

	slog.Info("pipeline run complete",
		"run_id", res.RunID,
		"duration_ms", res.DurationMs,
		"accounts", res.AccountRows,
		"events", res.ActivityRows,
		"mortgage_rows", len(res.Mortgage),
		"restructuring_rows", len(res.Restructuring),
		"commercial_rows", len(res.CommercialPromises),
	)
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, cfg *config.PipelineConfig, start time.Time) (*RunResult, error) {
	res := &RunResult{
		RunID:      uuid.New().String(),
		StartedAt:  start,
		ViewCounts: make(map[string]int),
	}

	accounts, accStats, err := feed.ReadAccounts(cfg.Feeds.Accounts)
	if err != nil {
		return nil, err
	}
	events, actStats, err := feed.ReadActivities(cfg.Feeds.Activities)
	if err != nil {
		return nil, err
	}
	res.AccountRows = accStats.RowsRead
	res.ActivityRows = actStats.RowsRead
	res.ActivityRowsSkipped = actStats.RowsSkipped
	metrics.FeedRowsRead.WithLabelValues("accounts").Add(float64(accStats.RowsRead))
	metrics.FeedRowsRead.WithLabelValues("activities").Add(float64(actStats.RowsRead))
	metrics.FeedRowsSkipped.WithLabelValues("activities").Add(float64(actStats.RowsSkipped))

	p.countDataQuality(res, events)

	views, err := p.buildViews(ctx, cfg, events)
	if err != nil {
		return nil, err
	}
	for name, recs := range views {
		res.ViewCounts[name] = len(recs)
		metrics.ViewRows.WithLabelValues(name).Set(float64(len(recs)))
	}
	res.ViewCounts[canon.ViewAccounts] = len(accounts)
	metrics.ViewRows.WithLabelValues(canon.ViewAccounts).Set(float64(len(accounts)))

	in := report.Inputs{
		Accounts:    accounts,
		Primary:     canon.ByAccount(views[canon.ViewPrimary]),
		Field:       canon.ByAccount(views[canon.ViewField]),
		Promise:     canon.ByAccount(views[canon.ViewPromise]),
		Restructure: canon.ByAccount(views[canon.ViewRestructure]),
	}
	params := report.Params{Company: cfg.Company, Metro: cfg.MetroSet()}

	if cfg.ReportEnabled(config.ReportMortgage) {
		if res.Mortgage, err = report.Mortgage(in, params); err != nil {
			return nil, err
		}
		metrics.ReportRows.WithLabelValues(config.ReportMortgage).Set(float64(len(res.Mortgage)))
	}
	if cfg.ReportEnabled(config.ReportRestructuring) {
		if res.Restructuring, err = report.Restructuring(in, params); err != nil {
			return nil, err
		}
		metrics.ReportRows.WithLabelValues(config.ReportRestructuring).Set(float64(len(res.Restructuring)))
	}
	if cfg.ReportEnabled(config.ReportCommercialPromises) {
		if res.CommercialPromises, err = report.CommercialPromises(in, params); err != nil {
			return nil, err
		}
		metrics.ReportRows.WithLabelValues(config.ReportCommercialPromises).Set(float64(len(res.CommercialPromises)))
	}

	return res, nil
}

// buildViews computes the four canonical contact views concurrently; they
// have no cross-view dependency.
func (p *Pipeline) buildViews(ctx context.Context, cfg *config.PipelineConfig, events []domain.ActivityEvent) (map[string][]canon.Record, error) {
	tasks := []viewTask{
		{name: canon.ViewPrimary, build: canon.PrimaryView},
		{name: canon.ViewField, build: canon.FieldView},
		{name: canon.ViewPromise, build: canon.PromiseView},
		{name: canon.ViewRestructure, build: canon.RestructureView},
	}

	workers := cfg.Pipeline.ViewWorkers
	if workers <= 0 || workers > len(tasks) {
		workers = len(tasks)
	}
	pool := newWorkerPool(ctx, workers, len(tasks), func(_ context.Context, t viewTask) (viewOutput, error) {
		recs, err := t.build(events)
		if err != nil {
			return viewOutput{}, err
		}
		return viewOutput{name: t.name, recs: recs}, nil
	})

	results := make(chan jobResult[viewOutput], len(tasks))
	for _, t := range tasks {
		if !pool.Submit(t, results) {
			pool.Drain()
			return nil, fmt.Errorf("view queue full submitting %s", t.name)
		}
	}

	views := make(map[string][]canon.Record, len(tasks))
	var firstErr error
	for range tasks {
		select {
		case r := <-results:
			if r.err != nil && firstErr == nil {
				firstErr = r.err
			}
			if r.err == nil {
				views[r.value.name] = r.value.recs
			}
		case <-ctx.Done():
			pool.Drain()
			return nil, ctx.Err()
		}
	}
	pool.Drain()
	if firstErr != nil {
		return nil, firstErr
	}
	return views, nil
}

// countDataQuality tallies malformed dates and unclassified categorical
// values. These are data, not errors; they surface in the summary and the
// metrics but never fail the run.
func (p *Pipeline) countDataQuality(res *RunResult, events []domain.ActivityEvent) {
	for _, ev := range events {
		if ev.ActivityDate != "" && classify.NormalizeDate(ev.ActivityDate) == "" {
			res.InvalidDates++
			metrics.DatesInvalid.Inc()
		}
		if classify.ClassifyChannel(ev.Channel) == classify.ChannelUnclassified {
			res.UnclassifiedChannels++
			metrics.ValuesUnclassified.WithLabelValues("collection_channel").Inc()
		}
		if classify.ClassifyContact(ev.ContactType, ev.AgentName) == classify.ContactUnclassified {
			res.UnclassifiedContacts++
			metrics.ValuesUnclassified.WithLabelValues("contact_type").Inc()
		}
	}
}
