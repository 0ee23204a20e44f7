package app

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/raysh454/beaconcheck/internal/action"
	"github.com/raysh454/beaconcheck/internal/browser"
	"github.com/raysh454/beaconcheck/internal/csvload"
	"github.com/raysh454/beaconcheck/internal/logging"
	"github.com/raysh454/beaconcheck/internal/metrics"
	"github.com/raysh454/beaconcheck/internal/model"
	"github.com/raysh454/beaconcheck/internal/verify"
	"github.com/raysh454/beaconcheck/internal/visit"
)

// RunStore persists run records. *runstore.Store implements it.
type RunStore interface {
	Save(ctx context.Context, run *model.Run) error
}

// RunRequest names the uploaded file to process.
type RunRequest struct {
	FileName string
	FilePath string
}

// Checker processes uploads against the shared browser session. Only one
// run uses the session at a time; further runs wait their turn.
type Checker struct {
	visitor   *visit.Visitor
	performer *action.Performer
	store     RunStore
	events    *Events
	logger    logging.Logger

	sem chan struct{}
}

// NewChecker wires the visitor and action performer to session. store may be
// nil to disable run history.
func NewChecker(cfg *Config, session browser.Session, store RunStore, logger logging.Logger) *Checker {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Checker{
		visitor:   visit.NewVisitor(session, cfg.Capture, cfg.Browser, logger),
		performer: action.NewPerformer(session, cfg.Browser.ElementTimeout(), logger),
		store:     store,
		events:    NewEvents(),
		logger:    logger.With(logging.String("component", "checker")),
		sem:       make(chan struct{}, 1),
	}
}

// Events returns the progress event hub.
func (c *Checker) Events() *Events {
	return c.events
}

// Run loads the CSV, visits every row in order, performs row actions and
// verifies all rows against the responses pooled from every visit. The
// returned run carries the annotated rows. On failure the partially filled
// run is returned together with the error.
func (c *Checker) Run(ctx context.Context, req RunRequest) (*model.Run, error) {
	select {
	case c.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "waiting for browser session")
	}
	defer func() { <-c.sem }()

	run := &model.Run{
		ID:        uuid.New().String(),
		FileName:  req.FileName,
		FilePath:  req.FilePath,
		Status:    model.RunRunning,
		StartedAt: time.Now().UTC(),
	}
	logger := c.logger.With(logging.String("run_id", run.ID))
	c.save(ctx, run, logger)

	rows, err := csvload.LoadRows(req.FilePath)
	if err != nil {
		return c.fail(ctx, run, err, logger)
	}
	run.Rows = rows
	run.RowCount = len(rows)

	logger.Info("run started", logging.String("file", req.FileName), logging.Int("rows", len(rows)))
	c.events.Publish(RunEvent{RunID: run.ID, Type: EventRunStarted, Total: len(rows), Detail: req.FileName})

	pooled := model.Captures{}
	for i, row := range rows {
		start := time.Now()
		captures, err := c.visitor.Visit(ctx, row)
		metrics.ObserveVisit(time.Since(start).Seconds())
		if err != nil {
			return c.fail(ctx, run, errors.Wrapf(err, "row %d", i+1), logger)
		}
		pooled.Merge(captures)
		metrics.RecordCaptured(len(captures))
		c.events.Publish(RunEvent{RunID: run.ID, Type: EventRowVisited, Row: i + 1, Total: len(rows), URL: row.URL(), Captured: len(captures)})

		if desc := row.Action(); desc != "" {
			out, err := c.performer.Perform(ctx, desc)
			if err != nil {
				metrics.RecordAction("failed")
				return c.fail(ctx, run, errors.Wrapf(err, "row %d action", i+1), logger)
			}
			if out.Skipped {
				metrics.RecordAction("skipped")
				c.events.Publish(RunEvent{RunID: run.ID, Type: EventActionSkipped, Row: i + 1, Detail: out.Reason.Error()})
			} else {
				metrics.RecordAction("performed")
				c.events.Publish(RunEvent{RunID: run.ID, Type: EventActionPerformed, Row: i + 1, Detail: out.Action.Selector})
			}
		}
	}

	sum := verify.Verify(rows, pooled)
	run.Passed, run.Failed = sum.Passed, sum.Failed
	run.Captured = len(pooled)
	run.Finish(model.RunDone, time.Now())
	c.save(ctx, run, logger)

	metrics.RecordRun(string(model.RunDone))
	metrics.RecordRows(sum.Passed, sum.Failed)
	c.events.Publish(RunEvent{RunID: run.ID, Type: EventRunFinished, Total: len(rows), Passed: sum.Passed, Failed: sum.Failed})
	logger.Info("run finished",
		logging.Int("passed", sum.Passed),
		logging.Int("failed", sum.Failed),
		logging.Int("captured", run.Captured))
	return run, nil
}

func (c *Checker) fail(ctx context.Context, run *model.Run, err error, logger logging.Logger) (*model.Run, error) {
	run.Error = err.Error()
	run.Finish(model.RunFailed, time.Now())
	// The request context may be gone already; history is still recorded.
	c.save(context.WithoutCancel(ctx), run, logger)

	metrics.RecordRun(string(model.RunFailed))
	c.events.Publish(RunEvent{RunID: run.ID, Type: EventRunFailed, Error: run.Error})
	logger.Error("run failed", logging.Err(err))
	return run, err
}

func (c *Checker) save(ctx context.Context, run *model.Run, logger logging.Logger) {
	if c.store == nil {
		return
	}
	if err := c.store.Save(ctx, run); err != nil {
		logger.Warn("saving run", logging.Err(err))
	}
}
