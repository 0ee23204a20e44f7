// Package visit loads one page in the browser session and collects the
// analytics responses it triggers.
package visit

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/raysh454/beaconcheck/internal/browser"
	"github.com/raysh454/beaconcheck/internal/logging"
	"github.com/raysh454/beaconcheck/internal/model"
	"github.com/raysh454/beaconcheck/internal/utils"
)

// Visitor navigates the shared session and polls its network log.
type Visitor struct {
	session         browser.Session
	cfg             Config
	navigateTimeout time.Duration
	readyTimeout    time.Duration
	logger          logging.Logger
}

// NewVisitor returns a Visitor using the browser timeouts from bcfg.
func NewVisitor(session browser.Session, cfg Config, bcfg browser.Config, logger logging.Logger) *Visitor {
	if cfg.PollIntervalMs <= 0 {
		cfg.PollIntervalMs = DefaultConfig().PollIntervalMs
	}
	if cfg.Markers == nil {
		cfg.Markers = append([]string(nil), DefaultMarkers...)
	}
	return &Visitor{
		session:         session,
		cfg:             cfg,
		navigateTimeout: bcfg.NavigateTimeout(),
		readyTimeout:    bcfg.PageLoadTimeout(),
		logger:          logger.With(logging.String("component", "visitor")),
	}
}

// Visit loads row's URL and returns the matching responses captured during
// the window, keyed by request id. Navigation failures are returned as is,
// there is no retry. If ctx ends during the window the responses captured so
// far are returned together with the context error.
func (v *Visitor) Visit(ctx context.Context, row *model.Row) (model.Captures, error) {
	target, err := utils.NormalizeTarget(row.URL())
	if err != nil {
		return nil, errors.Wrapf(err, "row url %q", row.URL())
	}

	// The log is not cleared first: responses triggered by the previous
	// row's action are collected in this window.
	navCtx, cancel := withOptionalTimeout(ctx, v.navigateTimeout)
	err = v.session.Navigate(navCtx, target)
	cancel()
	if err != nil {
		return nil, err
	}
	if err := v.session.WaitReady(ctx, v.readyTimeout); err != nil {
		return nil, err
	}

	captures, err := v.poll(ctx)
	v.logger.Info("page visited",
		logging.String("url", target),
		logging.Int("captured", len(captures)))
	return captures, err
}

func (v *Visitor) poll(ctx context.Context) (model.Captures, error) {
	captures := model.Captures{}
	deadline := time.Now().Add(v.cfg.Window())
	interval := v.cfg.PollInterval()

	for {
		v.collect(v.session.DrainLog(), captures)
		if v.cfg.StopAfter > 0 && len(captures) >= v.cfg.StopAfter {
			return captures, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return captures, nil
		}

		timer := time.NewTimer(min(interval, remaining))
		select {
		case <-ctx.Done():
			timer.Stop()
			return captures, errors.Wrap(ctx.Err(), "capture window interrupted")
		case <-timer.C:
		}
	}
}

func (v *Visitor) collect(entries []browser.LogEntry, into model.Captures) {
	for _, e := range entries {
		if e.Method != browser.MethodResponseReceived || e.Response == nil {
			continue
		}
		if !Matches(e.Response.URL, v.cfg.Markers) {
			continue
		}
		into[e.RequestID] = model.CapturedResponse{
			URL:       e.Response.URL,
			Status:    e.Response.Status,
			Headers:   e.Response.Headers,
			RequestID: e.RequestID,
			Params:    DecodeQuery(e.Response.URL),
		}
	}
}

func withOptionalTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
