package action

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/raysh454/beaconcheck/internal/browser"
	"github.com/raysh454/beaconcheck/internal/logging"
)

// Outcome reports what Perform did.
type Outcome struct {
	Action Action
	// Skipped is set when the descriptor was absent or invalid. Reason holds
	// the parse error in that case.
	Skipped bool
	Reason  error
}

// Performer executes actions against the browser session.
type Performer struct {
	session        browser.Session
	elementTimeout time.Duration
	logger         logging.Logger
}

func NewPerformer(session browser.Session, elementTimeout time.Duration, logger logging.Logger) *Performer {
	return &Performer{
		session:        session,
		elementTimeout: elementTimeout,
		logger:         logger.With(logging.String("component", "action")),
	}
}

// Perform parses descriptor and runs it. An absent or invalid descriptor is
// not an error: the outcome is marked skipped and invalid ones are logged.
// A click whose element never appears fails with browser.ErrElementTimeout.
func (p *Performer) Perform(ctx context.Context, descriptor string) (Outcome, error) {
	act, err := Parse(descriptor)
	if err != nil {
		if !errors.Is(err, ErrNoAction) {
			p.logger.Warn("ignoring action", logging.String("descriptor", descriptor), logging.Err(err))
		}
		return Outcome{Skipped: true, Reason: err}, nil
	}

	switch act.Kind {
	case KindClick:
		el, err := p.session.FindElement(ctx, act.Selector, p.elementTimeout)
		if err != nil {
			return Outcome{Action: act}, err
		}
		if err := p.session.Click(ctx, el); err != nil {
			return Outcome{Action: act}, err
		}
	}

	p.logger.Info("action performed", logging.String("kind", act.Kind.String()), logging.String("selector", act.Selector))
	return Outcome{Action: act}, nil
}
