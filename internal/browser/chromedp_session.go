package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/cockroachdb/errors"

	"github.com/raysh454/beaconcheck/internal/logging"
)

// ChromeSession drives one Chrome tab through the DevTools protocol.
type ChromeSession struct {
	logger logging.Logger

	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc

	mu      sync.Mutex
	entries []LogEntry
	closed  bool
}

// NewChromeSession launches a local Chrome and opens the session tab.
func NewChromeSession(cfg Config, logger logging.Logger) (*ChromeSession, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("ignore-certificate-errors", !cfg.VerifyCerts),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if cfg.ShowWindow {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	return startSession(allocCtx, allocCancel, logger.With(logging.String("backend", BackendChromedp)))
}

// NewRemoteChromeSession attaches to an already running Chrome.
func NewRemoteChromeSession(cfg Config, logger logging.Logger) (*ChromeSession, error) {
	if cfg.RemoteURL == "" {
		return nil, errors.New("remote backend requires browser.remote_url")
	}
	allocCtx, allocCancel := chromedp.NewRemoteAllocator(context.Background(), cfg.RemoteURL)
	return startSession(allocCtx, allocCancel, logger.With(logging.String("backend", BackendRemote)))
}

func startSession(allocCtx context.Context, allocCancel context.CancelFunc, logger logging.Logger) (*ChromeSession, error) {
	tabCtx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithErrorf(func(format string, args ...any) {
			logger.Debug("chromedp", logging.String("detail", fmt.Sprintf(format, args...)))
		}),
	)

	s := &ChromeSession{
		logger:      logger,
		allocCancel: allocCancel,
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
	}
	chromedp.ListenTarget(tabCtx, s.onEvent)

	// The first Run starts the browser.
	if err := chromedp.Run(tabCtx, network.Enable()); err != nil {
		tabCancel()
		allocCancel()
		return nil, errors.Wrap(err, "start browser")
	}

	logger.Info("browser session started")
	return s, nil
}

func (s *ChromeSession) onEvent(ev any) {
	var entry LogEntry
	switch e := ev.(type) {
	case *network.EventRequestWillBeSent:
		entry = LogEntry{Method: MethodRequestWillBeSent, RequestID: string(e.RequestID)}
		if e.Request != nil {
			entry.URL = e.Request.URL
		}
	case *network.EventResponseReceived:
		if e.Response == nil {
			return
		}
		entry = LogEntry{
			Method:    MethodResponseReceived,
			RequestID: string(e.RequestID),
			URL:       e.Response.URL,
			Response: &ResponseInfo{
				URL:      e.Response.URL,
				Status:   int(e.Response.Status),
				Headers:  headersToStrings(e.Response.Headers),
				MIMEType: e.Response.MimeType,
			},
		}
	default:
		return
	}
	entry.Timestamp = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.entries = append(s.entries, entry)
}

func headersToStrings(h network.Headers) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		if str, ok := v.(string); ok {
			out[k] = str
			continue
		}
		out[k] = fmt.Sprint(v)
	}
	return out
}

// run executes actions on the tab, bounded by timeout (if > 0) and by ctx.
func (s *ChromeSession) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrSessionClosed
	}

	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(s.tabCtx, timeout)
	} else {
		runCtx, cancel = context.WithCancel(s.tabCtx)
	}
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return errors.WithStack(ctx.Err())
	}
	return err
}

func (s *ChromeSession) Navigate(ctx context.Context, url string) error {
	if err := s.run(ctx, 0, chromedp.Navigate(url)); err != nil {
		return errors.Wrapf(err, "navigate to %s", url)
	}
	return nil
}

func (s *ChromeSession) WaitReady(ctx context.Context, timeout time.Duration) error {
	if err := s.run(ctx, timeout, chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		return errors.Wrap(err, "wait for page ready")
	}
	return nil
}

func (s *ChromeSession) DrainLog() []LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.entries
	s.entries = nil
	return out
}

func (s *ChromeSession) FindElement(ctx context.Context, selector string, timeout time.Duration) (*Element, error) {
	var nodes []*cdp.Node
	err := s.run(ctx, timeout, chromedp.Nodes(selector, &nodes, chromedp.ByQuery))
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return nil, errors.Wrapf(ErrElementTimeout, "selector %q after %s", selector, timeout)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "find element %q", selector)
	}
	if len(nodes) == 0 {
		return nil, errors.Wrapf(ErrElementTimeout, "selector %q", selector)
	}
	return NewElement(selector, nodes[0]), nil
}

func (s *ChromeSession) Click(ctx context.Context, el *Element) error {
	if el == nil {
		return errors.New("click: nil element")
	}
	node, ok := el.Node().(*cdp.Node)
	if !ok || node == nil {
		return errors.Newf("click: element %q has no DOM node", el.Selector)
	}
	if err := s.run(ctx, 0, chromedp.MouseClickNode(node)); err != nil {
		return errors.Wrapf(err, "click %q", el.Selector)
	}
	return nil
}

// Close shuts the browser down. It is safe to call more than once.
func (s *ChromeSession) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.entries = nil
	s.mu.Unlock()

	err := chromedp.Cancel(s.tabCtx)
	s.tabCancel()
	s.allocCancel()
	s.logger.Info("browser session closed")
	if err != nil && !errors.Is(err, context.Canceled) {
		return errors.Wrap(err, "close browser")
	}
	return nil
}
