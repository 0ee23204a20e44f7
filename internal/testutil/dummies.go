// Package testutil provides shared test doubles for use across package tests.
// All dummies implement the corresponding interfaces from the production code,
// allowing injection into components under test without a real browser.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/raysh454/beaconcheck/internal/browser"
	"github.com/raysh454/beaconcheck/internal/logging"
)

// ─── Logger ────────────────────────────────────────────────────────────

// DummyLogger implements logging.Logger with in-memory recording.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
}

func (l *DummyLogger) Debug(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *DummyLogger) Info(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *DummyLogger) Warn(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

func (l *DummyLogger) Error(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// WarnCount returns the number of recorded warnings.
func (l *DummyLogger) WarnCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.Warns)
}

// ─── Browser session ───────────────────────────────────────────────────

// FakeSession implements browser.Session without a browser.
//
// Navigating to a URL queues PageEntries[url] into the network log; clicking
// an element queues ClickEntries[selector]. Selectors listed in Missing time
// out, URLs listed in NavigateErrs fail to load.
type FakeSession struct {
	mu sync.Mutex

	PageEntries  map[string][]browser.LogEntry
	ClickEntries map[string][]browser.LogEntry
	NavigateErrs map[string]error
	Missing      map[string]bool

	// NavigateDelay blocks Navigate, honouring ctx.
	NavigateDelay time.Duration

	Navigated []string
	Clicked   []string
	Drains    int
	Closed    bool

	buffer []browser.LogEntry
}

// NewFakeSession returns a FakeSession with initialised maps.
func NewFakeSession() *FakeSession {
	return &FakeSession{
		PageEntries:  map[string][]browser.LogEntry{},
		ClickEntries: map[string][]browser.LogEntry{},
		NavigateErrs: map[string]error{},
		Missing:      map[string]bool{},
	}
}

// Push appends entries to the network log as if the page emitted them.
func (f *FakeSession) Push(entries ...browser.LogEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buffer = append(f.buffer, entries...)
}

func (f *FakeSession) Navigate(ctx context.Context, url string) error {
	if f.NavigateDelay > 0 {
		select {
		case <-time.After(f.NavigateDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Closed {
		return browser.ErrSessionClosed
	}
	f.Navigated = append(f.Navigated, url)
	if err := f.NavigateErrs[url]; err != nil {
		return err
	}
	f.buffer = append(f.buffer, f.PageEntries[url]...)
	return nil
}

func (f *FakeSession) WaitReady(ctx context.Context, timeout time.Duration) error {
	return ctx.Err()
}

func (f *FakeSession) DrainLog() []browser.LogEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Drains++
	out := f.buffer
	f.buffer = nil
	return out
}

func (f *FakeSession) FindElement(ctx context.Context, selector string, timeout time.Duration) (*browser.Element, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Missing[selector] {
		return nil, errors.Wrapf(browser.ErrElementTimeout, "selector %q", selector)
	}
	return browser.NewElement(selector, nil), nil
}

func (f *FakeSession) Click(ctx context.Context, el *browser.Element) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Clicked = append(f.Clicked, el.Selector)
	f.buffer = append(f.buffer, f.ClickEntries[el.Selector]...)
	return nil
}

func (f *FakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// ClickedSelectors returns a copy of the clicked selectors.
func (f *FakeSession) ClickedSelectors() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.Clicked...)
}

// ─── Log entries ───────────────────────────────────────────────────────

// Response builds a Network.responseReceived entry.
func Response(requestID, url string, status int) browser.LogEntry {
	return browser.LogEntry{
		Method:    browser.MethodResponseReceived,
		RequestID: requestID,
		URL:       url,
		Response: &browser.ResponseInfo{
			URL:     url,
			Status:  status,
			Headers: map[string]string{"content-type": "image/gif"},
		},
		Timestamp: time.Now().UTC(),
	}
}

// Request builds a Network.requestWillBeSent entry.
func Request(requestID, url string) browser.LogEntry {
	return browser.LogEntry{
		Method:    browser.MethodRequestWillBeSent,
		RequestID: requestID,
		URL:       url,
		Timestamp: time.Now().UTC(),
	}
}
