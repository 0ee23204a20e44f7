// Package browser owns the controlled Chrome instance that pages are visited
// with and records the network events it emits.
package browser

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
)

// Network log methods recorded by sessions.
const (
	MethodRequestWillBeSent = "Network.requestWillBeSent"
	MethodResponseReceived  = "Network.responseReceived"
)

var (
	// ErrElementTimeout is returned when an element does not appear in time.
	ErrElementTimeout = errors.New("timed out waiting for element")
	// ErrSessionClosed is returned by operations on a closed session.
	ErrSessionClosed = errors.New("browser session closed")
)

// Session is a single long-lived browser tab. All operations act on shared
// state; callers must not drive one Session from several goroutines at once.
type Session interface {
	Navigate(ctx context.Context, url string) error

	// WaitReady blocks until the current document is ready or timeout elapses.
	WaitReady(ctx context.Context, timeout time.Duration) error

	// DrainLog returns every network entry recorded since the previous call
	// and clears the buffer.
	DrainLog() []LogEntry

	// FindElement waits up to timeout for a node matching the CSS selector.
	FindElement(ctx context.Context, selector string, timeout time.Duration) (*Element, error)

	Click(ctx context.Context, el *Element) error

	Close() error
}

// LogEntry is one recorded network event.
type LogEntry struct {
	Method    string
	RequestID string
	URL       string
	// Response is set for MethodResponseReceived entries only.
	Response  *ResponseInfo
	Timestamp time.Time
}

// ResponseInfo describes a received response.
type ResponseInfo struct {
	URL      string
	Status   int
	Headers  map[string]string
	MIMEType string
}

// Element is a handle to a node found by FindElement.
type Element struct {
	Selector string
	node     any
}

// NewElement wraps a backend specific node handle.
func NewElement(selector string, node any) *Element {
	return &Element{Selector: selector, node: node}
}

// Node returns the backend specific node handle.
func (e *Element) Node() any {
	return e.node
}
