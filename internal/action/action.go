// Package action parses and performs the optional UI interaction a CSV row
// asks for before its page's beacons are verified.
package action

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Kind enumerates the supported interactions.
type Kind int

const (
	KindNone Kind = iota
	KindClick
)

func (k Kind) String() string {
	switch k {
	case KindClick:
		return "click"
	default:
		return "none"
	}
}

var (
	// ErrNoAction means the descriptor was empty.
	ErrNoAction = errors.New("no action")
	// ErrMalformedAction means the descriptor is not "<verb>|<selector>".
	ErrMalformedAction = errors.New("malformed action descriptor")
	// ErrUnsupportedAction means the verb is not a known Kind.
	ErrUnsupportedAction = errors.New("unsupported action")
)

// Action is a parsed descriptor.
type Action struct {
	Kind     Kind
	Selector string
}

// Parse validates a "<verb>|<css-selector>" descriptor. The verb is matched
// case-insensitively after trimming; the selector is trimmed.
func Parse(descriptor string) (Action, error) {
	if strings.TrimSpace(descriptor) == "" {
		return Action{}, ErrNoAction
	}

	parts := strings.Split(descriptor, "|")
	if len(parts) != 2 {
		return Action{}, errors.Wrapf(ErrMalformedAction, "%q", descriptor)
	}

	verb := strings.ToLower(strings.TrimSpace(parts[0]))
	selector := strings.TrimSpace(parts[1])
	if selector == "" {
		return Action{}, errors.Wrapf(ErrMalformedAction, "%q: empty selector", descriptor)
	}

	switch verb {
	case "click":
		return Action{Kind: KindClick, Selector: selector}, nil
	default:
		return Action{}, errors.Wrapf(ErrUnsupportedAction, "%q", verb)
	}
}
