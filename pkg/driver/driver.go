// Package driver defines the capability interface the automation engine
// drives a browser through, plus the error taxonomy the engine's retry
// logic relies on. The rod backend lives in rod.go; tests use scripted
// fakes.
package driver

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrLocatorNotFound means no element matched the locator.
	ErrLocatorNotFound = errors.New("locator not found")
	// ErrTimeout means an operation exceeded its bounded wait.
	ErrTimeout = errors.New("operation timed out")
	// ErrInteractionFailed means the element was found but the interaction
	// with it failed.
	ErrInteractionFailed = errors.New("interaction failed")
	// ErrNavigationFailed means the target page could not be opened.
	ErrNavigationFailed = errors.New("navigation failed")
)

// Locator identifies one control on the page. Index disambiguates selectors
// that match more than one element (the target form has a duplicate id).
type Locator struct {
	Selector string `json:"selector"`
	Index    int    `json:"index,omitempty"`
}

func (l Locator) String() string {
	if l.Index > 0 {
		return fmt.Sprintf("%s [%d]", l.Selector, l.Index)
	}
	return l.Selector
}

// Handle is an opaque reference to a located element, valid until the
// driver is closed.
type Handle interface{}

// Driver is the capability surface over a browser automation backend.
// Every method returns an error wrapping one of the sentinel conditions
// above so callers can apply uniform retry logic regardless of backend.
type Driver interface {
	// Navigate opens the target page and waits for it to load.
	Navigate(ctx context.Context, url string) error
	// Locate resolves a locator to an element handle with a bounded wait.
	Locate(ctx context.Context, loc Locator) (Handle, error)
	// SetText clears the element and types the given value.
	SetText(ctx context.Context, h Handle, value string) error
	// SetSelect chooses the option with the given value attribute.
	SetSelect(ctx context.Context, h Handle, value string) error
	// SetCheckbox drives the element's checked state to the given value.
	SetCheckbox(ctx context.Context, h Handle, checked bool) error
	// Click clicks the element.
	Click(ctx context.Context, h Handle) error
	// Screenshot captures the full page as PNG bytes.
	Screenshot(ctx context.Context) ([]byte, error)
	// Close releases the page and browser. Safe to call more than once.
	Close() error
}

// Factory opens a fresh driver session for one run. The engine calls it at
// the start of every run and always closes the result.
type Factory func(ctx context.Context) (Driver, error)

// Retryable reports whether err is a condition worth retrying: the element
// was absent or slow, rather than the interaction itself being rejected.
func Retryable(err error) bool {
	return errors.Is(err, ErrLocatorNotFound) || errors.Is(err, ErrTimeout)
}
