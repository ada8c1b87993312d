// Package browser provides the browser session shared by every step group:
// a driver-independent Session, DOM snapshots to assert against, and two
// drivers, a plain HTTP one and a headless Chrome one.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/CrisisTextLine/stepkit"
)

// Driver names accepted by New.
const (
	DriverStatic = "static"
	DriverChrome = "chrome"
)

var (
	// ErrUnsupported is returned for operations the driver cannot perform,
	// such as running JavaScript without a real browser.
	ErrUnsupported = stepkit.ErrUnsupported

	ErrNotStarted      = errors.New("browser session not started")
	ErrUnknownDriver   = errors.New("unknown browser driver")
	ErrFrameNotFound   = errors.New("frame not found")
	ErrElementNotFound = errors.New("element not found in the live document")
)

// Session is the single browser handle shared by all step groups of a
// scenario. Elements passed to it must come from its own Page snapshots.
type Session interface {
	// Start launches the driver. Visit starts it implicitly.
	Start(ctx context.Context) error
	IsStarted() bool
	Stop(ctx context.Context) error
	// Reset clears cookies, the current page and frame focus.
	Reset(ctx context.Context) error

	Visit(ctx context.Context, url string) error
	CurrentURL(ctx context.Context) (string, error)
	// Page takes a fresh snapshot of the focused document.
	Page(ctx context.Context) (*Page, error)

	Execute(ctx context.Context, script string) error
	// Evaluate runs script and decodes its JSON result into out.
	Evaluate(ctx context.Context, script string, out any) error
	SupportsJavascript() bool
	Resize(ctx context.Context, width, height int) error

	// SwitchToFrame focuses the frame whose name or id is name.
	SwitchToFrame(ctx context.Context, name string) error
	SwitchToDefault(ctx context.Context) error

	SetAttribute(ctx context.Context, el *Element, name, value string) error
	Click(ctx context.Context, el *Element) error
	SetValue(ctx context.Context, el *Element, value string) error
	IsVisible(ctx context.Context, el *Element) (bool, error)
}

// New creates the session selected by cfg.Driver. No browser is launched
// until the session is started.
func New(cfg stepkit.BrowserConfig, logger stepkit.Logger) (Session, error) {
	switch cfg.Driver {
	case "", DriverStatic:
		return NewStaticSession(cfg, logger), nil
	case DriverChrome:
		return NewChromeSession(cfg, logger), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, cfg.Driver)
	}
}

// FunctionBody turns script into the body of a function. When result is
// true a bare expression gains a leading return, so both "document.title"
// and "return document.title" evaluate to the title.
func FunctionBody(script string, result bool) string {
	body := strings.TrimSpace(script)
	if result && !strings.HasPrefix(body, "return ") && !strings.HasPrefix(body, "return(") {
		body = "return " + body
	}
	return body
}

// WrapScript wraps script in an immediately invoked function expression.
func WrapScript(script string, result bool) string {
	return "(function(){\n" + FunctionBody(script, result) + "\n})()"
}
