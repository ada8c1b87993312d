package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/CrisisTextLine/stepkit"
)

// ChromeSession drives a headless Chrome over the DevTools protocol.
// JavaScript dialogs are accepted automatically.
type ChromeSession struct {
	cfg    stepkit.BrowserConfig
	logger stepkit.Logger

	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	// frame is the name of the focused frame, "" for the top document.
	frame string
}

// NewChromeSession creates an unstarted Chrome session.
func NewChromeSession(cfg stepkit.BrowserConfig, logger stepkit.Logger) *ChromeSession {
	return &ChromeSession{cfg: cfg, logger: stepkit.OrNop(logger)}
}

func (c *ChromeSession) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", c.cfg.Headless),
		chromedp.Flag("disable-gpu", c.cfg.DisableGPU),
		chromedp.Flag("no-sandbox", c.cfg.NoSandbox),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if c.cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(c.cfg.UserAgent))
	}
	if c.cfg.WindowWidth > 0 && c.cfg.WindowHeight > 0 {
		opts = append(opts, chromedp.WindowSize(c.cfg.WindowWidth, c.cfg.WindowHeight))
	}
	if c.cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(c.cfg.ExecPath))
	}
	return opts
}

// Start launches Chrome. The browser outlives ctx and runs until Stop.
func (c *ChromeSession) Start(ctx context.Context) error {
	if c.browserCtx != nil {
		return nil
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), c.allocatorOptions()...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...any) {
		c.logger.Debug(fmt.Sprintf(format, args...))
	}))

	chromedp.ListenTarget(browserCtx, func(ev any) {
		if _, ok := ev.(*page.EventJavascriptDialogOpening); ok {
			go func() {
				if err := chromedp.Run(browserCtx, page.HandleJavaScriptDialog(true)); err != nil {
					c.logger.Warn("Failed to accept javascript dialog", "error", err)
				}
			}()
		}
	})

	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return fmt.Errorf("start chrome: %w", err)
	}

	c.allocCancel, c.browserCtx, c.browserCancel = allocCancel, browserCtx, browserCancel
	c.frame = ""
	c.logger.Info("Chrome session started", "headless", c.cfg.Headless)
	return nil
}

func (c *ChromeSession) IsStarted() bool {
	return c.browserCtx != nil
}

func (c *ChromeSession) Stop(ctx context.Context) error {
	if c.browserCtx == nil {
		return nil
	}
	err := chromedp.Cancel(c.browserCtx)
	c.browserCancel()
	c.allocCancel()
	c.browserCtx, c.browserCancel, c.allocCancel = nil, nil, nil
	c.frame = ""
	if err != nil {
		return fmt.Errorf("stop chrome: %w", err)
	}
	return nil
}

func (c *ChromeSession) Reset(ctx context.Context) error {
	if c.browserCtx == nil {
		return nil
	}
	c.frame = ""
	return c.run(ctx,
		network.ClearBrowserCookies(),
		chromedp.Navigate("about:blank"),
	)
}

// run executes actions on the browser, bounded by the configured timeout
// and cancelled together with ctx.
func (c *ChromeSession) run(ctx context.Context, actions ...chromedp.Action) error {
	if c.browserCtx == nil {
		return ErrNotStarted
	}
	runCtx := c.browserCtx
	var cancel context.CancelFunc
	if c.cfg.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(runCtx, c.cfg.Timeout)
	} else {
		runCtx, cancel = context.WithCancel(runCtx)
	}
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func (c *ChromeSession) Visit(ctx context.Context, url string) error {
	if err := c.Start(ctx); err != nil {
		return err
	}
	c.frame = ""
	return c.run(ctx, chromedp.Navigate(url))
}

func (c *ChromeSession) CurrentURL(ctx context.Context) (string, error) {
	var location string
	if err := c.run(ctx, chromedp.Location(&location)); err != nil {
		return "", err
	}
	return location, nil
}

func (c *ChromeSession) Page(ctx context.Context) (*Page, error) {
	var snapshot struct {
		URL  string `json:"url"`
		HTML string `json:"html"`
	}
	err := c.evaluate(ctx, `return {url: document.location.href, html: document.documentElement.outerHTML};`, &snapshot)
	if err != nil {
		return nil, fmt.Errorf("snapshot page: %w", err)
	}
	return ParsePage(snapshot.URL, strings.NewReader(snapshot.HTML))
}

func (c *ChromeSession) Execute(ctx context.Context, script string) error {
	return c.run(ctx, chromedp.Evaluate(c.scoped(script, false), nil))
}

func (c *ChromeSession) Evaluate(ctx context.Context, script string, out any) error {
	return c.evaluate(ctx, script, out)
}

func (c *ChromeSession) evaluate(ctx context.Context, script string, out any) error {
	return c.run(ctx, chromedp.Evaluate(c.scoped(script, true), out))
}

// scoped builds an expression running script as a function in the focused
// document. A frame's own Function constructor gives the script the frame's
// window and document as globals.
func (c *ChromeSession) scoped(script string, result bool) string {
	if c.frame == "" {
		return WrapScript(script, result)
	}
	return fmt.Sprintf("%s.Function(%s)()", frameWindow(c.frame), jsString(FunctionBody(script, result)))
}

func (c *ChromeSession) SupportsJavascript() bool {
	return true
}

func (c *ChromeSession) Resize(ctx context.Context, width, height int) error {
	return c.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		windowID, _, err := cdpbrowser.GetWindowForTarget().Do(ctx)
		if err != nil {
			return err
		}
		return cdpbrowser.SetWindowBounds(windowID, &cdpbrowser.Bounds{
			Width:       int64(width),
			Height:      int64(height),
			WindowState: cdpbrowser.WindowStateNormal,
		}).Do(ctx)
	}))
}

func (c *ChromeSession) SwitchToFrame(ctx context.Context, name string) error {
	var found bool
	expr := WrapScript("return !!("+frameWindow(name)+");", true)
	if err := c.run(ctx, chromedp.Evaluate(expr, &found)); err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrFrameNotFound, name)
	}
	c.frame = name
	return nil
}

func (c *ChromeSession) SwitchToDefault(ctx context.Context) error {
	c.frame = ""
	return nil
}

func (c *ChromeSession) SetAttribute(ctx context.Context, el *Element, name, value string) error {
	return c.onElement(ctx, el, fmt.Sprintf("el.setAttribute(%s, %s); return true;", jsString(name), jsString(value)), nil)
}

func (c *ChromeSession) Click(ctx context.Context, el *Element) error {
	err := c.onElement(ctx, el, `el.scrollIntoView({block: "center"}); el.click(); return true;`, nil)
	if err != nil {
		return err
	}
	return c.run(ctx, chromedp.WaitReady("body", chromedp.ByQuery))
}

func (c *ChromeSession) SetValue(ctx context.Context, el *Element, value string) error {
	return c.onElement(ctx, el, fmt.Sprintf(setValueScript, jsString(value)), nil)
}

func (c *ChromeSession) IsVisible(ctx context.Context, el *Element) (bool, error) {
	var visible bool
	err := c.onElement(ctx, el, `var s = window.getComputedStyle(el);
return !!(el.offsetWidth || el.offsetHeight || el.getClientRects().length) && s.visibility !== "hidden" && s.display !== "none";`, &visible)
	return visible, err
}

// onElement runs body with el bound to the live node at the element's XPath.
func (c *ChromeSession) onElement(ctx context.Context, el *Element, body string, out any) error {
	xpath := el.XPath()
	script := fmt.Sprintf(`var el = document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
if (!el) { return "__missing__"; }
%s`, jsString(xpath), body)

	var raw []byte
	if err := c.run(ctx, chromedp.Evaluate(c.scoped(script, false), &raw)); err != nil {
		return err
	}
	if string(raw) == `"__missing__"` {
		return fmt.Errorf("%w: %s", ErrElementNotFound, xpath)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

const setValueScript = `var v = %s;
var tag = el.tagName.toLowerCase(), type = (el.getAttribute("type") || "").toLowerCase();
if (type === "checkbox") {
  el.checked = !(v === "" || v === "0" || v === "false");
} else if (type === "radio") {
  var group = (el.form || document).querySelectorAll('input[type="radio"]');
  for (var i = 0; i < group.length; i++) {
    if (group[i].name === el.name && group[i].value === v) { group[i].checked = true; }
  }
} else if (tag === "select") {
  for (var j = 0; j < el.options.length; j++) {
    var o = el.options[j];
    if (o.value === v || o.text.trim() === v) { o.selected = true; }
  }
} else {
  el.value = v;
}
el.dispatchEvent(new Event("input", {bubbles: true}));
el.dispatchEvent(new Event("change", {bubbles: true}));
return true;`

// frameWindow is a JavaScript expression for the window of the frame named
// or identified by name, null when there is none.
func frameWindow(name string) string {
	return fmt.Sprintf(`(function(n){var f = document.querySelector('iframe[name="' + n + '"], frame[name="' + n + '"], iframe[id="' + n + '"]'); return f ? f.contentWindow : (window.frames[n] || null);})(%s)`, jsString(name))
}

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

var _ Session = (*ChromeSession)(nil)
