package browser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/CrisisTextLine/stepkit"
)

// StaticSession drives a site over plain HTTP. It keeps cookies, follows
// links, submits forms and loads frames, but cannot run JavaScript or report
// visibility.
type StaticSession struct {
	cfg    stepkit.BrowserConfig
	logger stepkit.Logger
	client *http.Client

	started bool
	main    *Page
	frame   *Page
}

// NewStaticSession creates an unstarted HTTP session.
func NewStaticSession(cfg stepkit.BrowserConfig, logger stepkit.Logger) *StaticSession {
	return &StaticSession{cfg: cfg, logger: stepkit.OrNop(logger)}
}

func (s *StaticSession) Start(ctx context.Context) error {
	if s.started {
		return nil
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return fmt.Errorf("create cookie jar: %w", err)
	}
	s.client = &http.Client{Jar: jar, Timeout: s.cfg.Timeout}
	s.started = true
	s.logger.Debug("Static browser session started")
	return nil
}

func (s *StaticSession) IsStarted() bool {
	return s.started
}

func (s *StaticSession) Stop(ctx context.Context) error {
	s.started = false
	s.client = nil
	s.main, s.frame = nil, nil
	return nil
}

func (s *StaticSession) Reset(ctx context.Context) error {
	if !s.started {
		return nil
	}
	if err := s.Stop(ctx); err != nil {
		return err
	}
	return s.Start(ctx)
}

func (s *StaticSession) Visit(ctx context.Context, target string) error {
	page, err := s.request(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	s.main, s.frame = page, nil
	return nil
}

// LoadHTML replaces the current page with markup as if it had been served
// from pageURL.
func (s *StaticSession) LoadHTML(ctx context.Context, pageURL, markup string) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	page, err := ParsePage(pageURL, strings.NewReader(markup))
	if err != nil {
		return err
	}
	s.main, s.frame = page, nil
	return nil
}

func (s *StaticSession) CurrentURL(ctx context.Context) (string, error) {
	if s.main == nil {
		return "", ErrNotStarted
	}
	return s.main.URL(), nil
}

func (s *StaticSession) Page(ctx context.Context) (*Page, error) {
	if s.frame != nil {
		return s.frame, nil
	}
	if s.main == nil {
		return nil, ErrNotStarted
	}
	return s.main, nil
}

func (s *StaticSession) Execute(ctx context.Context, script string) error {
	return fmt.Errorf("%w: javascript execution", ErrUnsupported)
}

func (s *StaticSession) Evaluate(ctx context.Context, script string, out any) error {
	return fmt.Errorf("%w: javascript evaluation", ErrUnsupported)
}

func (s *StaticSession) SupportsJavascript() bool {
	return false
}

func (s *StaticSession) Resize(ctx context.Context, width, height int) error {
	return fmt.Errorf("%w: window resizing", ErrUnsupported)
}

func (s *StaticSession) IsVisible(ctx context.Context, el *Element) (bool, error) {
	return false, fmt.Errorf("%w: visibility checks", ErrUnsupported)
}

func (s *StaticSession) SwitchToFrame(ctx context.Context, name string) error {
	if s.main == nil {
		return ErrNotStarted
	}
	var frame *Element
	for _, candidate := range s.main.Find("iframe, frame") {
		n, _ := candidate.Attr("name")
		id, _ := candidate.Attr("id")
		if n == name || id == name {
			frame = candidate
			break
		}
	}
	if frame == nil {
		return fmt.Errorf("%w: %s", ErrFrameNotFound, name)
	}
	src, _ := frame.Attr("src")
	page, err := s.request(ctx, http.MethodGet, s.resolve(s.main, src), nil)
	if err != nil {
		return fmt.Errorf("load frame %s: %w", name, err)
	}
	s.frame = page
	return nil
}

func (s *StaticSession) SwitchToDefault(ctx context.Context) error {
	s.frame = nil
	return nil
}

func (s *StaticSession) SetAttribute(ctx context.Context, el *Element, name, value string) error {
	setAttr(el.Node(), name, value)
	return nil
}

// Click follows links, submits forms through their buttons and toggles
// checkboxes and radios. Anything else is unsupported without JavaScript.
func (s *StaticSession) Click(ctx context.Context, el *Element) error {
	typ, _ := el.Attr("type")
	typ = strings.ToLower(typ)
	switch {
	case el.TagName() == "a":
		href, ok := el.Attr("href")
		if !ok {
			return fmt.Errorf("%w: clicking a link without href", ErrUnsupported)
		}
		return s.navigateFocused(ctx, http.MethodGet, s.resolve(el.Page(), href), nil)
	case el.TagName() == "button" && typ != "button" && typ != "reset",
		el.TagName() == "input" && (typ == "submit" || typ == "image"):
		return s.submit(ctx, el)
	case el.TagName() == "input" && typ == "checkbox":
		if el.HasAttr("checked") {
			return s.SetValue(ctx, el, "")
		}
		return s.SetValue(ctx, el, "1")
	case el.TagName() == "input" && typ == "radio":
		v, _ := el.Attr("value")
		return s.SetValue(ctx, el, v)
	default:
		return fmt.Errorf("%w: clicking <%s> elements", ErrUnsupported, el.TagName())
	}
}

// SetValue updates the snapshot so a later form submission carries value.
// Checkboxes are checked by any value except "", "0" and "false".
func (s *StaticSession) SetValue(ctx context.Context, el *Element, value string) error {
	n := el.Node()
	typ, _ := el.Attr("type")
	switch {
	case el.TagName() == "textarea":
		setText(n, value)
	case el.TagName() == "select":
		matched := false
		for _, opt := range el.Find("option") {
			if !matched && (optionValue(opt.sel) == value || opt.Text() == value) {
				setAttr(opt.Node(), "selected", "selected")
				matched = true
				continue
			}
			removeAttr(opt.Node(), "selected")
		}
		if !matched {
			return stepkit.Errorf(stepkit.ErrNotFound, "Option '%s' not found in select", value)
		}
	case strings.EqualFold(typ, "checkbox"):
		if value == "" || value == "0" || value == "false" {
			removeAttr(n, "checked")
		} else {
			setAttr(n, "checked", "checked")
		}
	case strings.EqualFold(typ, "radio"):
		name, _ := el.Attr("name")
		scope := el.Page().Root()
		if form, ok := el.Closest("form"); ok {
			scope = form
		}
		chosen := n
		for _, radio := range scope.Find("input[type=radio]") {
			if other, _ := radio.Attr("name"); other != name {
				continue
			}
			removeAttr(radio.Node(), "checked")
			if v, _ := radio.Attr("value"); v == value {
				chosen = radio.Node()
			}
		}
		setAttr(chosen, "checked", "checked")
	default:
		setAttr(n, "value", value)
	}
	return nil
}

func (s *StaticSession) submit(ctx context.Context, button *Element) error {
	form, ok := button.Closest("form")
	if !ok {
		return fmt.Errorf("%w: button outside of a form", ErrUnsupported)
	}

	values := formValues(form, button)
	action, _ := form.Attr("action")
	target := s.resolve(button.Page(), action)
	method, _ := form.Attr("method")

	if strings.EqualFold(method, http.MethodPost) {
		return s.navigateFocused(ctx, http.MethodPost, target, values)
	}
	u, err := url.Parse(target)
	if err != nil {
		return fmt.Errorf("parse form action %s: %w", target, err)
	}
	u.RawQuery = values.Encode()
	return s.navigateFocused(ctx, http.MethodGet, u.String(), nil)
}

// formValues collects the successful controls of form, including the
// clicked submit button.
func formValues(form, submitter *Element) url.Values {
	values := url.Values{}
	if name, ok := submitter.Attr("name"); ok && name != "" {
		v, _ := submitter.Attr("value")
		values.Add(name, v)
	}
	for _, field := range form.Find("input, textarea, select") {
		name, ok := field.Attr("name")
		if !ok || name == "" || field.HasAttr("disabled") {
			continue
		}
		typ, _ := field.Attr("type")
		switch strings.ToLower(typ) {
		case "submit", "button", "reset", "image", "file":
			continue
		case "checkbox", "radio":
			if !field.HasAttr("checked") {
				continue
			}
			v, ok := field.Attr("value")
			if !ok {
				v = "on"
			}
			values.Add(name, v)
			continue
		}
		values.Add(name, field.Value())
	}
	return values
}

// navigateFocused loads target into the focused document.
func (s *StaticSession) navigateFocused(ctx context.Context, method, target string, form url.Values) error {
	page, err := s.request(ctx, method, target, form)
	if err != nil {
		return err
	}
	if s.frame != nil {
		s.frame = page
		return nil
	}
	s.main = page
	return nil
}

func (s *StaticSession) request(ctx context.Context, method, target string, form url.Values) (*Page, error) {
	if err := s.Start(ctx); err != nil {
		return nil, err
	}
	if s.main != nil {
		target = s.resolve(s.main, target)
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request for %s: %w", target, err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if s.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", s.cfg.UserAgent)
	}

	s.logger.Debug("Static browser request", "method", method, "url", target)
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request for %s failed: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		s.logger.Warn("Request resulted in error status code", "status", resp.StatusCode, "url", resp.Request.URL.String())
	}
	return ParsePage(resp.Request.URL.String(), resp.Body)
}

// resolve makes ref absolute against the page it appears on.
func (s *StaticSession) resolve(page *Page, ref string) string {
	base, err := url.Parse(page.URL())
	if err != nil {
		return ref
	}
	if b, ok := page.First("base[href]"); ok {
		href, _ := b.Attr("href")
		if u, err := base.Parse(href); err == nil {
			base = u
		}
	}
	u, err := base.Parse(ref)
	if err != nil {
		return ref
	}
	return u.String()
}

var _ Session = (*StaticSession)(nil)
