package browser

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Page is a snapshot of the focused document. Queries never touch the
// driver; actions on its elements go through the Session.
type Page struct {
	url string
	doc *goquery.Document
}

// ParsePage parses markup served from url into a Page.
func ParsePage(url string, r io.Reader) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse page %s: %w", url, err)
	}
	return &Page{url: url, doc: doc}, nil
}

// URL returns the address the snapshot was taken from.
func (p *Page) URL() string {
	return p.url
}

// HTML renders the full document.
func (p *Page) HTML() string {
	return render(p.doc.Selection)
}

// Root returns the <html> element.
func (p *Page) Root() *Element {
	el, ok := p.First("html")
	if !ok {
		return &Element{page: p, sel: p.doc.Selection}
	}
	return el
}

// Find returns every element matching the CSS selector, in document order.
func (p *Page) Find(css string) []*Element {
	return p.wrap(p.doc.Find(css))
}

// First returns the first element matching the CSS selector.
func (p *Page) First(css string) (*Element, bool) {
	return first(p.Find(css))
}

// FindLinks returns the links matching locator, exact matches first.
func (p *Page) FindLinks(locator string) []*Element {
	return p.Root().FindLinks(locator)
}

// FindButtons returns the buttons matching locator, exact matches first.
func (p *Page) FindButtons(locator string) []*Element {
	return p.Root().FindButtons(locator)
}

// FindField returns the best form field matching locator.
func (p *Page) FindField(locator string) (*Element, bool) {
	return p.Root().FindField(locator)
}

// FindFields returns the form fields matching locator, exact matches first.
func (p *Page) FindFields(locator string) []*Element {
	return p.Root().FindFields(locator)
}

func (p *Page) wrap(sel *goquery.Selection) []*Element {
	out := make([]*Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, &Element{page: p, sel: s})
	})
	return out
}

// Element is a single node of a Page snapshot.
type Element struct {
	page *Page
	sel  *goquery.Selection
}

// Page returns the snapshot the element belongs to.
func (e *Element) Page() *Page {
	return e.page
}

// Node returns the underlying DOM node.
func (e *Element) Node() *html.Node {
	return e.sel.Get(0)
}

// TagName returns the lower-case tag name.
func (e *Element) TagName() string {
	return goquery.NodeName(e.sel)
}

// Text returns the text content with runs of whitespace collapsed.
func (e *Element) Text() string {
	return strings.Join(strings.Fields(e.sel.Text()), " ")
}

// HTML returns the inner markup.
func (e *Element) HTML() string {
	inner, err := e.sel.Html()
	if err != nil {
		return ""
	}
	return inner
}

// OuterHTML returns the markup of the element including its own tag.
func (e *Element) OuterHTML() string {
	return render(e.sel)
}

// Attr returns the value of the named attribute.
func (e *Element) Attr(name string) (string, bool) {
	return e.sel.Attr(name)
}

// HasAttr reports whether the named attribute is present.
func (e *Element) HasAttr(name string) bool {
	_, ok := e.sel.Attr(name)
	return ok
}

// Value returns the current value of a form control.
func (e *Element) Value() string {
	switch e.TagName() {
	case "textarea":
		return e.sel.Text()
	case "select":
		if opt := e.sel.Find("option[selected]").First(); opt.Length() > 0 {
			return optionValue(opt)
		}
		return optionValue(e.sel.Find("option").First())
	default:
		v, _ := e.sel.Attr("value")
		return v
	}
}

// XPath returns an absolute XPath resolving to this element.
func (e *Element) XPath() string {
	return nodeXPath(e.Node())
}

// Find returns the descendants matching the CSS selector.
func (e *Element) Find(css string) []*Element {
	return e.page.wrap(e.sel.Find(css))
}

// First returns the first descendant matching the CSS selector.
func (e *Element) First(css string) (*Element, bool) {
	return first(e.Find(css))
}

// Is reports whether the element matches the CSS selector.
func (e *Element) Is(css string) bool {
	return e.sel.Is(css)
}

// Parent returns the parent element.
func (e *Element) Parent() (*Element, bool) {
	parent := e.sel.Parent()
	if parent.Length() == 0 {
		return nil, false
	}
	return &Element{page: e.page, sel: parent}, true
}

// Closest returns the nearest ancestor-or-self matching the CSS selector.
func (e *Element) Closest(css string) (*Element, bool) {
	c := e.sel.Closest(css)
	if c.Length() == 0 {
		return nil, false
	}
	return &Element{page: e.page, sel: c}, true
}

func optionValue(opt *goquery.Selection) string {
	if v, ok := opt.Attr("value"); ok {
		return v
	}
	return strings.TrimSpace(opt.Text())
}

func first(elements []*Element) (*Element, bool) {
	if len(elements) == 0 {
		return nil, false
	}
	return elements[0], true
}

// render never fails for an in-memory buffer; an error yields "".
func render(sel *goquery.Selection) string {
	out, err := goquery.OuterHtml(sel)
	if err != nil {
		return ""
	}
	return out
}
