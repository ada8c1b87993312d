package browser

import (
	"strings"
)

// Named selectors locate interactive elements the way a person describes
// them: by id, visible text, title, value, placeholder or label. Exact
// matches are returned before partial ones; each group is in document order.

const (
	linkCSS   = "a[href]"
	buttonCSS = "button, input[type=submit], input[type=button], input[type=reset], input[type=image]"
	fieldCSS  = "input:not([type=submit]):not([type=button]):not([type=reset]):not([type=image]):not([type=hidden]), textarea, select"
)

// FindLinks returns the descendant links matching locator.
func (e *Element) FindLinks(locator string) []*Element {
	return rank(e.Find(linkCSS), locator, linkCandidates)
}

// FindButtons returns the descendant buttons matching locator.
func (e *Element) FindButtons(locator string) []*Element {
	return rank(e.Find(buttonCSS), locator, buttonCandidates)
}

// FindField returns the best descendant form field matching locator.
func (e *Element) FindField(locator string) (*Element, bool) {
	return first(e.FindFields(locator))
}

// FindFields returns every descendant form field matching locator.
func (e *Element) FindFields(locator string) []*Element {
	return rank(e.Find(fieldCSS), locator, fieldCandidates)
}

func linkCandidates(el *Element) []string {
	values := attrValues(el, "id", "title")
	values = append(values, el.Text())
	for _, img := range el.Find("img[alt]") {
		alt, _ := img.Attr("alt")
		values = append(values, alt)
	}
	return values
}

func buttonCandidates(el *Element) []string {
	values := attrValues(el, "id", "name", "value", "title")
	if el.TagName() == "button" {
		values = append(values, el.Text())
	}
	if t, _ := el.Attr("type"); t == "image" {
		values = append(values, attrValues(el, "alt")...)
	}
	return values
}

func fieldCandidates(el *Element) []string {
	values := attrValues(el, "id", "name", "placeholder")
	if id, ok := el.Attr("id"); ok && id != "" {
		for _, label := range el.page.Find("label[for]") {
			if f, _ := label.Attr("for"); f == id {
				values = append(values, label.Text())
			}
		}
	}
	if label, ok := el.Closest("label"); ok {
		values = append(values, label.Text())
	}
	return values
}

func attrValues(el *Element, names ...string) []string {
	var values []string
	for _, name := range names {
		if v, ok := el.Attr(name); ok && v != "" {
			values = append(values, v)
		}
	}
	return values
}

func rank(elements []*Element, locator string, candidates func(*Element) []string) []*Element {
	locator = normalizeSpace(locator)
	var exact, partial []*Element
	for _, el := range elements {
		match := 0
		for _, c := range candidates(el) {
			c = normalizeSpace(c)
			if c == locator {
				match = 2
				break
			}
			if locator != "" && strings.Contains(c, locator) {
				match = 1
			}
		}
		switch match {
		case 2:
			exact = append(exact, el)
		case 1:
			partial = append(partial, el)
		}
	}
	return append(exact, partial...)
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
