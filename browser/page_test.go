package browser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureHTML = `<!DOCTYPE html>
<html><head><title>Fixture</title></head>
<body>
  <div id="main">
    <h1>Welcome</h1>
    <p class="intro">Hello   <b>world</b></p>
    <a href="/about" id="about-link" title="About us">About</a>
    <a href="/contact"><img src="c.png" alt="Contact icon"></a>
    <a href="/about-team">About the team</a>
  </div>
  <div class="result">One</div>
  <div class="result">Two</div>
  <form action="/search" method="get">
    <label for="edit-q">Search terms</label>
    <input type="text" id="edit-q" name="q" placeholder="Keywords" value="go">
    <label>Remember me <input type="checkbox" name="remember"></label>
    <textarea name="notes">some notes</textarea>
    <select name="sort"><option value="asc">Ascending</option><option value="desc" selected>Descending</option></select>
    <input type="submit" id="edit-submit" name="op" value="Search">
    <button type="submit" name="op" value="advanced">Advanced search</button>
  </form>
</body></html>`

func loadFixture(t *testing.T) *Page {
	t.Helper()
	p, err := ParsePage("http://site.test/page", strings.NewReader(fixtureHTML))
	require.NoError(t, err)
	return p
}

func TestPage_FindAndText(t *testing.T) {
	p := loadFixture(t)

	assert.Equal(t, "http://site.test/page", p.URL())
	assert.Len(t, p.Find(".result"), 2)

	intro, ok := p.First("p.intro")
	require.True(t, ok)
	assert.Equal(t, "Hello world", intro.Text())
	assert.Equal(t, "Hello   <b>world</b>", intro.HTML())
	assert.Equal(t, `<p class="intro">Hello   <b>world</b></p>`, intro.OuterHTML())
	assert.Equal(t, "p", intro.TagName())

	_, ok = p.First(".missing")
	assert.False(t, ok)
}

func TestPage_HTMLContainsElementOuterHTML(t *testing.T) {
	p := loadFixture(t)
	full := p.HTML()
	for _, el := range p.Find(".result") {
		assert.Contains(t, full, el.OuterHTML())
	}
	assert.True(t, strings.HasPrefix(full, "<!DOCTYPE html>"))
}

func TestElement_XPath(t *testing.T) {
	p := loadFixture(t)
	results := p.Find(".result")
	require.Len(t, results, 2)
	assert.Equal(t, "/html[1]/body[1]/div[2]", results[0].XPath())
	assert.Equal(t, "/html[1]/body[1]/div[3]", results[1].XPath())

	link, ok := p.First("#about-link")
	require.True(t, ok)
	assert.Equal(t, "/html[1]/body[1]/div[1]/a[1]", link.XPath())
}

func TestElement_Traversal(t *testing.T) {
	p := loadFixture(t)
	b, ok := p.First("p.intro b")
	require.True(t, ok)

	parent, ok := b.Parent()
	require.True(t, ok)
	assert.True(t, parent.Is("p.intro"))

	main, ok := b.Closest("#main")
	require.True(t, ok)
	assert.Len(t, main.Find("a"), 3)

	_, ok = b.Closest("form")
	assert.False(t, ok)
}

func TestNamedSelectors_Links(t *testing.T) {
	p := loadFixture(t)

	links := p.FindLinks("About")
	require.Len(t, links, 2)
	href, _ := links[0].Attr("href")
	assert.Equal(t, "/about", href, "exact text match ranks first")

	byAlt := p.FindLinks("Contact icon")
	require.Len(t, byAlt, 1)

	byID := p.FindLinks("about-link")
	require.Len(t, byID, 1)

	assert.Empty(t, p.FindLinks("Nowhere"))
}

func TestNamedSelectors_Buttons(t *testing.T) {
	p := loadFixture(t)

	search := p.FindButtons("Search")
	require.Len(t, search, 1, "matching is case sensitive")
	assert.Equal(t, "input", search[0].TagName())

	ops := p.FindButtons("op")
	assert.Len(t, ops, 2)

	advanced := p.FindButtons("Advanced search")
	require.Len(t, advanced, 1)
	assert.Equal(t, "button", advanced[0].TagName())
}

func TestNamedSelectors_Fields(t *testing.T) {
	p := loadFixture(t)

	for _, locator := range []string{"edit-q", "q", "Keywords", "Search terms"} {
		field, ok := p.FindField(locator)
		require.True(t, ok, locator)
		assert.Equal(t, "go", field.Value(), locator)
	}

	remember, ok := p.FindField("Remember me")
	require.True(t, ok)
	name, _ := remember.Attr("name")
	assert.Equal(t, "remember", name)

	notes, ok := p.FindField("notes")
	require.True(t, ok)
	assert.Equal(t, "some notes", notes.Value())

	sort, ok := p.FindField("sort")
	require.True(t, ok)
	assert.Equal(t, "desc", sort.Value())

	_, ok = p.FindField("op")
	assert.False(t, ok, "buttons are not fields")
}
