package steps

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CrisisTextLine/stepkit"
)

func newFrameSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><h1>Main</h1><iframe class="embed" src="/frame"></iframe></body></html>`)
	})
	mux.HandleFunc("/frame", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><p>Inside the frame</p></body></html>`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestIframeContext_SwitchAndBack(t *testing.T) {
	srv := newFrameSite(t)
	cfg := newTestConfig(t)
	cfg.BaseURL = srv.URL
	mink := NewMinkContext(newTestSession(t), cfg, nil)
	c := NewIframeContext(mink)
	ctx := t.Context()

	require.NoError(t, c.BeforeScenario(ctx, nil))
	require.NoError(t, mink.Visit(ctx, "/"))

	require.NoError(t, c.SwitchToIframe(ctx, ".embed"))
	assert.NoError(t, mink.AssertPageContainsText(ctx, "Inside the frame"))

	require.NoError(t, c.SwitchToMainFrame(ctx))
	assert.NoError(t, mink.AssertPageContainsText(ctx, "Main"))

	require.NoError(t, c.SwitchToIframe(ctx, "iframe"))
	assert.NoError(t, mink.AssertPageContainsText(ctx, "Inside the frame"))
	require.NoError(t, c.BeforeScenario(ctx, nil))
	assert.NoError(t, mink.AssertPageNotContainsText(ctx, "Inside the frame"))
}

func TestIframeContext_Failures(t *testing.T) {
	srv := newFrameSite(t)
	cfg := newTestConfig(t)
	cfg.BaseURL = srv.URL
	mink := NewMinkContext(newTestSession(t), cfg, nil)
	c := NewIframeContext(mink)
	ctx := t.Context()
	require.NoError(t, mink.Visit(ctx, "/"))

	err := c.SwitchToIframe(ctx, ".missing")
	assert.ErrorIs(t, err, stepkit.ErrNotFound)
	assert.EqualError(t, err, fmt.Sprintf("No iframe matching '.missing' could be found on the page %s/", srv.URL))

	err = c.SwitchToIframe(ctx, "h1")
	assert.ErrorIs(t, err, stepkit.ErrNotFound)
	assert.Contains(t, err.Error(), "Could not switch to the 'h1' iframe: ")
}
