package steps

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CrisisTextLine/stepkit"
)

func TestBrowserContext_Resize(t *testing.T) {
	session := newScriptSession(t)
	mink := NewMinkContext(session, newTestConfig(t), nil)
	c := NewBrowserContext(mink, stepkit.BrowserConfig{ResizeOnScenarioStart: true})
	ctx := t.Context()

	require.NoError(t, c.ResizeWindow(ctx, 800, 600))
	assert.Equal(t, [2]int{0, 0}, session.resized)

	require.NoError(t, session.LoadHTML(ctx, testBaseURL+"/", "<html></html>"))
	require.NoError(t, c.BeforeScenario(ctx, nil))
	assert.Equal(t, [2]int{1024, 768}, session.resized)

	require.NoError(t, c.ResizeWindow(ctx, 375, 812))
	assert.Equal(t, [2]int{375, 812}, session.resized)
}

func TestBrowserContext_StaticDriverSkipsResizeOnStart(t *testing.T) {
	mink, _ := newTestMink(t, "/", "<html></html>")
	c := NewBrowserContext(mink, stepkit.BrowserConfig{ResizeOnScenarioStart: true})
	assert.NoError(t, c.BeforeScenario(t.Context(), nil))

	err := c.ResizeWindow(t.Context(), 800, 600)
	assert.ErrorIs(t, err, stepkit.ErrUnsupported)
}

func TestBrowserContext_Location(t *testing.T) {
	mink, _ := newTestMink(t, "/user/login", "<html></html>")
	c := NewBrowserContext(mink, stepkit.BrowserConfig{})
	ctx := t.Context()

	assert.NoError(t, c.iShouldBeAt(ctx, "/user/login"))
	assert.NoError(t, c.iShouldBeAt(ctx, "user/login/"))
	err := c.iShouldBeAt(ctx, "/node/1")
	assert.ErrorIs(t, err, stepkit.ErrAssertion)
	assert.EqualError(t, err, "You're not at http://site.test/node/1, but at http://site.test/user/login")
}

func TestBrowserContext_Wait(t *testing.T) {
	mink, _ := newTestMink(t, "", "")
	c := NewBrowserContext(mink, stepkit.BrowserConfig{})
	var slept []time.Duration
	c.sleep = func(d time.Duration) { slept = append(slept, d) }

	c.iWaitSeconds(2)
	c.iWaitMilliseconds(250)
	assert.Equal(t, []time.Duration{2 * time.Second, 250 * time.Millisecond}, slept)
}

func TestSmokeTestContext(t *testing.T) {
	session := newScriptSession(t)
	mink := NewMinkContext(session, newTestConfig(t), nil)
	c := NewSmokeTestContext(mink)

	session.evaluate = func(_ string, out any) error {
		*out.(*string) = "test"
		return nil
	}
	assert.NoError(t, c.ICanExecuteJavascript(t.Context()))
	assert.Equal(t, []string{"return 'test'"}, session.scripts)

	static, _ := newTestMink(t, "/", "<html></html>")
	err := NewSmokeTestContext(static).ICanExecuteJavascript(t.Context())
	assert.ErrorIs(t, err, stepkit.ErrUnsupported)
	assert.EqualError(t, err, "Could not evaluate javascript")
}
