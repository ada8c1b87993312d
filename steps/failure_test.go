package steps

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cucumber/godog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CrisisTextLine/stepkit"
)

func TestFailureContext_AfterStep(t *testing.T) {
	markup := `<html><body><p>Broken page</p></body></html>`
	mink, _ := newTestMink(t, "/broken", markup)
	dir := filepath.Join(t.TempDir(), "html")
	events := &recordingEmitter{}
	c := NewFailureContext(mink, dir, nil, events)

	err := c.AfterStep(t.Context(), StepFailure{
		Feature: "features/broken.feature",
		Line:    12,
		Step:    &godog.Step{Text: `I press "Save"`},
		Err:     errors.New("button not found"),
	})
	require.Error(t, err)

	file := filepath.Join(dir, "broken.feature-12.html")
	assert.Equal(t, "Current url:"+testBaseURL+"/broken\nHTML WRITTEN TO: "+file, err.Error())

	written, readErr := os.ReadFile(file)
	require.NoError(t, readErr)
	assert.Contains(t, string(written), "Broken page")

	assert.Equal(t, []string{stepkit.EventTypeStepFailed, stepkit.EventTypeArtifactWritten}, events.types())
	assert.Equal(t, `I press "Save"`, events.events[0].Data["step"])
	assert.Equal(t, "button not found", events.events[0].Data["error"])
}

func TestFailureContext_AfterStepWithoutSession(t *testing.T) {
	mink := NewMinkContext(newTestSession(t), newTestConfig(t), nil)
	events := &recordingEmitter{}
	c := NewFailureContext(mink, t.TempDir(), nil, events)

	assert.NoError(t, c.AfterStep(t.Context(), StepFailure{Feature: "a.feature", Line: 1}))
	assert.Empty(t, events.types())
}
