package steps

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/CrisisTextLine/stepkit"
)

const failureEventSource = "stepkit.failure"

// FailureContext reports the current URL of a failed step and stores the
// page markup for inspection.
type FailureContext struct {
	mink         *MinkContext
	artifactsDir string
	logger       stepkit.Logger
	events       stepkit.Emitter
}

// NewFailureContext creates the context. Snapshots are written to
// artifactsDir.
func NewFailureContext(mink *MinkContext, artifactsDir string, logger stepkit.Logger, events stepkit.Emitter) *FailureContext {
	if events == nil {
		events = stepkit.NopEmitter{}
	}
	return &FailureContext{
		mink:         mink,
		artifactsDir: artifactsDir,
		logger:       stepkit.OrNop(logger),
		events:       events,
	}
}

// FailureDefinition builds the FailureContext.
var FailureDefinition = Definition{
	Name:     "failure",
	Requires: []string{"mink", ServiceConfig},
	New: func(env *stepkit.Environment) (Group, error) {
		r := &resolver{env: env}
		mink := resolve[*MinkContext](r, "mink")
		cfg := resolve[*stepkit.Config](r, ServiceConfig)
		if r.err != nil {
			return nil, r.err
		}
		return NewFailureContext(mink, cfg.ArtifactsDir, logger(env), emitter(env)), nil
	},
}

// RegisterSteps implements Group. The context has no steps of its own.
func (c *FailureContext) RegisterSteps(StepRegistrar) {}

// AfterStep returns the diagnostics of a failed step: the current URL and
// where the page markup was written.
func (c *FailureContext) AfterStep(ctx context.Context, failure StepFailure) error {
	if !c.mink.Session().IsStarted() {
		return nil
	}

	current := c.mink.CurrentURL(ctx)
	data := map[string]interface{}{
		"feature": failure.Feature,
		"line":    failure.Line,
		"url":     current,
	}
	if failure.Step != nil {
		data["step"] = failure.Step.Text
	}
	if failure.Err != nil {
		data["error"] = failure.Err.Error()
	}
	c.events.Emit(ctx, stepkit.EventTypeStepFailed, failureEventSource, data)

	diagnostics := []error{fmt.Errorf("Current url:%s", current)}
	file, err := c.storeHTML(ctx, failure)
	if err != nil {
		c.logger.Error("Failed to store page markup", "error", err)
		diagnostics = append(diagnostics, err)
	} else {
		c.events.Emit(ctx, stepkit.EventTypeArtifactWritten, failureEventSource, map[string]interface{}{
			"file": file,
		})
		diagnostics = append(diagnostics, fmt.Errorf("HTML WRITTEN TO: %s", file))
	}
	return errors.Join(diagnostics...)
}

// storeHTML writes the page to {artifactsDir}/{feature basename}-{line}.html.
func (c *FailureContext) storeHTML(ctx context.Context, failure StepFailure) (string, error) {
	page, err := c.mink.Page(ctx)
	if err != nil {
		return "", fmt.Errorf("snapshot page: %w", err)
	}
	if err := os.MkdirAll(c.artifactsDir, 0o755); err != nil {
		return "", fmt.Errorf("create artifacts directory: %w", err)
	}
	name := filepath.Base(failure.Feature) + "-" + strconv.FormatInt(failure.Line, 10) + ".html"
	file := filepath.Join(c.artifactsDir, name)
	if err := os.WriteFile(file, []byte(page.HTML()), 0o644); err != nil {
		return "", fmt.Errorf("write page markup: %w", err)
	}
	c.logger.Info("Stored page markup of failed step", "file", file)
	return file, nil
}
