// Package suite adapts the step groups to godog: it wires a fresh set of
// groups for every scenario, dispatches their hooks and runs the suite.
package suite

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/cucumber/godog"

	"github.com/CrisisTextLine/stepkit"
	"github.com/CrisisTextLine/stepkit/browser"
	"github.com/CrisisTextLine/stepkit/cms"
	"github.com/CrisisTextLine/stepkit/cms/memcms"
	"github.com/CrisisTextLine/stepkit/steps"
)

const eventSource = "stepkit.suite"

// ErrUnknownBackend is returned for a CMS backend New cannot create.
var ErrUnknownBackend = errors.New("unknown cms backend")

// Suite runs features against one shared browser session and CMS.
type Suite struct {
	cfg         *stepkit.Config
	logger      stepkit.Logger
	session     browser.Session
	cms         cms.Facade
	subject     *stepkit.EventSubject
	definitions []steps.Definition
	output      io.Writer

	lines *lineIndex

	mu       sync.Mutex
	features map[string]error
}

// Option configures a Suite.
type Option func(*Suite)

// WithSession replaces the browser session selected by the config.
func WithSession(session browser.Session) Option {
	return func(s *Suite) {
		s.session = session
	}
}

// WithCMS replaces the CMS backend selected by the config.
func WithCMS(facade cms.Facade) Option {
	return func(s *Suite) {
		s.cms = facade
	}
}

// WithDefinitions replaces the step groups. They are still filtered by the
// config's enabled contexts.
func WithDefinitions(defs ...steps.Definition) Option {
	return func(s *Suite) {
		s.definitions = defs
	}
}

// WithOutput sets where godog writes its report.
func WithOutput(w io.Writer) Option {
	return func(s *Suite) {
		s.output = w
	}
}

// New creates a suite for cfg. The browser is not launched until a step
// needs it.
func New(cfg *stepkit.Config, logger stepkit.Logger, opts ...Option) (*Suite, error) {
	s := &Suite{
		cfg:         cfg,
		logger:      stepkit.OrNop(logger),
		definitions: steps.Definitions(),
		lines:       newLineIndex(),
		features:    make(map[string]error),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.session == nil {
		session, err := browser.New(cfg.Browser, s.logger)
		if err != nil {
			return nil, err
		}
		s.session = session
	}
	if s.cms == nil {
		facade, err := newCMS(cfg.CMS, s.logger)
		if err != nil {
			return nil, err
		}
		s.cms = facade
	}

	var enabled []steps.Definition
	for _, def := range s.definitions {
		if cfg.ContextEnabled(def.Name) {
			enabled = append(enabled, def)
		}
	}
	s.definitions = enabled

	s.subject = stepkit.NewEventSubject(s.logger)
	if err := s.subject.RegisterObserver(stepkit.NewLoggingObserver("stepkit.log", s.logger)); err != nil {
		return nil, fmt.Errorf("register logging observer: %w", err)
	}
	return s, nil
}

func newCMS(cfg stepkit.CMSConfig, logger stepkit.Logger) (cms.Facade, error) {
	switch cfg.Backend {
	case "", "memory":
		opts := []memcms.Option{memcms.WithLogger(logger)}
		if len(cfg.Modules) > 0 {
			opts = append(opts, memcms.WithModules(cfg.Modules...))
		}
		return memcms.New(opts...)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, cfg.Backend)
	}
}

// Subject returns the event subject observers can register on.
func (s *Suite) Subject() *stepkit.EventSubject {
	return s.subject
}

// Session returns the shared browser session.
func (s *Suite) Session() browser.Session {
	return s.session
}

// CMS returns the shared CMS backend.
func (s *Suite) CMS() cms.Facade {
	return s.cms
}

// Definitions returns the enabled step groups in wiring order.
func (s *Suite) Definitions() []steps.Definition {
	return s.definitions
}

// Options returns the godog options derived from the config.
func (s *Suite) Options() *godog.Options {
	opts := &godog.Options{
		Format:        s.cfg.Suite.Format,
		Paths:         s.cfg.Suite.Paths,
		Tags:          s.cfg.Suite.Tags,
		Strict:        s.cfg.Suite.Strict,
		StopOnFailure: s.cfg.Suite.StopOnFailure,
		Concurrency:   1,
	}
	if s.output != nil {
		opts.Output = s.output
	}
	return opts
}

// TestSuite returns the godog suite running with opts.
func (s *Suite) TestSuite(opts *godog.Options) godog.TestSuite {
	return godog.TestSuite{
		Name:                 s.cfg.Suite.Name,
		TestSuiteInitializer: s.TestSuiteInitializer,
		ScenarioInitializer:  s.ScenarioInitializer,
		Options:              opts,
	}
}

// Run runs the configured features and returns godog's exit status.
func (s *Suite) Run() int {
	return s.TestSuite(s.Options()).Run()
}

// TestSuiteInitializer announces the run and stops the browser after it.
func (s *Suite) TestSuiteInitializer(tsc *godog.TestSuiteContext) {
	tsc.BeforeSuite(func() {
		s.subject.Emit(context.Background(), stepkit.EventTypeConfigLoaded, eventSource, map[string]interface{}{
			"base_url": s.cfg.BaseURL,
			"driver":   s.cfg.Browser.Driver,
			"contexts": len(s.definitions),
		})
	})
	tsc.AfterSuite(func() {
		if err := s.session.Stop(context.Background()); err != nil {
			s.logger.Error("Failed to stop browser session", "error", err)
		}
	})
}

// ScenarioInitializer wires the step groups of one scenario and registers
// their steps and hooks.
func (s *Suite) ScenarioInitializer(sc *godog.ScenarioContext) {
	run := s.wire()
	for _, group := range run.groups {
		group.RegisterSteps(sc)
	}
	sc.Before(run.before)
	sc.After(run.after)
	sc.StepContext().After(run.afterStep)
}

// checkFeature runs the feature precondition of group once per feature.
func (s *Suite) checkFeature(ctx context.Context, uri, name string, checker steps.FeatureChecker) error {
	key := uri + "\x00" + name
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.features[key]; ok {
		return err
	}
	err := checker.BeforeFeature(ctx, uri)
	if err != nil {
		s.logger.Warn("Feature precondition failed", "feature", uri, "context", name, "error", err)
	}
	s.features[key] = err
	return err
}
