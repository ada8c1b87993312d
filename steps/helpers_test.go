package steps

import (
	"context"
	"sync"
	"testing"

	"github.com/cucumber/godog"
	messages "github.com/cucumber/messages/go/v21"
	"github.com/stretchr/testify/require"

	"github.com/CrisisTextLine/stepkit"
	"github.com/CrisisTextLine/stepkit/browser"
	"github.com/CrisisTextLine/stepkit/cms/memcms"
)

const testBaseURL = "http://site.test"

func newTestConfig(t *testing.T) *stepkit.Config {
	t.Helper()
	cfg := &stepkit.Config{}
	require.NoError(t, stepkit.ApplyDefaults(cfg))
	cfg.BaseURL = testBaseURL
	cfg.ArtifactsDir = t.TempDir()
	return cfg
}

func newTestSession(t *testing.T) *browser.StaticSession {
	t.Helper()
	cfg := stepkit.BrowserConfig{}
	require.NoError(t, stepkit.ApplyDefaults(&cfg))
	s := browser.NewStaticSession(cfg, nil)
	t.Cleanup(func() { _ = s.Stop(context.Background()) })
	return s
}

// newTestMink returns a MinkContext whose session shows markup at path.
func newTestMink(t *testing.T, path, markup string) (*MinkContext, *browser.StaticSession) {
	t.Helper()
	session := newTestSession(t)
	mink := NewMinkContext(session, newTestConfig(t), nil)
	if markup != "" {
		require.NoError(t, session.LoadHTML(t.Context(), mink.LocatePath(path), markup))
	}
	return mink, session
}

func newTestStore(t *testing.T, opts ...memcms.Option) *memcms.Store {
	t.Helper()
	store, err := memcms.New(opts...)
	require.NoError(t, err)
	return store
}

func newTestEntity(t *testing.T, opts ...memcms.Option) (*EntityContext, *memcms.Store) {
	t.Helper()
	store := newTestStore(t, opts...)
	return NewEntityContext(store, false, nil, nil), store
}

// table builds a step table from rows of cells.
func table(rows ...[]string) *godog.Table {
	t := &messages.PickleTable{}
	for _, row := range rows {
		r := &messages.PickleTableRow{}
		for _, cell := range row {
			r.Cells = append(r.Cells, &messages.PickleTableCell{Value: cell})
		}
		t.Rows = append(t.Rows, r)
	}
	return t
}

type recordedEvent struct {
	Type string
	Data map[string]interface{}
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recordingEmitter) Emit(_ context.Context, eventType, _ string, data map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{Type: eventType, Data: data})
}

func (r *recordingEmitter) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

// recordingRegistrar collects registered step expressions.
type recordingRegistrar struct {
	exprs []string
}

func (r *recordingRegistrar) Step(expr, _ interface{}) {
	r.exprs = append(r.exprs, expr.(string))
}

// scriptSession is a JavaScript capable session double. It serves a fixed
// page and records executed scripts.
type scriptSession struct {
	*browser.StaticSession
	scripts  []string
	evaluate func(script string, out any) error
	visible  map[string]bool
	resized  [2]int
}

func newScriptSession(t *testing.T) *scriptSession {
	return &scriptSession{StaticSession: newTestSession(t), visible: map[string]bool{}}
}

func (s *scriptSession) SupportsJavascript() bool { return true }

func (s *scriptSession) Execute(_ context.Context, script string) error {
	s.scripts = append(s.scripts, script)
	return nil
}

func (s *scriptSession) Evaluate(_ context.Context, script string, out any) error {
	s.scripts = append(s.scripts, script)
	if s.evaluate == nil {
		return nil
	}
	return s.evaluate(script, out)
}

func (s *scriptSession) Resize(_ context.Context, width, height int) error {
	s.resized = [2]int{width, height}
	return nil
}

// IsVisible reports elements by id; unknown ids are visible.
func (s *scriptSession) IsVisible(_ context.Context, el *browser.Element) (bool, error) {
	id, _ := el.Attr("id")
	if v, ok := s.visible[id]; ok {
		return v, nil
	}
	return true, nil
}
