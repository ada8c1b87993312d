package stepkit

import (
	"context"
	"errors"
	"testing"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	id     string
	events []cloudevents.Event
	err    error
}

func (r *recordingObserver) OnEvent(_ context.Context, event cloudevents.Event) error {
	r.events = append(r.events, event)
	return r.err
}

func (r *recordingObserver) ObserverID() string { return r.id }

func TestFunctionalObserver(t *testing.T) {
	var received cloudevents.Event
	observer := NewFunctionalObserver("fn", func(_ context.Context, event cloudevents.Event) error {
		received = event
		return nil
	})

	assert.Equal(t, "fn", observer.ObserverID())

	event := NewCloudEvent(EventTypeEntityCreated, "test", map[string]interface{}{"type": "node"}, nil)
	require.NoError(t, observer.OnEvent(context.Background(), event))
	assert.Equal(t, EventTypeEntityCreated, received.Type())
}

func TestNewCloudEvent(t *testing.T) {
	event := NewCloudEvent(EventTypeArtifactWritten, "steps.failure",
		map[string]interface{}{"file": "/tmp/a.html"},
		map[string]interface{}{"feature": "login"})

	require.NoError(t, ValidateCloudEvent(event))
	assert.Equal(t, cloudevents.VersionV1, event.SpecVersion())
	assert.NotEmpty(t, event.ID())
	assert.False(t, event.Time().IsZero())
	assert.Equal(t, "login", event.Extensions()["feature"])

	var data map[string]interface{}
	require.NoError(t, event.DataAs(&data))
	assert.Equal(t, "/tmp/a.html", data["file"])

	other := NewCloudEvent(EventTypeArtifactWritten, "steps.failure", nil, nil)
	assert.NotEqual(t, event.ID(), other.ID())
}

func TestEventSubject_NotifyInRegistrationOrder(t *testing.T) {
	subject := NewEventSubject(nil)

	var order []string
	first := NewFunctionalObserver("first", func(context.Context, cloudevents.Event) error {
		order = append(order, "first")
		return nil
	})
	second := NewFunctionalObserver("second", func(context.Context, cloudevents.Event) error {
		order = append(order, "second")
		return nil
	})
	require.NoError(t, subject.RegisterObserver(first))
	require.NoError(t, subject.RegisterObserver(second))

	subject.Emit(context.Background(), EventTypeScenarioStarted, "suite", nil)

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestEventSubject_FiltersByType(t *testing.T) {
	subject := NewEventSubject(nil)
	entities := &recordingObserver{id: "entities"}
	all := &recordingObserver{id: "all"}
	require.NoError(t, subject.RegisterObserver(entities, EventTypeEntityCreated, EventTypeEntityDeleted))
	require.NoError(t, subject.RegisterObserver(all))

	ctx := context.Background()
	subject.Emit(ctx, EventTypeEntityCreated, "steps.entity", map[string]interface{}{"id": "1"})
	subject.Emit(ctx, EventTypeStepFailed, "steps.failure", nil)

	assert.Len(t, entities.events, 1)
	assert.Len(t, all.events, 2)
}

func TestEventSubject_ObserverErrorsAndPanicsAreContained(t *testing.T) {
	subject := NewEventSubject(nil)
	failing := &recordingObserver{id: "failing", err: errors.New("boom")}
	panicking := NewFunctionalObserver("panicking", func(context.Context, cloudevents.Event) error {
		panic("observer exploded")
	})
	after := &recordingObserver{id: "after"}

	require.NoError(t, subject.RegisterObserver(failing))
	require.NoError(t, subject.RegisterObserver(panicking))
	require.NoError(t, subject.RegisterObserver(after))

	err := subject.NotifyObservers(context.Background(), NewCloudEvent(EventTypeLedgerCleaned, "steps.entity", nil, nil))
	require.NoError(t, err)
	assert.Len(t, after.events, 1)
}

func TestEventSubject_RejectsInvalidEvent(t *testing.T) {
	subject := NewEventSubject(nil)
	event := cloudevents.NewEvent()
	event.SetType(EventTypeStepFailed)

	assert.Error(t, subject.NotifyObservers(context.Background(), event))
}

func TestEventSubject_Unregister(t *testing.T) {
	subject := NewEventSubject(nil)
	observer := &recordingObserver{id: "o"}

	require.NoError(t, subject.RegisterObserver(observer, EventTypeStepFailed))
	require.Len(t, subject.GetObservers(), 1)
	assert.Equal(t, []string{EventTypeStepFailed}, subject.GetObservers()[0].EventTypes)

	require.NoError(t, subject.UnregisterObserver(observer))
	require.NoError(t, subject.UnregisterObserver(observer))
	assert.Empty(t, subject.GetObservers())

	assert.ErrorIs(t, subject.RegisterObserver(nil), ErrObserverNil)
}
