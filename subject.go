package stepkit

import (
	"context"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// observerRegistration holds information about a registered observer
type observerRegistration struct {
	observer     Observer
	eventTypes   map[string]bool
	registeredAt time.Time
}

// EventSubject is the Subject used by a suite. Scenarios run one step at a
// time, so observers are notified synchronously in registration order.
type EventSubject struct {
	observers     map[string]*observerRegistration
	order         []string
	observerMutex sync.RWMutex
	logger        Logger
}

// NewEventSubject creates a subject with no observers.
func NewEventSubject(logger Logger) *EventSubject {
	return &EventSubject{
		observers: make(map[string]*observerRegistration),
		logger:    OrNop(logger),
	}
}

// RegisterObserver adds an observer. Registering the same ID twice replaces
// the earlier registration and keeps its position.
func (s *EventSubject) RegisterObserver(observer Observer, eventTypes ...string) error {
	if observer == nil {
		return ErrObserverNil
	}

	s.observerMutex.Lock()
	defer s.observerMutex.Unlock()

	eventTypeMap := make(map[string]bool, len(eventTypes))
	for _, eventType := range eventTypes {
		eventTypeMap[eventType] = true
	}

	id := observer.ObserverID()
	if _, exists := s.observers[id]; !exists {
		s.order = append(s.order, id)
	}
	s.observers[id] = &observerRegistration{
		observer:     observer,
		eventTypes:   eventTypeMap,
		registeredAt: time.Now(),
	}

	s.logger.Debug("Observer registered", "observerID", id, "eventTypes", eventTypes)
	return nil
}

// UnregisterObserver removes an observer from receiving notifications.
func (s *EventSubject) UnregisterObserver(observer Observer) error {
	if observer == nil {
		return ErrObserverNil
	}

	s.observerMutex.Lock()
	defer s.observerMutex.Unlock()

	id := observer.ObserverID()
	if _, exists := s.observers[id]; !exists {
		return nil
	}
	delete(s.observers, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.logger.Debug("Observer unregistered", "observerID", id)
	return nil
}

// NotifyObservers validates event and hands it to every interested observer.
// Observer errors and panics are logged and do not stop the notification.
func (s *EventSubject) NotifyObservers(ctx context.Context, event cloudevents.Event) error {
	if event.Time().IsZero() {
		event.SetTime(time.Now())
	}
	if err := ValidateCloudEvent(event); err != nil {
		s.logger.Error("Invalid CloudEvent", "eventType", event.Type(), "error", err)
		return err
	}

	s.observerMutex.RLock()
	targets := make([]*observerRegistration, 0, len(s.order))
	for _, id := range s.order {
		registration := s.observers[id]
		if len(registration.eventTypes) > 0 && !registration.eventTypes[event.Type()] {
			continue
		}
		targets = append(targets, registration)
	}
	s.observerMutex.RUnlock()

	for _, registration := range targets {
		s.deliver(ctx, registration.observer, event)
	}
	return nil
}

func (s *EventSubject) deliver(ctx context.Context, observer Observer, event cloudevents.Event) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Observer panicked", "observerID", observer.ObserverID(), "event", event.Type(), "panic", r)
		}
	}()

	if err := observer.OnEvent(ctx, event); err != nil {
		s.logger.Error("Observer error", "observerID", observer.ObserverID(), "event", event.Type(), "error", err)
	}
}

// Emit builds a CloudEvent and notifies observers, logging failures.
func (s *EventSubject) Emit(ctx context.Context, eventType, source string, data map[string]interface{}) {
	event := NewCloudEvent(eventType, source, data, nil)
	if err := s.NotifyObservers(ctx, event); err != nil {
		s.logger.Error("Failed to notify observers", "event", eventType, "error", err)
	}
}

// GetObservers returns information about currently registered observers.
func (s *EventSubject) GetObservers() []ObserverInfo {
	s.observerMutex.RLock()
	defer s.observerMutex.RUnlock()

	info := make([]ObserverInfo, 0, len(s.order))
	for _, id := range s.order {
		registration := s.observers[id]
		eventTypes := make([]string, 0, len(registration.eventTypes))
		for eventType := range registration.eventTypes {
			eventTypes = append(eventTypes, eventType)
		}
		info = append(info, ObserverInfo{
			ID:           id,
			EventTypes:   eventTypes,
			RegisteredAt: registration.registeredAt,
		})
	}
	return info
}

// Emitter is the narrow view of EventSubject that step groups depend on.
type Emitter interface {
	Emit(ctx context.Context, eventType, source string, data map[string]interface{})
}

// NopEmitter drops every event.
type NopEmitter struct{}

// Emit implements Emitter.
func (NopEmitter) Emit(context.Context, string, string, map[string]interface{}) {}

// NewLoggingObserver returns an observer writing every event to logger at
// debug level, with step failures at warn level.
func NewLoggingObserver(id string, logger Logger) Observer {
	logger = OrNop(logger)
	return NewFunctionalObserver(id, func(_ context.Context, event cloudevents.Event) error {
		var data map[string]interface{}
		_ = event.DataAs(&data)
		args := []any{"type", event.Type(), "source", event.Source()}
		for key, value := range data {
			args = append(args, key, value)
		}
		if event.Type() == EventTypeStepFailed || event.Type() == EventTypeWiringFailed {
			logger.Warn("Event", args...)
			return nil
		}
		logger.Debug("Event", args...)
		return nil
	})
}
