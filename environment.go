package stepkit

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// Environment is the registry of step contexts and shared collaborators for a
// single scenario. A fresh Environment is built before every scenario and
// dropped after it, so nothing registered here outlives the scenario.
type Environment struct {
	mu      sync.RWMutex
	entries map[string]any
	order   []string
	logger  Logger
}

// NewEnvironment creates an empty environment.
func NewEnvironment(logger Logger) *Environment {
	return &Environment{
		entries: make(map[string]any),
		logger:  OrNop(logger),
	}
}

// Register adds value under name. Names are unique within a scenario.
func (e *Environment) Register(name string, value any) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.entries[name]; exists {
		return fmt.Errorf("%w: %s", ErrContextAlreadyRegistered, name)
	}
	e.entries[name] = value
	e.order = append(e.order, name)
	e.logger.Debug("Context registered", "name", name, "type", fmt.Sprintf("%T", value))
	return nil
}

// Get returns the value registered under name.
func (e *Environment) Get(name string) (any, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	value, ok := e.entries[name]
	return value, ok
}

// Has reports whether name is registered.
func (e *Environment) Has(name string) bool {
	_, ok := e.Get(name)
	return ok
}

// Names returns registered names in registration order.
func (e *Environment) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, len(e.order))
	copy(out, e.order)
	return out
}

// SortedNames returns registered names alphabetically.
func (e *Environment) SortedNames() []string {
	names := e.Names()
	sort.Strings(names)
	return names
}

// Resolve assigns the value registered under name to target, which must be a
// non-nil pointer to a type the value is assignable to. A pointer value is
// dereferenced when target points to the underlying struct type.
func (e *Environment) Resolve(name string, target any) error {
	value, ok := e.Get(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrContextNotRegistered, name)
	}

	targetValue := reflect.ValueOf(target)
	if targetValue.Kind() != reflect.Pointer || targetValue.IsNil() {
		return fmt.Errorf("%w: %s", ErrInvalidResolveTarget, name)
	}

	src := reflect.ValueOf(value)
	dst := targetValue.Elem()
	switch {
	case !src.IsValid():
		return fmt.Errorf("%w: %s is nil", ErrContextTypeMismatch, name)
	case src.Type().AssignableTo(dst.Type()):
		dst.Set(src)
	case src.Kind() == reflect.Pointer && !src.IsNil() && src.Elem().Type().AssignableTo(dst.Type()):
		dst.Set(src.Elem())
	default:
		return fmt.Errorf("%w: %s is %s, not %s", ErrContextTypeMismatch, name, src.Type(), dst.Type())
	}
	return nil
}

// ResolveAs returns the value registered under name as a T.
func ResolveAs[T any](e *Environment, name string) (T, error) {
	var out T
	err := e.Resolve(name, &out)
	return out, err
}
