package memcms

import (
	"context"
	"fmt"
	"reflect"
	"strconv"

	"github.com/golobby/cast"
	"github.com/google/uuid"

	"github.com/CrisisTextLine/stepkit/cms"
)

// Definition returns the definition of entityType.
func (s *Store) Definition(entityType string) (cms.EntityType, bool) {
	t, ok := s.types[entityType]
	return t, ok
}

func (s *Store) definition(entityType string) (cms.EntityType, error) {
	t, ok := s.types[entityType]
	if !ok {
		return cms.EntityType{}, fmt.Errorf("%w: %s", cms.ErrUnknownEntityType, entityType)
	}
	return t, nil
}

// Query returns the ids of entities matching every condition, in creation order.
func (s *Store) Query(ctx context.Context, entityType string, conditions ...cms.Condition) ([]string, error) {
	entities, err := s.LoadByProperties(ctx, entityType, conditions...)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(entities))
	for i, e := range entities {
		ids[i] = e.ID
	}
	return ids, nil
}

// LoadByProperties returns copies of the entities matching every condition.
func (s *Store) LoadByProperties(ctx context.Context, entityType string, conditions ...cms.Condition) ([]*cms.Entity, error) {
	def, err := s.definition(entityType)
	if err != nil {
		return nil, err
	}

	txn := s.db.Txn(false)
	defer txn.Abort()
	it, err := txn.Get(entityTable(entityType), "seq")
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", entityType, err)
	}

	var out []*cms.Entity
	for raw := it.Next(); raw != nil; raw = it.Next() {
		e := raw.(*record).Entity
		if matchesAll(def, e, conditions) {
			out = append(out, e.Clone())
		}
	}
	return out, nil
}

// Load returns a copy of the entity, cms.ErrEntityNotFound when absent.
func (s *Store) Load(ctx context.Context, entityType, id string) (*cms.Entity, error) {
	if _, err := s.definition(entityType); err != nil {
		return nil, err
	}
	txn := s.db.Txn(false)
	defer txn.Abort()
	raw, err := txn.First(entityTable(entityType), "id", id)
	if err != nil {
		return nil, fmt.Errorf("load %s %s: %w", entityType, id, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: %s %s", cms.ErrEntityNotFound, entityType, id)
	}
	return raw.(*record).Entity.Clone(), nil
}

// Create stores a new entity. Ids are sequential per type unless the
// entity already carries one.
func (s *Store) Create(ctx context.Context, e *cms.Entity) (*cms.Entity, error) {
	def, err := s.definition(e.Type)
	if err != nil {
		return nil, err
	}

	stored := e.Clone()
	seq := s.nextSeq(e.Type)
	if stored.ID == "" {
		if v := stored.String(def.Keys.ID); v != "" {
			stored.ID = v
		} else {
			stored.ID = strconv.FormatUint(seq, 10)
		}
	}
	if stored.UUID == "" {
		if v := stored.String(def.Keys.UUID); v != "" {
			stored.UUID = v
		} else {
			stored.UUID = uuid.NewString()
		}
	}
	stored.Fields[def.Keys.ID] = stored.ID
	if def.Keys.UUID != "" {
		stored.Fields[def.Keys.UUID] = stored.UUID
	}

	txn := s.db.Txn(true)
	defer txn.Abort()
	existing, err := txn.First(entityTable(e.Type), "id", stored.ID)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", e.Type, err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s %s", cms.ErrDuplicateEntity, e.Type, stored.ID)
	}
	if err := txn.Insert(entityTable(e.Type), &record{ID: stored.ID, UUID: stored.UUID, Seq: seq, Entity: stored}); err != nil {
		return nil, fmt.Errorf("create %s: %w", e.Type, err)
	}
	txn.Commit()

	s.logger.Debug("Entity stored", "type", e.Type, "id", stored.ID)
	return stored.Clone(), nil
}

// Save replaces a stored entity.
func (s *Store) Save(ctx context.Context, e *cms.Entity) error {
	if _, err := s.definition(e.Type); err != nil {
		return err
	}
	txn := s.db.Txn(true)
	defer txn.Abort()
	raw, err := txn.First(entityTable(e.Type), "id", e.ID)
	if err != nil {
		return fmt.Errorf("save %s %s: %w", e.Type, e.ID, err)
	}
	if raw == nil {
		return fmt.Errorf("%w: %s %s", cms.ErrEntityNotFound, e.Type, e.ID)
	}
	current := raw.(*record)
	updated := e.Clone()
	updated.UUID = current.UUID
	if err := txn.Insert(entityTable(e.Type), &record{ID: current.ID, UUID: current.UUID, Seq: current.Seq, Entity: updated}); err != nil {
		return fmt.Errorf("save %s %s: %w", e.Type, e.ID, err)
	}
	txn.Commit()
	return nil
}

// Delete removes an entity.
func (s *Store) Delete(ctx context.Context, entityType, id string) error {
	if _, err := s.definition(entityType); err != nil {
		return err
	}
	txn := s.db.Txn(true)
	defer txn.Abort()
	raw, err := txn.First(entityTable(entityType), "id", id)
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", entityType, id, err)
	}
	if raw == nil {
		return fmt.Errorf("%w: %s %s", cms.ErrEntityNotFound, entityType, id)
	}
	if err := txn.Delete(entityTable(entityType), raw); err != nil {
		return fmt.Errorf("delete %s %s: %w", entityType, id, err)
	}
	if _, err := txn.DeleteAll(tableSearch, "id", entityType+":"+id); err != nil {
		return fmt.Errorf("unindex %s %s: %w", entityType, id, err)
	}
	txn.Commit()
	s.logger.Debug("Entity removed", "type", entityType, "id", id)
	return nil
}

func (s *Store) nextSeq(entityType string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq[entityType]++
	return s.seq[entityType]
}

func matchesAll(def cms.EntityType, e *cms.Entity, conditions []cms.Condition) bool {
	for _, c := range conditions {
		if !matches(def, e, c) {
			return false
		}
	}
	return true
}

func matches(def cms.EntityType, e *cms.Entity, c cms.Condition) bool {
	var stored []any
	switch c.Field {
	case def.Keys.ID, "id":
		stored = []any{e.ID}
	case def.Keys.UUID, "uuid":
		stored = []any{e.UUID}
	default:
		v, ok := e.Get(c.Field)
		if !ok {
			return false
		}
		stored = cms.Values(v)
	}
	for _, v := range stored {
		if equal(v, c.Value) {
			return true
		}
	}
	return false
}

// equal compares a stored value with a condition value, converting the
// condition to the stored value's type when they differ.
func equal(stored, want any) bool {
	if stored == nil || want == nil {
		return stored == want
	}
	if reflect.TypeOf(stored) == reflect.TypeOf(want) {
		return reflect.DeepEqual(stored, want)
	}
	if s, ok := stored.(string); ok {
		return s == fmt.Sprint(want)
	}
	converted, err := cast.FromType(fmt.Sprint(want), reflect.TypeOf(stored))
	if err != nil {
		return false
	}
	return reflect.DeepEqual(stored, converted)
}
