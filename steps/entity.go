package steps

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/cucumber/godog"

	"github.com/CrisisTextLine/stepkit"
	"github.com/CrisisTextLine/stepkit/cms"
)

const entityEventSource = "stepkit.entity"

// EntityContext is the entity access layer shared by the CMS step groups.
// Entities created through its generic path are deleted when the scenario
// ends.
type EntityContext struct {
	cms            cms.Facade
	ledger         *Ledger
	trackShortcuts bool
	logger         stepkit.Logger
	events         stepkit.Emitter
}

// NewEntityContext creates the context. With trackShortcuts, entities made
// by the node, user and term shortcuts are recorded for cleanup too.
func NewEntityContext(facade cms.Facade, trackShortcuts bool, logger stepkit.Logger, events stepkit.Emitter) *EntityContext {
	if events == nil {
		events = stepkit.NopEmitter{}
	}
	return &EntityContext{
		cms:            facade,
		ledger:         NewLedger(),
		trackShortcuts: trackShortcuts,
		logger:         stepkit.OrNop(logger),
		events:         events,
	}
}

// EntityDefinition builds the EntityContext.
var EntityDefinition = Definition{
	Name:     "entity",
	Requires: []string{ServiceCMS, ServiceConfig},
	New: func(env *stepkit.Environment) (Group, error) {
		r := &resolver{env: env}
		facade := resolve[cms.Facade](r, ServiceCMS)
		cfg := resolve[*stepkit.Config](r, ServiceConfig)
		if r.err != nil {
			return nil, r.err
		}
		return NewEntityContext(facade, cfg.CMS.TrackShortcutEntities, logger(env), emitter(env)), nil
	},
}

// CMS returns the CMS facade.
func (c *EntityContext) CMS() cms.Facade {
	return c.cms
}

// Ledger returns the scenario's cleanup ledger.
func (c *EntityContext) Ledger() *Ledger {
	return c.ledger
}

// RegisterSteps implements Group.
func (c *EntityContext) RegisterSteps(sc StepRegistrar) {
	sc.Step(`^"([^"]*)" "([^"]*)" has label "([^"]*)"$`, c.SetLabelByUUID)
	sc.Step(`^"([^"]*)" "([^"]*)" has empty "([^"]*)"$`, c.entityHasEmptyField)
	sc.Step(`^"([^"]*)" "([^"]*)" has "([^"]*)" with value "([^"]*)"$`, c.entityHasFieldWithValue)
	sc.Step(`^"([^"]*)" "([^"]*)" entities:$`, c.entities)
	sc.Step(`^users:$`, c.users)
}

// AfterScenario deletes the entities created during the scenario.
func (c *EntityContext) AfterScenario(ctx context.Context, _ *godog.Scenario, _ error) error {
	return c.Cleanup(ctx)
}

// FindEntityWithFieldValue returns the id of the only entityType entity
// whose field equals value.
func (c *EntityContext) FindEntityWithFieldValue(ctx context.Context, entityType, field string, value any) (string, error) {
	ids, err := c.cms.Query(ctx, entityType, cms.Eq(field, value))
	if err != nil {
		return "", classify(err)
	}
	switch len(ids) {
	case 0:
		return "", stepkit.Errorf(stepkit.ErrNotFound, "No %s with field '%s' containing '%v' could be found", entityType, field, value)
	case 1:
		return ids[0], nil
	default:
		return "", stepkit.Errorf(stepkit.ErrAmbiguous, "Found multiple %ss with field '%s' containing '%v'", entityType, field, value)
	}
}

// FindEntityWithFieldValues returns the id of the only entityType entity
// matching every field value.
func (c *EntityContext) FindEntityWithFieldValues(ctx context.Context, entityType string, values map[string]any) (string, error) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	conditions := make([]cms.Condition, 0, len(names))
	var formatted strings.Builder
	for _, name := range names {
		conditions = append(conditions, cms.Eq(name, values[name]))
		fmt.Fprintf(&formatted, "%s: %v \n", name, values[name])
	}

	ids, err := c.cms.Query(ctx, entityType, conditions...)
	if err != nil {
		return "", classify(err)
	}
	switch len(ids) {
	case 0:
		return "", stepkit.Errorf(stepkit.ErrNotFound, "No %s exists with the following combination of field values: \n%s", entityType, formatted.String())
	case 1:
		return ids[0], nil
	default:
		return "", stepkit.Errorf(stepkit.ErrAmbiguous, "Multiple %ss exist with the following combination of field values: \n%s", entityType, formatted.String())
	}
}

// CreateEntity creates an entity and returns its id. Nodes, users, terms
// and comments go through their CMS shortcuts; any other type has its field
// shorthand parsed and expanded first.
func (c *EntityContext) CreateEntity(ctx context.Context, entityType string, fields map[string]any) (string, error) {
	if _, ok := c.cms.Definition(entityType); !ok {
		return "", stepkit.Errorf(stepkit.ErrPrecondition, "%s is not a valid Entity type.", entityType)
	}

	var (
		created *cms.Entity
		err     error
		tracked = true
	)
	switch entityType {
	case "node":
		created, err = c.cms.CreateNode(ctx, fields)
		tracked = c.trackShortcuts
	case "user":
		created, err = c.cms.CreateUser(ctx, fields)
		tracked = c.trackShortcuts
	case "taxonomy_term":
		created, err = c.cms.CreateTerm(ctx, fields)
		tracked = c.trackShortcuts
	case "comment":
		created, err = c.cms.CreateComment(ctx, fields)
	default:
		created, err = c.createGeneric(ctx, entityType, fields)
	}
	if err != nil {
		return "", classify(err)
	}

	if tracked {
		c.ledger.Record(created)
	} else {
		c.logger.Warn("Shortcut entity not tracked for cleanup", "type", entityType, "id", created.ID)
	}
	c.logger.Debug("Entity created", "type", entityType, "id", created.ID, "tracked", tracked)
	c.events.Emit(ctx, stepkit.EventTypeEntityCreated, entityEventSource, map[string]interface{}{
		"type":    entityType,
		"id":      created.ID,
		"tracked": tracked,
	})
	return created.ID, nil
}

func (c *EntityContext) createGeneric(ctx context.Context, entityType string, fields map[string]any) (*cms.Entity, error) {
	e := cms.NewEntity(entityType, copyFields(fields))
	if err := c.cms.ParseFields(ctx, e); err != nil {
		return nil, err
	}
	if err := c.cms.ExpandFields(ctx, e); err != nil {
		return nil, err
	}
	return c.cms.Create(ctx, e)
}

// EntityLoad loads an entity by id.
func (c *EntityContext) EntityLoad(ctx context.Context, entityType, id string) (*cms.Entity, error) {
	e, err := c.cms.Load(ctx, entityType, id)
	if errors.Is(err, cms.ErrEntityNotFound) {
		return nil, stepkit.Errorf(stepkit.ErrNotFound, "No %s with id %s could be found: %w", entityType, id, err)
	}
	if err != nil {
		return nil, classify(err)
	}
	return e, nil
}

// SetLabelByUUID replaces the label of the entity with the given uuid.
func (c *EntityContext) SetLabelByUUID(ctx context.Context, entityType, uuid, label string) error {
	e, def, err := c.loadByUUID(ctx, entityType, uuid)
	if err != nil {
		return err
	}
	if !def.Fieldable || def.Keys.Label == "" {
		return stepkit.Errorf(stepkit.ErrPrecondition, "%s with uuid %s can not have a label", entityType, uuid)
	}
	e.Set(def.Keys.Label, label)
	return classify(c.cms.Save(ctx, e))
}

// SetFieldByUUID sets field on the entity with the given uuid. A nil value
// empties the field; other values are parsed and expanded like table input.
func (c *EntityContext) SetFieldByUUID(ctx context.Context, entityType, uuid, field string, value *string) error {
	e, def, err := c.loadByUUID(ctx, entityType, uuid)
	if err != nil {
		return err
	}
	if !def.Fieldable {
		return stepkit.Errorf(stepkit.ErrPrecondition, "%s with uuid %s can not have fields", entityType, uuid)
	}

	name, _, _ := strings.Cut(field, ":")
	if value == nil {
		e.Set(name, nil)
		return classify(c.cms.Save(ctx, e))
	}

	mock := cms.NewEntity(entityType, map[string]any{field: *value})
	if def.Keys.Bundle != "" {
		if bundle, ok := e.Get(def.Keys.Bundle); ok {
			mock.Fields[def.Keys.Bundle] = bundle
		}
	}
	if err := c.cms.ParseFields(ctx, mock); err != nil {
		return classify(err)
	}
	if err := c.cms.ExpandFields(ctx, mock); err != nil {
		return classify(err)
	}
	e.Set(name, mock.Fields[name])
	return classify(c.cms.Save(ctx, e))
}

func (c *EntityContext) loadByUUID(ctx context.Context, entityType, uuid string) (*cms.Entity, cms.EntityType, error) {
	def, ok := c.cms.Definition(entityType)
	if !ok {
		return nil, def, stepkit.Errorf(stepkit.ErrPrecondition, "%s is not a valid Entity type.", entityType)
	}
	found, err := c.cms.LoadByProperties(ctx, entityType, cms.Eq("uuid", uuid))
	if err != nil {
		return nil, def, classify(err)
	}
	if len(found) == 0 {
		return nil, def, stepkit.Errorf(stepkit.ErrNotFound, "No %s with uuid %s could be found", entityType, uuid)
	}
	return found[0], def, nil
}

// Cleanup deletes every entity in the ledger and empties it. The ledger is
// emptied even when deletes fail; their errors are returned together.
// Entities already deleted by a step are skipped.
func (c *EntityContext) Cleanup(ctx context.Context) error {
	entities := c.ledger.Drain()
	var errs []error
	deleted := 0
	for _, e := range entities {
		err := c.cms.Delete(ctx, e.Type, e.ID)
		switch {
		case errors.Is(err, cms.ErrEntityNotFound):
			continue
		case err != nil:
			c.logger.Error("Failed to delete entity", "type", e.Type, "id", e.ID, "error", err)
			errs = append(errs, fmt.Errorf("delete %s %s: %w", e.Type, e.ID, err))
			continue
		}
		deleted++
		c.events.Emit(ctx, stepkit.EventTypeEntityDeleted, entityEventSource, map[string]interface{}{
			"type": e.Type,
			"id":   e.ID,
		})
	}
	if len(entities) > 0 {
		c.logger.Debug("Ledger cleaned", "entities", len(entities), "deleted", deleted)
	}
	c.events.Emit(ctx, stepkit.EventTypeLedgerCleaned, entityEventSource, map[string]interface{}{
		"entities": len(entities),
		"deleted":  deleted,
	})
	return errors.Join(errs...)
}

func (c *EntityContext) entityHasEmptyField(ctx context.Context, entityType, uuid, field string) error {
	return c.SetFieldByUUID(ctx, entityType, uuid, field, nil)
}

func (c *EntityContext) entityHasFieldWithValue(ctx context.Context, entityType, uuid, field, value string) error {
	return c.SetFieldByUUID(ctx, entityType, uuid, field, &value)
}

func (c *EntityContext) entities(ctx context.Context, bundle, entityType string, table *godog.Table) error {
	rows, err := tableHash(table)
	if err != nil {
		return err
	}
	def, ok := c.cms.Definition(entityType)
	if !ok {
		return stepkit.Errorf(stepkit.ErrPrecondition, "%s is not a valid Entity type.", entityType)
	}
	for _, row := range rows {
		fields := fieldsOf(row)
		if def.Keys.Bundle != "" {
			fields[def.Keys.Bundle] = bundle
		}
		if _, err := c.CreateEntity(ctx, entityType, fields); err != nil {
			return err
		}
	}
	return nil
}

func (c *EntityContext) users(ctx context.Context, table *godog.Table) error {
	rows, err := tableHash(table)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := c.CreateEntity(ctx, "user", fieldsOf(row)); err != nil {
			return err
		}
	}
	return nil
}

// classify gives CMS errors the step failure kind they stand for.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, cms.ErrEntityNotFound),
		errors.Is(err, cms.ErrReferenceNotFound),
		errors.Is(err, cms.ErrFileNotFound),
		errors.Is(err, cms.ErrQueueNotFound):
		return stepkit.Errorf(stepkit.ErrNotFound, "%w", err)
	case errors.Is(err, cms.ErrUnknownEntityType),
		errors.Is(err, cms.ErrInvalidField),
		errors.Is(err, cms.ErrDuplicateEntity):
		return stepkit.Errorf(stepkit.ErrPrecondition, "%w", err)
	default:
		return err
	}
}

func copyFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
