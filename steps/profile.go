package steps

import (
	"context"

	"github.com/cucumber/godog"

	"github.com/CrisisTextLine/stepkit"
)

// ProfileContext creates user profiles.
type ProfileContext struct {
	entity *EntityContext
}

// NewProfileContext creates the context.
func NewProfileContext(entity *EntityContext) *ProfileContext {
	return &ProfileContext{entity: entity}
}

// ProfileDefinition builds the ProfileContext.
var ProfileDefinition = Definition{
	Name:     "profile",
	Requires: []string{"entity"},
	New: func(env *stepkit.Environment) (Group, error) {
		r := &resolver{env: env}
		entity := resolve[*EntityContext](r, "entity")
		if r.err != nil {
			return nil, r.err
		}
		return NewProfileContext(entity), nil
	},
}

// RegisterSteps implements Group.
func (c *ProfileContext) RegisterSteps(sc StepRegistrar) {
	sc.Step(`^"([^"]*)" profiles:$`, c.CreateProfiles)
}

// CreateProfiles creates a profileType profile per row for the user named
// in the user column.
func (c *ProfileContext) CreateProfiles(ctx context.Context, profileType string, table *godog.Table) error {
	rows, err := tableHash(table)
	if err != nil {
		return err
	}
	for _, row := range rows {
		name, ok := row["user"]
		if !ok {
			return stepkit.Errorf(stepkit.ErrPrecondition, "No user provided")
		}
		uid, err := c.entity.FindEntityWithFieldValue(ctx, "user", "name", name)
		if err != nil {
			return err
		}

		fields := fieldsOf(row)
		delete(fields, "user")
		fields["uid"] = []any{map[string]any{"target_id": uid}}
		fields["type"] = profileType
		if _, err := c.entity.CreateEntity(ctx, "profile", fields); err != nil {
			return err
		}
	}
	return nil
}
