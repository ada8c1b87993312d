package steps

import (
	"context"

	"github.com/cucumber/godog"

	"github.com/CrisisTextLine/stepkit"
)

// MediaContext creates media entities.
type MediaContext struct {
	entity *EntityContext
}

// NewMediaContext creates the context.
func NewMediaContext(entity *EntityContext) *MediaContext {
	return &MediaContext{entity: entity}
}

// MediaDefinition builds the MediaContext.
var MediaDefinition = Definition{
	Name:     "media",
	Requires: []string{"entity"},
	New: func(env *stepkit.Environment) (Group, error) {
		r := &resolver{env: env}
		entity := resolve[*EntityContext](r, "entity")
		if r.err != nil {
			return nil, r.err
		}
		return NewMediaContext(entity), nil
	},
}

// RegisterSteps implements Group.
func (c *MediaContext) RegisterSteps(sc StepRegistrar) {
	sc.Step(`^"([^"]*)" media:$`, c.media)
}

func (c *MediaContext) media(ctx context.Context, bundle string, table *godog.Table) error {
	rows, err := tableHash(table)
	if err != nil {
		return err
	}
	for _, row := range rows {
		fields := fieldsOf(row)
		fields["bundle"] = bundle
		if _, err := c.entity.CreateEntity(ctx, "media", fields); err != nil {
			return err
		}
	}
	return nil
}
