package steps

import (
	"context"

	"github.com/cucumber/godog"

	"github.com/CrisisTextLine/stepkit"
)

// ParagraphsContext attaches paragraphs to existing entities.
type ParagraphsContext struct {
	entity *EntityContext
}

// NewParagraphsContext creates the context.
func NewParagraphsContext(entity *EntityContext) *ParagraphsContext {
	return &ParagraphsContext{entity: entity}
}

// ParagraphsDefinition builds the ParagraphsContext.
var ParagraphsDefinition = Definition{
	Name:     "paragraphs",
	Requires: []string{"entity"},
	New: func(env *stepkit.Environment) (Group, error) {
		r := &resolver{env: env}
		entity := resolve[*EntityContext](r, "entity")
		if r.err != nil {
			return nil, r.err
		}
		return NewParagraphsContext(entity), nil
	},
}

// RegisterSteps implements Group.
func (c *ParagraphsContext) RegisterSteps(sc StepRegistrar) {
	sc.Step(`^"([^"]*)" with "([^"]*)" "([^"]*)" has "([^"]*)" containing the following paragraphs:$`, c.HasParagraphs)
}

// HasParagraphs creates a paragraph per row and appends each to
// paragraphsField of the entity whose field equals value.
func (c *ParagraphsContext) HasParagraphs(ctx context.Context, entityType, field, value, paragraphsField string, table *godog.Table) error {
	rows, err := tableHash(table)
	if err != nil {
		return err
	}
	id, err := c.entity.FindEntityWithFieldValue(ctx, entityType, field, value)
	if err != nil {
		return err
	}
	host, err := c.entity.EntityLoad(ctx, entityType, id)
	if err != nil {
		return err
	}

	items, _ := host.Fields[paragraphsField].([]any)
	for _, row := range rows {
		pid, err := c.entity.CreateEntity(ctx, "paragraph", fieldsOf(row))
		if err != nil {
			return err
		}
		items = append(items, map[string]any{"target_id": pid})
	}
	host.Set(paragraphsField, items)
	return classify(c.entity.CMS().Save(ctx, host))
}
