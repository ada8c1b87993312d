package steps

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"github.com/CrisisTextLine/stepkit"
	"github.com/CrisisTextLine/stepkit/cms"
)

// NodeContext creates, changes and navigates to content.
type NodeContext struct {
	mink   *MinkContext
	entity *EntityContext
	now    func() time.Time
}

// NewNodeContext creates the context.
func NewNodeContext(mink *MinkContext, entity *EntityContext) *NodeContext {
	return &NodeContext{mink: mink, entity: entity, now: time.Now}
}

// NodeDefinition builds the NodeContext.
var NodeDefinition = Definition{
	Name:     "node",
	Requires: []string{"mink", "entity"},
	New: func(env *stepkit.Environment) (Group, error) {
		r := &resolver{env: env}
		mink := resolve[*MinkContext](r, "mink")
		entity := resolve[*EntityContext](r, "entity")
		if r.err != nil {
			return nil, r.err
		}
		return NewNodeContext(mink, entity), nil
	},
}

// RegisterSteps implements Group.
func (c *NodeContext) RegisterSteps(sc StepRegistrar) {
	sc.Step(`^the title of node "([^"]*)" has been changed to "([^"]*)"$`, c.theTitleOfNodeHasBeenChangedTo)
	sc.Step(`^I am viewing "([^"]*)"$`, c.iAmViewing)
	sc.Step(`^"([^"]*)" content:$`, c.content)
	sc.Step(`^"([^"]*)" content with relative date:$`, c.contentWithRelativeDate)
	sc.Step(`^(\d+) "([^"]*)" content with relative date:$`, c.multipleContentWithRelativeDate)
	sc.Step(`^I edit content "([^"]*)"$`, c.iEditContent)
}

// LoadNodeByTitle loads the only node titled title.
func (c *NodeContext) LoadNodeByTitle(ctx context.Context, title string) (*cms.Entity, error) {
	nid, err := c.entity.FindEntityWithFieldValue(ctx, "node", "title", title)
	if err != nil {
		return nil, err
	}
	node, err := c.entity.EntityLoad(ctx, "node", nid)
	if err != nil {
		return nil, stepkit.Errorf(stepkit.ErrNotFound, "%s could not be loaded: %w", title, err)
	}
	return node, nil
}

// CreateNode creates a node from table values. A title is required.
func (c *NodeContext) CreateNode(ctx context.Context, fields map[string]any) (*cms.Entity, error) {
	title, ok := fields["title"]
	if !ok {
		return nil, stepkit.Errorf(stepkit.ErrPrecondition, "Nodes require a title")
	}
	nid, err := c.entity.CreateEntity(ctx, "node", fields)
	if err != nil {
		return nil, err
	}
	node, err := c.entity.EntityLoad(ctx, "node", nid)
	if err != nil {
		return nil, stepkit.Errorf(stepkit.ErrNotFound, "%v could not be created: %w", title, err)
	}
	return node, nil
}

func (c *NodeContext) theTitleOfNodeHasBeenChangedTo(ctx context.Context, original, title string) error {
	node, err := c.LoadNodeByTitle(ctx, original)
	if err != nil {
		return err
	}
	node.Set("title", title)
	return c.entity.CMS().Save(ctx, node)
}

func (c *NodeContext) iAmViewing(ctx context.Context, title string) error {
	nid, err := c.entity.FindEntityWithFieldValue(ctx, "node", "title", title)
	if err != nil {
		return err
	}
	return c.mink.Visit(ctx, "/node/"+nid)
}

func (c *NodeContext) iEditContent(ctx context.Context, title string) error {
	node, err := c.LoadNodeByTitle(ctx, title)
	if err != nil {
		return err
	}
	return c.mink.Visit(ctx, "/node/"+node.ID+"/edit")
}

func (c *NodeContext) content(ctx context.Context, contentType string, table *godog.Table) error {
	rows, err := tableHash(table)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if err := c.createTyped(ctx, contentType, row); err != nil {
			return err
		}
	}
	return nil
}

func (c *NodeContext) contentWithRelativeDate(ctx context.Context, contentType string, table *godog.Table) error {
	rows, err := tableHash(table)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if err := c.createTyped(ctx, contentType, upcastDates(row, c.now())); err != nil {
			return err
		}
	}
	return nil
}

// multipleContentWithRelativeDate creates amount nodes per row, replacing
// %n in every value with the node's ordinal.
func (c *NodeContext) multipleContentWithRelativeDate(ctx context.Context, amount int, contentType string, table *godog.Table) error {
	rows, err := tableHash(table)
	if err != nil {
		return err
	}
	for _, row := range rows {
		for i := 1; i <= amount; i++ {
			current := make(map[string]string, len(row))
			for key, value := range row {
				current[key] = strings.ReplaceAll(value, "%n", strconv.Itoa(i))
			}
			if err := c.createTyped(ctx, contentType, upcastDates(current, c.now())); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *NodeContext) createTyped(ctx context.Context, contentType string, row map[string]string) error {
	fields := fieldsOf(row)
	fields["type"] = contentType
	_, err := c.CreateNode(ctx, fields)
	return err
}
