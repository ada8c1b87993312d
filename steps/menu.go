package steps

import (
	"context"

	"github.com/cucumber/godog"

	"github.com/CrisisTextLine/stepkit"
	"github.com/CrisisTextLine/stepkit/cms"
)

const menuLinkType = "menu_link_content"

// MenuContext creates menu links.
type MenuContext struct {
	entity *EntityContext
}

// NewMenuContext creates the context.
func NewMenuContext(entity *EntityContext) *MenuContext {
	return &MenuContext{entity: entity}
}

// MenuDefinition builds the MenuContext.
var MenuDefinition = Definition{
	Name:     "menu",
	Requires: []string{"entity"},
	New: func(env *stepkit.Environment) (Group, error) {
		r := &resolver{env: env}
		entity := resolve[*EntityContext](r, "entity")
		if r.err != nil {
			return nil, r.err
		}
		return NewMenuContext(entity), nil
	},
}

// RegisterSteps implements Group.
func (c *MenuContext) RegisterSteps(sc StepRegistrar) {
	sc.Step(`^"([^"]*)" menu items:$`, c.MenuItems)
}

// MenuItems creates an expanded link in menu for every row. The title and
// uri columns are required; parent names the title of a link already in
// the same menu.
func (c *MenuContext) MenuItems(ctx context.Context, menu string, table *godog.Table) error {
	rows, err := tableHash(table)
	if err != nil {
		return err
	}
	for _, row := range rows {
		item := map[string]any{
			"title":     row["title"],
			"link":      []any{map[string]any{"uri": row["uri"]}},
			"menu_name": menu,
			"expanded":  true,
		}
		if title, ok := row["parent"]; ok && title != "" {
			parent, err := c.parentPluginID(ctx, menu, title)
			if err != nil {
				return err
			}
			if parent != "" {
				item["parent"] = parent
			}
		}
		if _, err := c.entity.CreateEntity(ctx, menuLinkType, item); err != nil {
			return err
		}
	}
	return nil
}

// parentPluginID returns the plugin id of the first link in menu titled
// title, or "" when there is none.
func (c *MenuContext) parentPluginID(ctx context.Context, menu, title string) (string, error) {
	parents, err := c.entity.CMS().LoadByProperties(ctx, menuLinkType, cms.Eq("menu_name", menu), cms.Eq("title", title))
	if err != nil {
		return "", classify(err)
	}
	if len(parents) == 0 {
		return "", nil
	}
	return menuLinkType + ":" + parents[0].UUID, nil
}
