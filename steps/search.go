package steps

import (
	"context"

	"github.com/CrisisTextLine/stepkit"
	"github.com/CrisisTextLine/stepkit/cms"
)

const searchModule = "search_api"

// SearchContext drives the search index.
type SearchContext struct {
	cms    cms.Facade
	logger stepkit.Logger
}

// NewSearchContext creates the context.
func NewSearchContext(facade cms.Facade, logger stepkit.Logger) *SearchContext {
	return &SearchContext{cms: facade, logger: stepkit.OrNop(logger)}
}

// SearchDefinition builds the SearchContext.
var SearchDefinition = Definition{
	Name:     "search",
	Requires: []string{ServiceCMS},
	New: func(env *stepkit.Environment) (Group, error) {
		r := &resolver{env: env}
		facade := resolve[cms.Facade](r, ServiceCMS)
		if r.err != nil {
			return nil, r.err
		}
		return NewSearchContext(facade, logger(env)), nil
	},
}

// RegisterSteps implements Group.
func (c *SearchContext) RegisterSteps(sc StepRegistrar) {
	sc.Step(`^all content has been indexed$`, c.AllContentIsIndexed)
}

// BeforeFeature requires the search module.
func (c *SearchContext) BeforeFeature(_ context.Context, _ string) error {
	return c.requireSearch()
}

func (c *SearchContext) requireSearch() error {
	if !c.cms.ModuleExists(searchModule) {
		return stepkit.Errorf(stepkit.ErrPrecondition, "Search api must be enabled to be able to index items")
	}
	return nil
}

// AllContentIsIndexed indexes every indexable entity.
func (c *SearchContext) AllContentIsIndexed(ctx context.Context) error {
	if err := c.requireSearch(); err != nil {
		return err
	}
	indexed, err := c.cms.IndexAll(ctx)
	if err != nil {
		return err
	}
	c.logger.Debug("Search index rebuilt", "items", indexed)
	return nil
}
