package steps

import (
	"context"
	"errors"

	"github.com/CrisisTextLine/stepkit"
	"github.com/CrisisTextLine/stepkit/cms"
)

// EntityQueueContext fills and empties entity queues.
type EntityQueueContext struct {
	entity *EntityContext
	cms    cms.Facade
}

// NewEntityQueueContext creates the context.
func NewEntityQueueContext(entity *EntityContext, facade cms.Facade) *EntityQueueContext {
	return &EntityQueueContext{entity: entity, cms: facade}
}

// EntityQueueDefinition builds the EntityQueueContext.
var EntityQueueDefinition = Definition{
	Name:     "entityqueue",
	Requires: []string{"entity", ServiceCMS},
	New: func(env *stepkit.Environment) (Group, error) {
		r := &resolver{env: env}
		entity := resolve[*EntityContext](r, "entity")
		facade := resolve[cms.Facade](r, ServiceCMS)
		if r.err != nil {
			return nil, r.err
		}
		return NewEntityQueueContext(entity, facade), nil
	},
}

// RegisterSteps implements Group.
func (c *EntityQueueContext) RegisterSteps(sc StepRegistrar) {
	sc.Step(`^"([^"]*)" is added to the "([^"]*)" queue$`, c.IsAddedToTheQueue)
	sc.Step(`^the "([^"]*)" queue is empty$`, c.TheQueueIsEmpty)
}

// BeforeFeature requires the entityqueue module.
func (c *EntityQueueContext) BeforeFeature(_ context.Context, _ string) error {
	if !c.cms.ModuleExists("entityqueue") {
		return stepkit.Errorf(stepkit.ErrPrecondition, "EntityQueueContext does not work without the entity queue module")
	}
	return nil
}

// IsAddedToTheQueue appends the node titled title to queue.
func (c *EntityQueueContext) IsAddedToTheQueue(ctx context.Context, title, queue string) error {
	nid, err := c.entity.FindEntityWithFieldValue(ctx, "node", "title", title)
	if err != nil {
		return err
	}
	items, err := c.cms.QueueItems(ctx, queue)
	if err != nil {
		return queueError(queue, err)
	}
	return queueError(queue, c.cms.SetQueueItems(ctx, queue, append(items, nid)))
}

// TheQueueIsEmpty removes every item from queue.
func (c *EntityQueueContext) TheQueueIsEmpty(ctx context.Context, queue string) error {
	return queueError(queue, c.cms.SetQueueItems(ctx, queue, nil))
}

func queueError(queue string, err error) error {
	if errors.Is(err, cms.ErrQueueNotFound) {
		return stepkit.Errorf(stepkit.ErrNotFound, "Unknown queue: %s", queue)
	}
	return classify(err)
}
