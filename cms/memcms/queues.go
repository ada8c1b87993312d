package memcms

import (
	"context"
	"errors"
	"fmt"

	"github.com/CrisisTextLine/stepkit/cms"
)

const queueType = "entity_subqueue"

func (s *Store) createQueue(name string) error {
	_, err := s.Create(context.Background(), &cms.Entity{
		Type: queueType,
		ID:   name,
		Fields: map[string]any{
			"queue": name,
			"title": name,
			"items": []any{},
		},
	})
	if err != nil {
		return fmt.Errorf("create queue %s: %w", name, err)
	}
	return nil
}

// QueueItems returns the ids of the queued entities in queue order.
func (s *Store) QueueItems(ctx context.Context, queue string) ([]string, error) {
	q, err := s.loadQueue(ctx, queue)
	if err != nil {
		return nil, err
	}
	var items []string
	for _, v := range cms.Values(q.Fields["items"]) {
		items = append(items, fmt.Sprint(v))
	}
	return items, nil
}

// SetQueueItems replaces the queued entity ids.
func (s *Store) SetQueueItems(ctx context.Context, queue string, items []string) error {
	q, err := s.loadQueue(ctx, queue)
	if err != nil {
		return err
	}
	values := make([]any, len(items))
	for i, id := range items {
		values[i] = map[string]any{"target_id": id}
	}
	q.Fields["items"] = values
	return s.Save(ctx, q)
}

func (s *Store) loadQueue(ctx context.Context, queue string) (*cms.Entity, error) {
	q, err := s.Load(ctx, queueType, queue)
	if errors.Is(err, cms.ErrEntityNotFound) {
		return nil, fmt.Errorf("%w: %s", cms.ErrQueueNotFound, queue)
	}
	return q, err
}
