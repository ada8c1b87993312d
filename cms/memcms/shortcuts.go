package memcms

import (
	"context"
	"fmt"

	"github.com/CrisisTextLine/stepkit/cms"
)

// CreateNode creates a node. An "author" user name is resolved into uid.
func (s *Store) CreateNode(ctx context.Context, fields map[string]any) (*cms.Entity, error) {
	e := cms.NewEntity("node", copyFields(fields))
	if author, ok := e.Fields["author"]; ok {
		delete(e.Fields, "author")
		users, err := s.LoadByProperties(ctx, "user", cms.Eq("name", author))
		if err != nil {
			return nil, err
		}
		if len(users) > 0 {
			e.Fields["uid"] = []any{map[string]any{"target_id": users[0].ID}}
		}
	}
	if _, ok := e.Fields["status"]; !ok {
		e.Fields["status"] = "1"
	}
	return s.createExpanded(ctx, e)
}

// CreateUser creates a user; name is required.
func (s *Store) CreateUser(ctx context.Context, fields map[string]any) (*cms.Entity, error) {
	e := cms.NewEntity("user", copyFields(fields))
	name := e.String("name")
	if name == "" {
		return nil, fmt.Errorf("%w: users require a name", cms.ErrInvalidField)
	}
	if e.String("mail") == "" {
		e.Fields["mail"] = name + "@example.com"
	}
	return s.createExpanded(ctx, e)
}

// CreateTerm creates a taxonomy term. The vocabulary is taken from
// "vocabulary_machine_name" or "vid".
func (s *Store) CreateTerm(ctx context.Context, fields map[string]any) (*cms.Entity, error) {
	e := cms.NewEntity("taxonomy_term", copyFields(fields))
	if vocabulary, ok := e.Fields["vocabulary_machine_name"]; ok {
		delete(e.Fields, "vocabulary_machine_name")
		e.Fields["vid"] = vocabulary
	}
	if e.String("vid") == "" {
		return nil, fmt.Errorf("%w: terms require a vocabulary", cms.ErrInvalidField)
	}
	return s.createExpanded(ctx, e)
}

// CreateComment creates a comment.
func (s *Store) CreateComment(ctx context.Context, fields map[string]any) (*cms.Entity, error) {
	e := cms.NewEntity("comment", copyFields(fields))
	if e.String("comment_type") == "" {
		e.Fields["comment_type"] = "comment"
	}
	return s.createExpanded(ctx, e)
}

func (s *Store) createExpanded(ctx context.Context, e *cms.Entity) (*cms.Entity, error) {
	if err := s.ParseFields(ctx, e); err != nil {
		return nil, err
	}
	if err := s.ExpandFields(ctx, e); err != nil {
		return nil, err
	}
	return s.Create(ctx, e)
}

func copyFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
