package memcms

import (
	"context"
	"fmt"
	"strings"

	"github.com/CrisisTextLine/stepkit/cms"
)

// indexedTypes are the entity types the search index covers.
var indexedTypes = []string{"node", "taxonomy_term", "media"}

// IndexAll rebuilds the search index from the stored entities.
func (s *Store) IndexAll(ctx context.Context) (int, error) {
	var docs []*searchDoc
	for _, entityType := range indexedTypes {
		def, ok := s.types[entityType]
		if !ok {
			continue
		}
		entities, err := s.LoadByProperties(ctx, entityType)
		if err != nil {
			return 0, err
		}
		for _, e := range entities {
			docs = append(docs, &searchDoc{
				Key:  entityType + ":" + e.ID,
				Type: entityType,
				ID:   e.ID,
				Text: strings.ToLower(indexText(def, e)),
			})
		}
	}

	txn := s.db.Txn(true)
	defer txn.Abort()
	if _, err := txn.DeleteAll(tableSearch, "id"); err != nil {
		return 0, fmt.Errorf("clear search index: %w", err)
	}
	for _, doc := range docs {
		if err := txn.Insert(tableSearch, doc); err != nil {
			return 0, fmt.Errorf("index %s: %w", doc.Key, err)
		}
	}
	txn.Commit()
	s.logger.Debug("Search index rebuilt", "documents", len(docs))
	return len(docs), nil
}

// Search returns the indexed entities containing every keyword.
func (s *Store) Search(ctx context.Context, keywords string) ([]*cms.Entity, error) {
	words := strings.Fields(strings.ToLower(keywords))

	txn := s.db.Txn(false)
	it, err := txn.Get(tableSearch, "id")
	if err != nil {
		txn.Abort()
		return nil, fmt.Errorf("search: %w", err)
	}
	var hits []*searchDoc
	for raw := it.Next(); raw != nil; raw = it.Next() {
		doc := raw.(*searchDoc)
		if containsAll(doc.Text, words) {
			hits = append(hits, doc)
		}
	}
	txn.Abort()

	out := make([]*cms.Entity, 0, len(hits))
	for _, doc := range hits {
		e, err := s.Load(ctx, doc.Type, doc.ID)
		if err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func indexText(def cms.EntityType, e *cms.Entity) string {
	var parts []string
	if def.Keys.Label != "" {
		parts = append(parts, e.String(def.Keys.Label))
	}
	for _, name := range e.FieldNames() {
		if field := def.Field(name); def.IsField(name) && (field.Kind == cms.FieldText || field.Kind == cms.FieldString) {
			for _, v := range cms.Values(e.Fields[name]) {
				parts = append(parts, fmt.Sprint(v))
			}
		}
	}
	return strings.Join(parts, " ")
}

func containsAll(text string, words []string) bool {
	for _, w := range words {
		if !strings.Contains(text, w) {
			return false
		}
	}
	return true
}
