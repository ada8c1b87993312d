package memcms

import (
	"context"
	"encoding/csv"
	"fmt"
	"path"
	"strings"

	"github.com/CrisisTextLine/stepkit/cms"
)

// ParseFields rewrites string values of configurable fields into items:
//
//	"a, b"                   -> ["a", "b"]
//	"x - y"                  -> [["x", "y"]]
//	"uri: /a - title: Home"  -> [{"uri": "/a", "title": "Home"}]
//
// A "field:column" key stores its value under column of each item of field.
func (s *Store) ParseFields(ctx context.Context, e *cms.Entity) error {
	def, err := s.definition(e.Type)
	if err != nil {
		return err
	}

	columns := make(map[string][]any)
	for _, name := range e.FieldNames() {
		raw, ok := e.Fields[name].(string)
		if !ok {
			continue
		}

		field, column, multicolumn := strings.Cut(name, ":")
		if multicolumn && field == "" {
			return fmt.Errorf("%w: field name missing for %s", cms.ErrInvalidField, name)
		}
		if !def.IsField(field) {
			continue
		}

		items, err := splitValues(raw)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", cms.ErrInvalidField, name, err)
		}

		if !multicolumn {
			parsed := make([]any, 0, len(items))
			for _, item := range items {
				parsed = append(parsed, parseColumns(item, true))
			}
			e.Fields[name] = parsed
			continue
		}

		for i, item := range items {
			for len(columns[field]) <= i {
				columns[field] = append(columns[field], map[string]any{})
			}
			columns[field][i].(map[string]any)[column] = parseColumns(item, false)
		}
		delete(e.Fields, name)
	}

	for field, items := range columns {
		e.Fields[field] = items
	}
	return nil
}

func splitValues(raw string) ([]string, error) {
	if raw == "" {
		return []string{""}, nil
	}
	r := csv.NewReader(strings.NewReader(raw))
	r.TrimLeadingSpace = true
	r.LazyQuotes = true
	record, err := r.Read()
	if err != nil {
		return nil, err
	}
	for i := range record {
		record[i] = strings.TrimSpace(record[i])
	}
	return record, nil
}

func parseColumns(value string, named bool) any {
	if !strings.Contains(value, " - ") {
		return value
	}
	parts := strings.Split(value, " - ")
	if named && strings.Contains(parts[0], ": ") {
		columns := make(map[string]any, len(parts))
		for _, part := range parts {
			key, v, ok := strings.Cut(part, ": ")
			if !ok {
				continue
			}
			columns[key] = v
		}
		return columns
	}
	positional := make([]any, len(parts))
	for i, p := range parts {
		positional[i] = p
	}
	return positional
}

// ExpandFields resolves reference labels to {"target_id": id} and file
// names or URIs to {"target_id": fid}.
func (s *Store) ExpandFields(ctx context.Context, e *cms.Entity) error {
	def, err := s.definition(e.Type)
	if err != nil {
		return err
	}
	for _, name := range e.FieldNames() {
		if !def.IsField(name) {
			continue
		}
		field := def.Field(name)
		if field.Kind != cms.FieldReference && field.Kind != cms.FieldFile {
			continue
		}

		items, ok := e.Fields[name].([]any)
		if !ok {
			items = []any{e.Fields[name]}
		}
		expanded := make([]any, 0, len(items))
		for _, item := range items {
			if m, ok := item.(map[string]any); ok {
				if _, resolved := m["target_id"]; resolved {
					expanded = append(expanded, m)
					continue
				}
			}
			values := cms.Values(item)
			if len(values) == 0 {
				continue
			}
			label := fmt.Sprint(values[0])
			if label == "" {
				continue
			}

			var id string
			if field.Kind == cms.FieldFile {
				id, err = s.resolveFile(ctx, label)
			} else {
				id, err = s.resolveReference(ctx, field.Target, label)
			}
			if err != nil {
				return fmt.Errorf("expand %s.%s: %w", e.Type, name, err)
			}
			expanded = append(expanded, map[string]any{"target_id": id})
		}
		e.Fields[name] = expanded
	}
	return nil
}

// resolveReference finds the target by label, falling back to its id.
func (s *Store) resolveReference(ctx context.Context, target, label string) (string, error) {
	def, err := s.definition(target)
	if err != nil {
		return "", err
	}
	if def.Keys.Label != "" {
		ids, err := s.Query(ctx, target, cms.Eq(def.Keys.Label, label))
		if err != nil {
			return "", err
		}
		if len(ids) > 0 {
			return ids[0], nil
		}
	}
	if _, err := s.Load(ctx, target, label); err == nil {
		return label, nil
	}
	return "", fmt.Errorf("%w: no entity '%s' of type '%s' exists", cms.ErrReferenceNotFound, label, target)
}

func (s *Store) resolveFile(ctx context.Context, ref string) (string, error) {
	files, err := s.LoadByProperties(ctx, "file", cms.Eq("uri", ref))
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		files, err = s.LoadByProperties(ctx, "file", cms.Eq("filename", path.Base(ref)))
		if err != nil {
			return "", err
		}
	}
	if len(files) == 0 {
		return "", fmt.Errorf("%w: %s", cms.ErrFileNotFound, ref)
	}
	return files[0].ID, nil
}
