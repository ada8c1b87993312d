package memcms

import "github.com/CrisisTextLine/stepkit/cms"

// DefaultEntityTypes are the entity types every Store starts with.
func DefaultEntityTypes() []cms.EntityType {
	return []cms.EntityType{
		{
			ID:        "node",
			Keys:      cms.EntityKeys{ID: "nid", UUID: "uuid", Bundle: "type", Label: "title"},
			Fieldable: true,
			Fields: map[string]cms.FieldDefinition{
				"uid":              {Kind: cms.FieldReference, Target: "user"},
				"body":             {Kind: cms.FieldText},
				"field_tags":       {Kind: cms.FieldReference, Target: "taxonomy_term"},
				"field_image":      {Kind: cms.FieldFile},
				"field_paragraphs": {Kind: cms.FieldReference, Target: "paragraph"},
				"field_date":       {Kind: cms.FieldDatetime},
			},
		},
		{
			ID:        "user",
			Keys:      cms.EntityKeys{ID: "uid", UUID: "uuid", Label: "name"},
			Fieldable: true,
		},
		{
			ID:        "taxonomy_term",
			Keys:      cms.EntityKeys{ID: "tid", UUID: "uuid", Bundle: "vid", Label: "name"},
			Fieldable: true,
			Fields: map[string]cms.FieldDefinition{
				"parent": {Kind: cms.FieldReference, Target: "taxonomy_term"},
			},
		},
		{
			ID:        "comment",
			Keys:      cms.EntityKeys{ID: "cid", UUID: "uuid", Bundle: "comment_type", Label: "subject"},
			Fieldable: true,
			Fields: map[string]cms.FieldDefinition{
				"comment_body": {Kind: cms.FieldText},
			},
		},
		{
			ID:        "media",
			Keys:      cms.EntityKeys{ID: "mid", UUID: "uuid", Bundle: "bundle", Label: "name"},
			Fieldable: true,
			Fields: map[string]cms.FieldDefinition{
				"field_media_image": {Kind: cms.FieldFile},
			},
		},
		{
			ID:        "menu_link_content",
			Keys:      cms.EntityKeys{ID: "id", UUID: "uuid", Bundle: "bundle", Label: "title"},
			Fieldable: true,
			Fields: map[string]cms.FieldDefinition{
				"link": {Kind: cms.FieldLink},
			},
		},
		{
			ID:        "paragraph",
			Keys:      cms.EntityKeys{ID: "id", UUID: "uuid", Bundle: "type"},
			Fieldable: true,
		},
		{
			ID:        "profile",
			Keys:      cms.EntityKeys{ID: "profile_id", UUID: "uuid", Bundle: "type"},
			Fieldable: true,
			Fields: map[string]cms.FieldDefinition{
				"uid": {Kind: cms.FieldReference, Target: "user"},
			},
		},
		{
			ID:   "file",
			Keys: cms.EntityKeys{ID: "fid", UUID: "uuid", Label: "filename"},
		},
		{
			ID:        "entity_subqueue",
			Keys:      cms.EntityKeys{ID: "name", UUID: "uuid", Bundle: "queue", Label: "title"},
			Fieldable: true,
			Fields: map[string]cms.FieldDefinition{
				"items": {Kind: cms.FieldReference, Target: "node"},
			},
		},
		{
			ID:   "config_entity",
			Keys: cms.EntityKeys{ID: "id", UUID: "uuid", Label: "label"},
		},
	}
}

// DefaultModules are the modules reported as installed unless WithModules
// replaces them.
var DefaultModules = []string{"node", "user", "taxonomy", "comment", "file", "media", "menu_link_content", "paragraphs", "profile", "entityqueue", "search_api"}
