package cms

import "context"

// ModuleHandler reports the installed modules.
type ModuleHandler interface {
	ModuleExists(name string) bool
}

// EntityStorage persists and queries entities.
type EntityStorage interface {
	// Definition returns the entity type definition, false for unknown types.
	Definition(entityType string) (EntityType, bool)
	// Query returns the ids of matching entities in creation order.
	Query(ctx context.Context, entityType string, conditions ...Condition) ([]string, error)
	Load(ctx context.Context, entityType, id string) (*Entity, error)
	LoadByProperties(ctx context.Context, entityType string, conditions ...Condition) ([]*Entity, error)
	// Create saves a new entity, assigning its id and uuid when unset.
	Create(ctx context.Context, e *Entity) (*Entity, error)
	Save(ctx context.Context, e *Entity) error
	Delete(ctx context.Context, entityType, id string) error
}

// FieldExpander converts table shorthand into storable field values.
type FieldExpander interface {
	// ParseFields splits multi-value ("a, b") and compound ("key: v - key2: w")
	// shorthand of configurable fields.
	ParseFields(ctx context.Context, e *Entity) error
	// ExpandFields replaces reference labels and file names with target ids.
	ExpandFields(ctx context.Context, e *Entity) error
}

// Shortcuts are the type-specific creation paths for well-known types.
type Shortcuts interface {
	CreateNode(ctx context.Context, fields map[string]any) (*Entity, error)
	CreateUser(ctx context.Context, fields map[string]any) (*Entity, error)
	CreateTerm(ctx context.Context, fields map[string]any) (*Entity, error)
	CreateComment(ctx context.Context, fields map[string]any) (*Entity, error)
}

// FileManager stores managed files.
type FileManager interface {
	// SaveFile writes data to destURI, replacing an existing file.
	SaveFile(ctx context.Context, data []byte, destURI string) (*Entity, error)
	LoadFileByURI(ctx context.Context, uri string) (*Entity, error)
	FileData(ctx context.Context, uri string) ([]byte, error)
}

// SearchIndexer maintains the search index.
type SearchIndexer interface {
	// IndexAll indexes every indexable entity and returns how many were indexed.
	IndexAll(ctx context.Context) (int, error)
	Search(ctx context.Context, keywords string) ([]*Entity, error)
}

// QueueManager manipulates ordered entity queues.
type QueueManager interface {
	QueueItems(ctx context.Context, queue string) ([]string, error)
	SetQueueItems(ctx context.Context, queue string, items []string) error
}

// Facade is the full CMS surface consumed by the step groups.
type Facade interface {
	ModuleHandler
	EntityStorage
	FieldExpander
	Shortcuts
	FileManager
	SearchIndexer
	QueueManager
}
