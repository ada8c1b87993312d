// Package memcms is an in-memory CMS backend on go-memdb. It keeps one table
// per entity type, indexed by id, uuid and creation order, plus tables for
// modules, file contents and the search index.
package memcms

import (
	"fmt"
	"sync"

	"github.com/hashicorp/go-memdb"

	"github.com/CrisisTextLine/stepkit"
	"github.com/CrisisTextLine/stepkit/cms"
)

const (
	tableModules = "modules"
	tableBlobs   = "file_data"
	tableSearch  = "search_index"
)

// record is the stored form of an entity.
type record struct {
	ID     string
	UUID   string
	Seq    uint64
	Entity *cms.Entity
}

type module struct {
	Name string
}

type blob struct {
	URI  string
	Data []byte
}

type searchDoc struct {
	Key  string
	Type string
	ID   string
	Text string
}

// Store implements cms.Facade in memory.
type Store struct {
	db     *memdb.MemDB
	types  map[string]cms.EntityType
	logger stepkit.Logger

	mu  sync.Mutex
	seq map[string]uint64
}

// Option configures a Store.
type Option func(*options)

type options struct {
	types   []cms.EntityType
	modules []string
	queues  []string
	logger  stepkit.Logger
}

// WithEntityType adds or replaces an entity type definition.
func WithEntityType(t cms.EntityType) Option {
	return func(o *options) {
		for i, existing := range o.types {
			if existing.ID == t.ID {
				o.types[i] = t
				return
			}
		}
		o.types = append(o.types, t)
	}
}

// WithModules replaces the installed modules.
func WithModules(names ...string) Option {
	return func(o *options) {
		o.modules = append([]string(nil), names...)
	}
}

// WithQueues creates empty entity queues with the given machine names.
func WithQueues(names ...string) Option {
	return func(o *options) {
		o.queues = append(o.queues, names...)
	}
}

// WithLogger sets the logger.
func WithLogger(logger stepkit.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New creates a Store with the default entity types and modules.
func New(opts ...Option) (*Store, error) {
	o := &options{types: DefaultEntityTypes(), modules: DefaultModules}
	for _, opt := range opts {
		opt(o)
	}

	schema := &memdb.DBSchema{Tables: map[string]*memdb.TableSchema{
		tableModules: {
			Name: tableModules,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {Name: "id", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "Name"}},
			},
		},
		tableBlobs: {
			Name: tableBlobs,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {Name: "id", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "URI"}},
			},
		},
		tableSearch: {
			Name: tableSearch,
			Indexes: map[string]*memdb.IndexSchema{
				"id":   {Name: "id", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "Key"}},
				"type": {Name: "type", Indexer: &memdb.StringFieldIndex{Field: "Type"}},
			},
		},
	}}

	types := make(map[string]cms.EntityType, len(o.types))
	for _, t := range o.types {
		types[t.ID] = t
		schema.Tables[entityTable(t.ID)] = &memdb.TableSchema{
			Name: entityTable(t.ID),
			Indexes: map[string]*memdb.IndexSchema{
				"id":   {Name: "id", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "ID"}},
				"uuid": {Name: "uuid", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "UUID"}},
				"seq":  {Name: "seq", Unique: true, Indexer: &memdb.UintFieldIndex{Field: "Seq"}},
			},
		}
	}

	db, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, fmt.Errorf("create memdb: %w", err)
	}

	s := &Store{db: db, types: types, logger: stepkit.OrNop(o.logger), seq: make(map[string]uint64)}

	txn := db.Txn(true)
	for _, name := range o.modules {
		if err := txn.Insert(tableModules, &module{Name: name}); err != nil {
			txn.Abort()
			return nil, fmt.Errorf("install module %s: %w", name, err)
		}
	}
	txn.Commit()

	for _, queue := range o.queues {
		if err := s.createQueue(queue); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func entityTable(entityType string) string {
	return "entity_" + entityType
}

// ModuleExists reports whether the module is installed.
func (s *Store) ModuleExists(name string) bool {
	txn := s.db.Txn(false)
	defer txn.Abort()
	raw, err := txn.First(tableModules, "id", name)
	return err == nil && raw != nil
}

// InstallModule marks name as installed.
func (s *Store) InstallModule(name string) error {
	txn := s.db.Txn(true)
	if err := txn.Insert(tableModules, &module{Name: name}); err != nil {
		txn.Abort()
		return fmt.Errorf("install module %s: %w", name, err)
	}
	txn.Commit()
	return nil
}

// UninstallModule removes name from the installed modules.
func (s *Store) UninstallModule(name string) error {
	txn := s.db.Txn(true)
	if _, err := txn.DeleteAll(tableModules, "id", name); err != nil {
		txn.Abort()
		return fmt.Errorf("uninstall module %s: %w", name, err)
	}
	txn.Commit()
	return nil
}

// Modules returns the installed modules in name order.
func (s *Store) Modules() []string {
	txn := s.db.Txn(false)
	defer txn.Abort()
	it, err := txn.Get(tableModules, "id")
	if err != nil {
		return nil
	}
	var names []string
	for raw := it.Next(); raw != nil; raw = it.Next() {
		names = append(names, raw.(*module).Name)
	}
	return names
}

var _ cms.Facade = (*Store)(nil)
