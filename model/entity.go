// Package model describes entity types, their relations and the instances hydrated
// from result rows.
package model

import (
	"fmt"
	"sort"
	"sync"
)

// FieldType is the typed slot a column hydrates into.
type FieldType int

const (
	// Any keeps the driver value, with []byte turned into string.
	Any FieldType = iota
	// Int hydrates into int64.
	Int
	// Float hydrates into float64.
	Float
	// String hydrates into string.
	String
	// Bool hydrates into bool.
	Bool
	// Time hydrates into time.Time.
	Time
	// Bytes hydrates into []byte.
	Bytes
)

// String returns the type name.
func (t FieldType) String() string {
	switch t {
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	case Bool:
		return "bool"
	case Time:
		return "time"
	case Bytes:
		return "bytes"
	default:
		return "any"
	}
}

// ParseFieldType maps a config name to a FieldType.
func ParseFieldType(name string) (FieldType, error) {
	switch name {
	case "", "any":
		return Any, nil
	case "int", "integer", "bigint":
		return Int, nil
	case "float", "double", "decimal":
		return Float, nil
	case "string", "text", "varchar":
		return String, nil
	case "bool", "boolean":
		return Bool, nil
	case "time", "datetime", "timestamp", "date":
		return Time, nil
	case "bytes", "blob":
		return Bytes, nil
	}
	return Any, fmt.Errorf("unknown field type %q", name)
}

// Field declares one column of an entity.
type Field struct {
	Name string
	Type FieldType
}

// Entity is the immutable descriptor of a model type.
type Entity struct {
	name            string
	table           string
	primaryKey      string
	fields          []Field
	index           map[string]int
	relations       map[string]Relation
	allowUndeclared bool
}

// EntityOption configures an entity while it is being defined.
type EntityOption func(*Entity) error

// PrimaryKey sets the primary-key column. Defaults to "id".
func PrimaryKey(column string) EntityOption {
	return func(e *Entity) error {
		if column == "" {
			return fmt.Errorf("entity %s: empty primary key", e.name)
		}
		e.primaryKey = column
		return nil
	}
}

// Fields declares the typed columns of the entity.
func Fields(fields ...Field) EntityOption {
	return func(e *Entity) error {
		for _, f := range fields {
			if f.Name == "" {
				return fmt.Errorf("entity %s: empty field name", e.name)
			}
			if _, dup := e.index[f.Name]; dup {
				return fmt.Errorf("entity %s: duplicate field %s", e.name, f.Name)
			}
			e.index[f.Name] = len(e.fields)
			e.fields = append(e.fields, f)
		}
		return nil
	}
}

// AllowUndeclared keeps columns that are not declared as untyped values instead
// of failing hydration.
func AllowUndeclared() EntityOption {
	return func(e *Entity) error {
		e.allowUndeclared = true
		return nil
	}
}

// Name returns the entity name.
func (e *Entity) Name() string { return e.name }

// Table returns the table name without the connection prefix.
func (e *Entity) Table() string { return e.table }

// PrimaryKey returns the primary-key column.
func (e *Entity) PrimaryKey() string { return e.primaryKey }

// Fields returns a copy of the declared fields.
func (e *Entity) Fields() []Field {
	out := make([]Field, len(e.fields))
	copy(out, e.fields)
	return out
}

// Field looks up a declared field.
func (e *Entity) Field(name string) (Field, bool) {
	i, ok := e.index[name]
	if !ok {
		return Field{}, false
	}
	return e.fields[i], true
}

// Dynamic reports whether undeclared columns hydrate as untyped values.
func (e *Entity) Dynamic() bool {
	return e.allowUndeclared || len(e.fields) == 0
}

// Relation looks up a relation descriptor by name.
func (e *Entity) Relation(name string) (Relation, bool) {
	r, ok := e.relations[name]
	return r, ok
}

// RelationNames returns the relation names in sorted order.
func (e *Entity) RelationNames() []string {
	names := make([]string, 0, len(e.relations))
	for n := range e.relations {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Registry holds every defined entity and resolves relation targets by name.
type Registry struct {
	mu       sync.RWMutex
	entities map[string]*Entity
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entities: make(map[string]*Entity)}
}

// Define builds an entity and registers it under name.
func (r *Registry) Define(name, table string, opts ...EntityOption) (*Entity, error) {
	if name == "" {
		return nil, fmt.Errorf("entity name is required")
	}
	if table == "" {
		return nil, fmt.Errorf("entity %s: table is required", name)
	}

	e := &Entity{
		name:       name,
		table:      table,
		primaryKey: "id",
		index:      make(map[string]int),
		relations:  make(map[string]Relation),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	for relName := range e.relations {
		if _, clash := e.index[relName]; clash {
			return nil, fmt.Errorf("entity %s: relation %s shadows a field", name, relName)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entities[name]; exists {
		return nil, fmt.Errorf("entity %s already defined", name)
	}
	r.entities[name] = e
	return e, nil
}

// MustDefine is like Define but panics on error. Intended for package-level model
// declarations.
func (r *Registry) MustDefine(name, table string, opts ...EntityOption) *Entity {
	e, err := r.Define(name, table, opts...)
	if err != nil {
		panic(err)
	}
	return e
}

// Entity returns the entity registered under name.
func (r *Registry) Entity(name string) (*Entity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entities[name]
	return e, ok
}

// Names returns the registered entity names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entities))
	for n := range r.entities {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Validate checks that every relation points at a registered entity and that
// declared key columns exist.
func (r *Registry) Validate() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range sortedKeys(r.entities) {
		e := r.entities[name]
		for _, relName := range e.RelationNames() {
			rel := e.relations[relName]
			related, ok := r.entities[rel.Related]
			if !ok {
				return fmt.Errorf("entity %s: relation %s: unknown entity %s", e.name, relName, rel.Related)
			}
			if !e.Dynamic() {
				if _, ok := e.index[rel.LocalKey]; !ok {
					return fmt.Errorf("entity %s: relation %s: local key %s is not a field", e.name, relName, rel.LocalKey)
				}
			}
			if rel.Kind != BelongsToMany && !related.Dynamic() {
				if _, ok := related.index[rel.ForeignKey]; !ok {
					return fmt.Errorf("entity %s: relation %s: foreign key %s is not a field of %s", e.name, relName, rel.ForeignKey, related.name)
				}
			}
		}
	}
	return nil
}

func sortedKeys(m map[string]*Entity) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
