package model

import (
	"sort"
	"time"

	"github.com/spf13/cast"
)

// Related is the resolved result of one relation on one instance.
type Related struct {
	Kind RelationKind
	One  *Instance
	Many []*Instance
}

// Empty reports whether the relation resolved to nothing.
func (r Related) Empty() bool {
	return r.One == nil && len(r.Many) == 0
}

// Instance is a hydrated row of an entity.
type Instance struct {
	entity    *Entity
	columns   []string
	values    map[string]any
	relations map[string]Related
}

// NewInstance creates an empty instance of e.
func NewInstance(e *Entity) *Instance {
	return &Instance{
		entity:    e,
		values:    make(map[string]any),
		relations: make(map[string]Related),
	}
}

// Entity returns the entity the instance belongs to.
func (m *Instance) Entity() *Entity { return m.entity }

// Set stores a column value.
func (m *Instance) Set(column string, value any) {
	if _, ok := m.values[column]; !ok {
		m.columns = append(m.columns, column)
	}
	m.values[column] = value
}

// Get returns a column value and whether the column is present.
func (m *Instance) Get(column string) (any, bool) {
	v, ok := m.values[column]
	return v, ok
}

// Value returns a column value or nil.
func (m *Instance) Value(column string) any {
	return m.values[column]
}

// Key returns the primary-key value.
func (m *Instance) Key() any {
	return m.values[m.entity.primaryKey]
}

// Columns returns the column names in hydration order.
func (m *Instance) Columns() []string {
	out := make([]string, len(m.columns))
	copy(out, m.columns)
	return out
}

// Map returns a copy of the column values.
func (m *Instance) Map() map[string]any {
	out := make(map[string]any, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

// String returns the column as a string, empty when absent or NULL.
func (m *Instance) String(column string) string {
	return cast.ToString(m.values[column])
}

// Int64 returns the column as an int64, zero when absent or not numeric.
func (m *Instance) Int64(column string) int64 {
	return cast.ToInt64(m.values[column])
}

// Float64 returns the column as a float64.
func (m *Instance) Float64(column string) float64 {
	return cast.ToFloat64(m.values[column])
}

// Bool returns the column as a bool.
func (m *Instance) Bool(column string) bool {
	return cast.ToBool(m.values[column])
}

// Time returns the column as a time.Time.
func (m *Instance) Time(column string) time.Time {
	return cast.ToTime(m.values[column])
}

// Attach stores the resolved result of a relation, replacing any previous one.
func (m *Instance) Attach(name string, r Related) {
	m.relations[name] = r
}

// Loaded reports whether a relation has been resolved on this instance.
func (m *Instance) Loaded(name string) bool {
	_, ok := m.relations[name]
	return ok
}

// LoadedRelations returns the names of resolved relations in sorted order.
func (m *Instance) LoadedRelations() []string {
	names := make([]string, 0, len(m.relations))
	for n := range m.relations {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Relation returns the resolved relation result.
func (m *Instance) Relation(name string) (Related, bool) {
	r, ok := m.relations[name]
	return r, ok
}

// One returns the instance resolved for a to-one relation.
func (m *Instance) One(name string) *Instance {
	return m.relations[name].One
}

// Many returns the instances resolved for a to-many relation.
func (m *Instance) Many(name string) []*Instance {
	return m.relations[name].Many
}
