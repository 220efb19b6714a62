package model

import "fmt"

// RelationKind identifies how two entities are associated.
type RelationKind string

const (
	// HasOne resolves to at most one related instance.
	HasOne RelationKind = "hasOne"
	// HasMany resolves to every related instance holding the foreign key.
	HasMany RelationKind = "hasMany"
	// BelongsToMany resolves through a pivot table.
	BelongsToMany RelationKind = "belongsToMany"
)

// ParseRelationKind maps a config name to a RelationKind.
func ParseRelationKind(s string) (RelationKind, error) {
	switch RelationKind(s) {
	case HasOne, HasMany, BelongsToMany:
		return RelationKind(s), nil
	}
	return "", fmt.Errorf("unknown relation kind %q", s)
}

// Relation describes a named association of an entity.
//
// For HasOne and HasMany the related table is filtered by ForeignKey equal to the
// owner's LocalKey. For BelongsToMany the related table is joined to Pivot on
// RelatedKey = RelatedPivotKey and filtered by ForeignPivotKey.
type Relation struct {
	Name       string
	Kind       RelationKind
	Related    string
	ForeignKey string
	LocalKey   string

	Pivot           string
	ForeignPivotKey string
	RelatedPivotKey string
	RelatedKey      string
}

// Many reports whether the relation resolves to a list.
func (r Relation) Many() bool {
	return r.Kind != HasOne
}

// DefineRelation registers a fully specified relation descriptor.
func DefineRelation(rel Relation) EntityOption {
	return func(e *Entity) error {
		if rel.Name == "" {
			return fmt.Errorf("entity %s: relation name is required", e.name)
		}
		if rel.Related == "" {
			return fmt.Errorf("entity %s: relation %s: related entity is required", e.name, rel.Name)
		}
		if rel.LocalKey == "" {
			return fmt.Errorf("entity %s: relation %s: local key is required", e.name, rel.Name)
		}
		switch rel.Kind {
		case HasOne, HasMany:
			if rel.ForeignKey == "" {
				return fmt.Errorf("entity %s: relation %s: foreign key is required", e.name, rel.Name)
			}
		case BelongsToMany:
			if rel.Pivot == "" || rel.ForeignPivotKey == "" || rel.RelatedPivotKey == "" || rel.RelatedKey == "" {
				return fmt.Errorf("entity %s: relation %s: pivot table and keys are required", e.name, rel.Name)
			}
		default:
			return fmt.Errorf("entity %s: relation %s: unknown kind %q", e.name, rel.Name, rel.Kind)
		}
		if _, dup := e.relations[rel.Name]; dup {
			return fmt.Errorf("entity %s: duplicate relation %s", e.name, rel.Name)
		}
		e.relations[rel.Name] = rel
		return nil
	}
}

// HasOneRelation declares a one-to-one relation.
func HasOneRelation(name, related, foreignKey, localKey string) EntityOption {
	return DefineRelation(Relation{
		Name:       name,
		Kind:       HasOne,
		Related:    related,
		ForeignKey: foreignKey,
		LocalKey:   localKey,
	})
}

// HasManyRelation declares a one-to-many relation.
func HasManyRelation(name, related, foreignKey, localKey string) EntityOption {
	return DefineRelation(Relation{
		Name:       name,
		Kind:       HasMany,
		Related:    related,
		ForeignKey: foreignKey,
		LocalKey:   localKey,
	})
}

// BelongsToManyRelation declares a many-to-many relation through pivot.
func BelongsToManyRelation(name, related, pivot, foreignPivotKey, relatedPivotKey, localKey, relatedKey string) EntityOption {
	return DefineRelation(Relation{
		Name:            name,
		Kind:            BelongsToMany,
		Related:         related,
		LocalKey:        localKey,
		Pivot:           pivot,
		ForeignPivotKey: foreignPivotKey,
		RelatedPivotKey: relatedPivotKey,
		RelatedKey:      relatedKey,
	})
}
