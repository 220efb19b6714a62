package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/satishbabariya/wporm/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBlogRegistry(t *testing.T) *model.Registry {
	t.Helper()

	reg := model.NewRegistry()
	_, err := reg.Define("Post", "posts",
		model.PrimaryKey("ID"),
		model.Fields(
			model.Field{Name: "ID", Type: model.Int},
			model.Field{Name: "post_title", Type: model.String},
			model.Field{Name: "post_date", Type: model.Time},
			model.Field{Name: "comment_count", Type: model.Int},
		),
		model.HasOneRelation("postMeta", "PostMeta", "post_id", "ID"),
		model.HasManyRelation("comments", "Comment", "comment_post_ID", "ID"),
		model.BelongsToManyRelation("terms", "Term", "term_relationships", "object_id", "term_taxonomy_id", "ID", "term_id"),
	)
	require.NoError(t, err)

	_, err = reg.Define("PostMeta", "postmeta", model.PrimaryKey("meta_id"))
	require.NoError(t, err)
	_, err = reg.Define("Comment", "comments", model.PrimaryKey("comment_ID"))
	require.NoError(t, err)
	_, err = reg.Define("Term", "terms", model.PrimaryKey("term_id"))
	require.NoError(t, err)

	return reg
}

func TestRegistry_Define(t *testing.T) {
	reg := newBlogRegistry(t)

	post, ok := reg.Entity("Post")
	require.True(t, ok)
	assert.Equal(t, "posts", post.Table())
	assert.Equal(t, "ID", post.PrimaryKey())
	assert.False(t, post.Dynamic())
	assert.Equal(t, []string{"comments", "postMeta", "terms"}, post.RelationNames())

	rel, ok := post.Relation("terms")
	require.True(t, ok)
	assert.Equal(t, model.BelongsToMany, rel.Kind)
	assert.True(t, rel.Many())
	assert.Equal(t, "term_relationships", rel.Pivot)

	meta, _ := reg.Entity("PostMeta")
	assert.True(t, meta.Dynamic())

	assert.Equal(t, []string{"Comment", "Post", "PostMeta", "Term"}, reg.Names())
	assert.NoError(t, reg.Validate())
}

func TestRegistry_DefineErrors(t *testing.T) {
	tests := []struct {
		name  string
		table string
		opts  []model.EntityOption
	}{
		{name: "", table: "posts"},
		{name: "Post", table: ""},
		{name: "Post", table: "posts", opts: []model.EntityOption{model.PrimaryKey("")}},
		{name: "Post", table: "posts", opts: []model.EntityOption{model.Fields(
			model.Field{Name: "ID"}, model.Field{Name: "ID"},
		)}},
		{name: "Post", table: "posts", opts: []model.EntityOption{model.HasOneRelation("meta", "", "post_id", "ID")}},
		{name: "Post", table: "posts", opts: []model.EntityOption{model.HasManyRelation("meta", "Meta", "", "ID")}},
		{name: "Post", table: "posts", opts: []model.EntityOption{model.BelongsToManyRelation("tags", "Tag", "", "a", "b", "ID", "id")}},
		{name: "Post", table: "posts", opts: []model.EntityOption{model.DefineRelation(model.Relation{
			Name: "x", Kind: "weird", Related: "X", LocalKey: "id", ForeignKey: "x_id",
		})}},
		{name: "Post", table: "posts", opts: []model.EntityOption{
			model.Fields(model.Field{Name: "meta"}),
			model.HasOneRelation("meta", "Meta", "post_id", "ID"),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.table, func(t *testing.T) {
			_, err := model.NewRegistry().Define(tt.name, tt.table, tt.opts...)
			assert.Error(t, err)
		})
	}
}

func TestRegistry_DuplicateEntity(t *testing.T) {
	reg := model.NewRegistry()
	reg.MustDefine("Post", "posts")

	_, err := reg.Define("Post", "posts")
	assert.Error(t, err)
	assert.Panics(t, func() { reg.MustDefine("Post", "posts") })
}

func TestRegistry_ValidateDanglingRelation(t *testing.T) {
	reg := model.NewRegistry()
	reg.MustDefine("Post", "posts", model.HasOneRelation("postMeta", "PostMeta", "post_id", "id"))

	err := reg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown entity PostMeta")
}

func TestRegistry_ValidateKeys(t *testing.T) {
	reg := model.NewRegistry()
	reg.MustDefine("Post", "posts",
		model.Fields(model.Field{Name: "id", Type: model.Int}),
		model.HasManyRelation("comments", "Comment", "post_id", "id"),
	)
	reg.MustDefine("Comment", "comments", model.Fields(model.Field{Name: "id", Type: model.Int}))

	err := reg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "foreign key post_id")
}

func TestHydrate_Typed(t *testing.T) {
	reg := newBlogRegistry(t)
	post, _ := reg.Entity("Post")

	row := map[string]any{
		"ID":            []byte("42"),
		"post_title":    []byte("Hello"),
		"post_date":     "2024-03-01 10:30:00",
		"comment_count": int64(3),
	}
	m, err := model.Hydrate(post, []string{"ID", "post_title", "post_date", "comment_count"}, row)
	require.NoError(t, err)

	assert.Equal(t, int64(42), m.Value("ID"))
	assert.Equal(t, "Hello", m.Value("post_title"))
	assert.Equal(t, int64(3), m.Int64("comment_count"))
	assert.Equal(t, 2024, m.Time("post_date").Year())
	assert.Equal(t, int64(42), m.Key())
	assert.Equal(t, []string{"ID", "post_title", "post_date", "comment_count"}, m.Columns())
}

func TestHydrate_NullStaysNil(t *testing.T) {
	reg := newBlogRegistry(t)
	post, _ := reg.Entity("Post")

	m, err := model.Hydrate(post, nil, map[string]any{"ID": int64(1), "post_title": nil})
	require.NoError(t, err)

	v, ok := m.Get("post_title")
	assert.True(t, ok)
	assert.Nil(t, v)
	assert.Equal(t, "", m.String("post_title"))
}

func TestHydrate_UndeclaredColumn(t *testing.T) {
	reg := newBlogRegistry(t)
	post, _ := reg.Entity("Post")

	_, err := model.Hydrate(post, nil, map[string]any{"ID": int64(1), "guid": "x"})
	require.Error(t, err)

	var herr *model.HydrationError
	require.True(t, errors.As(err, &herr))
	assert.Equal(t, "guid", herr.Column)
	assert.Nil(t, herr.Cause)
}

func TestHydrate_AllowUndeclared(t *testing.T) {
	reg := model.NewRegistry()
	e := reg.MustDefine("Post", "posts",
		model.Fields(model.Field{Name: "id", Type: model.Int}),
		model.AllowUndeclared(),
	)

	m, err := model.Hydrate(e, nil, map[string]any{"id": "7", "guid": []byte("abc")})
	require.NoError(t, err)
	assert.Equal(t, int64(7), m.Value("id"))
	assert.Equal(t, "abc", m.Value("guid"))
}

func TestHydrate_ConversionError(t *testing.T) {
	reg := newBlogRegistry(t)
	post, _ := reg.Entity("Post")

	_, err := model.Hydrate(post, nil, map[string]any{"ID": "not-a-number"})
	require.Error(t, err)

	var herr *model.HydrationError
	require.True(t, errors.As(err, &herr))
	assert.Equal(t, model.Int, herr.Type)
	assert.NotNil(t, herr.Cause)
}

func TestConvert(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name string
		typ  model.FieldType
		raw  any
		want any
	}{
		{"int from bytes", model.Int, []byte("12"), int64(12)},
		{"float from string", model.Float, "1.5", 1.5},
		{"string from int", model.String, int64(9), "9"},
		{"string from time", model.String, ts, "2024-01-02T03:04:05Z"},
		{"bool from int", model.Bool, int64(1), true},
		{"bool from text", model.Bool, []byte("false"), false},
		{"time passthrough", model.Time, ts, ts},
		{"bytes from string", model.Bytes, "ab", []byte("ab")},
		{"bytes copy", model.Bytes, []byte("cd"), []byte("cd")},
		{"any bytes become string", model.Any, []byte("x"), "x"},
		{"any keeps value", model.Any, int64(5), int64(5)},
		{"null", model.Int, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := model.Convert(tt.typ, tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInstance_Relations(t *testing.T) {
	reg := newBlogRegistry(t)
	post, _ := reg.Entity("Post")
	meta, _ := reg.Entity("PostMeta")

	p := model.NewInstance(post)
	assert.False(t, p.Loaded("postMeta"))

	m := model.NewInstance(meta)
	m.Set("meta_key", "views")
	p.Attach("postMeta", model.Related{Kind: model.HasOne, One: m})
	p.Attach("comments", model.Related{Kind: model.HasMany})

	assert.True(t, p.Loaded("postMeta"))
	assert.Same(t, m, p.One("postMeta"))
	assert.True(t, p.Loaded("comments"))
	assert.Empty(t, p.Many("comments"))

	r, ok := p.Relation("comments")
	require.True(t, ok)
	assert.True(t, r.Empty())
}

func TestInstance_SetKeepsOrderAndCopies(t *testing.T) {
	m := model.NewInstance(model.NewRegistry().MustDefine("Opt", "options"))
	m.Set("b", 1)
	m.Set("a", 2)
	m.Set("b", 3)

	assert.Equal(t, []string{"b", "a"}, m.Columns())

	snapshot := m.Map()
	snapshot["b"] = 99
	assert.Equal(t, 3, m.Value("b"))
}

func TestParseFieldType(t *testing.T) {
	ft, err := model.ParseFieldType("datetime")
	require.NoError(t, err)
	assert.Equal(t, model.Time, ft)
	assert.Equal(t, "time", ft.String())

	_, err = model.ParseFieldType("geometry")
	assert.Error(t, err)

	kind, err := model.ParseRelationKind("hasMany")
	require.NoError(t, err)
	assert.Equal(t, model.HasMany, kind)

	_, err = model.ParseRelationKind("morphTo")
	assert.Error(t, err)
}
