package builder_test

import (
	"context"
	"strings"
	"testing"

	"github.com/satishbabariya/wporm/database"
	"github.com/satishbabariya/wporm/database/databasetest"
	"github.com/satishbabariya/wporm/model"
	"github.com/satishbabariya/wporm/query/builder"
	"github.com/satishbabariya/wporm/query/executor"
	"github.com/satishbabariya/wporm/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, opts ...builder.Option) (*databasetest.Conn, *builder.QueryBuilder) {
	t.Helper()

	r := model.NewRegistry()
	post, err := r.Define("Post", "posts",
		model.PrimaryKey("ID"),
		model.HasManyRelation("postMeta", "PostMeta", "post_id", "ID"),
	)
	require.NoError(t, err)
	_, err = r.Define("PostMeta", "postmeta", model.PrimaryKey("meta_id"))
	require.NoError(t, err)

	conn := databasetest.New("wp_")
	return conn, builder.New(executor.New(conn, r), post, opts...)
}

func TestQueryBuilder_WhereChain(t *testing.T) {
	_, b := setup(t)

	stmt, err := b.Where("post_status", "publish").
		OrWhere("comment_count", ">", 2).
		Where("post_title", "like", "%go%").
		ToSQL()

	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM wp_posts WHERE post_status = ? OR comment_count > ? AND post_title LIKE ?", stmt.SQL)
	assert.Equal(t, []any{"publish", 2, "%go%"}, stmt.Args)
}

func TestQueryBuilder_OrWhereFirst(t *testing.T) {
	_, b := setup(t)

	stmt, err := b.OrWhere("a", 1).ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM wp_posts WHERE a = ?", stmt.SQL)
}

func TestQueryBuilder_WhereAny(t *testing.T) {
	_, b := setup(t)

	stmt, err := b.WhereAny([]string{"a", "b"}, "=", 5).ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM wp_posts WHERE (a = ? OR b = ?)", stmt.SQL)
	assert.Equal(t, []any{5, 5}, stmt.Args)
}

func TestQueryBuilder_WhereAll(t *testing.T) {
	_, b := setup(t)

	stmt, err := b.Where("x", 0).WhereAll([]string{"a", "b"}, "", "v").ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM wp_posts WHERE x = ? AND a = ? AND b = ?", stmt.SQL)
	assert.Equal(t, []any{0, "v", "v"}, stmt.Args)
}

func TestQueryBuilder_Clauses(t *testing.T) {
	_, b := setup(t)

	stmt, err := b.Select("wp_posts.ID", "post_title").
		Distinct().
		Distinct().
		LeftJoin("users", "wp_users.ID", "=", "wp_posts.post_author").
		Where("post_type", "post").
		GroupBy("post_author").
		Having("comment_count", ">=", 3).
		OrderBy("post_date", "desc").
		Limit(-3).
		Offset(10).
		ToSQL()

	require.NoError(t, err)
	assert.Equal(t,
		"SELECT DISTINCT wp_posts.ID, post_title FROM wp_posts "+
			"LEFT JOIN wp_users ON wp_users.ID = wp_posts.post_author "+
			"WHERE post_type = ? GROUP BY post_author HAVING comment_count >= ? "+
			"ORDER BY post_date DESC LIMIT 0 OFFSET 10",
		stmt.SQL)
	assert.Equal(t, []any{"post", 3}, stmt.Args)
}

func TestQueryBuilder_ReplacingClauses(t *testing.T) {
	_, b := setup(t)

	stmt, err := b.OrderBy("a", "").OrderBy("b", "DESC").
		GroupBy("a").GroupBy("b").
		Limit(5).Limit(7).
		ToSQL()

	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM wp_posts GROUP BY b ORDER BY b DESC LIMIT 7", stmt.SQL)
}

func TestQueryBuilder_Validation(t *testing.T) {
	tests := []struct {
		name  string
		chain func(*builder.QueryBuilder)
		field string
	}{
		{"unknown operator", func(b *builder.QueryBuilder) { b.Where("a", "IN", 1) }, "a"},
		{"non string operator", func(b *builder.QueryBuilder) { b.Where("a", 1, 2) }, "a"},
		{"too many arguments", func(b *builder.QueryBuilder) { b.Where("a", "=", 1, 2) }, "a"},
		{"no value", func(b *builder.QueryBuilder) { b.Where("a") }, "a"},
		{"empty column", func(b *builder.QueryBuilder) { b.OrWhere("", 1) }, ""},
		{"empty any columns", func(b *builder.QueryBuilder) { b.WhereAny(nil, "=", 1) }, ""},
		{"bad all operator", func(b *builder.QueryBuilder) { b.WhereAll([]string{"a"}, "; DROP", 1) }, ""},
		{"bad direction", func(b *builder.QueryBuilder) { b.OrderBy("a", "sideways") }, "a"},
		{"bad join operator", func(b *builder.QueryBuilder) { b.Join("users", "a", "~", "b") }, "users"},
		{"bad having", func(b *builder.QueryBuilder) { b.Having("COUNT(*)", "between", 1) }, "COUNT(*)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, b := setup(t)
			tt.chain(b)

			var verr *runtime.ValidationError
			require.ErrorAs(t, b.Err(), &verr)
			assert.Equal(t, tt.field, verr.Field)

			_, err := b.GetAll(context.Background())
			assert.ErrorIs(t, err, runtime.ErrInvalidQuery)
			assert.Empty(t, conn.Calls())
		})
	}
}

func TestQueryBuilder_OperatorsNormalized(t *testing.T) {
	_, b := setup(t)

	stmt, err := b.Where("a", "not  like", "x").Where("b", "<>", 1).Where("c", "regexp", "^a").ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM wp_posts WHERE a NOT LIKE ? AND b <> ? AND c REGEXP ?", stmt.SQL)
}

func TestQueryBuilder_Get(t *testing.T) {
	conn, b := setup(t)
	conn.Rows = func(query string, args []any) []database.Row {
		if args[0] == 5 {
			return []database.Row{databasetest.Row("ID", int64(5), "post_title", "x")}
		}
		return nil
	}

	inst, err := b.Select("ID", "post_title").Where("ignored", 1).Get(context.Background(), 5)
	require.NoError(t, err)
	require.NotNil(t, inst)
	assert.Equal(t, "x", inst.Value("post_title"))
	assert.Equal(t, "SELECT ID, post_title FROM wp_posts WHERE ID = ?", conn.Queries()[0])

	missing, err := b.Get(context.Background(), 6)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestQueryBuilder_First(t *testing.T) {
	conn, b := setup(t)

	_, err := b.Where("a", 1).Limit(20).First(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"SELECT * FROM wp_posts WHERE a = ? LIMIT 1"}, conn.Queries())
}

func TestQueryBuilder_Aggregates(t *testing.T) {
	ctx := context.Background()
	conn, b := setup(t)
	conn.Scalar = func(query string, args []any) any {
		switch {
		case strings.HasPrefix(query, "SELECT COUNT(*)"):
			return int64(3)
		case strings.HasPrefix(query, "SELECT SUM("):
			return []byte("12.50")
		case strings.HasPrefix(query, "SELECT AVG("):
			return nil
		case strings.HasPrefix(query, "SELECT MAX("):
			return []byte("zeta")
		}
		return int64(1)
	}

	n, err := b.Where("a", 1).OrderBy("a", "ASC").Limit(1).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, "SELECT COUNT(*) FROM wp_posts WHERE a = ?", conn.Queries()[0])

	sum, err := b.Sum(ctx, "amount")
	require.NoError(t, err)
	assert.InDelta(t, 12.5, sum, 0.0001)

	avg, err := b.Avg(ctx, "amount")
	require.NoError(t, err)
	assert.Zero(t, avg)

	mx, err := b.Max(ctx, "name")
	require.NoError(t, err)
	assert.Equal(t, "zeta", mx)

	mn, err := b.Min(ctx, "name")
	require.NoError(t, err)
	assert.Equal(t, int64(1), mn)

	ok, err := b.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = b.Sum(ctx, "")
	assert.ErrorIs(t, err, runtime.ErrInvalidQuery)
}

func TestQueryBuilder_Pluck(t *testing.T) {
	conn, b := setup(t)
	conn.Rows = func(string, []any) []database.Row {
		return []database.Row{
			databasetest.Row("post_title", []byte("a")),
			databasetest.Row("post_title", "b"),
		}
	}

	values, err := b.Select("ID").Distinct().OrderBy("post_title", "asc").Pluck(context.Background(), "post_title")
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, values)
	assert.Equal(t, "SELECT post_title FROM wp_posts ORDER BY post_title ASC", conn.Queries()[0])
}

func TestQueryBuilder_StateResetsAfterTerminal(t *testing.T) {
	conn, b := setup(t)
	ctx := context.Background()

	_, err := b.Where("a", 1).GetAll(ctx)
	require.NoError(t, err)
	_, err = b.Where("b", 2).GetAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"SELECT * FROM wp_posts WHERE a = ?",
		"SELECT * FROM wp_posts WHERE b = ?",
	}, conn.Queries())
}

func TestQueryBuilder_RetainState(t *testing.T) {
	conn, b := setup(t, builder.RetainState())
	ctx := context.Background()

	_, err := b.Where("a", 1).GetAll(ctx)
	require.NoError(t, err)
	_, err = b.Where("b", 2).GetAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"SELECT * FROM wp_posts WHERE a = ?",
		"SELECT * FROM wp_posts WHERE a = ? AND b = ?",
	}, conn.Queries())

	b.Reset()
	stmt, err := b.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM wp_posts", stmt.SQL)
}

func TestQueryBuilder_Clone(t *testing.T) {
	_, b := setup(t)
	b.Where("a", 1)

	c := b.Clone().Where("b", 2)

	s1, err := b.ToSQL()
	require.NoError(t, err)
	s2, err := c.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM wp_posts WHERE a = ?", s1.SQL)
	assert.Equal(t, "SELECT * FROM wp_posts WHERE a = ? AND b = ?", s2.SQL)
}

func TestQueryBuilder_WithLoadsPerRow(t *testing.T) {
	conn, b := setup(t)
	conn.Rows = func(query string, args []any) []database.Row {
		if strings.HasPrefix(query, "SELECT * FROM wp_posts") {
			return []database.Row{
				databasetest.Row("ID", int64(1)),
				databasetest.Row("ID", int64(2)),
			}
		}
		return nil
	}

	out, err := b.With("postMeta", "missing").GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Len(t, conn.Calls(), 3)
	for _, inst := range out {
		assert.True(t, inst.Loaded("postMeta"))
	}
}

func TestQueryBuilder_CreateUpdateDelete(t *testing.T) {
	ctx := context.Background()
	conn, b := setup(t)
	conn.NextID = 9

	id, err := b.Create(ctx, map[string]any{"post_title": "x"})
	require.NoError(t, err)
	assert.Equal(t, int64(9), id)

	n, err := b.Update(ctx, id, map[string]any{"post_title": "y"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = b.Delete(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = b.Create(ctx, nil)
	assert.ErrorIs(t, err, runtime.ErrInvalidQuery)
	_, err = b.Update(ctx, id, nil)
	assert.ErrorIs(t, err, runtime.ErrInvalidQuery)
	_, err = b.Delete(ctx, nil)
	assert.ErrorIs(t, err, runtime.ErrInvalidQuery)

	assert.Len(t, conn.Calls(), 3)
}

func TestQueryBuilder_WritesReturnRecordedError(t *testing.T) {
	ctx := context.Background()
	writes := []struct {
		name string
		run  func(*builder.QueryBuilder) error
	}{
		{"create", func(b *builder.QueryBuilder) error {
			_, err := b.Create(ctx, map[string]any{"post_title": "x"})
			return err
		}},
		{"update", func(b *builder.QueryBuilder) error {
			_, err := b.Update(ctx, 3, map[string]any{"post_title": "x"})
			return err
		}},
		{"delete", func(b *builder.QueryBuilder) error {
			_, err := b.Delete(ctx, 3)
			return err
		}},
		{"updateOrInsert", func(b *builder.QueryBuilder) error {
			_, err := b.UpdateOrInsert(ctx, map[string]any{"ID": 3}, map[string]any{"post_title": "x"})
			return err
		}},
	}

	for _, tt := range writes {
		t.Run(tt.name, func(t *testing.T) {
			conn, b := setup(t)
			conn.NextID = 7
			b.Where("post_status", "DROP", "x")

			err := tt.run(b)
			assert.ErrorIs(t, err, runtime.ErrInvalidQuery)
			assert.Empty(t, conn.Calls())
		})
	}
}

func TestQueryBuilder_UpdateOrInsert(t *testing.T) {
	ctx := context.Background()

	t.Run("updates existing row", func(t *testing.T) {
		conn, b := setup(t)
		conn.Scalar = func(string, []any) any { return int64(1) }

		res, err := b.UpdateOrInsert(ctx, map[string]any{"ID": 1}, map[string]any{"post_title": "y"})
		require.NoError(t, err)
		assert.False(t, res.Inserted)
		assert.Equal(t, int64(1), res.ID)
		assert.Equal(t, int64(1), res.Affected)

		calls := conn.Calls()
		require.Len(t, calls, 2)
		assert.Equal(t, "SELECT COUNT(*) FROM wp_posts WHERE ID = ?", calls[0].SQL)
		assert.Equal(t, "update", calls[1].Method)
		assert.Equal(t, map[string]any{"ID": 1}, calls[1].Where)
		assert.Equal(t, map[string]any{"post_title": "y"}, calls[1].Values)
	})

	t.Run("inserts missing row", func(t *testing.T) {
		conn, b := setup(t)
		conn.Scalar = func(string, []any) any { return int64(0) }
		conn.NextID = 1

		res, err := b.UpdateOrInsert(ctx,
			map[string]any{"ID": 1, "post_type": "post"},
			map[string]any{"post_title": "y", "post_type": "page"})
		require.NoError(t, err)
		assert.True(t, res.Inserted)
		assert.Equal(t, int64(1), res.ID)

		calls := conn.Calls()
		require.Len(t, calls, 2)
		assert.Equal(t, "SELECT COUNT(*) FROM wp_posts WHERE ID = ? AND post_type = ?", calls[0].SQL)
		assert.Equal(t, []any{1, "post"}, calls[0].Args)
		assert.Equal(t, map[string]any{"ID": 1, "post_type": "page", "post_title": "y"}, calls[1].Values)
	})

	t.Run("inserts without primary key", func(t *testing.T) {
		conn, b := setup(t)
		conn.Scalar = func(string, []any) any { return int64(0) }
		conn.NextID = 12

		res, err := b.UpdateOrInsert(ctx, map[string]any{"post_name": "hello"}, map[string]any{"post_title": "y"})
		require.NoError(t, err)
		assert.True(t, res.Inserted)
		assert.Equal(t, int64(12), res.ID)

		calls := conn.Calls()
		require.Len(t, calls, 2)
		assert.Equal(t, "SELECT COUNT(*) FROM wp_posts WHERE post_name = ?", calls[0].SQL)
		assert.Equal(t, map[string]any{"post_name": "hello", "post_title": "y"}, calls[1].Values)
	})

	t.Run("update needs primary key", func(t *testing.T) {
		conn, b := setup(t)
		conn.Scalar = func(string, []any) any { return int64(1) }

		_, err := b.UpdateOrInsert(ctx, map[string]any{"post_name": "hello"}, map[string]any{"post_title": "y"})
		assert.ErrorIs(t, err, runtime.ErrInvalidQuery)

		calls := conn.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, "scalar", calls[0].Method)
	})

	t.Run("empty values on hit", func(t *testing.T) {
		conn, b := setup(t)
		conn.Scalar = func(string, []any) any { return int64(1) }

		res, err := b.UpdateOrInsert(ctx, map[string]any{"ID": 4}, nil)
		require.NoError(t, err)
		assert.Zero(t, res.Affected)
		assert.Len(t, conn.Calls(), 1)
	})
}

func TestQueryBuilder_CollaboratorError(t *testing.T) {
	conn, b := setup(t)
	conn.Err = assert.AnError

	_, err := b.Where("a", 1).GetAll(context.Background())

	var qerr *runtime.QueryError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, "getAll", qerr.Operation)
	assert.Equal(t, "SELECT * FROM wp_posts WHERE a = ?", qerr.Query)
	assert.ErrorIs(t, err, assert.AnError)
}
