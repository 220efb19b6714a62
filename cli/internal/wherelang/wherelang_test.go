package wherelang_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/wporm/cli/internal/wherelang"
)

func TestParse(t *testing.T) {
	tests := []struct {
		src     string
		columns []string
		op      string
		arg     any
	}{
		{"age >= 18", []string{"age"}, ">=", int64(18)},
		{"post_status = 'publish'", []string{"post_status"}, "=", "publish"},
		{`post_title like "%go%"`, []string{"post_title"}, "LIKE", "%go%"},
		{"post_name NOT like 'a%'", []string{"post_name"}, "NOT LIKE", "a%"},
		{"user_login regexp '^adm'", []string{"user_login"}, "REGEXP", "^adm"},
		{"user_login not REGEXP '^adm'", []string{"user_login"}, "NOT REGEXP", "^adm"},
		{"wp_posts.ID <> 5", []string{"wp_posts.ID"}, "<>", int64(5)},
		{"menu_order != -2", []string{"menu_order"}, "!=", int64(-2)},
		{"price < 1.5", []string{"price"}, "<", 1.5},
		{"sticky = TRUE", []string{"sticky"}, "=", true},
		{"sticky = false", []string{"sticky"}, "=", false},
		{"post_type = page", []string{"post_type"}, "=", "page"},
		{`note = 'it\'s'`, []string{"note"}, "=", "it's"},
		{"post_title, post_content like '%wp%'", []string{"post_title", "post_content"}, "LIKE", "%wp%"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			p, err := wherelang.Parse(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.columns, p.ColumnNames())
			assert.Equal(t, tt.op, p.Operator())
			assert.Equal(t, tt.arg, p.Value.Arg())
		})
	}
}

func TestParse_Errors(t *testing.T) {
	for _, src := range []string{
		"",
		"age",
		"age >=",
		"= 5",
		"age ~ 5",
		"age not = 5",
		"age = 'unterminated",
	} {
		t.Run(src, func(t *testing.T) {
			_, err := wherelang.Parse(src)
			assert.Error(t, err)
		})
	}
}

func TestParseJoin(t *testing.T) {
	tests := []struct {
		src    string
		kind   string
		table  string
		first  string
		op     string
		second string
	}{
		{"users on post_author = users.ID", "INNER", "users", "post_author", "=", "users.ID"},
		{"LEFT postmeta ON posts.ID = postmeta.post_id", "LEFT", "postmeta", "posts.ID", "=", "postmeta.post_id"},
		{"right users on posts.post_author >= users.ID", "RIGHT", "users", "posts.post_author", ">=", "users.ID"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			j, err := wherelang.ParseJoin(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, j.Type())
			assert.Equal(t, tt.table, j.Table)
			assert.Equal(t, tt.first, j.First.String())
			assert.Equal(t, tt.op, j.Op)
			assert.Equal(t, tt.second, j.Second.String())
		})
	}

	_, err := wherelang.ParseJoin("users post_author = users.ID")
	assert.Error(t, err)
}
