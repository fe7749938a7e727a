package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luozhenyu/pgfulltext/internal/config"
	"github.com/luozhenyu/pgfulltext/internal/fulltext"
)

func TestCompile_SimpleSelect(t *testing.T) {
	q := NewSelect(`"documents"`)
	q.Columns = []string{"id", "title"}
	q.WhereRaw("status = ?", "published")

	sql, params, err := q.Compile()
	require.NoError(t, err)

	assert.Equal(t, `select id, title from "documents" where status = ?`, sql)
	assert.Equal(t, []any{"published"}, params)
}

func TestCompile_StarWhenNoColumns(t *testing.T) {
	sql, params, err := NewSelect("documents").Compile()
	require.NoError(t, err)

	assert.Equal(t, "select * from documents", sql)
	assert.Empty(t, params)
}

func TestCompile_MultipleFiltersKeepParamOrder(t *testing.T) {
	q := NewSelect("documents")
	q.WhereRaw("a = ?", 1)
	q.WhereRaw("b between ? and ?", 2, 3)
	q.OrderBy = []string{"id desc"}
	q.Limit = 10

	sql, params, err := q.Compile()
	require.NoError(t, err)

	assert.Equal(t, "select * from documents where (a = ?) and (b between ? and ?) order by id desc limit ?", sql)
	assert.Equal(t, []any{1, 2, 3, 10}, params)
}

func TestCompile_WithFulltextPredicate(t *testing.T) {
	b, err := fulltext.New([]string{"title", "body"}, config.NewStatic("english"))
	require.NoError(t, err)
	pred, err := b.Search("it's raining")
	require.NoError(t, err)

	q := NewSelect("documents")
	pred.Apply(q)

	sql, params, err := q.Compile()
	require.NoError(t, err)

	assert.Equal(t,
		"select * from documents where to_tsvector('english', title|| body) @@ plainto_tsquery('english', ?)",
		sql)
	assert.NotContains(t, sql, "raining")
	assert.Equal(t, []any{"it's raining"}, params)
}

func TestCompile_Errors(t *testing.T) {
	_, _, err := NewSelect("").Compile()
	assert.Error(t, err)

	q := NewSelect("documents")
	q.Limit = -1
	_, _, err = q.Compile()
	assert.Error(t, err)

	q = NewSelect("documents")
	q.WhereRaw("a = ? and b = ?", 1)
	_, _, err = q.Compile()
	assert.ErrorContains(t, err, "2 placeholders but 1 params")

	q = NewSelect("documents")
	q.WhereRaw("  ")
	_, _, err = q.Compile()
	assert.Error(t, err)
}

func TestCompile_PlaceholderInLiteralIsNotCounted(t *testing.T) {
	q := NewSelect("documents")
	q.WhereRaw("title <> 'why?' and id = ?", 7)

	_, params, err := q.Compile()
	require.NoError(t, err)
	assert.Equal(t, []any{7}, params)
}

func TestWhereRawCopiesParams(t *testing.T) {
	params := []any{"x"}
	q := NewSelect("documents")
	q.WhereRaw("a = ?", params...)
	params[0] = "y"

	assert.Equal(t, []any{"x"}, q.Filters[0].Params)
}

func TestRebind(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"none", "select 1", "select 1"},
		{"single", "a = ?", "a = $1"},
		{"several", "a = ? and b = ? limit ?", "a = $1 and b = $2 limit $3"},
		{"literal", "a = '?' and b = ?", "a = '?' and b = $1"},
		{"escaped literal", "a = 'it''s ?' and b = ?", "a = 'it''s ?' and b = $1"},
		{"identifier", `"what?" = ?`, `"what?" = $1`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Rebind(tt.in))
		})
	}
}
