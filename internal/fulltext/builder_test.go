package fulltext

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luozhenyu/pgfulltext/internal/config"
	"github.com/luozhenyu/pgfulltext/internal/fterr"
	"github.com/luozhenyu/pgfulltext/internal/grammar"
)

type recordingQuery struct {
	wheres []string
	params []any
}

func (q *recordingQuery) WhereRaw(sql string, params ...any) {
	q.wheres = append(q.wheres, sql)
	q.params = append(q.params, params...)
}

func newBuilder(t *testing.T, columns ...string) *Builder {
	t.Helper()
	b, err := New(columns, config.NewStatic("english"))
	require.NoError(t, err)
	return b
}

func TestMatchPlain(t *testing.T) {
	b := newBuilder(t, "title", "body")

	pred, err := b.Match("cat dog", ModePlain)
	require.NoError(t, err)

	assert.Equal(t, "to_tsvector('english', title|| body) @@ plainto_tsquery('english', ?)", pred.SQL)
	assert.Equal(t, []any{"cat dog"}, pred.Params)
}

func TestMatchStructured(t *testing.T) {
	b := newBuilder(t, "title", "body")

	pred, err := b.Match("cat & !dog", ModeStructured)
	require.NoError(t, err)

	assert.Equal(t, "to_tsvector('english', title|| body) @@ to_tsquery('english', ?)", pred.SQL)
	assert.Equal(t, []any{"cat & !dog"}, pred.Params)
}

func TestSearchVariantsAreModeShortcuts(t *testing.T) {
	b := newBuilder(t, "title")

	plain, err := b.Search("cat")
	require.NoError(t, err)
	viaMatch, err := b.Match("cat", ModePlain)
	require.NoError(t, err)
	assert.Equal(t, viaMatch, plain)

	structured, err := b.SearchUsingTsQuery("cat")
	require.NoError(t, err)
	viaMatch, err = b.Match("cat", ModeStructured)
	require.NoError(t, err)
	assert.Equal(t, viaMatch, structured)
}

func TestMatchNeverEmbedsKeywords(t *testing.T) {
	b := newBuilder(t, "title", "body")

	hostile := []string{
		"cat dog",
		"o'reilly",
		"'; drop table documents; --",
		"x') or 1=1 --",
		"semi;colon",
		"-- comment",
		"quote\"ident",
	}

	for _, kw := range hostile {
		for _, mode := range []MatchMode{ModePlain, ModeStructured} {
			t.Run(mode.String()+"/"+kw, func(t *testing.T) {
				pred, err := b.Match(kw, mode)
				require.NoError(t, err)

				assert.Equal(t, []any{kw}, pred.Params)
				assert.NotContains(t, pred.SQL, kw)
				assert.Equal(t, 1, strings.Count(pred.SQL, "?"))
			})
		}
	}
}

func TestRankEscapesKeywords(t *testing.T) {
	b := newBuilder(t, "title", "body")

	rank, err := b.Rank("cat's dog")
	require.NoError(t, err)
	assert.Equal(t,
		"ts_rank(to_tsvector('english', title|| body), plainto_tsquery('english', 'cat''s dog'))",
		rank)
}

func TestRankLiteralRoundTrips(t *testing.T) {
	b := newBuilder(t, "title")
	prefix := "ts_rank(to_tsvector('english', title), plainto_tsquery('english', "

	for _, kw := range []string{"'", "it's", "''double''", "'; drop table t; --", `back\'slash`} {
		t.Run(kw, func(t *testing.T) {
			rank, err := b.Rank(kw)
			require.NoError(t, err)
			require.True(t, strings.HasPrefix(rank, prefix))
			require.True(t, strings.HasSuffix(rank, "))"))

			literal := strings.TrimSuffix(strings.TrimPrefix(rank, prefix), "))")
			assert.Equal(t, strings.Count(kw, "'")*2+2, strings.Count(literal, "'"))

			back, err := grammar.UnquoteString(literal)
			require.NoError(t, err)
			assert.Equal(t, kw, back)
		})
	}
}

func TestRankRejectsUnescapableText(t *testing.T) {
	b := newBuilder(t, "title")

	_, err := b.Rank("cat\x00dog")
	require.Error(t, err)
	assert.True(t, fterr.IsEscaping(err))
}

func TestKeywordsRequired(t *testing.T) {
	b := newBuilder(t, "title")

	_, err := b.Match("", ModePlain)
	assert.True(t, fterr.IsPrecondition(err))

	_, err = b.Rank("")
	assert.True(t, fterr.IsPrecondition(err))
}

func TestUnknownModeRejected(t *testing.T) {
	b := newBuilder(t, "title")

	_, err := b.Match("cat", MatchMode(42))
	assert.True(t, fterr.IsPrecondition(err))
}

func TestNewRequiresColumns(t *testing.T) {
	_, err := New(nil, config.NewStatic("english"))
	require.Error(t, err)
	assert.True(t, fterr.IsPrecondition(err))

	_, err = New([]string{"title", " "}, config.NewStatic("english"))
	assert.True(t, fterr.IsPrecondition(err))
}

func TestNewColumnIsOneElementSet(t *testing.T) {
	b, err := NewColumn("title", config.NewStatic("english"))
	require.NoError(t, err)
	assert.Equal(t, []string{"title"}, b.Columns())
}

func TestSetColumnsOverwrites(t *testing.T) {
	b := newBuilder(t, "title", "body")

	require.NoError(t, b.SetColumns("summary"))
	assert.Equal(t, []string{"summary"}, b.Columns())

	pred, err := b.Search("cat")
	require.NoError(t, err)
	assert.Equal(t, "to_tsvector('english', summary) @@ plainto_tsquery('english', ?)", pred.SQL)
}

func TestSetColumnsRejectsEmptyAndKeepsCurrent(t *testing.T) {
	b := newBuilder(t, "title")

	err := b.SetColumns()
	assert.True(t, fterr.IsPrecondition(err))
	assert.Equal(t, []string{"title"}, b.Columns())
}

func TestSetColumnsIdempotent(t *testing.T) {
	b := newBuilder(t, "x")

	require.NoError(t, b.SetColumns("title", "body"))
	require.NoError(t, b.SetColumns("title", "body"))

	first, err := b.Search("cat")
	require.NoError(t, err)
	second, err := b.Search("cat")
	require.NoError(t, err)

	assert.Equal(t, first.SQL, second.SQL)
}

func TestColumnsReturnsCopy(t *testing.T) {
	cols := []string{"title", "body"}
	b := newBuilder(t, cols...)

	cols[0] = "mutated"
	got := b.Columns()
	got[1] = "mutated"

	assert.Equal(t, []string{"title", "body"}, b.Columns())
}

func TestConfigReadAtCallTime(t *testing.T) {
	cfg := config.NewStatic("english")
	b, err := New([]string{"title"}, cfg)
	require.NoError(t, err)

	cfg.Set("simple")
	pred, err := b.Search("cat")
	require.NoError(t, err)
	assert.Equal(t, "to_tsvector('simple', title) @@ plainto_tsquery('simple', ?)", pred.SQL)

	name, err := b.TextSearchConfig()
	require.NoError(t, err)
	assert.Equal(t, "simple", name)
}

func TestConfigMissingSurfaces(t *testing.T) {
	cfg := config.NewStatic("")
	b, err := New([]string{"title"}, cfg)
	require.NoError(t, err, "configuration is not read at construction")

	_, err = b.Search("cat")
	assert.True(t, fterr.IsConfigMissing(err))

	_, err = b.Rank("cat")
	assert.True(t, fterr.IsConfigMissing(err))

	_, err = b.TextSearchConfig()
	assert.True(t, fterr.IsConfigMissing(err))
}

func TestWithQuotedColumns(t *testing.T) {
	b, err := New([]string{"title", "body"}, config.NewStatic("english"), WithQuotedColumns())
	require.NoError(t, err)

	doc, err := b.Document()
	require.NoError(t, err)
	assert.Equal(t, `to_tsvector('english', "title"|| "body")`, doc)
}

func TestWithQuotedColumnsUsesGrammarOptionInAnyOrder(t *testing.T) {
	b, err := New([]string{"title"}, config.NewStatic("english"),
		WithQuotedColumns(), WithGrammar(grammar.New("ignored_")))
	require.NoError(t, err)

	doc, err := b.Document()
	require.NoError(t, err)
	assert.Equal(t, `to_tsvector('english', "title")`, doc)
}

func TestRawColumnsAllowExpressions(t *testing.T) {
	b := newBuilder(t, "coalesce(title, '')", "coalesce(body, '')")

	doc, err := b.Document()
	require.NoError(t, err)
	assert.Equal(t, "to_tsvector('english', coalesce(title, '')|| coalesce(body, ''))", doc)
}

func TestPredicateApply(t *testing.T) {
	b := newBuilder(t, "title")
	pred, err := b.Search("cat")
	require.NoError(t, err)

	q := &recordingQuery{}
	pred.Apply(q)

	assert.Equal(t, []string{pred.SQL}, q.wheres)
	assert.Equal(t, []any{"cat"}, q.params)

	q.params[0] = "mutated"
	assert.Equal(t, []any{"cat"}, pred.Params, "Apply must not share the parameter slice")
}

func TestPredicateIsZero(t *testing.T) {
	assert.True(t, Predicate{}.IsZero())

	b := newBuilder(t, "title")
	pred, err := b.Search("cat")
	require.NoError(t, err)
	assert.False(t, pred.IsZero())
}

func TestParseMatchMode(t *testing.T) {
	tests := []struct {
		in   string
		want MatchMode
	}{
		{"plain", ModePlain},
		{"", ModePlain},
		{"Structured", ModeStructured},
		{"tsquery", ModeStructured},
	}
	for _, tt := range tests {
		got, err := ParseMatchMode(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseMatchMode("fuzzy")
	assert.Error(t, err)
	assert.Equal(t, "MatchMode(7)", MatchMode(7).String())
}

func TestConcurrentBuildsAndColumnReplacement(t *testing.T) {
	b := newBuilder(t, "title", "body")
	valid := map[string]bool{
		"to_tsvector('english', title|| body) @@ plainto_tsquery('english', ?)": true,
		"to_tsvector('english', summary) @@ plainto_tsquery('english', ?)":      true,
	}

	var wg sync.WaitGroup
	errs := make(chan string, 200)
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_ = b.SetColumns("summary")
			} else {
				_ = b.SetColumns("title", "body")
			}
		}(i)
		go func() {
			defer wg.Done()
			pred, err := b.Search("cat")
			if err != nil {
				errs <- err.Error()
				return
			}
			if !valid[pred.SQL] {
				errs <- pred.SQL
			}
		}()
	}
	wg.Wait()
	close(errs)

	for e := range errs {
		t.Errorf("unexpected build result: %s", e)
	}
}
