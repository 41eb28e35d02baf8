package sqlfrag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBinder_ReusesEqualValues(t *testing.T) {
	b := NewBinder()
	assert.Equal(t, ":a_min", b.Bind("a_min", 0.0))
	assert.Equal(t, ":a_min", b.Bind("a_min", 0.0))
	assert.Len(t, b.Params(), 1)
}

func TestBinder_AllocatesOnConflict(t *testing.T) {
	b := NewBinder()
	assert.Equal(t, ":cat", b.Bind("cat", []string{"c1"}))
	assert.Equal(t, ":cat_2", b.Bind("cat", []string{"c2"}))
	assert.Equal(t, ":cat_3", b.Bind("cat", "other"))
	assert.Equal(t, ":cat_2", b.Bind("cat", []string{"c2"}))

	params := b.Params()
	assert.Equal(t, []string{"c1"}, params["cat"])
	assert.Equal(t, []string{"c2"}, params["cat_2"])
	assert.Equal(t, "other", params["cat_3"])
}

func TestBinder_SeededParamsAreRespected(t *testing.T) {
	b := NewBinderFrom(map[string]any{"group": "x"})
	assert.Equal(t, ":group_2", b.Bind("group", "y"))
	assert.Equal(t, ":group", b.Bind("group", "x"))
}

func TestBinder_SanitizesNames(t *testing.T) {
	b := NewBinder()
	assert.Equal(t, ":my_col_min", b.Bind("My-Col.min", 1))
	assert.Equal(t, ":p1x", b.Bind("1x", 1))
	assert.Equal(t, ":p", b.Bind("", 1))
}

func TestExpr_Render(t *testing.T) {
	e := Raw("a between ").Arg("a_min", 0).Raw(" and ").Arg("a_max", 1)
	sql, params := e.Build()

	assert.Equal(t, "a between :a_min and :a_max", sql)
	assert.Equal(t, map[string]any{"a_min": 0, "a_max": 1}, params)
}

func TestExpr_IsImmutable(t *testing.T) {
	base := Raw("x = ")
	left := base.Arg("x", 1)
	right := base.Arg("y", 2)

	l, _ := left.Build()
	r, _ := right.Build()
	assert.Equal(t, "x = :x", l)
	assert.Equal(t, "x = :y", r)
}

func TestAnd(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.True(t, And().IsZero())
		assert.True(t, And(Expr{}, Expr{}).IsZero())
	})

	t.Run("skips empty members", func(t *testing.T) {
		sql, _ := And(Raw("a"), Expr{}, Raw("b")).Build()
		assert.Equal(t, "a AND b", sql)
	})

	t.Run("same column twice gets distinct names", func(t *testing.T) {
		e := And(Raw("a >= ").Arg("a_min", 1), Raw("a >= ").Arg("a_min", 2))
		sql, params := e.Build()
		assert.Equal(t, "a >= :a_min AND a >= :a_min_2", sql)
		assert.Len(t, params, 2)
	})
}

func TestWrap(t *testing.T) {
	sql, _ := Raw("a").Wrap().Build()
	assert.Equal(t, "(a)", sql)
}
