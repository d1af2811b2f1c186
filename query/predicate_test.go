package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlkit/sequel/query"
)

func TestWhereColumnValueForm(t *testing.T) {
	b := query.Table("users").Where("id", 1)
	require.Len(t, b.Statement().Where, 1)
	p := b.Statement().Where[0]
	assert.Equal(t, query.PredBinary, p.Kind)
	assert.Equal(t, "=", p.Op)
	assert.Equal(t, 1, p.Value)
}

func TestWhereColumnOpValueForm(t *testing.T) {
	b := query.Table("users").Where("age", ">", 21)
	p := b.Statement().Where[0]
	assert.Equal(t, ">", p.Op)
	assert.Equal(t, 21, p.Value)
}

func TestWhereSliceValueBecomesInList(t *testing.T) {
	b := query.Table("users").Where("id", []interface{}{1, 2, 3})
	p := b.Statement().Where[0]
	assert.Equal(t, query.PredInList, p.Kind)
	assert.Equal(t, []interface{}{1, 2, 3}, p.Values)
}

func TestWhereEqMapExpandsToConjunction(t *testing.T) {
	b := query.Table("users").Where(query.Eq{"active": true, "org_id": 5})
	require.Len(t, b.Statement().Where, 2)
	for _, p := range b.Statement().Where {
		assert.Equal(t, query.And, p.Conj)
	}
}

func TestWhereNilValueBecomesNullTest(t *testing.T) {
	b := query.Table("users").Where(query.Eq{"deleted_at": nil})
	p := b.Statement().Where[0]
	assert.Equal(t, query.PredNullTest, p.Kind)
	assert.Equal(t, "is", p.Op)
}

func TestOrWhereUsesOrConjunction(t *testing.T) {
	b := query.Table("users").Where("id", 1).OrWhere("id", 2)
	assert.Equal(t, query.And, b.Statement().Where[0].Conj)
	assert.Equal(t, query.Or, b.Statement().Where[1].Conj)
}

func TestWhereNotSetsNegate(t *testing.T) {
	b := query.Table("users").WhereNot("active", true)
	assert.True(t, b.Statement().Where[0].Negate)
}

func TestWhereGroupCallbackNestsPredicates(t *testing.T) {
	b := query.Table("users").Where(func(sub *query.Builder) {
		sub.Where("a", 1).OrWhere("b", 2)
	})
	require.Len(t, b.Statement().Where, 1)
	group := b.Statement().Where[0]
	assert.Equal(t, query.PredGroup, group.Kind)
	require.Len(t, group.Children, 2)
}

func TestWhereRawFragmentWithBindings(t *testing.T) {
	b := query.Table("users").Where("age > ? and active = ?", 21, true)
	p := b.Statement().Where[0]
	assert.Equal(t, query.PredRaw, p.Kind)
	assert.Equal(t, []interface{}{21, true}, p.Raw.Bindings)
}

func TestWhereBareStringIsRawWithNoBindings(t *testing.T) {
	b := query.Table("users").Where("deleted_at is null")
	p := b.Statement().Where[0]
	assert.Equal(t, query.PredRaw, p.Kind)
	assert.Empty(t, p.Raw.Bindings)
}

func TestWhereBetweenAndNotBetween(t *testing.T) {
	b := query.Table("users").WhereBetween("age", 18, 65).WhereNotBetween("score", 0, 10)
	assert.Equal(t, query.PredBetween, b.Statement().Where[0].Kind)
	assert.False(t, b.Statement().Where[0].Negate)
	assert.True(t, b.Statement().Where[1].Negate)
}

func TestWhereNullAndNotNull(t *testing.T) {
	b := query.Table("users").WhereNull("deleted_at").WhereNotNull("confirmed_at")
	assert.False(t, b.Statement().Where[0].Negate)
	assert.True(t, b.Statement().Where[1].Negate)
}

func TestWhereLikeAndILike(t *testing.T) {
	b := query.Table("users").WhereLike("name", "a%").WhereILike("email", "%CORP%")
	assert.Equal(t, "like", b.Statement().Where[0].Op)
	assert.Equal(t, "ilike", b.Statement().Where[1].Op)
}

func TestWhereExistsCapturesSubquery(t *testing.T) {
	b := query.Table("users").WhereExists(func(sub *query.Builder) {
		sub.From("orders").Where("orders.user_id", query.ColumnRefValue("users.id"))
	})
	p := b.Statement().Where[0]
	assert.Equal(t, query.PredExists, p.Kind)
	require.NotNil(t, p.Sub)
	assert.Equal(t, "orders", p.Sub.Table)
}

func TestWhereNotExistsNegates(t *testing.T) {
	b := query.Table("users").WhereNotExists(func(sub *query.Builder) { sub.From("orders") })
	assert.True(t, b.Statement().Where[0].Negate)
}

func TestColumnRefValueRoundTrips(t *testing.T) {
	v := query.ColumnRefValue("users.id")
	col, ok := query.AsColumnRef(v)
	require.True(t, ok)
	assert.Equal(t, "users.id", col)

	_, ok = query.AsColumnRef("users.id")
	assert.False(t, ok)
}

func TestHavingMirrorsWhereForms(t *testing.T) {
	b := query.Table("orders").GroupBy("customer_id").Having("total", ">", 100).OrHaving("count", ">=", 5)
	require.Len(t, b.Statement().Having, 2)
	assert.Equal(t, query.Or, b.Statement().Having[1].Conj)
}

func TestWhereJSONHelpers(t *testing.T) {
	b := query.Table("docs").
		WhereJSONPath("data", []string{"a", "b"}, "x").
		WhereJSONSupersetOf("data", map[string]interface{}{"a": 1}).
		WhereJSONSubsetOf("data", map[string]interface{}{"a": 1})
	assert.Equal(t, "#>>", b.Statement().Where[0].JSONOp)
	assert.Equal(t, "@>", b.Statement().Where[1].JSONOp)
	assert.Equal(t, "<@", b.Statement().Where[2].JSONOp)
}
