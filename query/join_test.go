package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlkit/sequel/query"
)

func TestJoinThreeArgForm(t *testing.T) {
	b := query.Table("a").Join("b", "a.id", "=", "b.a_id")
	require.Len(t, b.Statement().Joins, 1)
	j := b.Statement().Joins[0]
	assert.Equal(t, query.InnerJoin, j.Kind)
	assert.Equal(t, "b", j.Target)
	require.Len(t, j.On, 1)
	assert.Equal(t, "a.id", j.On[0].Column)
	col, ok := query.AsColumnRef(j.On[0].Value)
	require.True(t, ok)
	assert.Equal(t, "b.a_id", col)
}

func TestJoinCallbackForm(t *testing.T) {
	b := query.Table("a").Join("b", func(o *query.OnBuilder) {
		o.On("a.id", "=", "b.a_id").OrOn("a.legacy_id", "=", "b.a_id").Using("org_id")
	})
	j := b.Statement().Joins[0]
	require.Len(t, j.On, 2)
	assert.Equal(t, query.Or, j.On[1].Conj)
	assert.Equal(t, []string{"org_id"}, j.Using)
}

func TestJoinEqMapForm(t *testing.T) {
	b := query.Table("a").Join("b", query.Eq{"a.id": "b.a_id"})
	j := b.Statement().Joins[0]
	require.Len(t, j.On, 1)
	assert.Equal(t, "a.id", j.On[0].Column)
}

func TestLeftRightFullOuterAndCrossJoinKinds(t *testing.T) {
	b := query.Table("a").
		LeftJoin("b", "a.id", "=", "b.a_id").
		RightJoin("c", "a.id", "=", "c.a_id").
		FullOuterJoin("d", "a.id", "=", "d.a_id").
		CrossJoin("e")
	joins := b.Statement().Joins
	require.Len(t, joins, 4)
	assert.Equal(t, query.LeftJoin, joins[0].Kind)
	assert.Equal(t, query.RightJoin, joins[1].Kind)
	assert.Equal(t, query.FullOuterJoin, joins[2].Kind)
	assert.Equal(t, query.CrossJoin, joins[3].Kind)
	assert.Empty(t, joins[3].On)
}

func TestJoinUnsupportedArgCountFails(t *testing.T) {
	b := query.Table("a").Join("b", "a.id", "=")
	assert.Error(t, b.Err())
}

func TestUpdateFromAppendsJoinToUpdateFromSlot(t *testing.T) {
	b := query.UpdateTable("accounts").
		Update(map[string]interface{}{"balance": 0}).
		UpdateFrom("orders", "accounts.id", "=", "orders.account_id").
		UpdateFrom("regions", query.Eq{"accounts.region_id": query.ColumnRefValue("regions.id")})
	require.Len(t, b.Statement().UpdateFrom, 2)
	assert.Equal(t, "orders", b.Statement().UpdateFrom[0].Target)
	assert.Equal(t, "regions", b.Statement().UpdateFrom[1].Target)
	assert.Equal(t, "accounts.id", b.Statement().UpdateFrom[0].On[0].Column)
}

func TestUpdateFromUnsupportedArgCountFails(t *testing.T) {
	b := query.UpdateTable("accounts").Update(map[string]interface{}{"balance": 0}).UpdateFrom("orders", "a.id", "=")
	assert.Error(t, b.Err())
}

func TestOnBuilderInAndBetweenAndNullAndExists(t *testing.T) {
	b := query.Table("a").Join("b", func(o *query.OnBuilder) {
		o.OnIn("b.status", []interface{}{"shipped", "paid"}).
			OnBetween("b.amount", 0, 100).
			OnNull("b.deleted_at").
			OnExists(func(sub *query.Builder) { sub.From("c") }).
			OnVal("b.kind", "=", "retail")
	})
	on := b.Statement().Joins[0].On
	require.Len(t, on, 5)
	assert.Equal(t, query.PredInList, on[0].Kind)
	assert.Equal(t, query.PredBetween, on[1].Kind)
	assert.Equal(t, query.PredNullTest, on[2].Kind)
	assert.Equal(t, query.PredExists, on[3].Kind)
	assert.Equal(t, "retail", on[4].Value)
}
