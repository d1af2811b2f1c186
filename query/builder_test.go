package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlkit/sequel/query"
)

func TestSelectColumnsInOrder(t *testing.T) {
	b := query.Select("id", "name")
	require.NoError(t, b.Err())
	stmt := b.Statement()
	require.Len(t, stmt.Columns, 2)
	assert.Equal(t, "id", stmt.Columns[0].Ref.Column)
	assert.Equal(t, "name", stmt.Columns[1].Ref.Column)
}

func TestTableLeavesColumnsEmptyForWildcard(t *testing.T) {
	b := query.Table("users")
	assert.Empty(t, b.Statement().Columns)
	assert.Equal(t, "users", b.Statement().Table)
}

func TestColumnWithNoArgsRecordsError(t *testing.T) {
	b := query.Select()
	assert.Error(t, b.Err())
}

func TestInsertIntoRequiresTable(t *testing.T) {
	b := query.InsertInto("")
	assert.Error(t, b.Err())
}

func TestFromReplacesPriorTable(t *testing.T) {
	b := query.Table("a").From("b")
	assert.Equal(t, "b", b.Statement().Table)
}

func TestAsSetsTableAlias(t *testing.T) {
	b := query.Table("users").As("u")
	assert.Equal(t, "u", b.Statement().TableAlias)
}

func TestDistinctOnSetsColumnsAndFlag(t *testing.T) {
	b := query.Select("id").From("users").DistinctOn("org_id")
	assert.True(t, b.Statement().Distinct)
	require.Len(t, b.Statement().DistinctOn, 1)
	assert.Equal(t, "org_id", b.Statement().DistinctOn[0].Ref.Column)
}

func TestCloneIsIndependentOfOriginal(t *testing.T) {
	orig := query.Select("id").From("users").Where("active", true)
	clone := orig.Clone()
	clone.Where("org_id", 5)

	assert.Len(t, orig.Statement().Where, 1, "mutating the clone must not affect the original")
	assert.Len(t, clone.Statement().Where, 2)
}

func TestFreezeRejectsFurtherMutation(t *testing.T) {
	b := query.Select("id").From("users").Freeze()
	b.Where("id", 1)
	assert.Error(t, b.Err())
}

func TestFreezeThenCloneAllowsMutationAgain(t *testing.T) {
	b := query.Select("id").From("users").Freeze()
	clone := b.Clone()
	clone.Where("id", 1)
	require.NoError(t, clone.Err())
	assert.Len(t, clone.Statement().Where, 1)
}

func TestRawQueryCapturesSQLAndBindings(t *testing.T) {
	b := query.RawQuery("select 1 where id = ?", 42)
	assert.Equal(t, "select 1 where id = ?", b.Statement().RawSQL)
	assert.Equal(t, []interface{}{42}, b.Statement().RawBindings)
}
