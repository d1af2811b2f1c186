package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlkit/sequel/query"
)

type product struct {
	ID    int64  `db:"id"`
	Name  string `db:"name"`
	Price int64  `db:"price"`
}

func TestInsertFromMapInfersColumns(t *testing.T) {
	b := query.InsertInto("products").Insert(map[string]interface{}{"name": "Widget", "price": 100}, "id")
	stmt := b.Statement()
	require.Len(t, stmt.InsertVals, 1)
	require.Len(t, stmt.InsertCols, 2)
	require.Len(t, stmt.Returning, 1)
	assert.Equal(t, "id", stmt.Returning[0].Ref.Column)
}

func TestInsertFromSliceOfMapsBulkInserts(t *testing.T) {
	b := query.InsertInto("products").Insert([]map[string]interface{}{
		{"name": "A", "price": 1},
		{"name": "B", "price": 2},
	})
	assert.Len(t, b.Statement().InsertVals, 2)
}

func TestInsertFromStructQueuesRecord(t *testing.T) {
	b := query.InsertInto("products").Insert(product{Name: "Widget", Price: 100})
	assert.Len(t, b.Statement().Records, 1)
}

func TestInsertFromSliceOfStructsQueuesEachRecord(t *testing.T) {
	rows := []product{{Name: "A", Price: 1}, {Name: "B", Price: 2}}
	b := query.InsertInto("products").Insert(rows)
	assert.Len(t, b.Statement().Records, 2)
}

func TestResolvedInsertColumnsWithWhitelist(t *testing.T) {
	b := query.InsertInto("products").Columns("name", "price").Record(product{ID: 1, Name: "Widget", Price: 100})
	cols, err := b.Statement().ResolvedInsertColumns()
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "price"}, cols)
}

func TestResolvedInsertColumnsWithBlacklist(t *testing.T) {
	b := query.InsertInto("products").Blacklist("id").Record(product{ID: 1, Name: "Widget", Price: 100})
	cols, err := b.Statement().ResolvedInsertColumns()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"name", "price"}, cols)
}

func TestResolvedInsertColumnsStarExpandsAll(t *testing.T) {
	b := query.InsertInto("products").Columns("*").Record(product{ID: 1, Name: "Widget", Price: 100})
	cols, err := b.Statement().ResolvedInsertColumns()
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "price"}, cols)
}

func TestRecordValuesExtractsInColumnOrder(t *testing.T) {
	records := []interface{}{product{ID: 1, Name: "A", Price: 10}, product{ID: 2, Name: "B", Price: 20}}
	rows, err := query.RecordValues(records, []string{"name", "id"})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"A", int64(1)}, rows[0])
	assert.Equal(t, []interface{}{"B", int64(2)}, rows[1])
}

func TestPairBuildsSingleRowIncrementally(t *testing.T) {
	b := query.InsertInto("products").Pair("name", "Widget").Pair("price", 100)
	stmt := b.Statement()
	assert.Equal(t, []string{"name", "price"}, stmt.InsertCols)
	require.Len(t, stmt.InsertVals, 1)
	assert.Equal(t, []interface{}{"Widget", 100}, stmt.InsertVals[0])
}

func TestUpdateSetsAssignmentsAndReturning(t *testing.T) {
	b := query.UpdateTable("products").Update(map[string]interface{}{"price": 150}, "id")
	require.Len(t, b.Statement().Assignments, 1)
	assert.Equal(t, "price", b.Statement().Assignments[0].Column)
	require.Len(t, b.Statement().Returning, 1)
}

func TestSetRawAppendsRawAssignment(t *testing.T) {
	b := query.UpdateTable("products").SetRaw("price", "price * ?", 2)
	a := b.Statement().Assignments[0]
	require.NotNil(t, a.Raw)
	assert.Equal(t, "price * ?", a.Raw.SQL)
}

func TestUpdateTableRequiresTable(t *testing.T) {
	b := query.UpdateTable("")
	assert.Error(t, b.Err())
}

func TestDeleteFromRequiresTable(t *testing.T) {
	b := query.DeleteFrom("")
	assert.Error(t, b.Err())
}

func TestDelSetsReturning(t *testing.T) {
	b := query.DeleteFrom("products").Del("id")
	require.Len(t, b.Statement().Returning, 1)
}

func TestOnConflictIgnoreSetsDoNothing(t *testing.T) {
	b := query.InsertInto("products").
		Insert(map[string]interface{}{"id": 1, "name": "Widget"}).
		OnConflictColumn("id").
		Ignore()
	require.NotNil(t, b.Statement().OnConflict)
	assert.True(t, b.Statement().OnConflict.DoNothing)
}

func TestOnConflictConstraintAndWhere(t *testing.T) {
	b1 := query.InsertInto("products").OnConflictConstraint("products_pkey")
	assert.Equal(t, "products_pkey", b1.Statement().OnConflict.Constraint)

	b2 := query.InsertInto("products").OnConflictWhere("sku", "sku is not null")
	assert.Equal(t, "sku", b2.Statement().OnConflict.Column)
	assert.Equal(t, "sku is not null", b2.Statement().OnConflict.IndexPredicate)
}

func TestMergeDefaultsToInsertColumnsExcludingNone(t *testing.T) {
	b := query.InsertInto("products").
		Insert(map[string]interface{}{"id": 1, "name": "Widget"}).
		OnConflictColumn("id").
		Merge()
	assignments := b.Statement().OnConflict.Assignments
	require.Len(t, assignments, 2)
	for _, a := range assignments {
		col, ok := query.AsExcludedColumn(a.Value)
		require.True(t, ok)
		assert.Equal(t, a.Column, col)
	}
}

func TestMergeWithExplicitColumns(t *testing.T) {
	b := query.InsertInto("products").
		Insert(map[string]interface{}{"id": 1, "name": "Widget", "price": 5}).
		OnConflictColumn("id").
		Merge("price")
	assignments := b.Statement().OnConflict.Assignments
	require.Len(t, assignments, 1)
	assert.Equal(t, "price", assignments[0].Column)
}

func TestUpsertCombinesInsertConflictAndMerge(t *testing.T) {
	b := query.InsertInto("products").
		Upsert(map[string]interface{}{"id": 1, "name": "Widget"}, []string{"id"}, "id")
	require.NoError(t, b.Err())
	require.NotNil(t, b.Statement().OnConflict)
	assert.Equal(t, "id", b.Statement().OnConflict.Column)
	assert.False(t, b.Statement().OnConflict.DoNothing)
	require.Len(t, b.Statement().Returning, 1)
}
