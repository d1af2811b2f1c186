package value_test

import (
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlkit/sequel/value"
)

func TestScanRowsNormalizesBytesToString(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "name"}).
		AddRow(1, []byte("Alice")).
		AddRow(2, []byte("Bob"))
	mock.ExpectQuery("select").WillReturnRows(rows)

	sqlRows, err := db.Query("select id, name from users")
	require.NoError(t, err)

	out, err := value.ScanRows(sqlRows)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, int64(1), out[0]["id"])
	assert.Equal(t, "Alice", out[0]["name"])
	assert.Equal(t, "Bob", out[1]["name"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScanRowsEmptyResultSet(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("select").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	sqlRows, err := db.Query("select id from users where 1 = 0")
	require.NoError(t, err)

	out, err := value.ScanRows(sqlRows)
	require.NoError(t, err)
	assert.Empty(t, out)
}

type account struct {
	ID      int64           `db:"id"`
	Name    value.NullString `db:"name"`
	Balance value.NullInt64  `db:"balance"`
}

func TestScanRowsIntoSetsValidOnPresentColumnsAndInvalidOnNull(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("select").WillReturnRows(
		sqlmock.NewRows([]string{"id", "name", "balance"}).
			AddRow(1, "Alice", 100).
			AddRow(2, nil, nil),
	)
	sqlRows, err := db.Query("select id, name, balance from accounts")
	require.NoError(t, err)

	var out []account
	require.NoError(t, value.ScanRowsInto(sqlRows, &out))
	require.Len(t, out, 2)

	assert.Equal(t, int64(1), out[0].ID)
	assert.True(t, out[0].Name.Valid)
	assert.Equal(t, "Alice", out[0].Name.String)
	assert.True(t, out[0].Balance.Valid)
	assert.Equal(t, int64(100), out[0].Balance.Int64)

	assert.False(t, out[1].Name.Valid)
	assert.False(t, out[1].Balance.Valid)

	body, err := out[1].Name.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "null", string(body))
}

func TestScanRowsIntoDiscardsUntaggedColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("select").WillReturnRows(
		sqlmock.NewRows([]string{"id", "name", "unmapped"}).AddRow(1, "Alice", "ignored"),
	)
	sqlRows, err := db.Query("select id, name, unmapped from accounts")
	require.NoError(t, err)

	var out []account
	require.NoError(t, value.ScanRowsInto(sqlRows, &out))
	require.Len(t, out, 1)
	assert.Equal(t, "Alice", out[0].Name.String)
}

func TestPluckExtractsSingleColumn(t *testing.T) {
	rows := []map[string]interface{}{
		{"id": int64(1), "name": "Alice"},
		{"id": int64(2), "name": "Bob"},
	}
	assert.Equal(t, []interface{}{"Alice", "Bob"}, value.Pluck(rows, "name"))
}
