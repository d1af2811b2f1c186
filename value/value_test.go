package value_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlkit/sequel/value"
)

func TestNullStringMarshalsNullWhenUnset(t *testing.T) {
	var n value.NullString
	b, err := json.Marshal(n)
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))
}

func TestNullStringMarshalsValueWhenSet(t *testing.T) {
	n := value.NullStringFrom("alice")
	b, err := json.Marshal(n)
	require.NoError(t, err)
	assert.Equal(t, `"alice"`, string(b))
}

func TestNullIfStringTreatsSentinelAsUnset(t *testing.T) {
	assert.False(t, value.NullIfString("", "").Valid)
	assert.True(t, value.NullIfString("x", "").Valid)
}

func TestNullInt64AndBoolFrom(t *testing.T) {
	i := value.NullInt64From(42)
	assert.True(t, i.Valid)
	assert.Equal(t, int64(42), i.Int64)

	b := value.NullBoolFrom(true)
	assert.True(t, b.Valid)
	assert.True(t, b.Bool)
}

func TestNullFloat64MarshalUnset(t *testing.T) {
	var f value.NullFloat64
	out, err := json.Marshal(f)
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}
