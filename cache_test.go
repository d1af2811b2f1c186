package sequel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sqlkit/sequel"
)

func TestMemoryCacheGetSet(t *testing.T) {
	c := sequel.NewMemoryCache()
	_, ok := c.Get("missing")
	assert.False(t, ok)

	res := &sequel.Result{Affected: 1}
	c.Set("key", res)
	got, ok := c.Get("key")
	assert.True(t, ok)
	assert.Same(t, res, got)
}
