package errors_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	sqlerr "github.com/sqlkit/sequel/errors"
)

func TestNewAndError(t *testing.T) {
	err := sqlerr.New(sqlerr.Config, "bad option %q", "client")
	assert.Equal(t, `ConfigError: bad option "client"`, err.Error())
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := sqlerr.Wrap(sqlerr.Connection, cause, "dial tcp")
	assert.Equal(t, cause, err.Unwrap())
	assert.True(t, errors.Is(err, cause))
}

func TestWithSQLAttachesWithoutMutatingOriginal(t *testing.T) {
	err := sqlerr.New(sqlerr.Syntax, "near \"FORM\"")
	decorated := err.WithSQL("select * FORM users")
	assert.Empty(t, err.SQL)
	assert.Equal(t, "select * FORM users", decorated.SQL)
	assert.Contains(t, decorated.Error(), "sql: select * FORM users")
}

func TestIsWalksCauseChain(t *testing.T) {
	inner := sqlerr.New(sqlerr.Constraint, "unique violation")
	outer := sqlerr.Wrap(sqlerr.Transaction, inner, "rollback after insert")
	assert.True(t, sqlerr.Is(outer, sqlerr.Transaction))
	assert.True(t, sqlerr.Is(outer, sqlerr.Constraint))
	assert.False(t, sqlerr.Is(outer, sqlerr.Timeout))
}

func TestAsExtractsConcreteType(t *testing.T) {
	var target *sqlerr.Error
	err := sqlerr.New(sqlerr.Unsupported, "no RETURNING")
	assert.True(t, sqlerr.As(err, &target))
	assert.Equal(t, sqlerr.Unsupported, target.Kind)
}

func TestKindStringer(t *testing.T) {
	assert.Equal(t, "ConstraintError", sqlerr.Constraint.String())
	assert.Equal(t, "TimeoutError", sqlerr.Timeout.String())
}
