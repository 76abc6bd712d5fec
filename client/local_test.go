package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nlpipe/nlpipe/registry"
	"github.com/nlpipe/nlpipe/registry/modules"
	"github.com/nlpipe/nlpipe/store"
)

func newTestLocal(t *testing.T) *Local {
	t.Helper()
	s, err := store.Open(t.TempDir())
	require.NoError(t, err)
	reg := registry.New()
	require.NoError(t, reg.Register(modules.Upper{}))
	return NewLocal(s, reg)
}

func TestLocalProcessAndResult(t *testing.T) {
	c := newTestLocal(t)

	id, err := c.Process("test_upper", []byte("hello"), ProcessOptions{})
	require.NoError(t, err)

	_, _, err = c.Store.Claim("test_upper")
	require.NoError(t, err)
	require.NoError(t, c.StoreResult("test_upper", id, []byte("HELLO")))

	result, err := c.Result("test_upper", id, "")
	require.NoError(t, err)
	assert.Equal(t, "HELLO", string(result))
}

func TestLocalResultWithFormatConversion(t *testing.T) {
	c := newTestLocal(t)

	id, err := c.Process("test_upper", []byte("hi"), ProcessOptions{})
	require.NoError(t, err)
	_, _, err = c.Store.Claim("test_upper")
	require.NoError(t, err)
	require.NoError(t, c.StoreResult("test_upper", id, []byte("HI")))

	result, err := c.Result("test_upper", id, "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"`+id+`","status":"OK","result":"HI"}`, string(result))
}

func TestLocalGetTaskNoTask(t *testing.T) {
	c := newTestLocal(t)
	_, _, err := c.GetTask("test_upper")
	assert.ErrorIs(t, err, ErrNoTask)
}

func TestLocalBulkProcess(t *testing.T) {
	c := newTestLocal(t)
	ids, err := c.BulkProcess("test_upper", [][]byte{[]byte("a"), []byte("b")}, nil, false, false)
	require.NoError(t, err)
	require.Len(t, ids, 2)

	statuses, err := c.BulkStatus("test_upper", ids)
	require.NoError(t, err)
	for _, id := range ids {
		assert.Equal(t, store.Pending, statuses[id])
	}
}
