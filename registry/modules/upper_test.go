package modules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpperProcess(t *testing.T) {
	out, err := Upper{}.Process([]byte("hello world"))
	require.NoError(t, err)
	assert.Equal(t, "HELLO WORLD", string(out))
}

func TestUpperConvertJSON(t *testing.T) {
	out, err := Upper{}.Convert("0xdeadbeef", []byte("HELLO"), "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"0xdeadbeef","status":"OK","result":"HELLO"}`, string(out))
}

func TestUpperConvertUnsupportedFormat(t *testing.T) {
	_, err := Upper{}.Convert("0xdeadbeef", []byte("HELLO"), "xml")
	assert.Error(t, err)
}

func TestUpperCheckStatus(t *testing.T) {
	assert.NoError(t, Upper{}.CheckStatus())
}
