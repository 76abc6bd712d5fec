package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProcessor struct {
	BaseProcessor
	name string
}

func (s stubProcessor) Name() string                     { return s.name }
func (s stubProcessor) CheckStatus() error                { return nil }
func (s stubProcessor) Process(doc []byte) ([]byte, error) { return doc, nil }

func TestRegisterAndGet(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(stubProcessor{name: "echo"}))

	p, err := r.Get("echo")
	require.NoError(t, err)
	assert.Equal(t, "echo", p.Name())
}

func TestRegisterDuplicateIsFatalConfigError(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(stubProcessor{name: "echo"}))
	err := r.Register(stubProcessor{name: "echo"})
	assert.True(t, errors.Is(err, ErrAlreadyRegistered))
}

func TestGetUnknownModule(t *testing.T) {
	r := New()
	_, err := r.Get("missing")
	assert.True(t, errors.Is(err, ErrUnknownModule))
}

func TestBaseProcessorConvertIsUnsupportedByDefault(t *testing.T) {
	p := stubProcessor{name: "echo"}
	_, err := p.Convert("0xabc", []byte("result"), "xml")
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}
