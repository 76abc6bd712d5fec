package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueThenVerify(t *testing.T) {
	token, err := Issue(time.Hour)
	require.NoError(t, err)
	assert.NoError(t, Verify(token))
}

func TestVerifyRejectsExpired(t *testing.T) {
	token, err := Issue(-time.Hour)
	require.NoError(t, err)
	assert.Error(t, Verify(token))
}

func TestVerifyRejectsGarbage(t *testing.T) {
	assert.Error(t, Verify("not-a-token"))
}

func TestSecretIsStable(t *testing.T) {
	assert.Equal(t, Secret(), Secret())
}
