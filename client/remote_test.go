package client

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoteProcessSetsLocationAndID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/modules/test_upper/", r.URL.Path)
		assert.Equal(t, "Token secret", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "hello", string(body))
		w.Header().Set("Location", "/api/modules/test_upper/0xabc")
		w.Header().Set("ID", "0xabc")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := NewRemote(srv.URL, "secret")
	id, err := c.Process("test_upper", []byte("hello"), ProcessOptions{})
	require.NoError(t, err)
	assert.Equal(t, "0xabc", id)
}

func TestRemoteStatusForbidden(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewRemote(srv.URL, "")
	_, err := c.Status("test_upper", "0xabc")
	assert.Error(t, err)
}

func TestRemoteStoreErrorSendsErrorMIME(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, errorMIME, r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewRemote(srv.URL, "")
	require.NoError(t, c.StoreError("test_upper", "0xabc", []byte("boom")))
}

func TestRemoteGetTaskEmptyQueue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewRemote(srv.URL, "")
	_, _, err := c.GetTask("test_upper")
	assert.ErrorIs(t, err, ErrNoTask)
}

func TestRemoteBulkStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"0xabc":"DONE"}`))
	}))
	defer srv.Close()

	c := NewRemote(srv.URL, "")
	statuses, err := c.BulkStatus("test_upper", []string{"0xabc"})
	require.NoError(t, err)
	assert.Equal(t, "DONE", string(statuses["0xabc"]))
}
