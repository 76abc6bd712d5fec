package store

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestEnqueueIsIdempotentOnIdenticalBytes(t *testing.T) {
	s := newTestStore(t)
	doc := []byte("hello")

	id1, err := s.Enqueue("upper", doc, EnqueueOptions{})
	require.NoError(t, err)
	id2, err := s.Enqueue("upper", doc, EnqueueOptions{})
	require.NoError(t, err)

	assert.Equal(t, id1, id2)

	entries, err := os.ReadDir(s.bucketDir("upper", Queue))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestHappyPath(t *testing.T) {
	s := newTestStore(t)

	id, err := s.Enqueue("upper", []byte("hello"), EnqueueOptions{})
	require.NoError(t, err)
	assert.Equal(t, "0x5d41402abc4b2a76b9719d911017c592", id)

	status, err := s.Status("upper", id)
	require.NoError(t, err)
	assert.Equal(t, Pending, status)

	gotID, doc, err := s.Claim("upper")
	require.NoError(t, err)
	assert.Equal(t, id, gotID)
	assert.Equal(t, "hello", string(doc))

	status, err = s.Status("upper", id)
	require.NoError(t, err)
	assert.Equal(t, Started, status)

	require.NoError(t, s.StoreResult("upper", id, []byte("HELLO")))

	status, err = s.Status("upper", id)
	require.NoError(t, err)
	assert.Equal(t, Done, status)

	result, err := s.Result("upper", id)
	require.NoError(t, err)
	assert.Equal(t, "HELLO", string(result))
}

func TestErrorPath(t *testing.T) {
	s := newTestStore(t)

	id, err := s.Enqueue("upper", []byte("hello"), EnqueueOptions{})
	require.NoError(t, err)
	_, _, err = s.Claim("upper")
	require.NoError(t, err)

	require.NoError(t, s.StoreError("upper", id, []byte("boom")))

	status, err := s.Status("upper", id)
	require.NoError(t, err)
	assert.Equal(t, Error, status)

	_, err = s.Result("upper", id)
	var perr *ProcessingErr
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "boom", string(perr.Message))
}

func TestResetOnError(t *testing.T) {
	s := newTestStore(t)
	doc := []byte("hello")

	id, err := s.Enqueue("upper", doc, EnqueueOptions{})
	require.NoError(t, err)
	_, _, err = s.Claim("upper")
	require.NoError(t, err)
	require.NoError(t, s.StoreError("upper", id, []byte("boom")))

	// No reset: no-op.
	_, err = s.Enqueue("upper", doc, EnqueueOptions{})
	require.NoError(t, err)
	status, err := s.Status("upper", id)
	require.NoError(t, err)
	assert.Equal(t, Error, status)

	// Reset: moves back to queue, deletes the errors file.
	_, err = s.Enqueue("upper", doc, EnqueueOptions{ResetError: true})
	require.NoError(t, err)
	status, err = s.Status("upper", id)
	require.NoError(t, err)
	assert.Equal(t, Pending, status)
	_, err = os.Stat(s.taskPath("upper", Errors, id))
	assert.True(t, os.IsNotExist(err))
}

func TestResetOnPending(t *testing.T) {
	s := newTestStore(t)
	doc := []byte("hello")

	id, err := s.Enqueue("upper", doc, EnqueueOptions{})
	require.NoError(t, err)
	_, _, err = s.Claim("upper")
	require.NoError(t, err)

	_, err = s.Enqueue("upper", doc, EnqueueOptions{ResetPending: true})
	require.NoError(t, err)
	status, err := s.Status("upper", id)
	require.NoError(t, err)
	assert.Equal(t, Pending, status)
}

func TestClaimOnEmptyQueueReturnsNil(t *testing.T) {
	s := newTestStore(t)
	id, doc, err := s.Claim("upper")
	require.NoError(t, err)
	assert.Empty(t, id)
	assert.Nil(t, doc)
}

func TestClaimIsRaceFreeAcrossWorkers(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 20; i++ {
		_, err := s.Enqueue("upper", []byte{byte(i)}, EnqueueOptions{})
		require.NoError(t, err)
	}

	const workers = 6
	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := map[string]int{}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				id, doc, err := s.Claim("upper")
				if err != nil {
					t.Error(err)
					return
				}
				if id == "" {
					return
				}
				mu.Lock()
				seen[id]++
				mu.Unlock()
				_ = doc
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 20)
	for id, n := range seen {
		assert.Equalf(t, 1, n, "task %s claimed %d times", id, n)
	}
}

func TestStoreResultRequiresNonQueueState(t *testing.T) {
	s := newTestStore(t)
	id, err := s.Enqueue("upper", []byte("hello"), EnqueueOptions{})
	require.NoError(t, err)

	err = s.StoreResult("upper", id, []byte("HELLO"))
	assert.True(t, errors.Is(err, ErrInvalidState))
}

func TestStoreResultOnUnknownIsInvalidState(t *testing.T) {
	s := newTestStore(t)
	err := s.StoreResult("upper", "0x5d41402abc4b2a76b9719d911017c592", []byte("x"))
	assert.True(t, errors.Is(err, ErrInvalidState))
}

func TestStoreResultOnDoneIsIdempotentSuccess(t *testing.T) {
	s := newTestStore(t)
	id, err := s.Enqueue("upper", []byte("hello"), EnqueueOptions{})
	require.NoError(t, err)
	_, _, err = s.Claim("upper")
	require.NoError(t, err)
	require.NoError(t, s.StoreResult("upper", id, []byte("HELLO")))
	require.NoError(t, s.StoreResult("upper", id, []byte("HELLO2")))

	result, err := s.Result("upper", id)
	require.NoError(t, err)
	assert.Equal(t, "HELLO2", string(result))
}

func TestResultOnNonTerminalIsNotReady(t *testing.T) {
	s := newTestStore(t)
	id, err := s.Enqueue("upper", []byte("hello"), EnqueueOptions{})
	require.NoError(t, err)
	_, err = s.Result("upper", id)
	assert.True(t, errors.Is(err, ErrNotReady))
}

func TestBulkEnqueueEmptyListNoFiles(t *testing.T) {
	s := newTestStore(t)
	ids, err := s.BulkEnqueue("upper", nil, false, false)
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = os.Stat(filepath.Join(s.root, "upper"))
	assert.True(t, os.IsNotExist(err))
}

func TestBulkProcessWithExplicitIDs(t *testing.T) {
	s := newTestStore(t)
	ids, err := s.BulkEnqueue("upper", []BulkEnqueueItem{
		{Doc: []byte("x"), ID: "a"},
		{Doc: []byte("y"), ID: "b"},
		{Doc: []byte("z"), ID: "c"},
	}, false, false)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, ids)

	statuses, err := s.BulkStatus("upper", ids)
	require.NoError(t, err)
	for _, st := range statuses {
		assert.Equal(t, Pending, st)
	}
}

func TestStatisticsCountsBuckets(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Enqueue("upper", []byte("a"), EnqueueOptions{})
	require.NoError(t, err)
	_, err = s.Enqueue("upper", []byte("b"), EnqueueOptions{})
	require.NoError(t, err)

	stats, err := s.Statistics("upper")
	require.NoError(t, err)
	want := map[Status]int{Pending: 2, Started: 0, Done: 0, Error: 0}
	if diff := cmp.Diff(want, stats); diff != "" {
		t.Errorf("statistics mismatch (-want +got):\n%s", diff)
	}
}

func TestBulkResultOmitsNonTerminal(t *testing.T) {
	s := newTestStore(t)
	id, err := s.Enqueue("upper", []byte("hello"), EnqueueOptions{})
	require.NoError(t, err)

	results, err := s.BulkResult("upper", []string{id})
	require.NoError(t, err)
	assert.Empty(t, results)
}
