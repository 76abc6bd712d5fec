package client

import "github.com/nlpipe/nlpipe/store"

// ProcessOptions mirrors store.EnqueueOptions for callers that only depend
// on this package.
type ProcessOptions struct {
	ID           string
	ResetError   bool
	ResetPending bool
}

// Client is the operations a worker or an end-user CLI needs against an
// nlpipe deployment, whether it is reached directly on disk or over HTTP.
type Client interface {
	// Status reports the state of (module, id).
	Status(module, id string) (store.Status, error)

	// Process enqueues doc for module, returning its id.
	Process(module string, doc []byte, opts ProcessOptions) (string, error)

	// Result fetches the outcome of (module, id), converted to format if
	// format is non-empty. A task in a non-terminal state is an error.
	Result(module, id, format string) ([]byte, error)

	// GetTask claims the oldest queued task for module. Returns ErrNoTask
	// when the queue is empty.
	GetTask(module string) (id string, doc []byte, err error)

	// StoreResult and StoreError record a worker's outcome for (module, id).
	StoreResult(module, id string, result []byte) error
	StoreError(module, id string, message []byte) error

	// BulkStatus and BulkResult probe many ids at once.
	BulkStatus(module string, ids []string) (map[string]store.Status, error)
	BulkResult(module string, ids []string, format string) (map[string][]byte, error)

	// BulkProcess enqueues many documents at once, returning their ids.
	// Local returns them in the same order as docs. Remote does too when
	// ids is empty; when ids are given it sends an id-to-document object and
	// returns the ids in the order the server lists them, which is not
	// defined.
	BulkProcess(module string, docs [][]byte, ids []string, resetError, resetPending bool) ([]string, error)

	// Statistics counts tasks per status for module. Remote does not
	// support it and always returns an error.
	Statistics(module string) (map[store.Status]int, error)
}
