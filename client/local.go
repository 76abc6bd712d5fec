package client

import (
	"github.com/nlpipe/nlpipe/registry"
	"github.com/nlpipe/nlpipe/store"
)

// Local implements Client by calling a store.Store directly, optionally
// converting results through a registry.Registry. It is the client used by
// nlpipe-server itself and by workers/CLIs that share a filesystem (or NFS
// mount) with the server, matching the original project's FSClient.
type Local struct {
	Store    *store.Store
	Registry *registry.Registry
}

// NewLocal returns a Local client over store, converting via reg when a
// non-empty format is requested.
func NewLocal(s *store.Store, reg *registry.Registry) *Local {
	return &Local{Store: s, Registry: reg}
}

func (c *Local) Status(module, id string) (store.Status, error) {
	return c.Store.Status(module, id)
}

func (c *Local) Process(module string, doc []byte, opts ProcessOptions) (string, error) {
	return c.Store.Enqueue(module, doc, store.EnqueueOptions{
		ID:           opts.ID,
		ResetError:   opts.ResetError,
		ResetPending: opts.ResetPending,
	})
}

func (c *Local) Result(module, id, format string) ([]byte, error) {
	result, err := c.Store.Result(module, id)
	if err != nil {
		return nil, err
	}
	if format == "" {
		return result, nil
	}
	proc, err := c.Registry.Get(module)
	if err != nil {
		return nil, err
	}
	return proc.Convert(id, result, format)
}

func (c *Local) GetTask(module string) (string, []byte, error) {
	id, doc, err := c.Store.Claim(module)
	if err != nil {
		return "", nil, err
	}
	if id == "" {
		return "", nil, ErrNoTask
	}
	return id, doc, nil
}

func (c *Local) StoreResult(module, id string, result []byte) error {
	return c.Store.StoreResult(module, id, result)
}

func (c *Local) StoreError(module, id string, message []byte) error {
	return c.Store.StoreError(module, id, message)
}

func (c *Local) BulkStatus(module string, ids []string) (map[string]store.Status, error) {
	return c.Store.BulkStatus(module, ids)
}

func (c *Local) BulkResult(module string, ids []string, format string) (map[string][]byte, error) {
	raw, err := c.Store.BulkResult(module, ids)
	if err != nil {
		return nil, err
	}
	if format == "" {
		return raw, nil
	}
	proc, err := c.Registry.Get(module)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(raw))
	for id, result := range raw {
		converted, err := proc.Convert(id, result, format)
		if err != nil {
			return nil, err
		}
		out[id] = converted
	}
	return out, nil
}

func (c *Local) BulkProcess(module string, docs [][]byte, ids []string, resetError, resetPending bool) ([]string, error) {
	items := make([]store.BulkEnqueueItem, len(docs))
	for i, doc := range docs {
		item := store.BulkEnqueueItem{Doc: doc}
		if i < len(ids) {
			item.ID = ids[i]
		}
		items[i] = item
	}
	return c.Store.BulkEnqueue(module, items, resetError, resetPending)
}

func (c *Local) Statistics(module string) (map[store.Status]int, error) {
	return c.Store.Statistics(module)
}
