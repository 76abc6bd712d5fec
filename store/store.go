package store

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/nlpipe/nlpipe/internal/fingerprint"
	log "github.com/sirupsen/logrus"
)

const dirMode = 0755

// Mirror is an optional, best-effort archival sink invoked after a task
// reaches a terminal bucket. Failures are logged, never surfaced to the
// caller: mirroring is not on the critical path of any Store invariant.
type Mirror interface {
	Put(bucket Bucket, module, id string, data []byte) error
}

// Store is a content-addressed, filesystem-backed task store rooted at one
// directory. Every (module, id) pair maps to exactly one file, under
// <root>/<module>/<bucket>/<id>; module and bucket directories are created
// lazily.
type Store struct {
	root   string
	mirror Mirror
}

// Open returns a Store rooted at dir, creating dir if necessary.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return nil, errorf("Open", "%q: %w", dir, err)
	}
	return &Store{root: dir}, nil
}

// WithMirror attaches an archival mirror and returns the Store for chaining.
func (s *Store) WithMirror(m Mirror) *Store {
	s.mirror = m
	return s
}

func (s *Store) bucketDir(module string, b Bucket) string {
	return filepath.Join(s.root, module, string(b))
}

func (s *Store) taskPath(module string, b Bucket, id string) string {
	return filepath.Join(s.bucketDir(module, b), id)
}

// locate returns the bucket currently holding (module, id), or ok=false if
// the task is absent from all four buckets.
func (s *Store) locate(module, id string) (b Bucket, ok bool, err error) {
	for _, candidate := range buckets {
		_, statErr := os.Stat(s.taskPath(module, candidate, id))
		switch {
		case statErr == nil:
			return candidate, true, nil
		case os.IsNotExist(statErr):
			continue
		default:
			return "", false, errorf("locate", "%s/%s: %w", module, id, statErr)
		}
	}
	return "", false, nil
}

// Status reports the externally-visible state of (module, id). Stale reads
// are acceptable: Status does no locking and may race with a concurrent
// transition, which would simply be observed on the next call.
func (s *Store) Status(module, id string) (Status, error) {
	b, ok, err := s.locate(module, id)
	if err != nil {
		return "", err
	}
	if !ok {
		return Unknown, nil
	}
	return bucketStatus[b], nil
}

// EnqueueOptions configures Enqueue. The zero value computes the id from
// the document and never resets a task already in flight.
type EnqueueOptions struct {
	ID           string
	ResetError   bool
	ResetPending bool
}

// Enqueue adds doc to module's queue, returning its id. If the task already
// exists, the prior state wins unless ResetError/ResetPending apply, in
// which case the task is moved back to queue; otherwise Enqueue is a no-op
// returning the existing id.
func (s *Store) Enqueue(module string, doc []byte, opts EnqueueOptions) (string, error) {
	id := opts.ID
	if id == "" {
		id = fingerprint.Fingerprint(doc)
	}

	b, ok, err := s.locate(module, id)
	if err != nil {
		return "", err
	}

	switch {
	case !ok:
		if err := s.writeAtomic(module, Queue, id, doc); err != nil {
			return "", err
		}
	case b == Errors && opts.ResetError:
		if err := s.requeue(module, id, Errors, doc); err != nil {
			return "", err
		}
	case b == InProgress && opts.ResetPending:
		if err := s.requeue(module, id, InProgress, doc); err != nil {
			return "", err
		}
	default:
		log.WithFields(log.Fields{"module": module, "id": id, "bucket": b}).Debug("enqueue: task already exists, leaving as is")
	}
	return id, nil
}

func (s *Store) requeue(module, id string, from Bucket, doc []byte) error {
	if err := s.writeAtomic(module, Queue, id, doc); err != nil {
		return err
	}
	if err := os.Remove(s.taskPath(module, from, id)); err != nil && !os.IsNotExist(err) {
		return errorf("requeue", "%s/%s: remove stale %s entry: %w", module, id, from, err)
	}
	return nil
}

// stagingDir returns <root>/<module>/.tmp, used to stage writes before they
// are renamed into a bucket directory. Keeping it outside every bucket
// directory means oldestEntry never has to tell a half-written file apart
// from a queued task.
func (s *Store) stagingDir(module string) string {
	return filepath.Join(s.root, module, ".tmp")
}

// writeAtomic writes data to <module>/<bucket>/<id> by writing to a
// temporary file in the module's staging directory and renaming it into
// place, so a crash mid-write never leaves a half-written task file behind
// and a concurrent Claim never observes the temporary file.
func (s *Store) writeAtomic(module string, b Bucket, id string, data []byte) error {
	dir := s.bucketDir(module, b)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return errorf("writeAtomic", "%s/%s: %w", module, b, err)
	}
	staging := s.stagingDir(module)
	if err := os.MkdirAll(staging, dirMode); err != nil {
		return errorf("writeAtomic", "%s/%s: %w", module, b, err)
	}
	tmp := filepath.Join(staging, id+".tmp")
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errorf("writeAtomic", "%s/%s/%s: write temp file: %w", module, b, id, err)
	}
	dst := filepath.Join(dir, id)
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return errorf("writeAtomic", "%s/%s/%s: rename into place: %w", module, b, id, err)
	}
	return nil
}

// Claim moves the oldest queued task for module to inprogress and returns
// its id and bytes. It returns ("", nil, nil) when the queue is empty.
//
// At-most-one-winner dispatch relies solely on os.Rename failing with
// ENOENT for every caller but the one that wins the race to move a given
// file; there is no in-process lock.
func (s *Store) Claim(module string) (string, []byte, error) {
	dir := s.bucketDir(module, Queue)
	for {
		id, found, err := oldestEntry(dir)
		if err != nil {
			return "", nil, errorf("Claim", "%s: %w", module, err)
		}
		if !found {
			return "", nil, nil
		}

		src := filepath.Join(dir, id)
		dstDir := s.bucketDir(module, InProgress)
		if err := os.MkdirAll(dstDir, dirMode); err != nil {
			return "", nil, errorf("Claim", "%s: %w", module, err)
		}
		dst := filepath.Join(dstDir, id)

		if err := os.Rename(src, dst); err != nil {
			if os.IsNotExist(err) {
				// Another claimant won the race for this particular file; retry.
				continue
			}
			return "", nil, errorf("Claim", "%s/%s: %w", module, id, err)
		}

		doc, err := os.ReadFile(dst)
		if err != nil {
			return "", nil, errorf("Claim", "%s/%s: read claimed task: %w", module, id, err)
		}
		return id, doc, nil
	}
}

// oldestEntry returns the name of the entry in dir with the smallest
// modification time. This approximates FIFO without process spawning.
func oldestEntry(dir string) (string, bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	if len(entries) == 0 {
		return "", false, nil
	}

	type candidate struct {
		name    string
		modTime time.Time
	}
	var oldest *candidate
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return "", false, err
		}
		if oldest == nil || info.ModTime().Before(oldest.modTime) {
			oldest = &candidate{name: e.Name(), modTime: info.ModTime()}
		}
	}
	if oldest == nil {
		return "", false, nil
	}
	return oldest.name, true, nil
}

// StoreResult records the outcome of processing (module, id). result is
// written to the results bucket first, then the task's prior location is
// removed, so no window exists where the task is absent from every bucket.
//
// Calling StoreResult on a task already DONE overwrites the stored result;
// this was left open by the originating project and this implementation
// chooses overwrite for consistency with StoreError's overwrite semantics
// and because a worker that reprocesses a task expects its latest output to
// win.
func (s *Store) StoreResult(module, id string, result []byte) error {
	return s.storeTerminal(module, id, Results, result)
}

// StoreError records a processing failure for (module, id). Overwrite of an
// existing error (or result) is allowed, matching StoreResult.
func (s *Store) StoreError(module, id string, message []byte) error {
	return s.storeTerminal(module, id, Errors, message)
}

func (s *Store) storeTerminal(module, id string, target Bucket, payload []byte) error {
	from, ok, err := s.locate(module, id)
	if err != nil {
		return err
	}
	if !ok || from == Queue {
		return errorf("storeTerminal", "%s/%s: %w (status %s)", module, id, ErrInvalidState, statusOf(from, ok))
	}

	if err := s.writeAtomic(module, target, id, payload); err != nil {
		return err
	}
	if from != target {
		if err := os.Remove(s.taskPath(module, from, id)); err != nil && !os.IsNotExist(err) {
			return errorf("storeTerminal", "%s/%s: remove stale %s entry: %w", module, id, from, err)
		}
	}

	if s.mirror != nil {
		go func() {
			if err := s.mirror.Put(target, module, id, payload); err != nil {
				log.WithFields(log.Fields{"module": module, "id": id, "bucket": target}).WithError(err).Warn("mirror: failed to archive terminal payload")
			}
		}()
	}
	return nil
}

func statusOf(b Bucket, ok bool) Status {
	if !ok {
		return Unknown
	}
	return bucketStatus[b]
}

// Result returns the stored payload for a DONE task. For an ERROR task it
// returns a *ProcessingErr wrapping the stored message. For any other
// status it returns ErrNotReady.
func (s *Store) Result(module, id string) ([]byte, error) {
	b, ok, err := s.locate(module, id)
	if err != nil {
		return nil, err
	}
	switch {
	case ok && b == Results:
		data, err := os.ReadFile(s.taskPath(module, Results, id))
		if err != nil {
			return nil, errorf("Result", "%s/%s: %w", module, id, err)
		}
		return data, nil
	case ok && b == Errors:
		data, err := os.ReadFile(s.taskPath(module, Errors, id))
		if err != nil {
			return nil, errorf("Result", "%s/%s: %w", module, id, err)
		}
		return nil, &ProcessingErr{Module: module, ID: id, Message: data}
	default:
		return nil, ErrNotReady
	}
}

// BulkStatus probes Status for each id, one call per id.
func (s *Store) BulkStatus(module string, ids []string) (map[string]Status, error) {
	out := make(map[string]Status, len(ids))
	for _, id := range ids {
		status, err := s.Status(module, id)
		if err != nil {
			return nil, err
		}
		out[id] = status
	}
	return out, nil
}

// BulkResult fetches Result for each id. Ids whose task is DONE map to the
// raw result bytes; ids whose task is ERROR map to the stored error
// message. Ids not yet in a terminal state are omitted from the map
// entirely, the policy spec.md leaves to the implementer.
func (s *Store) BulkResult(module string, ids []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(ids))
	for _, id := range ids {
		data, err := s.Result(module, id)
		var perr *ProcessingErr
		switch {
		case err == nil:
			out[id] = data
		case errors.As(err, &perr):
			out[id] = perr.Message
		default:
			// Not ready yet: omitted.
		}
	}
	return out, nil
}

// BulkEnqueueItem pairs a document with an optional explicit id, for
// BulkEnqueue.
type BulkEnqueueItem struct {
	Doc []byte
	ID  string
}

// BulkEnqueue enqueues every item in order, returning the resulting ids in
// the same order.
func (s *Store) BulkEnqueue(module string, items []BulkEnqueueItem, resetError, resetPending bool) ([]string, error) {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		id, err := s.Enqueue(module, item.Doc, EnqueueOptions{ID: item.ID, ResetError: resetError, ResetPending: resetPending})
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Statistics counts the files under each bucket for module.
func (s *Store) Statistics(module string) (map[Status]int, error) {
	out := make(map[Status]int, len(buckets))
	for _, b := range buckets {
		entries, err := os.ReadDir(s.bucketDir(module, b))
		if err != nil {
			if os.IsNotExist(err) {
				out[bucketStatus[b]] = 0
				continue
			}
			return nil, errorf("Statistics", "%s/%s: %w", module, b, err)
		}
		n := 0
		for _, e := range entries {
			if !e.IsDir() {
				n++
			}
		}
		out[bucketStatus[b]] = n
	}
	return out, nil
}

// Modules lists the module directories known to this store root, sorted.
func (s *Store) Modules() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errorf("Modules", "%w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
