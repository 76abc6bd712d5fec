// Package worker runs Processor instances against a Client's task queue.
// Each (module, concurrency) pair spawns that many independent polling
// loops, the same bounded-fan-out shape the teacher uses for tree-node
// loading, built on golang.org/x/sync/errgroup instead of raw goroutines
// and a WaitGroup.
package worker
