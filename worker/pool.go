package worker

import (
	"context"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/nlpipe/nlpipe/client"
	"github.com/nlpipe/nlpipe/registry"
)

// Spec requests Concurrency independent workers for a processor registered
// under Module.
type Spec struct {
	Module      string
	Concurrency int
	QuitOnEmpty bool
}

// Run starts every worker named in specs and blocks until ctx is canceled
// and all of them have returned, or until one of them reports a fatal
// error, in which case the rest are canceled and Run returns that error.
func Run(ctx context.Context, c client.Client, reg *registry.Registry, specs []Spec) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, spec := range specs {
		proc, err := reg.Get(spec.Module)
		if err != nil {
			return err
		}
		n := spec.Concurrency
		if n < 1 {
			n = 1
		}
		for i := 0; i < n; i++ {
			w := &Worker{Client: c, Processor: proc, QuitOnEmpty: spec.QuitOnEmpty}
			log.WithFields(log.Fields{"module": spec.Module, "instance": i + 1, "of": n}).Debug("starting worker")
			g.Go(func() error {
				return w.Run(ctx)
			})
		}
	}
	return g.Wait()
}
