package worker

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/nlpipe/nlpipe/client"
	"github.com/nlpipe/nlpipe/registry"
)

// PollInterval is how long a worker waits before re-checking an empty
// queue, matching the ~1 second cadence of the originating project.
const PollInterval = time.Second

// Worker repeatedly claims and processes tasks for one module until ctx is
// canceled or, if QuitOnEmpty is set, the queue runs dry.
type Worker struct {
	Client      client.Client
	Processor   registry.Processor
	QuitOnEmpty bool
}

// Run executes the poll/process loop. It returns nil on a clean exit
// (QuitOnEmpty draining the queue, or ctx cancellation) and a non-nil error
// only for failures in claiming work, which are not expected in normal
// operation.
func (w *Worker) Run(ctx context.Context) error {
	name := w.Processor.Name()
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		id, doc, err := w.Client.GetTask(name)
		if err != nil {
			if err == client.ErrNoTask {
				if w.QuitOnEmpty {
					log.WithField("module", name).Info("no jobs left, quitting")
					return nil
				}
				if !sleepOrDone(ctx, PollInterval) {
					return nil
				}
				continue
			}
			return err
		}

		log.WithFields(log.Fields{"module": name, "id": id, "bytes": len(doc)}).Info("received task")
		result, err := w.Processor.Process(doc)
		if err != nil {
			log.WithError(err).WithFields(log.Fields{"module": name, "id": id}).Error("processing failed")
			if serr := w.Client.StoreError(name, id, []byte(err.Error())); serr != nil {
				log.WithError(serr).WithFields(log.Fields{"module": name, "id": id}).Error("failed to store error")
			}
			continue
		}
		if err := w.Client.StoreResult(name, id, result); err != nil {
			log.WithError(err).WithFields(log.Fields{"module": name, "id": id}).Error("failed to store result")
		} else {
			log.WithFields(log.Fields{"module": name, "id": id, "bytes": len(result)}).Debug("task completed")
		}
	}
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
