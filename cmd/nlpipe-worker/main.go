package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	logrus "github.com/sirupsen/logrus"

	"github.com/nlpipe/nlpipe/client"
	"github.com/nlpipe/nlpipe/internal/config"
	"github.com/nlpipe/nlpipe/registry"
	"github.com/nlpipe/nlpipe/registry/modules"
	"github.com/nlpipe/nlpipe/store"
	"github.com/nlpipe/nlpipe/worker"
)

func main() {
	processes := flag.Int("processes", 1, "number of worker processes per module")
	quit := flag.Bool("quit", false, "quit once a module's queue is empty instead of polling forever")
	token := flag.String("token", "", "bearer token for a remote server (defaults to NLPIPE_TOKEN)")
	verbose := flag.Bool("verbose", false, "debug-level logging")
	flag.Parse()

	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	args := flag.Args()
	if len(args) < 2 {
		log.Fatal("usage: nlpipe-worker <server-url-or-dir> <module> [module...]")
	}
	target, moduleNames := args[0], args[1:]

	reg := registry.New()
	if err := reg.Register(modules.Upper{}); err != nil {
		log.Fatalf("registering built-in processors: %v", err)
	}

	var c client.Client
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		c = client.NewRemote(target, config.Token(*token))
	} else {
		s, err := store.Open(target)
		if err != nil {
			log.Fatalf("opening store at %q: %v", target, err)
		}
		c = client.NewLocal(s, reg)
	}

	specs := make([]worker.Spec, len(moduleNames))
	for i, name := range moduleNames {
		specs[i] = worker.Spec{Module: name, Concurrency: *processes, QuitOnEmpty: *quit}
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigc
		logrus.Info("worker pool shutting down")
		cancel()
	}()

	if err := worker.Run(ctx, c, reg, specs); err != nil {
		log.Fatalf("worker pool exited: %v", err)
	}
}
