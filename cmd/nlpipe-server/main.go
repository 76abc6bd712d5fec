package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/gops/agent"
	logrus "github.com/sirupsen/logrus"

	"github.com/nlpipe/nlpipe/api"
	"github.com/nlpipe/nlpipe/client"
	"github.com/nlpipe/nlpipe/internal/auth"
	"github.com/nlpipe/nlpipe/internal/config"
	"github.com/nlpipe/nlpipe/registry"
	"github.com/nlpipe/nlpipe/registry/modules"
	"github.com/nlpipe/nlpipe/store"
	"github.com/nlpipe/nlpipe/store/s3mirror"
	"github.com/nlpipe/nlpipe/worker"
)

// moduleList collects repeated -workers flag occurrences into a flat slice.
type moduleList []string

func (m *moduleList) String() string { return strings.Join(*m, ",") }
func (m *moduleList) Set(v string) error {
	*m = append(*m, strings.Split(v, ",")...)
	return nil
}

func main() {
	if err := agent.Listen(agent.Options{}); err != nil {
		log.Printf("could not start gops agent: %v", err)
	}

	host := flag.String("host", "0.0.0.0", "address to bind the REST facade to")
	port := flag.Int("port", 5000, "port to bind the REST facade to")
	disableAuth := flag.Bool("disable-authentication", false, "serve without bearer token checks")
	printToken := flag.Bool("print-token", false, "mint and print an admin token to stdout, then continue starting")
	verbose := flag.Bool("verbose", false, "debug-level logging")
	var workers moduleList
	flag.Var(&workers, "workers", "module name(s) to run in-process worker loops for, comma-separated or repeated")
	flag.Parse()

	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	dir, err := config.Dir(flag.Arg(0))
	if err != nil {
		log.Fatalf("resolving store directory: %v", err)
	}
	host2 := config.Host(*host)
	resolvedPort, err := config.Port(*port)
	if err != nil {
		log.Fatalf("resolving port: %v", err)
	}

	s, err := store.Open(dir)
	if err != nil {
		log.Fatalf("opening store at %q: %v", dir, err)
	}
	if bucket := os.Getenv("NLPIPE_S3_BUCKET"); bucket != "" {
		mirror, err := s3mirror.New(s3mirror.Config{
			Region:    os.Getenv("NLPIPE_S3_REGION"),
			Bucket:    bucket,
			AccessKey: os.Getenv("NLPIPE_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("NLPIPE_S3_SECRET_KEY"),
		})
		if err != nil {
			log.Fatalf("configuring s3 archival mirror: %v", err)
		}
		s = s.WithMirror(mirror)
		logrus.WithField("bucket", bucket).Info("archival mirror enabled")
	}

	reg := registry.New()
	if err := reg.Register(modules.Upper{}); err != nil {
		log.Fatalf("registering built-in processors: %v", err)
	}
	for _, name := range reg.Names() {
		proc, _ := reg.Get(name)
		if err := proc.CheckStatus(); err != nil {
			logrus.WithField("module", name).WithError(err).Warn("processor failed startup health check")
		}
	}

	useAuth := !*disableAuth
	if *printToken {
		token, err := auth.Issue(24 * time.Hour)
		if err != nil {
			log.Fatalf("issuing admin token: %v", err)
		}
		fmt.Println(token)
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigc
		logrus.Info("shutting down")
		cancel()
	}()

	if len(workers) > 0 {
		c := client.NewLocal(s, reg)
		specs := make([]worker.Spec, len(workers))
		for i, name := range workers {
			specs[i] = worker.Spec{Module: name, Concurrency: 1}
		}
		go func() {
			if err := worker.Run(ctx, c, reg, specs); err != nil {
				logrus.WithError(err).Error("in-process worker pool exited")
			}
		}()
	}

	srv := api.New(s, reg, useAuth)
	addr := config.Addr(host2, resolvedPort)
	httpServer := &http.Server{Addr: addr, Handler: srv}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logrus.WithFields(logrus.Fields{"addr": addr, "dir": dir, "auth": useAuth}).Info("nlpipe-server listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server exited: %v", err)
	}
}
