package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/nlpipe/nlpipe/client"
	"github.com/nlpipe/nlpipe/internal/config"
	"github.com/nlpipe/nlpipe/registry"
	"github.com/nlpipe/nlpipe/registry/modules"
	"github.com/nlpipe/nlpipe/store"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: nlpipe-client [-token T] <server> <module> <action> [action-args]")
	fmt.Fprintln(os.Stderr, "actions: status <id> | result <id> [format] | process <file> [id] | process_inline <text> [id] |")
	fmt.Fprintln(os.Stderr, "         bulk_status <id,id,...> | bulk_result <id,id,...> [format] | store_result <id> <file> | store_error <id> <file>")
}

func main() {
	token := flag.String("token", "", "bearer token for a remote server (defaults to NLPIPE_TOKEN)")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) < 3 {
		usage()
		os.Exit(2)
	}
	target, module, action, rest := args[0], args[1], args[2], args[3:]

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
			fmt.Fprintf(os.Stderr, "error: opening store at %q: %v\n", target, err)
			os.Exit(1)
		}
		c = client.NewLocal(s, reg)
	}

	if err := run(c, module, action, rest); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(c client.Client, module, action string, args []string) error {
	switch action {
	case "status":
		if len(args) != 1 {
			return fmt.Errorf("status requires <id>")
		}
		status, err := c.Status(module, args[0])
		if err != nil {
			return err
		}
		fmt.Println(status)
		return nil

	case "result":
		if len(args) < 1 {
			return fmt.Errorf("result requires <id> [format]")
		}
		var format string
		if len(args) > 1 {
			format = args[1]
		}
		result, err := c.Result(module, args[0], format)
		if err != nil {
			return err
		}
		os.Stdout.Write(result)
		return nil

	case "process":
		if len(args) < 1 {
			return fmt.Errorf("process requires <file> [id]")
		}
		doc, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		opts := client.ProcessOptions{}
		if len(args) > 1 {
			opts.ID = args[1]
		}
		id, err := c.Process(module, doc, opts)
		if err != nil {
			return err
		}
		fmt.Println(id)
		return nil

	case "process_inline":
		if len(args) < 1 {
			return fmt.Errorf("process_inline requires <text> [id]")
		}
		opts := client.ProcessOptions{}
		if len(args) > 1 {
			opts.ID = args[1]
		}
		id, err := c.Process(module, []byte(args[0]), opts)
		if err != nil {
			return err
		}
		fmt.Println(id)
		return nil

	case "bulk_status":
		if len(args) != 1 {
			return fmt.Errorf("bulk_status requires <id,id,...>")
		}
		statuses, err := c.BulkStatus(module, strings.Split(args[0], ","))
		if err != nil {
			return err
		}
		for id, status := range statuses {
			fmt.Printf("%s\t%s\n", id, status)
		}
		return nil

	case "bulk_result":
		if len(args) < 1 {
			return fmt.Errorf("bulk_result requires <id,id,...> [format]")
		}
		var format string
		if len(args) > 1 {
			format = args[1]
		}
		results, err := c.BulkResult(module, strings.Split(args[0], ","), format)
		if err != nil {
			return err
		}
		for id, result := range results {
			fmt.Printf("%s\t%s\n", id, result)
		}
		return nil

	case "store_result":
		if len(args) != 2 {
			return fmt.Errorf("store_result requires <id> <file>")
		}
		data, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		return c.StoreResult(module, args[0], data)

	case "store_error":
		if len(args) != 2 {
			return fmt.Errorf("store_error requires <id> <file>")
		}
		data, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		return c.StoreError(module, args[0], data)

	default:
		return fmt.Errorf("unknown action %q", action)
	}
}
