package config

import (
	"fmt"
	"os"
	"strconv"
)

var (
	// DefaultDir holds NLPIPE_DIR as read at process start. Dir falls back
	// to it when no positional argument is given, and to a freshly created
	// temporary directory when it is empty.
	DefaultDir string
)

func init() {
	DefaultDir = os.Getenv("NLPIPE_DIR")
}

// C holds the settings shared by the server, worker, and client binaries.
// Each field has an environment-variable fallback. For Dir and Token an
// explicit value takes priority over the environment; for Host and Port
// NLPIPE_HOST and NLPIPE_PORT take priority over the value passed in (the
// binary's flag value).
type C struct {
	// Dir is the store's root directory. Required for the server; optional
	// for the worker and client, which may instead target a server URL.
	Dir string

	// Host and Port address the REST facade.
	Host string
	Port int

	// Token is the bearer credential presented to a remote server.
	Token string
}

// Dir resolves the store root directory: the explicit argument if given,
// else NLPIPE_DIR, else a freshly created temporary directory.
func Dir(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if DefaultDir != "" {
		return DefaultDir, nil
	}
	dir, err := os.MkdirTemp("", "nlpipe-")
	if err != nil {
		return "", errorf("Dir", "create temporary store directory: %w", err)
	}
	return dir, nil
}

// Host returns NLPIPE_HOST or the given default.
func Host(def string) string {
	if v := os.Getenv("NLPIPE_HOST"); v != "" {
		return v
	}
	return def
}

// Port returns NLPIPE_PORT or the given default.
func Port(def int) (int, error) {
	v := os.Getenv("NLPIPE_PORT")
	if v == "" {
		return def, nil
	}
	port, err := strconv.Atoi(v)
	if err != nil {
		return 0, errorf("Port", "NLPIPE_PORT=%q: %w", v, err)
	}
	return port, nil
}

// Token returns the explicit token if non-empty, else NLPIPE_TOKEN.
func Token(explicit string) string {
	if explicit != "" {
		return explicit
	}
	return os.Getenv("NLPIPE_TOKEN")
}

// Addr formats a host:port listen/dial address.
func Addr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
