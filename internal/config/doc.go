// Package config resolves NLPipe's runtime configuration for the server,
// worker, and client binaries from environment variables and CLI defaults.
//
// There is no configuration file: every setting has a sensible default that
// a flag or an environment variable can override. The binaries call Dir,
// Host, Port and Token directly; C only groups those settings as a plain
// value.
package config
