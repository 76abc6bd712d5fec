// Package client gives the nlpipe-worker and nlpipe-client binaries a
// single Client interface regardless of whether they talk to a local
// store directory or a remote nlpipe-server over HTTP. It is deliberately
// narrow CLI plumbing: the two Client implementations here are wired only
// to the needs of those binaries, not a general-purpose pluggable SDK.
//
// Modeled on the teacher's storage.Store/storage.RemoteStore split: one
// interface, a local implementation backed by direct filesystem access, and
// a remote implementation that speaks a wire protocol to reach the same
// operations over the network.
package client
