// Package api implements the REST facade described in the on-disk task
// store's external interface: a stdlib net/http handler with explicit
// method/path dispatch, no router dependency, matching the teacher's
// preference for small hand-rolled dispatch over a framework.
package api
