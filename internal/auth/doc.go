// Package auth issues and verifies the bearer tokens the REST facade
// accepts in the "Authorization: Token <jwt>" header, generalizing the
// original project's single global HS256 secret derived from the host's
// hostid and hostname.
package auth
