// Package store implements NLPipe's content-addressed, filesystem-backed
// task store: a four-bucket state machine (queue, inprogress, results,
// errors) rooted at one directory per module, with at-most-one-winner
// dispatch provided by the filesystem's rename atomicity rather than any
// in-process lock.
//
// Store does not know about processors or formats; Result returns the raw
// terminal payload, and callers that need format conversion (the api
// package, via the registry) apply it themselves. This keeps Store usable
// standalone, as a pure filesystem client, exactly the role the original
// module's disk-backed store played.
package store
