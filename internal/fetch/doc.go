// Package fetch performs single bounded-timeout page retrievals.
//
// A fetch is one network call with no retry; every failure mode resolves to
// a model.FetchOutcome variant rather than propagating to the caller.
// Timeouts are distinguished from transport errors so reports can separate
// "server too slow" from "server unreachable".
package fetch
