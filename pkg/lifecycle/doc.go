// Package lifecycle provides one-shot disposal primitives for shared
// resources.
//
// The package solves one problem: a long-lived resource (a Key Vault
// client, a credential handler, a protected memory buffer) is used by many
// goroutines but must be torn down exactly once, even when release is
// triggered concurrently from several places or never triggered at all.
//
// Three building blocks compose:
//
//   - Disposer guarantees a cleanup function runs at most once, no matter
//     how many goroutines race to release it, and fires release observers
//     exactly once.
//   - Managed guards a resource behind a reader/writer gate: readers use
//     the resource through scoped handles, and release takes the write
//     scope (bounded by a timeout with a configurable fallback policy)
//     before tearing the resource down.
//   - Bridge turns a Disposer's release event into a Future that callers
//     can select on, with first-wins cancellation.
//
// The gate is non-reentrant: a goroutine holding a read or write scope
// must not acquire another scope on the same primitive, or it deadlocks.
//
// All failure states are returned as values; nothing in this package
// panics on a late, repeated, or timed-out release.
package lifecycle
