// Package session holds active conversations in memory.
//
// A [Session] pairs a unique ID with its conversation [chat.Memory] and
// serializes turns so concurrent requests against the same chat cannot
// interleave their history. The [Store] maps IDs to sessions and gates
// creation behind a readiness flag so the API can refuse chats until the
// knowledge index and engine are up.
//
// # Concurrency
//
// Store is safe for concurrent use; each Session additionally guards its
// own in-flight turn with a mutex, so a second ask on the same chat waits
// for the first to finish rather than racing on shared memory.
//
// Nothing here persists. Sessions live for the lifetime of the process
// and are gone on restart.
package session
