// Package knowledge provides the in-memory knowledge index backing
// every chat session.
//
// The index is built exactly once at startup from a directory of
// documents and is never mutated afterwards, so concurrent searches
// need no synchronization beyond what chromem-go provides. Nothing is
// persisted: a restart rebuilds the index from the corpus directory.
package knowledge
