/*
Package session keeps many conversations alive behind string IDs.

A Manager caches live conversations in memory, persists a snapshot after every
turn (and when an answer request starts), and serializes turns of the same
session with reference-counted local locks plus an optional distributed lock
for replicas sharing a store.

Get never drives a conversation. It returns the live one when this process
owns it, and otherwise a read-only view of the stored snapshot, so an answer
still pending on another replica shows as pending.
*/
package session
