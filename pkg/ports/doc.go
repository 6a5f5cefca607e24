/*
Package ports defines the driven ports (interfaces) of the parley conversation loop.

These interfaces decouple the sequencer from external implementations, allowing it
to work with different answer services and storage backends.

# Key Interfaces

  - AnswerProvider: Turns a question into an answer result (e.g., Gemini REST or SDK).
  - SessionStore: Persists and loads session Snapshots.
  - DistributedLocker: Provides distributed locking for concurrent session access.
*/
package ports
