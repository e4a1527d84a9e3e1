/*
Package ports defines the driven ports (interfaces) of the form session runtime.

These interfaces decouple the session manager from external implementations, allowing
it to work with various storage backends, fixture sources and answer transports.

# Key Interfaces

  - SnapshotStore: persists and loads form session snapshots.
  - OptionsStore: raw key/value storage for display options.
  - DistributedLocker: distributed locking for concurrent session access.
  - AnswerTransport: forwards throttled answer events to the form server.
  - PayloadLoader: loads form payload fixtures (e.g. from Loam or memory).
*/
package ports
