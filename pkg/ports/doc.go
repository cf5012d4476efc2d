/*
Package ports defines the driven ports of the diagram engine.

These interfaces keep the synchronization core independent from where sessions
are stored, where descriptions come from and which rules decide editability and
drops for a diagram kind.

# Key Interfaces

  - SessionStore: Persists raw session snapshots (memory, Redis, SQLite).
  - DistributedLocker: Serializes access to one session across processes.
  - DescriptionLoader: Supplies diagram descriptions by id.
  - EditableChecker: Decides whether a feature may be written or an element deleted.
  - DropChecker / DropBehaviorProvider: Per-kind drop legality and relocation policy.
  - Editor: The session-scoped operations exposed to transports.
*/
package ports
