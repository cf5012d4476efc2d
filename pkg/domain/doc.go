/*
Package domain contains the core value types of the diagram synchronization engine.

It defines the materialized view tree (Diagram, Node, Edge), the per-view
lifecycle (ViewState), the typed outcome of every edit operation (Status), the
edit and drop requests, and the sentinel errors shared by every layer. This
package is kept pure and free of external dependencies like I/O or
persistence, following Hexagonal Architecture principles.

# Key Entities

  - Diagram: The rendered view tree for one diagram description and one semantic root.
  - Node / Edge: A single view, correlated to its description by MappingType and
    to its domain element by SemanticID.
  - Status: Success(ChangeKind, Parameters) or Failure(Reason, Message).
  - DiagramDiff: The views added, updated and removed by one render.
*/
package domain
