/*
Package ports defines the driven ports (interfaces) for the docent engine.

These interfaces decouple the core logic from external implementations,
allowing the engine to work with various view surfaces, record stores,
catalog sources, and analytics backends.

# Key Interfaces

  - Surface: The abstract view tree (find, measure, scroll, patch). Every
    resolver, highlight, and presenter operation goes through it.
  - RecordStore: Persists the per-tour visited/completed/skipped record.
  - CatalogSource: Loads tour definitions (YAML files, Loam repos, memory).
  - AnalyticsSink: Receives best-effort outcome beacons.
  - TourRunner: The driving port transports (HTTP, MCP, CLI) call into.
*/
package ports
