/*
Package domain contains the core domain models for the docent engine.

It defines the fundamental entities of a guided tour, such as Tours,
Steps, tooltip geometry, and the per-tour outcome Record. This package
is kept pure and free of external dependencies like I/O or persistence,
following Hexagonal Architecture principles.

# Key Entities

  - Tour: An ordered walkthrough of steps, identified by a unique name.
  - Step: One stop of a tour (target locators, copy, preferred side).
  - Rect/Size/Point: Viewport geometry shared by solver and surfaces.
  - Snapshot: An observer's view of a running tour session.
  - Record: The durable per-tour visited/completed/skipped trace.
*/
package domain
