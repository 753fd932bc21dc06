/*
Package docent is a guided product tour engine. It resolves tour step
targets on a UI surface, computes tooltip placements that stay inside
the viewport, manages the highlight lifecycle, and persists per-tour
outcome records so a tour auto-launches at most once per user.

# Concept

Docent treats a tour as an ordered list of steps, each anchored to an
element on a host-provided surface. The engine owns the step state
machine, target resolution with bounded retries, placement solving with
a hard viewport clamp, and record persistence, while the host owns
the actual rendering and the surface queries. This hexagonal
architecture lets docent drive any surface: a live DOM over a browser
protocol, a serialized UI snapshot, or an in-memory fake in tests.

# Key Features

  - Generation-guarded sessions: stale async work from a superseded
    step or tour can never mutate the current one.
  - Graceful degradation: a target that never appears yields a
    viewport-centered tooltip instead of a failed tour.
  - Pluggable persistence: in-memory, Redis, or bbolt record stores
    behind one small interface, with middleware for namespacing and
    caching.
  - Auto-launch gate: entering a view launches its tour only on the
    first visit, enforced per process and across restarts.

# Usage

Initialize the engine with a surface and a tour source. You can use the
default filesystem catalog (Loam) or inject one built with pkg/dsl.

	package main

	import (
		"context"
		"log"

		"github.com/docentlabs/docent"
	)

	func main() {
		surface := newMySurface() // implements ports.Surface

		// Reads tour definitions from ./tours
		eng, err := docent.New(surface, "./tours")
		if err != nil {
			log.Fatal(err)
		}

		ctx := context.Background()

		// Auto-launch: fires the dashboard tour on first visit only.
		if _, err := eng.EnterView(ctx, "dashboard"); err != nil {
			log.Fatal(err)
		}

		// Step through under host control.
		snap, err := eng.Next(ctx)
		if err != nil {
			log.Fatal(err)
		}
		log.Println("now at step", snap.StepID)
	}
*/
package docent
