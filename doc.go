/*
Package fullform is a client-side form session runtime for server-driven forms.

A form server owns the form definition and its logic. It sends a tree of questions, groups and
repeats; the client renders it, collects answers, and forwards each answer back after a short
throttle. The server replies with a new tree (or validation errors) which is reconciled into the
live tree in place, so untouched nodes keep their identity and pending input.

# Concept

The runtime is built around a Hexagonal Architecture. The form model (pkg/formui) knows nothing
about storage or transport. The session manager (pkg/session) binds forms to a SnapshotStore,
an AnswerTransport and a DistributedLocker, all of which are ports with several adapters.

# Key Features

  - In-place reconciliation: server trees are diffed by index path, not rebuilt.
  - Throttled answers: rapid edits to one question collapse into a single server round-trip.
  - Durable sessions: snapshots survive restarts (memory, file, Redis or SQLite).
  - Sticky navigation state: case search inputs and selections are kept per session.

# Usage

Fixtures are read from a Loam repository by default. You can also inject a custom loader.

	package main

	import (
		"context"
		"log"
		"os"

		"github.com/aretw0/fullform"
	)

	func main() {
		eng, err := fullform.New("./fixtures")
		if err != nil {
			log.Fatal(err)
		}
		defer eng.Shutdown()

		form, err := eng.Open(context.Background(), "intake", "")
		if err != nil {
			log.Fatal(err)
		}

		r := &fullform.Runner{Input: os.Stdin, Output: os.Stdout}
		if err := r.Run(context.Background(), form); err != nil {
			log.Fatal(err)
		}
	}
*/
package fullform
