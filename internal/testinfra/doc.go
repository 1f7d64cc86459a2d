// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

// Package testinfra provides container fixtures for integration tests.
//
// Every file in this package carries the integration build tag, so the
// fixtures only compile with:
//
//	go test -tags integration ./...
//
// # PostgreSQL
//
// NewPostgresContainer starts a throwaway PostgreSQL server for the
// postgres work-item store:
//
//	func TestPostgresStore(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    pg, err := testinfra.NewPostgresContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, pg)
//	    // connect with pg.DSN
//	}
//
// # NATS
//
// NewNATSContainer starts an external JetStream server, used to exercise the
// non-embedded broker path of the queue plumbing.
//
// Tests are skipped when Docker is unavailable. The first run pulls images.
package testinfra
