// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

/*
Package supervisor runs the worker's long-lived services under a suture v4
supervisor tree.

	RootSupervisor ("segment-hunter")
	├── MessagingSupervisor ("messaging-layer")
	│   ├── RouterService     (fetcher and NDJSON converter handlers)
	│   ├── RunnerService     (blob notifier)
	│   └── DispatchService   (if dispatch.interval > 0)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService (if server.enabled)

A crashing service is restarted with backoff without touching the other
layer, so the ops API keeps answering while the router reconnects.
Supervisor events are logged through sutureslog on the zerolog-backed
slog handler.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfigFrom(&cfg.Supervisor))
	tree.AddMessagingService(services.NewRouterService(router))
	tree.AddAPIService(services.NewHTTPServerService(srv, cfg.Server.ShutdownTimeout))
	err = tree.Serve(ctx)
*/
package supervisor
