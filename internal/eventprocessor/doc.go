// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

// Package eventprocessor provides the queue plumbing of Segment Hunter on
// NATS JetStream and Watermill.
//
// # Overview
//
// The pipeline moves work through one JetStream stream (SEGMENT_HUNTER by
// default) with three subjects:
//
//	cells.explore   dispatcher -> fetcher, one cell per message
//	blobs.convert   notifier   -> NDJSON converter
//	cells.poison    messages that can never succeed
//
// # Components
//
//   - EmbeddedServer: in-process NATS server with JetStream
//   - Broker: server (optional), core connection and stream setup
//   - StreamInitializer: idempotent stream create or update
//   - Publisher: Watermill publisher with circuit breaker and Nats-Msg-Id
//   - Subscriber: durable, queue-grouped JetStream consumer
//   - Router: Watermill router with panic recovery and poison routing
//
// # Delivery Semantics
//
// Delivery is at least once. Handlers must be idempotent. A handler error
// nacks the message and JetStream redelivers it up to MaxDeliver times,
// waiting AckWait between deliveries. Errors wrapping PermanentError are
// routed to the poison topic and acknowledged instead.
//
// The dispatcher sets Nats-Msg-Id to the trace id of each cell, so a cell
// re-published within the stream's duplicate window is stored once.
//
// # Example
//
//	broker, err := eventprocessor.StartBroker(ctx, &cfg.NATS, logger)
//	pub, err := eventprocessor.NewPublisher(
//	    eventprocessor.PublisherConfigFrom(&cfg.NATS, broker.URL()), logger)
//	sub, err := eventprocessor.NewSubscriber(&subCfg, logger)
//	router, err := eventprocessor.NewRouter(&routerCfg, pub.WatermillPublisher(), logger)
//	router.AddConsumerHandler("fetcher", cfg.NATS.ExploreTopic, sub, fetcher.Handle)
//	err = router.Run(ctx)
package eventprocessor
