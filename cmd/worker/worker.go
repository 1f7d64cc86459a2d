// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/tomtom215/segmenthunter/internal/api"
	"github.com/tomtom215/segmenthunter/internal/blobstore"
	"github.com/tomtom215/segmenthunter/internal/config"
	"github.com/tomtom215/segmenthunter/internal/database"
	"github.com/tomtom215/segmenthunter/internal/dispatcher"
	"github.com/tomtom215/segmenthunter/internal/eventprocessor"
	"github.com/tomtom215/segmenthunter/internal/fetcher"
	"github.com/tomtom215/segmenthunter/internal/logging"
	"github.com/tomtom215/segmenthunter/internal/ndjson"
	"github.com/tomtom215/segmenthunter/internal/secretstore"
	"github.com/tomtom215/segmenthunter/internal/strava"
	"github.com/tomtom215/segmenthunter/internal/supervisor"
	"github.com/tomtom215/segmenthunter/internal/supervisor/services"
	"github.com/tomtom215/segmenthunter/internal/tokens"
)

// worker holds the components shared by the supervised services.
type worker struct {
	cfg       *config.Config
	store     database.Store
	broker    *eventprocessor.Broker
	secrets   secretstore.Store
	publisher *eventprocessor.Publisher

	fetcher    *fetcher.Fetcher
	converter  *ndjson.Converter
	notifier   *ndjson.Notifier
	dispatcher *dispatcher.Dispatcher
}

func newWorker(ctx context.Context, cfg *config.Config, store database.Store, broker *eventprocessor.Broker) (*worker, error) {
	secrets, err := secretstore.Open(ctx, &cfg.Secrets, broker.JetStream())
	if err != nil {
		return nil, fmt.Errorf("open secret store: %w", err)
	}

	publisher, err := eventprocessor.NewPublisher(
		eventprocessor.PublisherConfigFrom(&cfg.NATS, broker.URL()),
		logging.NewWatermillLogger(),
	)
	if err != nil {
		secrets.Close() //nolint:errcheck
		return nil, fmt.Errorf("create publisher: %w", err)
	}
	if cfg.CircuitBreaker.Enabled {
		publisher.SetCircuitBreaker(eventprocessor.NewCircuitBreaker(
			eventprocessor.CircuitBreakerConfigFrom("nats-publisher", &cfg.CircuitBreaker),
		))
	}

	blobs := blobstore.NewObjectStore(broker.JetStream())
	client := strava.NewClient(strava.ConfigFrom(&cfg.Strava))
	provider := tokens.NewProvider(secrets, client, cfg.Env)
	converter := ndjson.NewConverter(blobs, cfg.Storage.Bucket, cfg.Storage.NDJSONPrefix)

	w := &worker{
		cfg:        cfg,
		store:      store,
		broker:     broker,
		secrets:    secrets,
		publisher:  publisher,
		fetcher:    fetcher.New(provider, client, blobs, store, fetcher.ConfigFrom(cfg)),
		converter:  converter,
		notifier:   ndjson.NewNotifier(blobs, publisher, converter, cfg.Storage.Bucket, cfg.NATS.ConvertTopic),
		dispatcher: dispatcher.New(store, publisher, dispatcher.ConfigFrom(cfg)),
	}

	logging.Info().
		Str("explore_topic", cfg.NATS.ExploreTopic).
		Str("convert_topic", cfg.NATS.ConvertTopic).
		Str("bucket", cfg.Storage.Bucket).
		Str("secrets_backend", cfg.Secrets.Backend).
		Bool("circuit_breaker", cfg.CircuitBreaker.Enabled).
		Msg("Worker components initialized")

	return w, nil
}

// register adds the worker services to the tree.
func (w *worker) register(tree *supervisor.SupervisorTree) {
	tree.AddMessagingService(services.NewRouterService(w.buildRouter))
	tree.AddMessagingService(services.NewRunnerService("blob-notifier", w.notifier))

	if w.cfg.Dispatch.Interval > 0 {
		tree.AddMessagingService(services.NewDispatchService(w.dispatcher, w.cfg.Dispatch.Interval))
		logging.Info().Dur("interval", w.cfg.Dispatch.Interval).Msg("Dispatch loop enabled")
	}

	if w.cfg.Server.Enabled {
		server := w.httpServer()
		tree.AddAPIService(services.NewHTTPServerService(server, w.cfg.Server.ShutdownTimeout))
		logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")
	}
}

// buildRouter creates a router with fresh subscribers for both consumers.
func (w *worker) buildRouter(_ context.Context) (services.Runner, error) {
	logger := logging.NewWatermillLogger()

	router, err := eventprocessor.NewRouter(&eventprocessor.RouterConfig{
		CloseTimeout:     w.cfg.NATS.CloseTimeout,
		PoisonQueueTopic: w.cfg.NATS.PoisonTopic,
	}, w.publisher.WatermillPublisher(), logger)
	if err != nil {
		return nil, err
	}

	fetchSub, err := w.subscriber("fetcher", logger)
	if err != nil {
		return nil, err
	}
	convertSub, err := w.subscriber("ndjson-converter", logger)
	if err != nil {
		fetchSub.Close() //nolint:errcheck
		return nil, err
	}

	router.AddConsumerHandler("fetcher", w.cfg.NATS.ExploreTopic, fetchSub, w.fetcher.Handle)
	router.AddConsumerHandler("ndjson-converter", w.cfg.NATS.ConvertTopic, convertSub, w.converter.Handle)

	return &pipelineRouter{Router: router, subscribers: []io.Closer{fetchSub, convertSub}}, nil
}

func (w *worker) subscriber(consumer string, logger *logging.WatermillLogger) (*eventprocessor.Subscriber, error) {
	cfg := eventprocessor.SubscriberConfigFrom(&w.cfg.NATS, w.broker.URL(), consumer)
	sub, err := eventprocessor.NewSubscriber(&cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("create %s subscriber: %w", consumer, err)
	}
	return sub, nil
}

func (w *worker) httpServer() *http.Server {
	handler := api.NewHandler(w.store, w.broker)
	router := api.NewRouter(handler, api.ChiMiddlewareConfigFrom(&w.cfg.Server))

	return &http.Server{
		Addr:              net.JoinHostPort(w.cfg.Server.Host, strconv.Itoa(w.cfg.Server.Port)),
		Handler:           router.SetupChi(),
		ReadTimeout:       w.cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      w.cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
}

// Close releases the publisher and the secret store.
func (w *worker) Close() {
	if err := w.publisher.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing publisher")
	}
	if err := w.secrets.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing secret store")
	}
}

// pipelineRouter closes its subscribers once the router has stopped.
type pipelineRouter struct {
	*eventprocessor.Router
	subscribers []io.Closer
}

func (p *pipelineRouter) Run(ctx context.Context) error {
	err := p.Router.Run(ctx)
	var errs []error
	for _, sub := range p.subscribers {
		if cerr := sub.Close(); cerr != nil {
			errs = append(errs, cerr)
		}
	}
	if len(errs) > 0 {
		logging.Warn().Err(errors.Join(errs...)).Msg("Error closing subscribers")
	}
	return err
}
