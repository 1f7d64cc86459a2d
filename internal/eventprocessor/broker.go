// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package eventprocessor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/tomtom215/segmenthunter/internal/config"
	"github.com/tomtom215/segmenthunter/internal/logging"
)

// Broker owns the process-wide NATS resources: the optional embedded
// server, a core connection, its JetStream context and the pipeline stream.
// Publishers and subscribers open their own connections to URL().
type Broker struct {
	server *EmbeddedServer
	conn   *natsgo.Conn
	js     jetstream.JetStream
	stream StreamConfig
	url    string
}

// StartBroker starts the embedded server when configured, connects, and
// ensures the pipeline stream exists.
func StartBroker(ctx context.Context, n *config.NATSConfig, logger watermill.LoggerAdapter) (*Broker, error) {
	if logger == nil {
		logger = logging.NewWatermillLogger()
	}

	b := &Broker{url: n.URL, stream: StreamConfigFrom(n)}

	if n.EmbeddedServer {
		serverCfg := ServerConfigFrom(n)
		srv, err := NewEmbeddedServer(&serverCfg)
		if err != nil {
			return nil, err
		}
		b.server = srv
		b.url = srv.ClientURL()
		logging.Info().Str("url", b.url).Str("store_dir", serverCfg.StoreDir).Msg("Embedded NATS server started")
	} else {
		logging.Info().Str("url", b.url).Msg("Using external NATS server")
	}

	nc, err := natsgo.Connect(b.url, connectionOptions("broker", n.MaxReconnects, n.ReconnectWait, logger)...)
	if err != nil {
		b.shutdownServer()
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	b.conn = nc

	js, err := jetstream.New(nc)
	if err != nil {
		b.Close(context.Background()) //nolint:errcheck
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}
	b.js = js

	initializer, err := NewStreamInitializer(js, &b.stream)
	if err != nil {
		b.Close(context.Background()) //nolint:errcheck
		return nil, fmt.Errorf("create stream initializer: %w", err)
	}
	stream, err := initializer.EnsureStream(ctx)
	if err != nil {
		b.Close(context.Background()) //nolint:errcheck
		return nil, fmt.Errorf("ensure stream exists: %w", err)
	}

	info := stream.CachedInfo()
	logging.Info().
		Str("name", info.Config.Name).
		Strs("subjects", info.Config.Subjects).
		Dur("max_age", info.Config.MaxAge).
		Msg("JetStream stream ready")

	return b, nil
}

// URL returns the client URL of the broker.
func (b *Broker) URL() string {
	return b.url
}

// Conn returns the core NATS connection.
func (b *Broker) Conn() *natsgo.Conn {
	return b.conn
}

// JetStream returns the JetStream context used for the object and KV stores.
func (b *Broker) JetStream() jetstream.JetStream {
	return b.js
}

// Ping reports whether the broker connection is usable.
func (b *Broker) Ping(_ context.Context) error {
	if b.conn == nil || !b.conn.IsConnected() {
		return errors.New("NATS connection is not established")
	}
	return nil
}

// Close drains the connection and stops the embedded server.
func (b *Broker) Close(ctx context.Context) error {
	var errs []error
	if b.conn != nil {
		if err := b.conn.Drain(); err != nil && !errors.Is(err, natsgo.ErrConnectionClosed) {
			errs = append(errs, fmt.Errorf("drain NATS connection: %w", err))
		}
	}
	if b.server != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := b.server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown NATS server: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (b *Broker) shutdownServer() {
	if b.server != nil {
		_ = b.server.Shutdown(context.Background())
	}
}
