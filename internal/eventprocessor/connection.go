// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package eventprocessor

import (
	"time"

	"github.com/ThreeDotsLabs/watermill"
	natsgo "github.com/nats-io/nats.go"
)

// connectionOptions returns the reconnect-aware options shared by every
// NATS client in the process. role names the client in log lines.
func connectionOptions(role string, maxReconnects int, reconnectWait time.Duration, logger watermill.LoggerAdapter) []natsgo.Option {
	return []natsgo.Option{
		natsgo.Name("segment-hunter-" + role),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(maxReconnects),
		natsgo.ReconnectWait(reconnectWait),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, watermill.LogFields{"role": role})
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{
				"role": role,
				"url":  nc.ConnectedUrl(),
			})
		}),
		natsgo.ErrorHandler(func(nc *natsgo.Conn, sub *natsgo.Subscription, err error) {
			fields := watermill.LogFields{"role": role}
			if sub != nil {
				fields["subject"] = sub.Subject
			}
			logger.Error("NATS error", err, fields)
		}),
	}
}
