// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package eventprocessor

import (
	"net"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/segmenthunter/internal/config"
)

// ServerConfig holds embedded NATS server configuration.
type ServerConfig struct {
	Host              string
	Port              int // -1 picks a random free port
	StoreDir          string
	JetStreamMaxMem   int64
	JetStreamMaxStore int64
	Quiet             bool // disable server logging
}

// DefaultServerConfig returns production defaults for embedded NATS server.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:              "127.0.0.1",
		Port:              4222,
		StoreDir:          "/data/nats/jetstream",
		JetStreamMaxMem:   256 << 20, // 256MB
		JetStreamMaxStore: 10 << 30,  // 10GB
	}
}

// ServerConfigFrom builds the embedded server settings. The server listens
// on the host and port of the configured client URL so that other processes
// can reach it at NATS_URL. Port 0 picks a random free port.
func ServerConfigFrom(n *config.NATSConfig) ServerConfig {
	cfg := DefaultServerConfig()
	cfg.StoreDir = n.StoreDir
	cfg.JetStreamMaxMem = n.MaxMemory
	cfg.JetStreamMaxStore = n.MaxStore

	if u, err := url.Parse(n.URL); err == nil && u.Host != "" {
		host, portStr, err := net.SplitHostPort(u.Host)
		if err != nil {
			host = u.Hostname()
		}
		if host != "" {
			cfg.Host = host
		}
		if port, err := strconv.Atoi(portStr); err == nil {
			cfg.Port = port
			if port == 0 {
				cfg.Port = -1
			}
		}
	}
	return cfg
}

// PublisherConfig holds publisher configuration.
type PublisherConfig struct {
	URL              string
	MaxReconnects    int
	ReconnectWait    time.Duration
	ReconnectBuffer  int
	EnableTrackMsgID bool // nolint:revive // ID is correct per Go conventions
}

// DefaultPublisherConfig returns production defaults for publisher.
func DefaultPublisherConfig(url string) PublisherConfig {
	return PublisherConfig{
		URL:              url,
		MaxReconnects:    -1, // Unlimited
		ReconnectWait:    2 * time.Second,
		ReconnectBuffer:  8 * 1024 * 1024, // 8MB
		EnableTrackMsgID: true,
	}
}

// PublisherConfigFrom applies the reconnect settings of n.
func PublisherConfigFrom(n *config.NATSConfig, url string) PublisherConfig {
	cfg := DefaultPublisherConfig(url)
	cfg.MaxReconnects = n.MaxReconnects
	cfg.ReconnectWait = n.ReconnectWait
	return cfg
}

// SubscriberConfig holds subscriber configuration.
type SubscriberConfig struct {
	URL              string
	DurableName      string
	QueueGroup       string
	SubscribersCount int
	AckWaitTimeout   time.Duration
	MaxDeliver       int
	MaxAckPending    int
	CloseTimeout     time.Duration
	MaxReconnects    int
	ReconnectWait    time.Duration
	// StreamName binds the consumer to an existing stream instead of
	// letting Watermill provision one named after the topic.
	StreamName string
}

// DefaultSubscriberConfig returns production defaults for subscriber.
func DefaultSubscriberConfig(url string) SubscriberConfig {
	return SubscriberConfig{
		URL:              url,
		DurableName:      "segment-hunter",
		QueueGroup:       "workers",
		SubscribersCount: 1,
		AckWaitTimeout:   10 * time.Minute,
		MaxDeliver:       5,
		MaxAckPending:    100,
		CloseTimeout:     30 * time.Second,
		MaxReconnects:    -1,
		ReconnectWait:    2 * time.Second,
	}
}

// SubscriberConfigFrom builds the settings for one consumer. Each consumer
// gets its own durable and queue group, suffixed with its name.
func SubscriberConfigFrom(n *config.NATSConfig, url, consumer string) SubscriberConfig {
	return SubscriberConfig{
		URL:              url,
		DurableName:      n.DurablePrefix + "-" + consumer,
		QueueGroup:       n.QueueGroup + "-" + consumer,
		SubscribersCount: n.SubscribersCount,
		AckWaitTimeout:   n.AckWait,
		MaxDeliver:       n.MaxDeliver,
		MaxAckPending:    n.MaxAckPending,
		CloseTimeout:     n.CloseTimeout,
		MaxReconnects:    n.MaxReconnects,
		ReconnectWait:    n.ReconnectWait,
		StreamName:       n.StreamName,
	}
}

// StreamConfig defines the pipeline stream settings.
type StreamConfig struct {
	Name            string
	Subjects        []string
	MaxAge          time.Duration
	MaxBytes        int64
	MaxMsgs         int64
	DuplicateWindow time.Duration
	Replicas        int
}

// DefaultStreamConfig returns production stream configuration.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		Name:            "SEGMENT_HUNTER",
		Subjects:        []string{"blobs.>", "cells.>"},
		MaxAge:          7 * 24 * time.Hour,
		MaxBytes:        -1,
		MaxMsgs:         -1,
		DuplicateWindow: 2 * time.Minute,
		Replicas:        1,
	}
}

// StreamConfigFrom builds a stream covering every configured topic.
func StreamConfigFrom(n *config.NATSConfig) StreamConfig {
	cfg := DefaultStreamConfig()
	cfg.Name = n.StreamName
	cfg.Subjects = StreamSubjects(n.ExploreTopic, n.ConvertTopic, n.PoisonTopic)
	cfg.MaxAge = n.StreamMaxAge
	cfg.DuplicateWindow = n.DuplicateWindow
	return cfg
}

// StreamSubjects returns the sorted wildcard subjects covering topics:
// "cells.explore" and "cells.poison" both map to "cells.>".
// A topic without a dot is kept as is.
func StreamSubjects(topics ...string) []string {
	seen := make(map[string]bool, len(topics))
	var subjects []string
	for _, topic := range topics {
		if topic == "" {
			continue
		}
		subject := topic
		if root, _, ok := strings.Cut(topic, "."); ok {
			subject = root + ".>"
		}
		if !seen[subject] {
			seen[subject] = true
			subjects = append(subjects, subject)
		}
	}
	sort.Strings(subjects)
	return subjects
}

// CircuitBreakerConfig holds circuit breaker settings.
type CircuitBreakerConfig struct {
	Name             string
	MaxRequests      uint32        // Allowed in half-open state
	Interval         time.Duration // Reset interval for counts
	Timeout          time.Duration // Time to stay open
	FailureThreshold uint32        // Failures before opening
}

// DefaultCircuitBreakerConfig returns production defaults.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// CircuitBreakerConfigFrom copies the application breaker settings.
func CircuitBreakerConfigFrom(name string, c *config.CircuitBreakerConfig) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxRequests:      c.MaxRequests,
		Interval:         c.Interval,
		Timeout:          c.Timeout,
		FailureThreshold: c.FailureThreshold,
	}
}

// RouterConfig holds configuration for the Watermill Router.
type RouterConfig struct {
	// CloseTimeout is how long to wait for handlers to finish when closing.
	CloseTimeout time.Duration

	// PoisonQueueTopic receives messages whose handler returned a
	// PermanentError. Empty disables the poison queue.
	PoisonQueueTopic string
}

// DefaultRouterConfig returns production defaults for the Router.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CloseTimeout:     30 * time.Second,
		PoisonQueueTopic: "cells.poison",
	}
}
