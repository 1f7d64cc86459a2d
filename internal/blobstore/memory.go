// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package blobstore

import (
	"context"
	"fmt"
	"sync"
)

const watcherBuffer = 64

// MemoryStore is an in-process Store and Watcher.
type MemoryStore struct {
	mu       sync.Mutex
	objects  map[string]map[string][]byte
	types    map[string]string
	watchers map[string][]chan Event
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects:  make(map[string]map[string][]byte),
		types:    make(map[string]string),
		watchers: make(map[string][]chan Event),
	}
}

// Put stores a copy of data.
func (m *MemoryStore) Put(ctx context.Context, bucket, name string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	if m.objects[bucket] == nil {
		m.objects[bucket] = make(map[string][]byte)
	}
	m.objects[bucket][name] = append([]byte(nil), data...)
	m.types[bucket+"/"+name] = contentType
	watchers := append([]chan Event(nil), m.watchers[bucket]...)
	m.mu.Unlock()

	event := Event{Bucket: bucket, Name: name, Size: uint64(len(data))}
	for _, w := range watchers {
		select {
		case w <- event:
		default:
			// watcher is watcherBuffer events behind; drop
		}
	}
	return nil
}

// Get returns a copy of the stored data.
func (m *MemoryStore) Get(ctx context.Context, bucket, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.objects[bucket][name]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", bucket, name, ErrBlobNotFound)
	}
	return append([]byte(nil), data...), nil
}

// ContentType returns the content type an object was written with.
func (m *MemoryStore) ContentType(bucket, name string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.types[bucket+"/"+name]
}

// Names returns the object names of bucket in no particular order.
func (m *MemoryStore) Names(bucket string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.objects[bucket]))
	for name := range m.objects[bucket] {
		names = append(names, name)
	}
	return names
}

// Watch streams Put events for bucket until ctx is cancelled.
func (m *MemoryStore) Watch(ctx context.Context, bucket string) (<-chan Event, error) {
	ch := make(chan Event, watcherBuffer)

	m.mu.Lock()
	m.watchers[bucket] = append(m.watchers[bucket], ch)
	m.mu.Unlock()

	out := make(chan Event)
	go func() {
		defer close(out)
		defer m.unwatch(bucket, ch)
		for {
			select {
			case <-ctx.Done():
				return
			case event := <-ch:
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (m *MemoryStore) unwatch(bucket string, ch chan Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	watchers := m.watchers[bucket]
	for i, w := range watchers {
		if w == ch {
			m.watchers[bucket] = append(watchers[:i], watchers[i+1:]...)
			return
		}
	}
}
