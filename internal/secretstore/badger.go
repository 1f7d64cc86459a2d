// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package secretstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

const secretKeyPrefix = "secret:"

// BadgerStore keeps secrets in a BadgerDB.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens a BadgerDB at path. An empty path runs in memory.
func NewBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil // Suppress BadgerDB logs

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for secrets: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Get returns the value stored under name.
func (s *BadgerStore) Get(_ context.Context, name string) (string, error) {
	var value string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(secretKeyPrefix + name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%s: %w", name, ErrSecretNotFound)
		}
		if err != nil {
			return fmt.Errorf("get secret %s: %w", name, err)
		}
		return item.Value(func(val []byte) error {
			value = string(val)
			return nil
		})
	})
	return value, err
}

// Put stores value under name.
func (s *BadgerStore) Put(_ context.Context, name, value string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(secretKeyPrefix+name), []byte(value)); err != nil {
			return fmt.Errorf("set secret %s: %w", name, err)
		}
		return nil
	})
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
