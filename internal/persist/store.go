// Copyright 2024 The UltraNode Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package persist implements the coalescing write-behind persistence
// pipeline (spec §4.6) backed by an embedded key-value store standing in
// for the device's NVS partition (spec §6: "Namespaced key-value store,
// one 8-char key per slot... value is the raw JSON command bytes with
// terminator. Maximum payload 1024 bytes.").
package persist

import (
	"fmt"

	"go.etcd.io/bbolt"
)

const (
	// MaxPayload is the largest value accepted for a single slot (spec §6).
	MaxPayload = 1024

	bucketName = "slots"
)

// Store is the namespaced key-value store slot state is recovered from on
// boot and flushed to by the Pipeline's writer task.
type Store struct {
	db *bbolt.DB
}

// Open opens (creating if absent) the bbolt file at path and ensures the
// slot bucket exists.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("persist: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("persist: init bucket: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Get returns the raw payload for key, and false if no value was ever
// written (spec §9: "treat missing keys as 'no prior state'").
func (s *Store) Get(key string) ([]byte, bool) {
	var out []byte
	_ = s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(bucketName)).Get([]byte(key))
		if v != nil {
			out = append([]byte(nil), v...)
		}
		return nil
	})
	return out, out != nil
}

// Put writes payload under key, rejecting anything over MaxPayload.
func (s *Store) Put(key string, payload []byte) error {
	if len(payload) > MaxPayload {
		return fmt.Errorf("persist: payload for %q exceeds %d bytes", key, MaxPayload)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put([]byte(key), payload)
	})
}
