// Copyright 2025 MachSight Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package archive stores raw uploaded sensor batches in a local
// Badger key-value database, keyed by batch id. The payload is the
// JSON-encoded records of the upload, kept verbatim so a batch can
// be re-scored after a model bank update.
package archive

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const (
	batchPrefix   = byte('b')
	createdPrefix = byte('t')
)

// DB is a wrapper around badger.DB providing concrete methods for
// adding/retrieving uploaded batches.
type DB struct {
	bdb *badger.DB
}

// OpenDB opens (or creates) the archive at the given directory.
func OpenDB(path string) (*DB, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open upload archive: %w", err)
	}
	return &DB{bdb: bdb}, nil
}

// Close closes the internal Badger database. It is possible to call
// the method on a nil or uninitialized DB, in which case it is a NOP.
func (db *DB) Close() error {
	if db != nil && db.bdb != nil {
		return db.bdb.Close()
	}
	return nil
}

func batchKey(id string) []byte {
	key := make([]byte, 1+len(id))
	key[0] = batchPrefix
	copy(key[1:], id)
	return key
}

func createdKey(id string) []byte {
	key := make([]byte, 1+len(id))
	key[0] = createdPrefix
	copy(key[1:], id)
	return key
}

func encodeTime(t time.Time) []byte {
	ans := make([]byte, 8)
	binary.BigEndian.PutUint64(ans, uint64(t.Unix()))
	return ans
}

func decodeTime(data []byte) (time.Time, error) {
	if len(data) != 8 {
		return time.Time{}, fmt.Errorf("invalid timestamp encoding (%d bytes)", len(data))
	}
	return time.Unix(int64(binary.BigEndian.Uint64(data)), 0), nil
}

// StoreBatch stores the raw payload of an uploaded batch together
// with its upload time.
func (db *DB) StoreBatch(id string, payload []byte, created time.Time) error {
	return db.bdb.Update(func(txn *badger.Txn) error {
		if err := txn.Set(batchKey(id), payload); err != nil {
			return fmt.Errorf("failed to store batch: %w", err)
		}
		if err := txn.Set(createdKey(id), encodeTime(created)); err != nil {
			return fmt.Errorf("failed to store batch: %w", err)
		}
		return nil
	})
}

// GetBatch fetches a stored batch payload. A missing id is reported
// via badger.ErrKeyNotFound.
func (db *DB) GetBatch(id string) ([]byte, error) {
	var ans []byte
	err := db.bdb.View(func(txn *badger.Txn) error {
		item, err := txn.Get(batchKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			ans = append([]byte(nil), val...)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return ans, nil
}

// BatchEntry describes a stored batch.
type BatchEntry struct {
	ID      string    `json:"id"`
	Created time.Time `json:"created"`
	Size    int       `json:"size"`
}

// ListBatches returns up to limit stored batch entries in key order.
func (db *DB) ListBatches(limit int) ([]BatchEntry, error) {
	ans := make([]BatchEntry, 0, limit)
	err := db.bdb.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte{batchPrefix}
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid() && len(ans) < limit; it.Next() {
			item := it.Item()
			id := string(item.Key()[1:])
			entry := BatchEntry{ID: id, Size: int(item.ValueSize())}
			tItem, err := txn.Get(createdKey(id))
			if err == nil {
				tItem.Value(func(val []byte) error {
					if t, decodeErr := decodeTime(val); decodeErr == nil {
						entry.Created = t
					}
					return nil
				})
			}
			ans = append(ans, entry)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}
	return ans, nil
}
