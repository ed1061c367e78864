/*******************************************************************************
 * Copyright (c) 2026 Genome Research Ltd.
 *
 * Permission is hereby granted, free of charge, to any person obtaining
 * a copy of this software and associated documentation files (the
 * "Software"), to deal in the Software without restriction, including
 * without limitation the rights to use, copy, modify, merge, publish,
 * distribute, sublicense, and/or sell copies of the Software, and to
 * permit persons to whom the Software is furnished to do so, subject to
 * the following conditions:
 *
 * The above copyright notice and this permission notice shall be included
 * in all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
 * EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF
 * MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.
 * IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY
 * CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER IN AN ACTION OF CONTRACT,
 * TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN CONNECTION WITH THE
 * SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
 ******************************************************************************/

// package results persists per-run classification results so reporting can
// consume them independently of classification, keyed (sample, ASV, method).
// Results are written once per run and never merged destructively.

package results

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang/snappy"
	"github.com/google/uuid"
	"github.com/ugorji/go/codec"
	"github.com/wtsi-hgi/ampliclass/classify"
	bolt "go.etcd.io/bbolt"
)

const (
	resultsBucketName = "results"
	metaBucketName    = "_meta"
	metaKeyRunID      = "runID"
	metaKeyCreatedAt  = "createdAt"

	dbFilePerms  = 0o640
	dbOpenMaxAge = 5 * time.Second
)

var ErrMetadataNotSet = errors.New("results store metadata not set")

// Store is a bolt-backed classification result store for one run.
type Store struct {
	db *bolt.DB
	ch codec.Handle
}

// Create makes a new results store at path, stamping it with a fresh run id.
func Create(path string) (*Store, error) {
	db, err := bolt.Open(path, dbFilePerms, &bolt.Options{Timeout: dbOpenMaxAge})
	if err != nil {
		return nil, fmt.Errorf("failed to create results store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(resultsBucketName)); err != nil {
			return err
		}

		meta, err := tx.CreateBucketIfNotExists([]byte(metaBucketName))
		if err != nil {
			return err
		}

		if err := meta.Put([]byte(metaKeyRunID), []byte(uuid.NewString())); err != nil {
			return err
		}

		return meta.Put([]byte(metaKeyCreatedAt), []byte(time.Now().UTC().Format(time.RFC3339)))
	})
	if err != nil {
		db.Close()

		return nil, fmt.Errorf("failed to initialise results store: %w", err)
	}

	return &Store{db: db, ch: new(codec.BincHandle)}, nil
}

// Open opens an existing results store read-only.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, dbFilePerms, &bolt.Options{
		Timeout:  dbOpenMaxAge,
		ReadOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open results store: %w", err)
	}

	return &Store{db: db, ch: new(codec.BincHandle)}, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// RunID returns the run identifier the store was created with.
func (s *Store) RunID() (string, error) {
	var runID string

	err := s.db.View(func(tx *bolt.Tx) error {
		meta := tx.Bucket([]byte(metaBucketName))
		if meta == nil {
			return ErrMetadataNotSet
		}

		v := meta.Get([]byte(metaKeyRunID))
		if v == nil {
			return ErrMetadataNotSet
		}

		runID = string(v)

		return nil
	})

	return runID, err
}

// Add stores a batch of results in one transaction.
func (s *Store) Add(results []classify.Result) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(resultsBucketName))

		for _, res := range results {
			var encoded []byte

			if err := codec.NewEncoderBytes(&encoded, s.ch).Encode(res); err != nil {
				return fmt.Errorf("failed to encode result: %w", err)
			}

			key := resultKey(res)
			if err := b.Put(key, snappy.Encode(nil, encoded)); err != nil {
				return fmt.Errorf("failed to store result: %w", err)
			}
		}

		return nil
	})
}

func resultKey(res classify.Result) []byte {
	return []byte(res.ASV.Sample + "\x00" + res.ASV.ID() + "\x00" + res.Method)
}

// ForEach yields every stored result in key order: by sample, then ASV, then
// method.
func (s *Store) ForEach(cb func(classify.Result) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(resultsBucketName))
		if b == nil {
			return ErrMetadataNotSet
		}

		return b.ForEach(func(_, v []byte) error {
			decoded, err := snappy.Decode(nil, v)
			if err != nil {
				return fmt.Errorf("failed to decompress result: %w", err)
			}

			var res classify.Result

			if err := codec.NewDecoderBytes(decoded, s.ch).Decode(&res); err != nil {
				return fmt.Errorf("failed to decode result: %w", err)
			}

			return cb(res)
		})
	})
}
