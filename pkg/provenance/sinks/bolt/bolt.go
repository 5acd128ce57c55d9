// Copyright 2026 The CamFlow Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package bolt defines a provenance.Sink backed by a bbolt database.
// Records are stored as JSON under per-type buckets, keyed by a
// big-endian sequence number so iteration order is emission order.
package bolt

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"camflow.dev/camflow/pkg/provenance"
	bolt "go.etcd.io/bbolt"
)

const name = "bolt"

func init() {
	provenance.RegisterSink(provenance.SinkDesc{
		Name: name,
		New:  new,
	})
}

var (
	nodeBucketKey = []byte("Nodes")
	edgeBucketKey = []byte("Edges")
	longBucketKey = []byte("Longs")
)

// sink persists records in a bbolt database.
type sink struct {
	db *bolt.DB
}

var _ provenance.Sink = (*sink)(nil)

func new(config map[string]any) (provenance.Sink, error) {
	pathOpaque, ok := config["path"]
	if !ok {
		return nil, fmt.Errorf("path not present in configuration")
	}
	path, ok := pathOpaque.(string)
	if !ok {
		return nil, fmt.Errorf("path %q is not a string", pathOpaque)
	}
	return Open(path)
}

// Open opens or creates the database at path and prepares the record
// buckets.
func Open(path string) (provenance.Sink, error) {
	db, err := bolt.Open(path, 0640, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening %q: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, key := range [][]byte{nodeBucketKey, edgeBucketKey, longBucketKey} {
			if _, err := tx.CreateBucketIfNotExists(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &sink{db: db}, nil
}

func bucketFor(t provenance.MessageType) []byte {
	switch t {
	case provenance.MessageNode:
		return nodeBucketKey
	case provenance.MessageLong:
		return longBucketKey
	default:
		return edgeBucketKey
	}
}

// Name implements provenance.Sink.Name.
func (*sink) Name() string {
	return name
}

// Write implements provenance.Sink.Write.
func (s *sink) Write(m provenance.Message) error {
	row, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketFor(m.MessageType()))
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		var key [8]byte
		binary.BigEndian.PutUint64(key[:], seq)
		return b.Put(key[:], row)
	})
}

// Close implements provenance.Sink.Close.
func (s *sink) Close() error {
	return s.db.Close()
}
