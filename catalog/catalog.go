// Package catalog is the persistent metadata store binding compound names
// to fragment sequences and fragments to the resources that carry them. It
// is the sole source of truth: no other component caches catalog rows
// across transaction boundaries.
package catalog

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"
)

// CurrentSchemaVersion is written into new catalogs and checked on Open.
const CurrentSchemaVersion = 1

var (
	bucketCompounds         = []byte("compounds")
	bucketFragments         = []byte("fragments")
	bucketResources         = []byte("resources")
	bucketResourceFragments = []byte("resource_fragments")
	bucketMeta              = []byte("meta")

	metaKeySchemaVersion = []byte("schema_version")
)

// DB wraps a bbolt database holding the four catalog mappings.
type DB struct {
	bolt *bbolt.DB
}

// Open opens or creates the catalog at dbPath. It refuses to open a catalog
// written by a newer schema version than this binary understands.
func Open(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("catalog: create directory: %w", err)
	}
	bdb, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("catalog: open: %w", err)
	}

	err = bdb.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketCompounds, bucketFragments, bucketResources, bucketResourceFragments, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %q: %w", name, err)
			}
		}

		meta := tx.Bucket(bucketMeta)
		raw := meta.Get(metaKeySchemaVersion)
		if raw == nil {
			buf := make([]byte, 4)
			binary.LittleEndian.PutUint32(buf, CurrentSchemaVersion)
			return meta.Put(metaKeySchemaVersion, buf)
		}
		if len(raw) != 4 {
			return fmt.Errorf("%w: malformed schema_version key", ErrCorrupt)
		}
		version := binary.LittleEndian.Uint32(raw)
		if version > CurrentSchemaVersion {
			return fmt.Errorf("%w: catalog is schema v%d, binary supports v%d", ErrSchemaTooNew, version, CurrentSchemaVersion)
		}
		return nil
	})
	if err != nil {
		_ = bdb.Close()
		return nil, err
	}

	return &DB{bolt: bdb}, nil
}

// Close closes the underlying database.
func (db *DB) Close() error { return db.bolt.Close() }

// Update runs fn inside a read-write transaction. If fn returns an error,
// every write it made is discarded.
func (db *DB) Update(fn func(*Tx) error) error {
	return db.bolt.Update(func(btx *bbolt.Tx) error {
		return fn(&Tx{btx: btx})
	})
}

// View runs fn inside a read-only transaction.
func (db *DB) View(fn func(*Tx) error) error {
	return db.bolt.View(func(btx *bbolt.Tx) error {
		return fn(&Tx{btx: btx})
	})
}

func encodeGob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeGob(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}
