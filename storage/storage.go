// Package storage provides the key-value storage abstraction the gateway
// persists the application dataset through.
package storage

import "errors"

// ErrNotFound is returned by Get when no value exists under the key.
var ErrNotFound = errors.New("key not found")

// DatasetKey is the fixed key the entire application dataset lives under.
const DatasetKey = "dataset"

// Store defines atomic get/put of opaque documents by key. Writes are full
// replacements; there is no partial-write visibility and no versioning, so
// concurrent writers resolve last-write-wins.
type Store interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
}
