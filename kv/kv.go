// Package kv describes the shape of the ordered key-value engine esdb is
// built against: a keyspace holding named partitions, atomic write batches
// spanning any subset of those partitions, and range/prefix iteration over a
// single partition. The engine itself is an external collaborator (spec.md
// §1 explicitly places it out of scope); this package exists only so the
// core can be compiled and tested against a concrete implementation
// (package badgerkv) without the core importing a storage engine directly.
package kv

import "errors"

// ErrNotFound is returned by Partition.Get and Partition.LastKey when the
// requested key, or any key at all, is absent.
var ErrNotFound = errors.New("kv: not found")

// Keyspace is an opened, persistent ordered key-value store, addressable by
// path, holding zero or more named Partitions.
type Keyspace interface {
	// Partition opens (creating if necessary) the named partition.
	Partition(name string) (Partition, error)

	// NewBatch starts a write batch that may insert into any Partition
	// obtained from this Keyspace. The batch is not visible to readers
	// until Batch.Commit succeeds.
	NewBatch() Batch

	// Close releases the keyspace and all partition handles.
	Close() error
}

// Partition is a named, ordered byte-string keyspace within a Keyspace.
type Partition interface {
	// Name returns the partition's name, as passed to Keyspace.Partition.
	Name() string

	// Get returns the value stored at key, or ErrNotFound.
	Get(key []byte) ([]byte, error)

	// LastKey returns the lexicographically greatest key in the
	// partition, or ErrNotFound if the partition is empty.
	LastKey() ([]byte, error)

	// Range returns an ascending iterator over keys in [lower, upper]
	// (both bounds inclusive).
	Range(lower, upper []byte) (Iterator, error)

	// Prefix returns an ascending iterator over every key that has
	// prefix as a byte-string prefix.
	Prefix(prefix []byte) (Iterator, error)
}

// Batch accumulates writes across one or more Partitions for atomic commit.
type Batch interface {
	// Insert stages a key/value write against p. Values are not visible
	// to any reader until Commit succeeds.
	Insert(p Partition, key, value []byte)

	// Commit applies every staged write atomically. On error, none of
	// the batch's writes are visible. A Batch must not be reused after
	// Commit is called, successfully or not.
	Commit() error
}

// Iterator walks an ascending sequence of key/value pairs within one
// Partition. Callers must call Close when done.
type Iterator interface {
	// Next advances the iterator and reports whether a pair is
	// available. It must be called before the first Key/Value access.
	Next() bool

	// Key returns the current key. Valid only after Next returns true;
	// the returned slice is not valid past the next Next/Close call.
	Key() []byte

	// Value returns the current value, with the same validity rules as
	// Key.
	Value() []byte

	// Err returns the first error encountered during iteration, if any.
	// Per spec.md §7, a storage error during iteration is fatal: callers
	// must check Err after Next returns false.
	Err() error

	// Close releases the iterator's resources.
	Close() error
}
