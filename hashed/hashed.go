// Package hashed computes and caches the fixed-seed 64-bit hashes esdb uses
// to keep its secondary indexes compact and cheap to compare, matching the
// hash wrapper layer described in spec.md §4.5.
package hashed

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// seed is a compile-time constant. Every reader and writer of a given store
// must use the same seed; a mismatch silently corrupts lookups, so this is
// never made configurable.
const seed uint64 = 0xE5DB_0000_2017_1129

// Hash computes a stable 64-bit hash of b using a fixed-seed, non-cryptographic
// hash function. The seed is folded in as an 8-byte prefix ahead of b so that
// xxhash's own seeded-sum path does not need to be relied on for stability
// across xxhash releases.
func Hash(b []byte) uint64 {
	var seedBuf [8]byte
	binary.BigEndian.PutUint64(seedBuf[:], seed)

	d := xxhash.New()
	d.Write(seedBuf[:])
	d.Write(b)
	return d.Sum64()
}

// Identifier is a HashedIdentifier: a descriptor identifier string paired
// with its hash, computed eagerly at construction.
type Identifier struct {
	Hash  uint64
	Value string
}

// NewIdentifier hashes value and returns the paired form.
func NewIdentifier(value string) Identifier {
	return Identifier{Hash: Hash([]byte(value)), Value: value}
}

// Tag is the hashed form of an event tag; identical shape to Identifier but
// kept distinct so callers cannot confuse the two hash domains at the type
// level, matching the distinct HashedTag/HashedIdentifier types in spec.md.
type Tag struct {
	Hash  uint64
	Value string
}

// NewTag hashes value and returns the paired form.
func NewTag(value string) Tag {
	return Tag{Hash: Hash([]byte(value)), Value: value}
}

// Descriptor pairs a hashed Identifier with its Version.
type Descriptor struct {
	Identifier Identifier
	Version    uint8
}

// NewDescriptor hashes identifier and pairs it with version.
func NewDescriptor(identifier string, version uint8) Descriptor {
	return Descriptor{Identifier: NewIdentifier(identifier), Version: version}
}

// Event is the hashed form of an esdb.Event: payload plus hashed descriptor
// and tags, constructed once per append and shared by all three partition
// writers to amortize hashing (spec.md §4.5).
type Event struct {
	Data       []byte
	Descriptor Descriptor
	Tags       []Tag
}

// NewEvent hashes identifier and every tag exactly once.
func NewEvent(data []byte, identifier string, version uint8, tags []string) Event {
	hashedTags := make([]Tag, len(tags))
	for i, t := range tags {
		hashedTags[i] = NewTag(t)
	}
	return Event{
		Data:       data,
		Descriptor: NewDescriptor(identifier, version),
		Tags:       hashedTags,
	}
}
