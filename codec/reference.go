package codec

import (
	"encoding/binary"

	"github.com/rpcpool/esdb/hashed"
	"github.com/rpcpool/esdb/kv"
)

// ReferencePartitionName is the conventional name for the partition mapping
// hashed identifiers/tags back to their original strings (spec.md §4.4).
const ReferencePartitionName = "reference"

const (
	descriptorReferenceID byte = 0x00
	tagReferenceID        byte = 0x01
)

// EncodeDescriptorReferenceKey returns the 9-byte key 0x00 || identifierHash.
func EncodeDescriptorReferenceKey(identifierHash uint64) []byte {
	key := make([]byte, 9)
	key[0] = descriptorReferenceID
	binary.BigEndian.PutUint64(key[1:9], identifierHash)
	return key
}

// EncodeTagReferenceKey returns the 9-byte key 0x01 || tagHash.
func EncodeTagReferenceKey(tagHash uint64) []byte {
	key := make([]byte, 9)
	key[0] = tagReferenceID
	binary.BigEndian.PutUint64(key[1:9], tagHash)
	return key
}

// InsertReference stages one descriptor-identifier reference entry and one
// reference entry per distinct tag for event. Re-inserting the same
// (hash, string) pair is idempotent: the batch simply overwrites the
// partition with identical content (spec.md §4.4).
func InsertReference(batch kv.Batch, reference kv.Partition, event hashed.Event) {
	batch.Insert(
		reference,
		EncodeDescriptorReferenceKey(event.Descriptor.Identifier.Hash),
		[]byte(event.Descriptor.Identifier.Value),
	)
	for _, tag := range event.Tags {
		batch.Insert(reference, EncodeTagReferenceKey(tag.Hash), []byte(tag.Value))
	}
}

// ResolveDescriptor returns the original identifier string for
// identifierHash.
func ResolveDescriptor(reference kv.Partition, identifierHash uint64) (string, error) {
	value, err := reference.Get(EncodeDescriptorReferenceKey(identifierHash))
	if err != nil {
		return "", err
	}
	return string(value), nil
}

// ResolveTag returns the original tag string for tagHash.
func ResolveTag(reference kv.Partition, tagHash uint64) (string, error) {
	value, err := reference.Get(EncodeTagReferenceKey(tagHash))
	if err != nil {
		return "", err
	}
	return string(value), nil
}
