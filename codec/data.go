// Package codec implements the binary key/value layout of esdb's three
// partitions (data, index, reference) described in spec.md §4.2-§4.4. Every
// function here is a pure encode/decode, stages kv.Batch.Insert calls, or
// reads through a kv.Partition (Get, LastKey, Range, Prefix); no function
// commits a batch or owns any state.
package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/rpcpool/esdb/hashed"
	"github.com/rpcpool/esdb/kv"
)

// DataPartitionName is the conventional name passed to kv.Keyspace.Partition
// for the primary event log.
const DataPartitionName = "data"

// EncodeDataKey returns the 8-byte big-endian key for position.
func EncodeDataKey(position uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, position)
	return key
}

// DecodeDataKey parses an 8-byte big-endian position key.
func DecodeDataKey(key []byte) (uint64, error) {
	if len(key) != 8 {
		return 0, fmt.Errorf("%w: data key has length %d, want 8", ErrCorrupt, len(key))
	}
	return binary.BigEndian.Uint64(key), nil
}

// EncodeDataValue packs a hashed event into the data partition's value
// layout:
//
//	u64  descriptor identifier hash
//	u8   descriptor version
//	u8   tag count (0..=255)
//	u64 * tag count   (tag hash per tag, input order)
//	bytes[]           (opaque payload, remaining bytes)
func EncodeDataValue(event hashed.Event) ([]byte, error) {
	if len(event.Tags) > 255 {
		return nil, ErrTooManyTags
	}

	header := 8 + 1 + 1 + 8*len(event.Tags)
	buf := make([]byte, header+len(event.Data))

	binary.BigEndian.PutUint64(buf[0:8], event.Descriptor.Identifier.Hash)
	buf[8] = event.Descriptor.Version
	buf[9] = byte(len(event.Tags))

	offset := 10
	for _, tag := range event.Tags {
		binary.BigEndian.PutUint64(buf[offset:offset+8], tag.Hash)
		offset += 8
	}
	copy(buf[offset:], event.Data)

	return buf, nil
}

// DataValue is the decoded form of a data partition value: the hashed
// descriptor identifier and tags (original strings are not recoverable from
// here; see the reference partition) plus the opaque payload.
type DataValue struct {
	IdentifierHash uint64
	Version        uint8
	TagHashes      []uint64
	Payload        []byte
}

// DecodeDataValue unpacks a data partition value as encoded by
// EncodeDataValue.
func DecodeDataValue(value []byte) (DataValue, error) {
	if len(value) < 10 {
		return DataValue{}, fmt.Errorf("%w: data value too short (%d bytes)", ErrCorrupt, len(value))
	}
	identifierHash := binary.BigEndian.Uint64(value[0:8])
	version := value[8]
	tagCount := int(value[9])

	need := 10 + 8*tagCount
	if len(value) < need {
		return DataValue{}, fmt.Errorf("%w: data value truncated before %d tag hashes", ErrCorrupt, tagCount)
	}

	tagHashes := make([]uint64, tagCount)
	offset := 10
	for i := 0; i < tagCount; i++ {
		tagHashes[i] = binary.BigEndian.Uint64(value[offset : offset+8])
		offset += 8
	}

	return DataValue{
		IdentifierHash: identifierHash,
		Version:        version,
		TagHashes:      tagHashes,
		Payload:        value[offset:],
	}, nil
}

// InsertData stages the data-partition entry for position.
func InsertData(batch kv.Batch, data kv.Partition, position uint64, event hashed.Event) error {
	value, err := EncodeDataValue(event)
	if err != nil {
		return err
	}
	batch.Insert(data, EncodeDataKey(position), value)
	return nil
}

// Len returns the number of entries in the data partition: the data
// partition's last key is always len-1 (positions are dense, spec.md §3),
// so len is the last key's integer value plus one, or 0 if the partition is
// empty.
func Len(data kv.Partition) (uint64, error) {
	last, err := data.LastKey()
	if err != nil {
		if err == kv.ErrNotFound {
			return 0, nil
		}
		return 0, err
	}
	position, err := DecodeDataKey(last)
	if err != nil {
		return 0, err
	}
	return position + 1, nil
}
