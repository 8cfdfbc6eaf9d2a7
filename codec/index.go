package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/rpcpool/esdb/hashed"
	"github.com/rpcpool/esdb/kv"
)

// IndexPartitionName is the conventional name for the shared index
// partition holding both descriptor-forward and tag-forward entries,
// discriminated by a one-byte index id (spec.md §4.3).
const IndexPartitionName = "index"

const (
	// descriptorForwardID discriminates descriptor-forward index entries.
	descriptorForwardID byte = 0x00
	// tagForwardID discriminates tag-forward index entries.
	tagForwardID byte = 0x01
)

// EncodeDescriptorForwardKey returns the 17-byte key
// 0x00 || identifierHash || position.
func EncodeDescriptorForwardKey(identifierHash, position uint64) []byte {
	key := make([]byte, 17)
	key[0] = descriptorForwardID
	binary.BigEndian.PutUint64(key[1:9], identifierHash)
	binary.BigEndian.PutUint64(key[9:17], position)
	return key
}

// EncodeDescriptorForwardPrefix returns the 9-byte prefix 0x00 ||
// identifierHash that scans every position recorded for identifierHash.
func EncodeDescriptorForwardPrefix(identifierHash uint64) []byte {
	prefix := make([]byte, 9)
	prefix[0] = descriptorForwardID
	binary.BigEndian.PutUint64(prefix[1:9], identifierHash)
	return prefix
}

// EncodeTagForwardKey returns the 17-byte key 0x01 || tagHash || position.
func EncodeTagForwardKey(tagHash, position uint64) []byte {
	key := make([]byte, 17)
	key[0] = tagForwardID
	binary.BigEndian.PutUint64(key[1:9], tagHash)
	binary.BigEndian.PutUint64(key[9:17], position)
	return key
}

// EncodeTagForwardPrefix returns the 9-byte prefix 0x01 || tagHash that
// scans every position recorded for tagHash.
func EncodeTagForwardPrefix(tagHash uint64) []byte {
	prefix := make([]byte, 9)
	prefix[0] = tagForwardID
	binary.BigEndian.PutUint64(prefix[1:9], tagHash)
	return prefix
}

// InsertIndex stages one descriptor-forward entry and one tag-forward entry
// per tag for the given position.
func InsertIndex(batch kv.Batch, index kv.Partition, position uint64, event hashed.Event) {
	descriptorKey := EncodeDescriptorForwardKey(event.Descriptor.Identifier.Hash, position)
	batch.Insert(index, descriptorKey, []byte{event.Descriptor.Version})

	for _, tag := range event.Tags {
		tagKey := EncodeTagForwardKey(tag.Hash, position)
		batch.Insert(index, tagKey, nil)
	}
}

// decodeDescriptorForwardKey extracts the position from a 17-byte
// descriptor-forward key; the caller is expected to already know the
// identifier hash it scanned for.
func decodeDescriptorForwardKey(key []byte) (position uint64, err error) {
	if len(key) != 17 || key[0] != descriptorForwardID {
		return 0, fmt.Errorf("%w: not a descriptor-forward index key", ErrCorrupt)
	}
	return binary.BigEndian.Uint64(key[9:17]), nil
}

// IterateByDescriptor returns, in ascending order, every position recorded
// against identifierHash whose stored version satisfies versions (nil means
// "all versions"). When start is non-nil, iteration begins at *start
// (inclusive) instead of from the beginning of the identifier's range.
//
// Per spec.md §4.3 the range-read form uses an inclusive upper bound of
// key(hash, u64::MAX), matching the prefix form, resolving the open question
// left in the source in favor of not silently dropping position
// u64::MAX.
func IterateByDescriptor(index kv.Partition, identifierHash uint64, versions *VersionFilter, start *uint64) ([]uint64, error) {
	var it kv.Iterator
	var err error

	if start != nil {
		lower := EncodeDescriptorForwardKey(identifierHash, *start)
		upper := EncodeDescriptorForwardKey(identifierHash, ^uint64(0))
		it, err = index.Range(lower, upper)
	} else {
		it, err = index.Prefix(EncodeDescriptorForwardPrefix(identifierHash))
	}
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var positions []uint64
	for it.Next() {
		if len(it.Value()) != 1 {
			return nil, fmt.Errorf("%w: descriptor-forward value has length %d, want 1", ErrCorrupt, len(it.Value()))
		}
		version := it.Value()[0]
		if versions != nil && !versions.Contains(version) {
			continue
		}
		position, err := decodeDescriptorForwardKey(it.Key())
		if err != nil {
			return nil, err
		}
		positions = append(positions, position)
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return positions, nil
}

// IterateByTag returns, in ascending order, every position recorded against
// tagHash. The tag-forward index carries no version byte (tags are
// descriptor-agnostic), so there is no filter parameter here.
func IterateByTag(index kv.Partition, tagHash uint64) ([]uint64, error) {
	it, err := index.Prefix(EncodeTagForwardPrefix(tagHash))
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var positions []uint64
	for it.Next() {
		key := it.Key()
		if len(key) != 17 || key[0] != tagForwardID {
			return nil, fmt.Errorf("%w: not a tag-forward index key", ErrCorrupt)
		}
		positions = append(positions, binary.BigEndian.Uint64(key[9:17]))
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return positions, nil
}

// VersionFilter is the codec-level equivalent of esdb.VersionRange; kept
// separate so codec has no dependency on the root package.
type VersionFilter struct {
	Start uint8
	End   uint8
}

// Contains reports whether v lies in [f.Start, f.End). The filter is skipped
// entirely (always true) when Start==0 and End==255, matching spec.md §4.3.
func (f VersionFilter) Contains(v uint8) bool {
	if f.Start == 0 && f.End == 255 {
		return true
	}
	return v >= f.Start && v < f.End
}
