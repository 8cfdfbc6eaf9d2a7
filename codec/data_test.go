package codec_test

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/rpcpool/esdb/codec"
	"github.com/rpcpool/esdb/hashed"
	"github.com/stretchr/testify/require"
)

func TestDataKeyRoundtrip(t *testing.T) {
	key := codec.EncodeDataKey(42)
	require.Len(t, key, 8)

	position, err := codec.DecodeDataKey(key)
	require.NoError(t, err)
	require.Equal(t, uint64(42), position)
}

func TestDataKeyRejectsWrongLength(t *testing.T) {
	_, err := codec.DecodeDataKey([]byte{1, 2, 3})
	require.ErrorIs(t, err, codec.ErrCorrupt)
}

func TestDataValueRoundtrip(t *testing.T) {
	event := hashed.NewEvent([]byte("hello world"), "order-created", 3, []string{"a", "b", "c"})

	value, err := codec.EncodeDataValue(event)
	require.NoError(t, err)

	decoded, err := codec.DecodeDataValue(value)
	require.NoError(t, err)

	want := codec.DataValue{
		IdentifierHash: event.Descriptor.Identifier.Hash,
		Version:        event.Descriptor.Version,
		TagHashes:      []uint64{event.Tags[0].Hash, event.Tags[1].Hash, event.Tags[2].Hash},
		Payload:        []byte("hello world"),
	}
	require.Equal(t, want, decoded, spew.Sdump(want), spew.Sdump(decoded))
}

func TestDataValueWithNoTagsOrPayload(t *testing.T) {
	event := hashed.NewEvent(nil, "heartbeat", 0, nil)

	value, err := codec.EncodeDataValue(event)
	require.NoError(t, err)
	require.Len(t, value, 10)

	decoded, err := codec.DecodeDataValue(value)
	require.NoError(t, err)
	require.Empty(t, decoded.TagHashes)
	require.Empty(t, decoded.Payload)
}

func TestEncodeDataValueRejectsTooManyTags(t *testing.T) {
	tags := make([]string, 256)
	for i := range tags {
		tags[i] = "t"
	}
	event := hashed.NewEvent(nil, "order-created", 0, tags)

	_, err := codec.EncodeDataValue(event)
	require.ErrorIs(t, err, codec.ErrTooManyTags)
}

func TestDecodeDataValueRejectsTruncatedHeader(t *testing.T) {
	_, err := codec.DecodeDataValue([]byte{1, 2, 3})
	require.ErrorIs(t, err, codec.ErrCorrupt)
}

func TestDecodeDataValueRejectsTruncatedTagHashes(t *testing.T) {
	value := make([]byte, 10)
	value[9] = 2 // claims 2 tag hashes, but no bytes follow
	_, err := codec.DecodeDataValue(value)
	require.ErrorIs(t, err, codec.ErrCorrupt)
}
