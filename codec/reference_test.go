package codec_test

import (
	"testing"

	"github.com/rpcpool/esdb/codec"
	"github.com/rpcpool/esdb/hashed"
	"github.com/rpcpool/esdb/kv"
	"github.com/rpcpool/esdb/kv/memkv"
	"github.com/stretchr/testify/require"
)

func TestReferenceResolvesOriginalStrings(t *testing.T) {
	ks := memkv.New()
	reference, err := ks.Partition("reference")
	require.NoError(t, err)

	event := hashed.NewEvent(nil, "A", 0, []string{"x", "y"})
	batch := ks.NewBatch()
	codec.InsertReference(batch, reference, event)
	require.NoError(t, batch.Commit())

	identifier, err := codec.ResolveDescriptor(reference, event.Descriptor.Identifier.Hash)
	require.NoError(t, err)
	require.Equal(t, "A", identifier)

	tag, err := codec.ResolveTag(reference, hashed.Hash([]byte("x")))
	require.NoError(t, err)
	require.Equal(t, "x", tag)
}

func TestReferenceInsertIsIdempotent(t *testing.T) {
	ks := memkv.New()
	reference, err := ks.Partition("reference")
	require.NoError(t, err)

	event := hashed.NewEvent(nil, "A", 0, []string{"x", "x"})

	batch := ks.NewBatch()
	codec.InsertReference(batch, reference, event)
	require.NoError(t, batch.Commit())

	// Re-inserting the same event (same hash, same string) must not change
	// the stored value.
	batch = ks.NewBatch()
	codec.InsertReference(batch, reference, event)
	require.NoError(t, batch.Commit())

	identifier, err := codec.ResolveDescriptor(reference, event.Descriptor.Identifier.Hash)
	require.NoError(t, err)
	require.Equal(t, "A", identifier)
}

func TestResolveMissingReference(t *testing.T) {
	ks := memkv.New()
	reference, err := ks.Partition("reference")
	require.NoError(t, err)

	_, err = codec.ResolveDescriptor(reference, 12345)
	require.ErrorIs(t, err, kv.ErrNotFound)
}
