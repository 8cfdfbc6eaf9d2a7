package hashed_test

import (
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/rpcpool/esdb/hashed"
	"github.com/stretchr/testify/require"
)

func TestHashIsStableAndSeeded(t *testing.T) {
	a := hashed.Hash([]byte("order-created"))
	b := hashed.Hash([]byte("order-created"))
	require.Equal(t, a, b, "hashing the same bytes twice must be stable")
	require.NotEqual(t, xxhash.Sum64String("order-created"), a, "the seed must change the plain xxhash result")

	other := hashed.Hash([]byte("order-cancelled"))
	require.NotEqual(t, a, other)
}

func TestNewIdentifierCachesHash(t *testing.T) {
	id := hashed.NewIdentifier("order-created")
	require.Equal(t, "order-created", id.Value)
	require.Equal(t, hashed.Hash([]byte("order-created")), id.Hash)
}

func TestNewEventHashesEveryTagOnce(t *testing.T) {
	event := hashed.NewEvent([]byte("payload"), "order-created", 1, []string{"x", "y", "x"})
	require.Len(t, event.Tags, 3)
	require.Equal(t, hashed.Hash([]byte("x")), event.Tags[0].Hash)
	require.Equal(t, event.Tags[0].Hash, event.Tags[2].Hash)
	require.Equal(t, "order-created", event.Descriptor.Identifier.Value)
	require.Equal(t, uint8(1), event.Descriptor.Version)
}
