package codec_test

import (
	"testing"

	"github.com/rpcpool/esdb/codec"
	"github.com/rpcpool/esdb/hashed"
	"github.com/rpcpool/esdb/kv/memkv"
	"github.com/stretchr/testify/require"
)

func TestLenOfEmptyDataPartitionIsZero(t *testing.T) {
	ks := memkv.New()
	data, err := ks.Partition("data")
	require.NoError(t, err)

	n, err := codec.Len(data)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestLenTracksLastKeyPlusOne(t *testing.T) {
	ks := memkv.New()
	data, err := ks.Partition("data")
	require.NoError(t, err)

	event := hashed.NewEvent([]byte("payload"), "A", 0, nil)
	for position := uint64(0); position < 3; position++ {
		batch := ks.NewBatch()
		require.NoError(t, codec.InsertData(batch, data, position, event))
		require.NoError(t, batch.Commit())
	}

	n, err := codec.Len(data)
	require.NoError(t, err)
	require.Equal(t, uint64(3), n)
}
