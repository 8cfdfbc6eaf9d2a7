package esdb_test

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rpcpool/esdb"
	"github.com/rpcpool/esdb/kv/memkv"
	"github.com/rpcpool/esdb/metrics"
	"github.com/stretchr/testify/require"
)

func open(t *testing.T) *esdb.Stream {
	t.Helper()
	s, err := esdb.Open("", esdb.WithKeyspace(memkv.New()))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

func descriptor(t *testing.T, identifier string, version uint8) esdb.Descriptor {
	t.Helper()
	d, err := esdb.NewDescriptor(identifier, version)
	require.NoError(t, err)
	return d
}

// E1
func TestFreshStreamIsEmpty(t *testing.T) {
	s := open(t)

	n, err := s.Len()
	require.NoError(t, err)
	require.Zero(t, n)

	empty, err := s.IsEmpty()
	require.NoError(t, err)
	require.True(t, empty)
}

func seedThreeEvents(t *testing.T, s *esdb.Stream) {
	t.Helper()

	e0, err := esdb.NewEvent([]byte("a0"), descriptor(t, "A", 0), "x", "y")
	require.NoError(t, err)
	e1, err := esdb.NewEvent([]byte("b0"), descriptor(t, "B", 0), "x")
	require.NoError(t, err)
	e2, err := esdb.NewEvent([]byte("a1"), descriptor(t, "A", 1), "z")
	require.NoError(t, err)

	require.NoError(t, s.Append([]esdb.Event{e0, e1, e2}))
}

// E2
func TestAppendThreeEventsAdvancesLen(t *testing.T) {
	s := open(t)
	seedThreeEvents(t, s)

	n, err := s.Len()
	require.NoError(t, err)
	require.Equal(t, uint64(3), n)
}

// E3
func TestIterateDescriptorAllVersions(t *testing.T) {
	s := open(t)
	seedThreeEvents(t, s)

	positions, err := s.IterateByDescriptor(esdb.DescriptorSpecifier{Identifier: "A"}, nil)
	require.NoError(t, err)
	require.Equal(t, []esdb.Position{0, 2}, positions)
}

// E4
func TestIterateDescriptorVersionRangeExcludesUpperBound(t *testing.T) {
	s := open(t)
	seedThreeEvents(t, s)

	spec := esdb.DescriptorSpecifier{Identifier: "A", Versions: &esdb.VersionRange{Start: 0, End: 1}}
	positions, err := s.IterateByDescriptor(spec, nil)
	require.NoError(t, err)
	require.Equal(t, []esdb.Position{0}, positions)
}

// E5
func TestIterateDescriptorVersionRangeSecondVersion(t *testing.T) {
	s := open(t)
	seedThreeEvents(t, s)

	spec := esdb.DescriptorSpecifier{Identifier: "A", Versions: &esdb.VersionRange{Start: 1, End: 2}}
	positions, err := s.IterateByDescriptor(spec, nil)
	require.NoError(t, err)
	require.Equal(t, []esdb.Position{2}, positions)
}

// E6
func TestIterateDescriptorWithStartPosition(t *testing.T) {
	s := open(t)
	seedThreeEvents(t, s)

	start := esdb.Position(2)
	positions, err := s.IterateByDescriptor(esdb.DescriptorSpecifier{Identifier: "A"}, &start)
	require.NoError(t, err)
	require.Equal(t, []esdb.Position{2}, positions)
}

// E7
func TestGetResolvesDescriptorAndTags(t *testing.T) {
	s := open(t)
	seedThreeEvents(t, s)

	event, err := s.Get(0)
	require.NoError(t, err)

	want := esdb.Event{
		Data:       []byte("a0"),
		Descriptor: esdb.Descriptor{Identifier: "A", Version: 0},
		Tags:       []esdb.Tag{"x", "y"},
	}
	require.Equal(t, want, event, spew.Sdump(want), spew.Sdump(event))
}

// E9
func TestAppendRejectsTooManyTags(t *testing.T) {
	s := open(t)

	tags := make([]string, 256)
	for i := range tags {
		tags[i] = "t"
	}
	_, err := esdb.NewEvent(nil, descriptor(t, "A", 0), tags...)
	require.ErrorIs(t, err, esdb.ErrTooManyTags)

	// Append rejects an oversized Event built directly as well, before
	// anything reaches the write batch.
	oversized := esdb.Event{Descriptor: descriptor(t, "A", 0), Tags: tags}
	require.ErrorIs(t, s.Append([]esdb.Event{oversized}), esdb.ErrTooManyTags)

	// The stream is unaffected, so Len stays at zero.
	n, err := s.Len()
	require.NoError(t, err)
	require.Zero(t, n)
}

// E8
func TestReopenPreservesLenAndIndex(t *testing.T) {
	ks := memkv.New()

	s, err := esdb.Open("", esdb.WithKeyspace(ks))
	require.NoError(t, err)
	seedThreeEvents(t, s)
	require.NoError(t, s.Close())

	reopened, err := esdb.Open("", esdb.WithKeyspace(ks))
	require.NoError(t, err)
	defer reopened.Close()

	n, err := reopened.Len()
	require.NoError(t, err)
	require.Equal(t, uint64(3), n)

	positions, err := reopened.IterateByDescriptor(esdb.DescriptorSpecifier{Identifier: "A"}, nil)
	require.NoError(t, err)
	require.Equal(t, []esdb.Position{0, 2}, positions)
}

func TestIterateByTag(t *testing.T) {
	s := open(t)
	seedThreeEvents(t, s)

	positions, err := s.IterateByTag("x")
	require.NoError(t, err)
	require.Equal(t, []esdb.Position{0, 1}, positions)
}

func TestPositionsAreMonotonicAcrossAppends(t *testing.T) {
	s := open(t)

	for i := 0; i < 5; i++ {
		e, err := esdb.NewEvent(nil, descriptor(t, "A", 0))
		require.NoError(t, err)
		require.NoError(t, s.Append([]esdb.Event{e}))
	}

	n, err := s.Len()
	require.NoError(t, err)
	require.Equal(t, uint64(5), n)

	for position := esdb.Position(0); position < 5; position++ {
		_, err := s.Get(position)
		require.NoError(t, err)
	}
}

func TestAppendReportsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	s, err := esdb.Open("", esdb.WithKeyspace(memkv.New()), esdb.WithMetrics(collector))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })

	e, err := esdb.NewEvent(nil, descriptor(t, "A", 0))
	require.NoError(t, err)
	require.NoError(t, s.Append([]esdb.Event{e}))

	require.Equal(t, float64(1), testutil.ToFloat64(collector.EventsAppended))
	require.Equal(t, float64(0), testutil.ToFloat64(collector.AppendErrors))
	require.Equal(t, 1, testutil.CollectAndCount(collector.CommitLatency))
}
