// Package esdb is an embedded, append-only event store built over an
// ordered key-value engine. It persists a monotonically numbered sequence
// of events, each carrying opaque payload bytes, a typed descriptor, and
// zero or more string tags, and maintains forward secondary indexes
// (descriptor and tag) plus reference partitions mapping hashed identifiers
// back to their original string form.
package esdb

import (
	"fmt"
	"time"

	logging "github.com/ipfs/go-log/v2"

	"github.com/rpcpool/esdb/codec"
	"github.com/rpcpool/esdb/hashed"
	"github.com/rpcpool/esdb/kv"
	"github.com/rpcpool/esdb/kv/badgerkv"
	"github.com/rpcpool/esdb/metrics"
)

var log = logging.Logger("esdb")

// Stream is a single-writer, append-only event log. It owns the keyspace
// and partition handles for its lifetime; there is no closed or poisoned
// state (spec.md §4.6) — errors from the engine are surfaced and the Stream
// remains usable afterward.
type Stream struct {
	keyspace  kv.Keyspace
	data      kv.Partition
	index     kv.Partition
	reference kv.Partition

	state streamState

	metrics *metrics.Collector
}

// Option configures a Stream at Open time.
type Option func(*Stream)

// WithMetrics attaches a metrics.Collector that Append reports to. Without
// this option a Stream performs no metrics work on its hot path.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Stream) { s.metrics = c }
}

// WithKeyspace overrides the engine a Stream is built against. Without this
// option, Open builds a badgerkv.Keyspace at path, the default engine
// wired in for this module (see SPEC_FULL.md §3).
func WithKeyspace(ks kv.Keyspace) Option {
	return func(s *Stream) { s.keyspace = ks }
}

// Open opens (or creates) the event store at path: the three partitions
// data, index, and reference are opened (creating them if necessary) and
// the in-memory position is initialized from the data partition's length.
func Open(path string, opts ...Option) (*Stream, error) {
	s := &Stream{}
	for _, opt := range opts {
		opt(s)
	}

	if s.keyspace == nil {
		ks, err := badgerkv.Open(path)
		if err != nil {
			return nil, fmt.Errorf("esdb: open keyspace at %q: %w", path, err)
		}
		s.keyspace = ks
	}

	var err error
	if s.data, err = s.keyspace.Partition(codec.DataPartitionName); err != nil {
		return nil, fmt.Errorf("esdb: open data partition: %w", err)
	}
	if s.index, err = s.keyspace.Partition(codec.IndexPartitionName); err != nil {
		return nil, fmt.Errorf("esdb: open index partition: %w", err)
	}
	if s.reference, err = s.keyspace.Partition(codec.ReferencePartitionName); err != nil {
		return nil, fmt.Errorf("esdb: open reference partition: %w", err)
	}

	length, err := codec.Len(s.data)
	if err != nil {
		return nil, fmt.Errorf("esdb: read initial length: %w", err)
	}
	s.state = newStreamState(length)

	log.Debugw("opened stream", "path", path, "position", length)
	return s, nil
}

// Close releases the underlying keyspace.
func (s *Stream) Close() error {
	return s.keyspace.Close()
}

// Len returns the number of events ever appended to the stream.
func (s *Stream) Len() (uint64, error) {
	return codec.Len(s.data)
}

// IsEmpty reports whether the stream holds no events.
func (s *Stream) IsEmpty() (bool, error) {
	n, err := s.Len()
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// Append commits events as a single atomic batch across the data, index,
// and reference partitions. Positions are assigned in slice order starting
// at the stream's current position. On success the stream's position
// advances by len(events); on any engine error the position is left
// unchanged and no partition shows a trace of the attempted events.
func (s *Stream) Append(events []Event) (err error) {
	if s.metrics != nil {
		defer func() {
			if err != nil {
				s.metrics.AppendErrors.Inc()
			}
		}()
	}

	for _, e := range events {
		if len(e.Tags) > MaxTags {
			return ErrTooManyTags
		}
	}

	batch := s.keyspace.NewBatch()
	start := s.state.current()

	for i, e := range events {
		position := start + uint64(i)
		hashedEvent := hashed.NewEvent(e.Data, e.Descriptor.Identifier, e.Descriptor.Version, e.Tags)

		if err := codec.InsertData(batch, s.data, position, hashedEvent); err != nil {
			return err
		}
		codec.InsertIndex(batch, s.index, position, hashedEvent)
		codec.InsertReference(batch, s.reference, hashedEvent)
	}

	commitStarted := time.Now()
	commitErr := batch.Commit()
	if s.metrics != nil {
		s.metrics.CommitLatency.Observe(time.Since(commitStarted).Seconds())
	}
	if commitErr != nil {
		return fmt.Errorf("esdb: commit batch: %w", commitErr)
	}

	s.state.advance(uint64(len(events)))
	if s.metrics != nil {
		s.metrics.EventsAppended.Add(float64(len(events)))
	}
	log.Debugw("appended events", "count", len(events), "position", s.state.current())
	return nil
}

// Get returns the event stored at position, decoded from the data
// partition. Tags and the descriptor identifier are resolved back to their
// original strings via the reference partition. This is not named in
// spec.md's core surface (spec.md §6 lists only open/append/len/is_empty
// and descriptor iteration) but is required to make the stored events
// useful to read back at all; see DESIGN.md.
func (s *Stream) Get(position Position) (Event, error) {
	value, err := s.data.Get(codec.EncodeDataKey(position))
	if err != nil {
		return Event{}, err
	}
	decoded, err := codec.DecodeDataValue(value)
	if err != nil {
		return Event{}, err
	}

	identifier, err := codec.ResolveDescriptor(s.reference, decoded.IdentifierHash)
	if err != nil {
		return Event{}, fmt.Errorf("esdb: resolve descriptor identifier: %w", err)
	}

	tags := make([]Tag, len(decoded.TagHashes))
	for i, h := range decoded.TagHashes {
		tag, err := codec.ResolveTag(s.reference, h)
		if err != nil {
			return Event{}, fmt.Errorf("esdb: resolve tag: %w", err)
		}
		tags[i] = tag
	}

	return Event{
		Data:       decoded.Payload,
		Descriptor: Descriptor{Identifier: identifier, Version: decoded.Version},
		Tags:       tags,
	}, nil
}

// IterateByDescriptor returns, in ascending order, every position matching
// specifier (optionally filtered by version range), optionally starting
// from start (inclusive) instead of the beginning of the identifier's
// range (spec.md §4.3).
func (s *Stream) IterateByDescriptor(specifier DescriptorSpecifier, start *Position) ([]Position, error) {
	identifierHash := hashed.Hash([]byte(specifier.Identifier))

	var filter *codec.VersionFilter
	if specifier.Versions != nil {
		filter = &codec.VersionFilter{Start: specifier.Versions.Start, End: specifier.Versions.End}
	}

	return codec.IterateByDescriptor(s.index, identifierHash, filter, start)
}

// IterateByTag returns, in ascending order, every position carrying tag.
func (s *Stream) IterateByTag(tag Tag) ([]Position, error) {
	return codec.IterateByTag(s.index, hashed.Hash([]byte(tag)))
}
