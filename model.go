package esdb

import "fmt"

// Position is the monotonically assigned index of an event within a Stream.
type Position = uint64

// MaxTags is the largest number of tags a single Event may carry; the
// encoded tag count is a single byte (§4.2 of the on-disk format).
const MaxTags = 255

// Descriptor names an event kind at a schema revision. Equality and
// ordering are lexicographic on Identifier, then numeric on Version.
type Descriptor struct {
	Identifier string
	Version    uint8
}

// NewDescriptor builds a Descriptor. Identifier must be non-empty.
func NewDescriptor(identifier string, version uint8) (Descriptor, error) {
	if identifier == "" {
		return Descriptor{}, fmt.Errorf("esdb: descriptor identifier must not be empty")
	}
	return Descriptor{Identifier: identifier, Version: version}, nil
}

// VersionRange is a half-open range of versions [Start, End). It is used by
// DescriptorSpecifier to filter iteration by version; the filter is skipped
// entirely when Start==0 and End==255 (codec.VersionFilter.Contains applies
// this rule on the read path).
type VersionRange struct {
	Start uint8
	End   uint8
}

// DescriptorSpecifier names an Identifier and an optional version filter.
// A nil Versions means "all versions".
type DescriptorSpecifier struct {
	Identifier string
	Versions   *VersionRange
}

// Tag is a free-form string annotation attached to an Event.
type Tag = string

// Event is the logical append unit: opaque payload bytes, a Descriptor, and
// an ordered sequence of Tags. Events are immutable once constructed and are
// consumed (moved) by Stream.Append.
type Event struct {
	Data       []byte
	Descriptor Descriptor
	Tags       []Tag
}

// NewEvent constructs an Event, allowing (but not deduplicating) repeated
// tags, matching the permissive tag handling spec.md §3 describes.
func NewEvent(data []byte, descriptor Descriptor, tags ...Tag) (Event, error) {
	if len(tags) > MaxTags {
		return Event{}, ErrTooManyTags
	}
	return Event{Data: data, Descriptor: descriptor, Tags: tags}, nil
}

// NewEventStrict is an additive constructor (not present in spec.md) that
// rejects duplicate tags, grounded on the original source's tags.rs typed
// tag layer which treats a tag set as a set rather than a sequence. Event
// itself keeps the permissive default behavior; use this only when callers
// need the stronger guarantee.
func NewEventStrict(data []byte, descriptor Descriptor, tags ...Tag) (Event, error) {
	seen := make(map[Tag]struct{}, len(tags))
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			return Event{}, fmt.Errorf("esdb: duplicate tag %q", t)
		}
		seen[t] = struct{}{}
	}
	return NewEvent(data, descriptor, tags...)
}
