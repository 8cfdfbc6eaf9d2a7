package esdb

import "errors"

// ErrTooManyTags is returned when an Event is constructed with more than
// MaxTags tags; the encoded tag count is a single byte so this is a
// programmer/contract error (spec.md §7), not a storage failure.
var ErrTooManyTags = errors.New("esdb: event carries more than 255 tags")

// ErrCorrupt is the root package's sentinel for a key or value that cannot
// be decoded. Stream's read methods do not wrap their decode failures in it:
// those errors wrap codec.ErrCorrupt instead.
var ErrCorrupt = errors.New("esdb: corrupt index or data entry")
