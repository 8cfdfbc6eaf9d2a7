package codec

import "errors"

// ErrCorrupt indicates a key or value could not be decoded; per spec.md §7
// this is treated as fatal, not a recoverable query failure.
var ErrCorrupt = errors.New("esdb/codec: corrupt entry")

// ErrTooManyTags indicates an event carries more than 255 tags, the largest
// count the single-byte tag_count field in the data partition can encode.
var ErrTooManyTags = errors.New("esdb/codec: more than 255 tags")
