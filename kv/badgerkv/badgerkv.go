// Package badgerkv implements the esdb/kv engine interface over
// github.com/dgraph-io/badger/v4, the ecosystem's standard embedded,
// persistent, ordered LSM key-value store. A single Badger DB backs the
// whole Keyspace; each named Partition is a disjoint key range identified by
// a one-byte tag prefixed onto every key written through it, so that one
// Badger transaction can span every partition atomically — matching the
// "atomic write batch across all three partitions" requirement in spec.md
// §4.1.
package badgerkv

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	logging "github.com/ipfs/go-log/v2"

	"github.com/rpcpool/esdb/kv"
)

var log = logging.Logger("esdb/badgerkv")

// registryTag is reserved for the partition-name-to-tag registry; no
// application partition is ever assigned this tag.
const registryTag byte = 0xFF

// Keyspace is a kv.Keyspace backed by a single Badger database.
type Keyspace struct {
	db *badger.DB

	mu         sync.Mutex
	partitions map[string]*partition
	nextTag    byte
}

// Option configures badger.Options before Open.
type Option func(*badger.Options)

// WithInMemory opens the keyspace as an in-memory-only Badger instance,
// useful for tests.
func WithInMemory() Option {
	return func(o *badger.Options) {
		*o = o.WithInMemory(true)
	}
}

// WithSyncWrites sets whether every commit fsyncs before returning.
func WithSyncWrites(sync bool) Option {
	return func(o *badger.Options) {
		*o = o.WithSyncWrites(sync)
	}
}

// Open opens (creating if necessary) a Badger-backed keyspace at path.
func Open(path string, opts ...Option) (*Keyspace, error) {
	options := badger.DefaultOptions(path)
	options.Logger = nil // esdb logs its own events; silence badger's default logger

	for _, opt := range opts {
		opt(&options)
	}

	db, err := badger.Open(options)
	if err != nil {
		return nil, fmt.Errorf("esdb/badgerkv: open %q: %w", path, err)
	}

	ks := &Keyspace{db: db, partitions: make(map[string]*partition)}
	if err := ks.loadRegistry(); err != nil {
		db.Close()
		return nil, err
	}
	return ks, nil
}

func (k *Keyspace) loadRegistry() error {
	return k.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte{registryTag}
		it := txn.NewIterator(opts)
		defer it.Close()

		maxTag := -1
		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			item := it.Item()
			name := string(item.KeyCopy(nil)[1:])

			var tag byte
			if err := item.Value(func(v []byte) error {
				if len(v) != 1 {
					return fmt.Errorf("esdb/badgerkv: corrupt partition registry entry for %q", name)
				}
				tag = v[0]
				return nil
			}); err != nil {
				return err
			}

			k.partitions[name] = &partition{ks: k, name: name, tag: tag}
			if int(tag) > maxTag {
				maxTag = int(tag)
			}
		}
		k.nextTag = byte(maxTag + 1)
		return nil
	})
}

// Partition opens (creating and registering if necessary) the named
// partition.
func (k *Keyspace) Partition(name string) (kv.Partition, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if p, ok := k.partitions[name]; ok {
		return p, nil
	}

	if k.nextTag == registryTag {
		return nil, fmt.Errorf("esdb/badgerkv: partition namespace exhausted")
	}
	tag := k.nextTag

	if err := k.db.Update(func(txn *badger.Txn) error {
		return txn.Set(append([]byte{registryTag}, []byte(name)...), []byte{tag})
	}); err != nil {
		return nil, fmt.Errorf("esdb/badgerkv: register partition %q: %w", name, err)
	}

	k.nextTag++
	p := &partition{ks: k, name: name, tag: tag}
	k.partitions[name] = p
	log.Debugw("opened partition", "name", name, "tag", tag)
	return p, nil
}

// NewBatch starts a Badger read-write transaction that may insert into any
// Partition of this Keyspace. A single Badger transaction, not a WriteBatch,
// is used deliberately: WriteBatch may split large batches across several
// internal commits and is not atomic, whereas a Txn commits once.
func (k *Keyspace) NewBatch() kv.Batch {
	return &batch{ks: k, txn: k.db.NewTransaction(true)}
}

// Close releases the underlying Badger database.
func (k *Keyspace) Close() error {
	return k.db.Close()
}

type partition struct {
	ks   *Keyspace
	name string
	tag  byte
}

func (p *partition) Name() string { return p.name }

func (p *partition) fullKey(key []byte) []byte {
	full := make([]byte, 1+len(key))
	full[0] = p.tag
	copy(full[1:], key)
	return full
}

func (p *partition) Get(key []byte) ([]byte, error) {
	var value []byte
	err := p.ks.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(p.fullKey(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return kv.ErrNotFound
			}
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// LastKey returns the lexicographically greatest key in the partition by
// seeking a reverse iterator to the next partition's tag, the smallest key
// guaranteed to sort after every key of this partition.
func (p *partition) LastKey() ([]byte, error) {
	var last []byte
	err := p.ks.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte{p.tag}
		it := txn.NewIterator(opts)
		defer it.Close()

		it.Seek([]byte{p.tag + 1})
		if !it.ValidForPrefix(opts.Prefix) {
			return kv.ErrNotFound
		}
		last = it.Item().KeyCopy(nil)[1:]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return last, nil
}

func (p *partition) Range(lower, upper []byte) (kv.Iterator, error) {
	txn := p.ks.db.NewTransaction(false)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte{p.tag}
	it := txn.NewIterator(opts)

	fullLower := p.fullKey(lower)
	fullUpper := p.fullKey(upper)
	it.Seek(fullLower)

	return &boundedIterator{txn: txn, it: it, partitionPrefix: []byte{p.tag}, upper: fullUpper}, nil
}

func (p *partition) Prefix(prefix []byte) (kv.Iterator, error) {
	txn := p.ks.db.NewTransaction(false)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte{p.tag}
	it := txn.NewIterator(opts)

	fullPrefix := p.fullKey(prefix)
	it.Seek(fullPrefix)

	return &boundedIterator{txn: txn, it: it, partitionPrefix: fullPrefix}, nil
}

// boundedIterator adapts a badger.Iterator (already Seek'd to its starting
// position) to kv.Iterator. When upper is nil, iteration continues for as
// long as partitionPrefix matches (prefix scan); otherwise iteration stops
// once the current key compares greater than upper (inclusive range scan).
type boundedIterator struct {
	txn             *badger.Txn
	it              *badger.Iterator
	partitionPrefix []byte
	upper           []byte

	started bool
	key     []byte
	value   []byte
	err     error
}

func (b *boundedIterator) Next() bool {
	if b.err != nil {
		return false
	}
	if !b.started {
		b.started = true
	} else {
		b.it.Next()
	}

	if !b.it.ValidForPrefix(b.partitionPrefix) {
		return false
	}
	item := b.it.Item()
	key := item.KeyCopy(nil)
	if b.upper != nil && bytes.Compare(key, b.upper) > 0 {
		return false
	}
	value, err := item.ValueCopy(nil)
	if err != nil {
		b.err = err
		return false
	}
	b.key = key[1:]
	b.value = value
	return true
}

func (b *boundedIterator) Key() []byte   { return b.key }
func (b *boundedIterator) Value() []byte { return b.value }
func (b *boundedIterator) Err() error    { return b.err }

func (b *boundedIterator) Close() error {
	b.it.Close()
	b.txn.Discard()
	return nil
}

type batch struct {
	ks  *Keyspace
	txn *badger.Txn
	err error
}

func (b *batch) Insert(p kv.Partition, key, value []byte) {
	if b.err != nil {
		return
	}
	bp, ok := p.(*partition)
	if !ok || bp.ks != b.ks {
		b.err = fmt.Errorf("esdb/badgerkv: partition %q does not belong to this keyspace", p.Name())
		return
	}
	if err := b.txn.Set(bp.fullKey(key), value); err != nil {
		b.err = err
	}
}

func (b *batch) Commit() error {
	defer b.txn.Discard()
	if b.err != nil {
		return b.err
	}
	return b.txn.Commit()
}
