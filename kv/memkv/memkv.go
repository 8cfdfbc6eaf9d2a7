// Package memkv is a minimal in-memory kv.Keyspace, used in tests so that
// the codec and esdb packages can be exercised without spinning up Badger.
// It is not a supported production engine: no persistence, no concurrency
// control beyond a keyspace mutex and one lock per partition.
package memkv

import (
	"bytes"
	"sort"
	"sync"

	"github.com/rpcpool/esdb/kv"
)

// Keyspace is an in-memory kv.Keyspace.
type Keyspace struct {
	mu         sync.Mutex
	partitions map[string]*partition
}

// New returns an empty in-memory keyspace.
func New() *Keyspace {
	return &Keyspace{partitions: make(map[string]*partition)}
}

func (k *Keyspace) Partition(name string) (kv.Partition, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if p, ok := k.partitions[name]; ok {
		return p, nil
	}
	p := &partition{name: name, entries: make(map[string][]byte)}
	k.partitions[name] = p
	return p, nil
}

func (k *Keyspace) NewBatch() kv.Batch {
	return &batch{}
}

func (k *Keyspace) Close() error { return nil }

type write struct {
	p     *partition
	key   string
	value []byte
}

type batch struct {
	writes []write
}

func (b *batch) Insert(p kv.Partition, key, value []byte) {
	mp := p.(*partition)
	valueCopy := append([]byte(nil), value...)
	b.writes = append(b.writes, write{p: mp, key: string(key), value: valueCopy})
}

func (b *batch) Commit() error {
	for _, w := range b.writes {
		w.p.mu.Lock()
		w.p.entries[w.key] = w.value
		w.p.mu.Unlock()
	}
	return nil
}

type partition struct {
	name string

	mu      sync.RWMutex
	entries map[string][]byte
}

func (p *partition) Name() string { return p.name }

func (p *partition) Get(key []byte) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.entries[string(key)]
	if !ok {
		return nil, kv.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (p *partition) sortedKeys() []string {
	keys := make([]string, 0, len(p.entries))
	for k := range p.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (p *partition) LastKey() ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	keys := p.sortedKeys()
	if len(keys) == 0 {
		return nil, kv.ErrNotFound
	}
	return []byte(keys[len(keys)-1]), nil
}

func (p *partition) Range(lower, upper []byte) (kv.Iterator, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var pairs []kvPair
	for _, k := range p.sortedKeys() {
		key := []byte(k)
		if bytes.Compare(key, lower) >= 0 && bytes.Compare(key, upper) <= 0 {
			pairs = append(pairs, kvPair{key: key, value: p.entries[k]})
		}
	}
	return &sliceIterator{pairs: pairs, index: -1}, nil
}

func (p *partition) Prefix(prefix []byte) (kv.Iterator, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var pairs []kvPair
	for _, k := range p.sortedKeys() {
		key := []byte(k)
		if bytes.HasPrefix(key, prefix) {
			pairs = append(pairs, kvPair{key: key, value: p.entries[k]})
		}
	}
	return &sliceIterator{pairs: pairs, index: -1}, nil
}

type kvPair struct {
	key   []byte
	value []byte
}

type sliceIterator struct {
	pairs []kvPair
	index int
}

func (it *sliceIterator) Next() bool {
	it.index++
	return it.index < len(it.pairs)
}

func (it *sliceIterator) Key() []byte   { return it.pairs[it.index].key }
func (it *sliceIterator) Value() []byte { return it.pairs[it.index].value }
func (it *sliceIterator) Err() error    { return nil }
func (it *sliceIterator) Close() error  { return nil }
