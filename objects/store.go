// ABOUTME: Identity cache of records, one store per kind, owned by a Registry
// ABOUTME: Implements stub construction and authoritative refresh of cached records
package objects

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"
)

// Registry is a session-scoped set of stores. Every reference to a (kind, id) inside
// one Registry resolves to the same *Record. Records are never evicted.
type Registry struct {
	mu     sync.RWMutex
	stores map[Kind]*Store
}

// Store maps remote ids to records for one kind.
type Store struct {
	kind   Kind
	reg    *Registry
	byID   map[int64]*Record
	schema Schema
}

// NewRegistry creates an empty registry with a store for every kind.
func NewRegistry() *Registry {
	reg := &Registry{stores: make(map[Kind]*Store, len(Kinds))}
	for _, kind := range Kinds {
		reg.stores[kind] = &Store{
			kind: kind,
			reg:  reg,
			byID: make(map[int64]*Record),
		}
	}
	return reg
}

// Store returns the store for kind, or nil for an unknown kind.
func (reg *Registry) Store(kind Kind) *Store {
	return reg.stores[kind]
}

func (reg *Registry) store(kind Kind) (*Store, error) {
	s, ok := reg.stores[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return s, nil
}

// Kind returns the store's entity kind.
func (s *Store) Kind() Kind { return s.kind }

// Exists reports whether id is cached.
func (s *Store) Exists(id int64) bool {
	s.reg.mu.RLock()
	defer s.reg.mu.RUnlock()
	_, ok := s.byID[id]
	return ok
}

// Get returns the cached record for id, or ErrNotFound.
func (s *Store) Get(id int64) (*Record, error) {
	s.reg.mu.RLock()
	defer s.reg.mu.RUnlock()
	rec, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s %d", ErrNotFound, s.kind, id)
	}
	return rec, nil
}

// FindByName returns the cached records whose display name equals name.
func (s *Store) FindByName(name string) []*Record {
	s.reg.mu.RLock()
	defer s.reg.mu.RUnlock()
	var out []*Record
	for _, id := range slices.Sorted(maps.Keys(s.byID)) {
		if rec := s.byID[id]; rec.name() == name {
			out = append(out, rec)
		}
	}
	return out
}

// All returns every cached record ordered by id.
func (s *Store) All() []*Record {
	s.reg.mu.RLock()
	defer s.reg.mu.RUnlock()
	out := make([]*Record, 0, len(s.byID))
	for _, id := range slices.Sorted(maps.Keys(s.byID)) {
		out = append(out, s.byID[id])
	}
	return out
}

// Len returns the number of cached records.
func (s *Store) Len() int {
	s.reg.mu.RLock()
	defer s.reg.mu.RUnlock()
	return len(s.byID)
}

// Schema returns the kind's custom field schema.
func (s *Store) Schema() Schema {
	s.reg.mu.RLock()
	defer s.reg.mu.RUnlock()
	return s.schema
}

// SetSchema replaces the kind's custom field schema. Existing records see it at once.
func (s *Store) SetSchema(schema Schema) {
	s.reg.mu.Lock()
	defer s.reg.mu.Unlock()
	s.schema = schema
}

// GetOrConstruct resolves a record from data embedded in another payload. An existing
// record is returned untouched, whatever data holds; otherwise a new record is created
// with the given stub flag, cached and linked.
func (reg *Registry) GetOrConstruct(kind Kind, data map[string]any, isStub bool) (*Record, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.getOrConstruct(kind, data, isStub)
}

func (reg *Registry) getOrConstruct(kind Kind, data map[string]any, isStub bool) (*Record, error) {
	s, err := reg.store(kind)
	if err != nil {
		return nil, err
	}
	data, id, err := normalizePayload(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", kind, err)
	}
	if rec, ok := s.byID[id]; ok {
		log.Debug().Str("record", rec.summary()).Msg("reusing cached record")
		return rec, nil
	}
	return reg.construct(s, id, data, isStub), nil
}

// RefreshOrConstruct applies authoritative data for a record fetched as the primary
// subject of a request. An existing record is updated in place: fields replaced,
// stub flag cleared, modifications forgotten and relationships re-resolved.
func (reg *Registry) RefreshOrConstruct(kind Kind, data map[string]any) (*Record, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	s, err := reg.store(kind)
	if err != nil {
		return nil, err
	}
	data, id, err := normalizePayload(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", kind, err)
	}
	rec, ok := s.byID[id]
	if !ok {
		return reg.construct(s, id, data, false), nil
	}

	old := rec.summary()
	rec.fields = data
	rec.stub = false
	rec.modified = nil
	for name := range rec.locals {
		if _, ok := data[name]; ok {
			delete(rec.locals, name)
		}
	}
	reg.link(rec)
	log.Debug().Str("from", old).Str("to", rec.summary()).Msg("refreshed cached record")
	return rec, nil
}

func (reg *Registry) construct(s *Store, id int64, data map[string]any, isStub bool) *Record {
	rec := &Record{
		kind:   s.kind,
		id:     id,
		store:  s,
		fields: data,
		stub:   isStub,
	}
	if len(s.byID) == 0 {
		log.Debug().Str("kind", string(s.kind)).Interface("data", data).Msg("first record added to store")
	}
	// cached before linking so references back to this id resolve to rec
	s.byID[id] = rec
	reg.link(rec)
	log.Debug().Str("record", rec.summary()).Bool("stub", isStub).Msg("created record")
	return rec
}
