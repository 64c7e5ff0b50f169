// ABOUTME: Record wraps one cached Pipedrive entity and its raw field mapping
// ABOUTME: Provides custom-field aware access, mutation tracking and relationships
package objects

import (
	"fmt"
	"maps"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// Record is the single in-memory instance for one (kind, id) within a Registry.
// Records are created and upgraded only by the Registry; all state is guarded by the
// Registry lock.
type Record struct {
	kind  Kind
	id    int64
	store *Store

	fields   map[string]any
	stub     bool
	modified []string
	locals   map[string]any

	// forward references
	org      *Record
	owner    *Record
	creator  *Record
	person   *Record
	user     *Record
	pipeline *Record
	stage    *Record
	deal     *Record

	// back-references, append-only
	persons []*Record
	deals   []*Record
	notes   []*Record
	stages  []*Record
}

// ID returns the remote id.
func (r *Record) ID() int64 { return r.id }

// Kind returns the record's entity kind.
func (r *Record) Kind() Kind { return r.kind }

// IsStub reports whether the record holds only partial data.
func (r *Record) IsStub() bool {
	r.store.reg.mu.RLock()
	defer r.store.reg.mu.RUnlock()
	return r.stub
}

// ModifiedFields returns the storage keys assigned locally since the last
// authoritative load, in assignment order. Keys may repeat.
func (r *Record) ModifiedFields() []string {
	r.store.reg.mu.RLock()
	defer r.store.reg.mu.RUnlock()
	return slices.Clone(r.modified)
}

// Fields returns a copy of the raw field mapping.
func (r *Record) Fields() map[string]any {
	r.store.reg.mu.RLock()
	defer r.store.reg.mu.RUnlock()
	return maps.Clone(r.fields)
}

// Raw returns the value stored under a storage key.
func (r *Record) Raw(key string) (any, bool) {
	r.store.reg.mu.RLock()
	defer r.store.reg.mu.RUnlock()
	v, ok := r.fields[key]
	return v, ok
}

// Get reads a field by attribute name. Local attributes win, then custom fields
// (translated through the kind's schema), then raw fields.
func (r *Record) Get(name string) (any, error) {
	r.store.reg.mu.RLock()
	defer r.store.reg.mu.RUnlock()
	return r.get(name)
}

func (r *Record) get(name string) (any, error) {
	if v, ok := r.locals[name]; ok {
		return v, nil
	}
	if cf, ok := r.store.schema[name]; ok {
		return r.getCustom(name, cf)
	}
	v, ok := r.fields[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s", ErrUnknownField, name, r.summary())
	}
	return v, nil
}

func (r *Record) getCustom(name string, cf CustomField) (any, error) {
	v, ok := r.fields[cf.Key]
	if !ok {
		log.Warn().Str("field", name).Str("key", cf.Key).Str("record", r.summary()).Msg("custom field not present on record")
		return nil, fmt.Errorf("%w: %s (%s) on %s", ErrUnknownField, name, cf.Key, r.summary())
	}
	if v == nil || cf.Options == nil {
		return v, nil
	}
	label, ok := cf.Label(v)
	if !ok {
		return nil, fmt.Errorf("%w: %v for %s", ErrNoSuchOption, v, name)
	}
	return label, nil
}

// Set assigns a field by attribute name. Enumerated custom fields take a label and
// store its option id; unknown labels fail without touching the record. Custom fields
// and existing raw keys are tracked in ModifiedFields. Any other name becomes an
// untracked local attribute.
func (r *Record) Set(name string, value any) error {
	r.store.reg.mu.Lock()
	defer r.store.reg.mu.Unlock()

	if name == "id" {
		return fmt.Errorf("%w: id", ErrReadOnlyField)
	}

	if cf, ok := r.store.schema[name]; ok {
		stored := value
		if cf.Options != nil {
			label, isString := value.(string)
			optionID, found := cf.ValueFor(label)
			if !isString || !found {
				return fmt.Errorf("%w: %v is not a valid value for %s, valid values are %s",
					ErrInvalidOption, value, name, strings.Join(cf.Labels(), ", "))
			}
			stored = optionID
			if optionID == "" {
				stored = nil
			}
		}
		log.Info().Str("record", r.summary()).Str("field", name).Str("key", cf.Key).
			Interface("from", r.fields[cf.Key]).Interface("to", stored).Msg("modified custom field")
		r.fields[cf.Key] = stored
		r.modified = append(r.modified, cf.Key)
		return nil
	}

	if old, ok := r.fields[name]; ok {
		log.Info().Str("record", r.summary()).Str("field", name).
			Interface("from", old).Interface("to", value).Msg("modified field")
		r.fields[name] = value
		r.modified = append(r.modified, name)
		return nil
	}

	if r.locals == nil {
		r.locals = make(map[string]any)
	}
	r.locals[name] = value
	return nil
}

// FieldNames lists every field present, using custom-field names in place of storage keys.
func (r *Record) FieldNames() ([]string, error) {
	r.store.reg.mu.RLock()
	defer r.store.reg.mu.RUnlock()

	names := make([]string, 0, len(r.fields))
	for key := range r.fields {
		name, err := r.store.schema.NameForKey(key)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Dump renders every field by attribute name, one per line.
func (r *Record) Dump() (string, error) {
	r.store.reg.mu.RLock()
	defer r.store.reg.mu.RUnlock()

	if len(r.fields) == 0 {
		return "No data", nil
	}
	keys := slices.Sorted(maps.Keys(r.fields))
	var b strings.Builder
	for _, key := range keys {
		name, err := r.store.schema.NameForKey(key)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "%s: %v\n", name, r.fields[key])
	}
	return b.String(), nil
}

// String returns a short summary such as "Person(12,Ada Lovelace)".
func (r *Record) String() string {
	r.store.reg.mu.RLock()
	defer r.store.reg.mu.RUnlock()
	return r.summary()
}

func (r *Record) summary() string {
	label := r.name()
	switch r.kind {
	case KindNote:
		content := []rune(r.text("content"))
		if len(content) > 30 {
			content = content[:30]
		}
		label = string(content)
	case KindActivity:
		label = r.text("subject")
	}
	return r.kind.Title() + "(" + strconv.FormatInt(r.id, 10) + "," + label + ")"
}

// Name returns the display name. Deals are named by their title.
func (r *Record) Name() string {
	r.store.reg.mu.RLock()
	defer r.store.reg.mu.RUnlock()
	return r.name()
}

func (r *Record) name() string {
	if _, ok := r.fields["name"]; ok {
		return r.text("name")
	}
	return r.text("title")
}

// Text returns the value under a storage key formatted for display, or "" when it
// is absent or null.
func (r *Record) Text(key string) string {
	r.store.reg.mu.RLock()
	defer r.store.reg.mu.RUnlock()
	return r.text(key)
}

func (r *Record) text(key string) string {
	v, ok := r.fields[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// EmailAddress returns the first email of a person, or a user's email.
func (r *Record) EmailAddress() string {
	r.store.reg.mu.RLock()
	defer r.store.reg.mu.RUnlock()

	switch v := r.fields["email"].(type) {
	case string:
		return v
	case []any:
		if len(v) == 0 {
			return ""
		}
		if entry, ok := v[0].(map[string]any); ok {
			if s, ok := entry["value"]; ok && s != nil {
				return fmt.Sprint(s)
			}
		}
	}
	return ""
}

// OrgName returns the linked organization's name, or "".
func (r *Record) OrgName() string {
	if org := r.Org(); org != nil {
		return org.Name()
	}
	return ""
}

// PersonName returns the linked person's name, or "".
func (r *Record) PersonName() string {
	if p := r.Person(); p != nil {
		return p.Name()
	}
	return ""
}

func (r *Record) link(get func(*Record) *Record) *Record {
	r.store.reg.mu.RLock()
	defer r.store.reg.mu.RUnlock()
	return get(r)
}

func (r *Record) collection(get func(*Record) []*Record) []*Record {
	r.store.reg.mu.RLock()
	defer r.store.reg.mu.RUnlock()
	return slices.Clone(get(r))
}

// Org returns the linked organization.
func (r *Record) Org() *Record { return r.link(func(r *Record) *Record { return r.org }) }

// Owner returns the owning user.
func (r *Record) Owner() *Record { return r.link(func(r *Record) *Record { return r.owner }) }

// Creator returns the user who created a deal.
func (r *Record) Creator() *Record { return r.link(func(r *Record) *Record { return r.creator }) }

// Person returns the linked person.
func (r *Record) Person() *Record { return r.link(func(r *Record) *Record { return r.person }) }

// User returns the author of a note.
func (r *Record) User() *Record { return r.link(func(r *Record) *Record { return r.user }) }

// Pipeline returns the pipeline of a deal or stage.
func (r *Record) Pipeline() *Record { return r.link(func(r *Record) *Record { return r.pipeline }) }

// Stage returns the stage of a deal.
func (r *Record) Stage() *Record { return r.link(func(r *Record) *Record { return r.stage }) }

// Deal returns the deal a note or activity is attached to.
func (r *Record) Deal() *Record { return r.link(func(r *Record) *Record { return r.deal }) }

// Persons returns the persons linked to an organization.
func (r *Record) Persons() []*Record {
	return r.collection(func(r *Record) []*Record { return r.persons })
}

// Deals returns the deals referencing this record.
func (r *Record) Deals() []*Record { return r.collection(func(r *Record) []*Record { return r.deals }) }

// Notes returns the notes referencing this record.
func (r *Record) Notes() []*Record { return r.collection(func(r *Record) []*Record { return r.notes }) }

// Stages returns a pipeline's stages in arrival order, or as last sorted.
func (r *Record) Stages() []*Record {
	return r.collection(func(r *Record) []*Record { return r.stages })
}

// NextStage returns the stage after stage in this pipeline, or nil.
func (r *Record) NextStage(stage *Record) *Record {
	r.store.reg.mu.RLock()
	defer r.store.reg.mu.RUnlock()
	pos := slices.Index(r.stages, stage)
	if pos < 0 || pos+1 >= len(r.stages) {
		return nil
	}
	return r.stages[pos+1]
}

// PrevStage returns the stage before stage in this pipeline, or nil.
func (r *Record) PrevStage(stage *Record) *Record {
	r.store.reg.mu.RLock()
	defer r.store.reg.mu.RUnlock()
	pos := slices.Index(r.stages, stage)
	if pos <= 0 {
		return nil
	}
	return r.stages[pos-1]
}

// SortStages orders a pipeline's stages by their order_nr field. Stages without one
// keep their relative arrival order after the numbered ones.
func (r *Record) SortStages() {
	r.store.reg.mu.Lock()
	defer r.store.reg.mu.Unlock()
	slices.SortStableFunc(r.stages, func(a, b *Record) int {
		ao, aok := toFloat(a.fields["order_nr"])
		bo, bok := toFloat(b.fields["order_nr"])
		switch {
		case aok && bok:
			if ao < bo {
				return -1
			}
			if ao > bo {
				return 1
			}
			return 0
		case aok:
			return -1
		case bok:
			return 1
		}
		return 0
	})
}
