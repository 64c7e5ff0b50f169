// ABOUTME: Sentinel errors for cache lookups and field access
// ABOUTME: Callers compare with errors.Is; messages carry the offending name
package objects

import "errors"

var (
	// ErrNotFound is returned when an ID is absent from a store.
	ErrNotFound = errors.New("record not found")

	// ErrUnknownField is returned when reading a name that is neither a custom field,
	// a raw field, nor a local attribute.
	ErrUnknownField = errors.New("unknown field")

	// ErrNoSuchOption is returned when a stored enumerated value has no label.
	ErrNoSuchOption = errors.New("stored value has no matching option")

	// ErrInvalidOption is returned when assigning a label outside a field's options.
	ErrInvalidOption = errors.New("invalid option value")

	// ErrAmbiguousField is returned when several schema entries share one storage key.
	ErrAmbiguousField = errors.New("ambiguous custom field key")

	// ErrMissingID is returned when a payload carries no usable id.
	ErrMissingID = errors.New("payload has no id")

	// ErrReadOnlyField is returned when assigning the remote id.
	ErrReadOnlyField = errors.New("field is read-only")

	// ErrUnknownKind is returned when a name matches no entity kind.
	ErrUnknownKind = errors.New("unknown entity kind")
)
