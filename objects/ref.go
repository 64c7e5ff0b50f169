// ABOUTME: Canonical form for foreign-key references found in payloads
// ABOUTME: Normalizes nested objects and bare id + display name into one shape
package objects

import (
	"encoding/json"
	"maps"
	"math"
	"strconv"
)

// Ref is a foreign-key reference extracted from a payload. The API expresses the same
// relationship either as a nested object or as a bare id next to a denormalized name,
// depending on which endpoint answered; both become a Ref before linking.
type Ref interface {
	// Payload returns the data used to construct or reuse the referenced record.
	Payload() map[string]any
	isRef()
}

// RefNested is a reference given as an embedded object, e.g. {"value": 5, "name": "Acme"}.
type RefNested struct {
	Data map[string]any
}

// RefIDName is a reference given as a bare id plus a display name.
// Extra carries additional fields to seed the referenced record with.
type RefIDName struct {
	ID    int64
	Name  any
	Extra map[string]any
}

func (RefNested) isRef() {}
func (RefIDName) isRef() {}

// Payload returns a copy of the embedded object.
func (r RefNested) Payload() map[string]any {
	return maps.Clone(r.Data)
}

// Payload returns {id, name} plus any extra fields.
func (r RefIDName) Payload() map[string]any {
	data := make(map[string]any, len(r.Extra)+2)
	maps.Copy(data, r.Extra)
	data["id"] = r.ID
	if r.Name != nil {
		data["name"] = r.Name
	}
	return data
}

// ParseRef normalizes a raw foreign-key value. It returns nil when the reference is
// absent: nil, zero, false, an empty object, or an object without an id.
func ParseRef(raw any, name any) Ref {
	switch v := raw.(type) {
	case nil:
		return nil
	case map[string]any:
		if _, ok := payloadID(v); !ok {
			return nil
		}
		return RefNested{Data: v}
	}
	id, ok := toID(raw)
	if !ok {
		return nil
	}
	return RefIDName{ID: id, Name: name}
}

// payloadID reads the id of a payload, falling back to "value" for objects lifted out of
// another entity's reference field.
func payloadID(data map[string]any) (int64, bool) {
	if raw, ok := data["id"]; ok {
		return toID(raw)
	}
	if raw, ok := data["value"]; ok {
		return toID(raw)
	}
	return 0, false
}

// normalizePayload returns a copy of data with the id under "id".
func normalizePayload(data map[string]any) (map[string]any, int64, error) {
	id, ok := payloadID(data)
	if !ok {
		return nil, 0, ErrMissingID
	}
	out := maps.Clone(data)
	if _, hasID := out["id"]; !hasID {
		delete(out, "value")
	}
	out["id"] = id
	return out, id, nil
}

// toID converts a JSON-decoded id into an int64. Only positive integers are ids.
func toID(v any) (int64, bool) {
	var id int64
	switch val := v.(type) {
	case int64:
		id = val
	case int:
		id = int64(val)
	case int32:
		id = int64(val)
	case float64:
		if val != math.Trunc(val) {
			return 0, false
		}
		id = int64(val)
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return 0, false
		}
		id = n
	case string:
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return 0, false
		}
		id = n
	default:
		return 0, false
	}
	return id, id > 0
}

func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int64:
		return float64(val), true
	case int:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(val, 64)
		return f, err == nil
	}
	return 0, false
}
