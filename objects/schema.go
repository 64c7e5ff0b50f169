// ABOUTME: Custom field schema shared by all records of one kind
// ABOUTME: Maps human-readable attribute names to storage keys and option labels
package objects

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// CustomField describes one deployment-specific field.
// Options maps a stored option id to its label; nil means the field is free-form.
type CustomField struct {
	Key     string            `json:"key"`
	Options map[string]string `json:"options,omitempty"`
}

// Schema maps attribute names (e.g. "lead_source") to custom fields.
type Schema map[string]CustomField

// FieldDefinition is one entry of a <kind>Fields response.
type FieldDefinition struct {
	Key     string        `json:"key"`
	Name    string        `json:"name"`
	Options []FieldOption `json:"options,omitempty"`
}

// FieldOption is one selectable value of an enumerated field. Built-in fields use
// string ids, custom fields numeric ones.
type FieldOption struct {
	ID    any    `json:"id"`
	Label string `json:"label"`
}

var (
	hexKey      = regexp.MustCompile(`^[0-9a-fA-F]+$`)
	nonAlphaNum = regexp.MustCompile(`[^0-9a-zA-Z]+`)
)

// AttrName converts a field's display name into its attribute name.
func AttrName(name string) string {
	return strings.ToLower(nonAlphaNum.ReplaceAllString(name, "_"))
}

// BuildSchema keeps the custom fields of a field-definition list. Custom fields are
// recognised by their hex storage keys; built-in fields use plain names.
func BuildSchema(defs []FieldDefinition) Schema {
	schema := make(Schema)
	for _, def := range defs {
		if !hexKey.MatchString(def.Key) {
			continue
		}
		cf := CustomField{Key: def.Key}
		if def.Options != nil {
			// "" stands for a cleared value
			cf.Options = map[string]string{"": ""}
			for _, opt := range def.Options {
				cf.Options[optionKey(opt.ID)] = opt.Label
			}
		}
		schema[AttrName(def.Name)] = cf
	}
	return schema
}

// Lookup returns the custom field registered under name.
func (s Schema) Lookup(name string) (CustomField, bool) {
	cf, ok := s[name]
	return cf, ok
}

// NameForKey returns the attribute name for a storage key, or the key itself when it
// is not custom.
func (s Schema) NameForKey(key string) (string, error) {
	var names []string
	for name, cf := range s {
		if cf.Key == key {
			names = append(names, name)
		}
	}
	switch len(names) {
	case 0:
		return key, nil
	case 1:
		return names[0], nil
	}
	sort.Strings(names)
	return "", fmt.Errorf("%w: %d matches for key %s (%s)", ErrAmbiguousField, len(names), key, strings.Join(names, ", "))
}

// Label returns the label for a stored option value.
func (cf CustomField) Label(stored any) (string, bool) {
	label, ok := cf.Options[optionKey(stored)]
	return label, ok
}

// ValueFor returns the option id whose label is label. When several ids share a label
// the lowest-sorting id wins.
func (cf CustomField) ValueFor(label string) (string, bool) {
	keys := make([]string, 0, len(cf.Options))
	for k := range cf.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if cf.Options[k] == label {
			return k, true
		}
	}
	return "", false
}

// Labels returns the selectable labels, sorted.
func (cf CustomField) Labels() []string {
	labels := make([]string, 0, len(cf.Options))
	for k, v := range cf.Options {
		if k == "" {
			continue
		}
		labels = append(labels, v)
	}
	sort.Strings(labels)
	return labels
}

func optionKey(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}
