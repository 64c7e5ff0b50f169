// ABOUTME: Entity kinds known to the Pipedrive API
// ABOUTME: Maps each kind to its collection and field-definition endpoints
package objects

import (
	"fmt"
	"strings"
)

// Kind identifies a Pipedrive entity type.
type Kind string

// Entity kinds.
const (
	KindPerson       Kind = "person"
	KindOrganization Kind = "organization"
	KindDeal         Kind = "deal"
	KindPipeline     Kind = "pipeline"
	KindStage        Kind = "stage"
	KindNote         Kind = "note"
	KindActivity     Kind = "activity"
	KindUser         Kind = "user"
	KindProduct      Kind = "product"
)

// Kinds lists every kind a Registry keeps a store for.
var Kinds = []Kind{
	KindPerson,
	KindOrganization,
	KindDeal,
	KindPipeline,
	KindStage,
	KindNote,
	KindActivity,
	KindUser,
	KindProduct,
}

// Endpoint returns the collection path for the kind, e.g. "persons".
func (k Kind) Endpoint() string {
	if k == KindActivity {
		return "activities"
	}
	return string(k) + "s"
}

// FieldsEndpoint returns the field-definition path for the kind, e.g. "personFields".
func (k Kind) FieldsEndpoint() string {
	return string(k) + "Fields"
}

// HasCustomFields reports whether records of this kind carry deployment-specific fields.
func (k Kind) HasCustomFields() bool {
	switch k {
	case KindPerson, KindOrganization, KindDeal:
		return true
	}
	return false
}

// Title returns the capitalized kind name used in summaries.
func (k Kind) Title() string {
	if k == "" {
		return ""
	}
	return strings.ToUpper(string(k[:1])) + string(k[1:])
}

// ParseKind accepts singular, plural and short forms ("org", "orgs", "persons").
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "person", "persons", "people":
		return KindPerson, nil
	case "org", "orgs", "organization", "organizations", "organisation", "organisations":
		return KindOrganization, nil
	case "deal", "deals":
		return KindDeal, nil
	case "pipeline", "pipelines":
		return KindPipeline, nil
	case "stage", "stages":
		return KindStage, nil
	case "note", "notes":
		return KindNote, nil
	case "activity", "activities":
		return KindActivity, nil
	case "user", "users":
		return KindUser, nil
	case "product", "products":
		return KindProduct, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}
