// ABOUTME: Per-kind relationship linkers run when a record is constructed or refreshed
// ABOUTME: Resolves foreign keys into cached records and maintains back-references
package objects

import (
	"maps"
	"slices"

	"github.com/rs/zerolog/log"
)

const (
	unknownFromDeal  = "Unknown (from deal)"
	unknownFromStage = "Unknown (from stage)"
)

// link re-resolves every forward reference of rec from its current fields. Callers hold
// the registry write lock.
func (reg *Registry) link(rec *Record) {
	switch rec.kind {
	case KindPerson:
		reg.linkPerson(rec)
	case KindDeal:
		reg.linkDeal(rec)
	case KindStage:
		reg.linkStage(rec)
	case KindNote:
		reg.linkNote(rec)
	case KindActivity:
		reg.linkActivity(rec)
	}
}

func (reg *Registry) resolve(from *Record, kind Kind, ref Ref, isStub bool) *Record {
	if ref == nil {
		return nil
	}
	target, err := reg.getOrConstruct(kind, ref.Payload(), isStub)
	if err != nil {
		log.Warn().Err(err).Str("record", from.summary()).Str("kind", string(kind)).Msg("skipping unresolvable reference")
		return nil
	}
	return target
}

func appendUnique(list []*Record, rec *Record) []*Record {
	if rec == nil || slices.Contains(list, rec) {
		return list
	}
	return append(list, rec)
}

// withExtra seeds a bare-id reference with additional fields. Nested refs already carry
// the referenced record's own data and are returned as is.
func withExtra(ref Ref, extra map[string]any) Ref {
	idName, ok := ref.(RefIDName)
	if !ok {
		return ref
	}
	idName.Extra = extra
	return idName
}

// nestedOr picks the stub flag by payload shape: nested objects carry full data.
func nestedOr(ref Ref, bare bool) bool {
	if _, ok := ref.(RefNested); ok {
		return false
	}
	return bare
}

func orgSeed(org *Record) map[string]any {
	if org == nil {
		return nil
	}
	return map[string]any{"org_id": maps.Clone(org.fields)}
}

func (reg *Registry) linkPerson(p *Record) {
	p.org = reg.resolve(p, KindOrganization, ParseRef(p.fields["org_id"], nil), true)
	if p.org != nil {
		p.org.persons = appendUnique(p.org.persons, p)
	}

	owner := ParseRef(p.fields["owner_id"], p.fields["owner_name"])
	p.owner = reg.resolve(p, KindUser, owner, false)
}

func (reg *Registry) linkDeal(d *Record) {
	f := d.fields

	d.pipeline = reg.resolve(d, KindPipeline, ParseRef(f["pipeline_id"], unknownFromDeal), true)
	if d.pipeline != nil {
		d.pipeline.deals = appendUnique(d.pipeline.deals, d)
	}

	stage := withExtra(ParseRef(f["stage_id"], unknownFromDeal), map[string]any{"pipeline_id": f["pipeline_id"]})
	d.stage = reg.resolve(d, KindStage, stage, true)
	if d.stage != nil {
		d.stage.deals = appendUnique(d.stage.deals, d)
	}

	d.org = reg.resolve(d, KindOrganization, ParseRef(f["org_id"], f["org_name"]), true)
	if d.org != nil {
		d.org.deals = appendUnique(d.org.deals, d)
	}

	d.owner = reg.resolve(d, KindUser, ParseRef(f["user_id"], f["owner_name"]), true)

	creator := ParseRef(f["creator_user_id"], unknownFromDeal)
	d.creator = reg.resolve(d, KindUser, creator, nestedOr(creator, true))

	person := withExtra(ParseRef(f["person_id"], f["person_name"]), orgSeed(d.org))
	d.person = reg.resolve(d, KindPerson, person, true)
	if d.person != nil {
		d.person.deals = appendUnique(d.person.deals, d)
	}
}

func (reg *Registry) linkStage(s *Record) {
	name := any(unknownFromStage)
	if pn, ok := s.fields["pipeline_name"]; ok && pn != nil {
		name = pn
	}
	s.pipeline = reg.resolve(s, KindPipeline, ParseRef(s.fields["pipeline_id"], name), true)
	if s.pipeline != nil {
		s.pipeline.stages = appendUnique(s.pipeline.stages, s)
	}
}

// nestedName returns a field of a nested object, e.g. organization.name.
func nestedName(v any, key string) (any, bool) {
	m, ok := v.(map[string]any)
	if !ok || len(m) == 0 {
		return nil, false
	}
	return m[key], true
}

func (reg *Registry) linkNote(n *Record) {
	f := n.fields

	n.user = nil
	if id, ok := toID(f["user_id"]); ok {
		// user_id and the nested user object describe the same author
		data := map[string]any{}
		if u, ok := f["user"].(map[string]any); ok {
			maps.Copy(data, u)
		}
		data["id"] = id
		n.user = reg.resolve(n, KindUser, RefNested{Data: data}, false)
	}

	n.org = nil
	if name, ok := nestedName(f["organization"], "name"); ok {
		n.org = reg.resolve(n, KindOrganization, ParseRef(f["org_id"], name), true)
		if n.org != nil {
			n.org.notes = appendUnique(n.org.notes, n)
		}
	}

	n.deal = nil
	if title, ok := nestedName(f["deal"], "title"); ok {
		n.deal = reg.resolve(n, KindDeal, ParseRef(f["deal_id"], title), true)
		if n.deal != nil {
			n.deal.notes = appendUnique(n.deal.notes, n)
		}
	}

	n.person = nil
	if name, ok := nestedName(f["person"], "name"); ok {
		person := withExtra(ParseRef(f["person_id"], name), orgSeed(n.org))
		n.person = reg.resolve(n, KindPerson, person, true)
		if n.person != nil {
			n.person.notes = appendUnique(n.person.notes, n)
		}
	}
}

func (reg *Registry) linkActivity(a *Record) {
	f := a.fields
	a.org = reg.resolve(a, KindOrganization, ParseRef(f["org_id"], f["org_name"]), true)
	person := withExtra(ParseRef(f["person_id"], f["person_name"]), orgSeed(a.org))
	a.person = reg.resolve(a, KindPerson, person, true)
	a.owner = reg.resolve(a, KindUser, ParseRef(f["user_id"], f["owner_name"]), true)
	a.deal = reg.resolve(a, KindDeal, ParseRef(f["deal_id"], f["deal_title"]), true)
}
