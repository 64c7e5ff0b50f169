// ABOUTME: JSON shapes returned by the MCP tools
// ABOUTME: Converts cached records into flat outputs with related names resolved
package handlers

import (
	"errors"

	"github.com/harperreed/pipedrive/objects"
)

type PersonOutput struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Organization string `json:"organization,omitempty"`
	Email        string `json:"email,omitempty"`
	Stub         bool   `json:"stub"`
}

type DealOutput struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Status    string `json:"status,omitempty"`
	Value     string `json:"value,omitempty"`
	Currency  string `json:"currency,omitempty"`
	Pipeline  string `json:"pipeline,omitempty"`
	Stage     string `json:"stage,omitempty"`
	NextStage string `json:"next_stage,omitempty"`
	Org       string `json:"organization,omitempty"`
	Person    string `json:"person,omitempty"`
	Owner     string `json:"owner,omitempty"`
}

type PipelineOutput struct {
	ID     int64    `json:"id"`
	Name   string   `json:"name"`
	Stages []string `json:"stages"`
}

func personToOutput(p *objects.Record) PersonOutput {
	return PersonOutput{
		ID:           p.ID(),
		Name:         p.Name(),
		Organization: p.OrgName(),
		Email:        p.EmailAddress(),
		Stub:         p.IsStub(),
	}
}

func dealToOutput(d *objects.Record) DealOutput {
	out := DealOutput{
		ID:       d.ID(),
		Title:    d.Name(),
		Status:   d.Text("status"),
		Value:    d.Text("value"),
		Currency: d.Text("currency"),
		Org:      d.OrgName(),
		Person:   d.PersonName(),
	}
	if owner := d.Owner(); owner != nil {
		out.Owner = owner.Name()
	}
	pipeline := d.Pipeline()
	if pipeline != nil {
		out.Pipeline = pipeline.Name()
	}
	if stage := d.Stage(); stage != nil {
		out.Stage = stage.Name()
		if pipeline != nil {
			if next := pipeline.NextStage(stage); next != nil {
				out.NextStage = next.Name()
			}
		}
	}
	return out
}

func pipelineToOutput(p *objects.Record) PipelineOutput {
	out := PipelineOutput{ID: p.ID(), Name: p.Name(), Stages: []string{}}
	for _, s := range p.Stages() {
		out.Stages = append(out.Stages, s.Name())
	}
	return out
}

// fieldValues maps every field name to its value, custom fields by option label.
// Enumerated values with no matching option are left out.
func fieldValues(rec *objects.Record) (map[string]any, error) {
	names, err := rec.FieldNames()
	if err != nil {
		return nil, err
	}
	values := make(map[string]any, len(names))
	for _, name := range names {
		v, err := rec.Get(name)
		if errors.Is(err, objects.ErrNoSuchOption) {
			continue
		}
		if err != nil {
			return nil, err
		}
		values[name] = v
	}
	return values, nil
}
