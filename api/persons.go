// ABOUTME: Person and organization endpoints
// ABOUTME: Persons and organizations are paginated and carry custom fields
package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/harperreed/pipedrive/objects"
)

// GetPerson fetches one person and refreshes its cached record.
func (c *Client) GetPerson(ctx context.Context, id int64) (*objects.Record, error) {
	return c.getEntity(ctx, objects.KindPerson, id)
}

// ListPersons fetches persons page by page.
func (c *Client) ListPersons(ctx context.Context, opts ListOptions) ([]*objects.Record, error) {
	return c.paginate(ctx, objects.KindPerson, objects.KindPerson.Endpoint(), opts)
}

// FindPersons searches persons by name.
func (c *Client) FindPersons(ctx context.Context, term string, opts ListOptions) ([]*objects.Record, error) {
	opts.Params = withParam(opts.Params, "term", term)
	return c.paginate(ctx, objects.KindPerson, "persons/find", opts)
}

// CreatePerson creates a person from raw fields.
func (c *Client) CreatePerson(ctx context.Context, fields map[string]any) (*objects.Record, error) {
	return c.createEntity(ctx, objects.KindPerson, fields)
}

// UpdatePerson updates raw fields of a person.
func (c *Client) UpdatePerson(ctx context.Context, id int64, fields map[string]any) (*objects.Record, error) {
	return c.updateEntity(ctx, objects.KindPerson, id, fields)
}

// DeletePerson deletes a person remotely. The cached record is kept.
func (c *Client) DeletePerson(ctx context.Context, id int64) error {
	return c.deleteEntity(ctx, objects.KindPerson, id)
}

// PersonDeals lists the deals associated with a person.
func (c *Client) PersonDeals(ctx context.Context, id int64, opts ListOptions) ([]*objects.Record, error) {
	return c.paginate(ctx, objects.KindDeal, entityPath(objects.KindPerson, id, "deals"), opts)
}

// GetOrganization fetches one organization.
func (c *Client) GetOrganization(ctx context.Context, id int64) (*objects.Record, error) {
	return c.getEntity(ctx, objects.KindOrganization, id)
}

// ListOrganizations fetches organizations page by page.
func (c *Client) ListOrganizations(ctx context.Context, opts ListOptions) ([]*objects.Record, error) {
	return c.paginate(ctx, objects.KindOrganization, objects.KindOrganization.Endpoint(), opts)
}

func (c *Client) CreateOrganization(ctx context.Context, fields map[string]any) (*objects.Record, error) {
	return c.createEntity(ctx, objects.KindOrganization, fields)
}

func (c *Client) UpdateOrganization(ctx context.Context, id int64, fields map[string]any) (*objects.Record, error) {
	return c.updateEntity(ctx, objects.KindOrganization, id, fields)
}

func (c *Client) DeleteOrganization(ctx context.Context, id int64) error {
	return c.deleteEntity(ctx, objects.KindOrganization, id)
}

// OrganizationPersons lists the persons of an organization.
func (c *Client) OrganizationPersons(ctx context.Context, id int64, opts ListOptions) ([]*objects.Record, error) {
	return c.paginate(ctx, objects.KindPerson, entityPath(objects.KindOrganization, id, "persons"), opts)
}

// OrganizationDeals lists the deals of an organization.
func (c *Client) OrganizationDeals(ctx context.Context, id int64, opts ListOptions) ([]*objects.Record, error) {
	return c.paginate(ctx, objects.KindDeal, entityPath(objects.KindOrganization, id, "deals"), opts)
}

func withParam(params url.Values, key, value string) url.Values {
	out := url.Values{}
	for k, vs := range params {
		out[k] = append([]string(nil), vs...)
	}
	out.Set(key, value)
	return out
}

func idParam(id int64) string {
	return fmt.Sprintf("%d", id)
}
