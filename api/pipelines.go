// ABOUTME: Pipeline, stage, note, activity, product and user endpoints
// ABOUTME: Pipelines, stages, users, activities and products are single-page lists
package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/harperreed/pipedrive/objects"
)

// ListPipelines returns every pipeline.
func (c *Client) ListPipelines(ctx context.Context) ([]*objects.Record, error) {
	return c.listEntities(ctx, objects.KindPipeline, nil)
}

func (c *Client) GetPipeline(ctx context.Context, id int64) (*objects.Record, error) {
	return c.getEntity(ctx, objects.KindPipeline, id)
}

// PipelineDeals lists the deals of one pipeline page by page. Optional params include
// stage_id and filter_id.
func (c *Client) PipelineDeals(ctx context.Context, id int64, opts ListOptions) ([]*objects.Record, error) {
	return c.paginate(ctx, objects.KindDeal, entityPath(objects.KindPipeline, id, "deals"), opts)
}

// ListStages returns every stage, or the stages of one pipeline when pipelineID > 0.
// Each stage is appended to its pipeline's Stages in response order.
func (c *Client) ListStages(ctx context.Context, pipelineID int64) ([]*objects.Record, error) {
	var params url.Values
	if pipelineID > 0 {
		params = url.Values{"pipeline_id": {idParam(pipelineID)}}
	}
	return c.listEntities(ctx, objects.KindStage, params)
}

func (c *Client) GetNote(ctx context.Context, id int64) (*objects.Record, error) {
	return c.getEntity(ctx, objects.KindNote, id)
}

// ListNotes fetches notes page by page. Params such as deal_id or person_id narrow it.
func (c *Client) ListNotes(ctx context.Context, opts ListOptions) ([]*objects.Record, error) {
	return c.paginate(ctx, objects.KindNote, objects.KindNote.Endpoint(), opts)
}

func (c *Client) CreateNote(ctx context.Context, fields map[string]any) (*objects.Record, error) {
	return c.createEntity(ctx, objects.KindNote, fields)
}

func (c *Client) UpdateNote(ctx context.Context, id int64, fields map[string]any) (*objects.Record, error) {
	return c.updateEntity(ctx, objects.KindNote, id, fields)
}

func (c *Client) DeleteNote(ctx context.Context, id int64) error {
	return c.deleteEntity(ctx, objects.KindNote, id)
}

func (c *Client) GetActivity(ctx context.Context, id int64) (*objects.Record, error) {
	return c.getEntity(ctx, objects.KindActivity, id)
}

// ListActivities returns one page of activities matching params.
func (c *Client) ListActivities(ctx context.Context, params url.Values) ([]*objects.Record, error) {
	return c.listEntities(ctx, objects.KindActivity, params)
}

func (c *Client) CreateActivity(ctx context.Context, fields map[string]any) (*objects.Record, error) {
	return c.createEntity(ctx, objects.KindActivity, fields)
}

func (c *Client) UpdateActivity(ctx context.Context, id int64, fields map[string]any) (*objects.Record, error) {
	return c.updateEntity(ctx, objects.KindActivity, id, fields)
}

func (c *Client) DeleteActivity(ctx context.Context, id int64) error {
	return c.deleteEntity(ctx, objects.KindActivity, id)
}

func (c *Client) GetProduct(ctx context.Context, id int64) (*objects.Record, error) {
	return c.getEntity(ctx, objects.KindProduct, id)
}

// ListProducts returns one page of products.
func (c *Client) ListProducts(ctx context.Context, params url.Values) ([]*objects.Record, error) {
	return c.listEntities(ctx, objects.KindProduct, params)
}

// FindProducts searches products by name.
func (c *Client) FindProducts(ctx context.Context, term string) ([]*objects.Record, error) {
	env, err := c.fetch(ctx, "products/find", url.Values{"term": {term}})
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	return c.asEntities(objects.KindProduct, env)
}

func (c *Client) CreateProduct(ctx context.Context, fields map[string]any) (*objects.Record, error) {
	return c.createEntity(ctx, objects.KindProduct, fields)
}

func (c *Client) UpdateProduct(ctx context.Context, id int64, fields map[string]any) (*objects.Record, error) {
	return c.updateEntity(ctx, objects.KindProduct, id, fields)
}

func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	return c.deleteEntity(ctx, objects.KindProduct, id)
}

// ProductDeals lists the deals a product is attached to.
func (c *Client) ProductDeals(ctx context.Context, id int64, opts ListOptions) ([]*objects.Record, error) {
	return c.paginate(ctx, objects.KindDeal, entityPath(objects.KindProduct, id, "deals"), opts)
}

// ListUsers returns every user of the company.
func (c *Client) ListUsers(ctx context.Context) ([]*objects.Record, error) {
	return c.listEntities(ctx, objects.KindUser, nil)
}

func (c *Client) GetUser(ctx context.Context, id int64) (*objects.Record, error) {
	return c.getEntity(ctx, objects.KindUser, id)
}
