// ABOUTME: Deal endpoints including followers, participants and duplication
// ABOUTME: Follower and participant listings are returned as raw JSON
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/harperreed/pipedrive/objects"
)

// GetDeal fetches one deal and links its pipeline, stage, org, person and owner.
func (c *Client) GetDeal(ctx context.Context, id int64) (*objects.Record, error) {
	return c.getEntity(ctx, objects.KindDeal, id)
}

// ListDeals fetches deals page by page.
func (c *Client) ListDeals(ctx context.Context, opts ListOptions) ([]*objects.Record, error) {
	return c.paginate(ctx, objects.KindDeal, objects.KindDeal.Endpoint(), opts)
}

// FindDeals searches deals by title.
func (c *Client) FindDeals(ctx context.Context, term string, opts ListOptions) ([]*objects.Record, error) {
	opts.Params = withParam(opts.Params, "term", term)
	return c.paginate(ctx, objects.KindDeal, "deals/find", opts)
}

func (c *Client) CreateDeal(ctx context.Context, fields map[string]any) (*objects.Record, error) {
	return c.createEntity(ctx, objects.KindDeal, fields)
}

func (c *Client) UpdateDeal(ctx context.Context, id int64, fields map[string]any) (*objects.Record, error) {
	return c.updateEntity(ctx, objects.KindDeal, id, fields)
}

func (c *Client) DeleteDeal(ctx context.Context, id int64) error {
	return c.deleteEntity(ctx, objects.KindDeal, id)
}

// DuplicateDeal copies a deal remotely and returns the new record.
func (c *Client) DuplicateDeal(ctx context.Context, id int64) (*objects.Record, error) {
	env, err := c.send(ctx, http.MethodPost, entityPath(objects.KindDeal, id, "duplicate"), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to duplicate deal %d: %w", id, err)
	}
	return c.asEntity(objects.KindDeal, env)
}

// DealActivities lists the activities attached to a deal.
func (c *Client) DealActivities(ctx context.Context, id int64, params url.Values) ([]*objects.Record, error) {
	env, err := c.fetch(ctx, entityPath(objects.KindDeal, id, "activities"), params)
	if err != nil {
		return nil, fmt.Errorf("failed to get activities of deal %d: %w", id, err)
	}
	return c.asEntities(objects.KindActivity, env)
}

// DealFollowers returns the raw follower list of a deal.
func (c *Client) DealFollowers(ctx context.Context, id int64) (json.RawMessage, error) {
	return c.raw(ctx, entityPath(objects.KindDeal, id, "followers"), nil)
}

// AddDealFollower makes a user follow a deal.
func (c *Client) AddDealFollower(ctx context.Context, dealID, userID int64) (json.RawMessage, error) {
	return c.rawSend(ctx, http.MethodPost, entityPath(objects.KindDeal, dealID, "followers"), map[string]any{"user_id": userID})
}

func (c *Client) DeleteDealFollower(ctx context.Context, dealID, followerID int64) error {
	_, err := c.rawSend(ctx, http.MethodDelete, entityPath(objects.KindDeal, dealID, "followers", idParam(followerID)), nil)
	return err
}

// DealParticipants returns the raw participant list of a deal.
func (c *Client) DealParticipants(ctx context.Context, id int64) (json.RawMessage, error) {
	return c.raw(ctx, entityPath(objects.KindDeal, id, "participants"), nil)
}

// AddDealParticipant adds a person as a participant.
func (c *Client) AddDealParticipant(ctx context.Context, dealID, personID int64) (json.RawMessage, error) {
	return c.rawSend(ctx, http.MethodPost, entityPath(objects.KindDeal, dealID, "participants"), map[string]any{"person_id": personID})
}

func (c *Client) DeleteDealParticipant(ctx context.Context, dealID, participantID int64) error {
	_, err := c.rawSend(ctx, http.MethodDelete, entityPath(objects.KindDeal, dealID, "participants", idParam(participantID)), nil)
	return err
}

func (c *Client) raw(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, error) {
	env, err := c.fetch(ctx, endpoint, params)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", endpoint, err)
	}
	if env == nil {
		return nil, nil
	}
	return env.Data, nil
}

func (c *Client) rawSend(ctx context.Context, method, endpoint string, body any) (json.RawMessage, error) {
	env, err := c.send(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to %s %s: %w", method, endpoint, err)
	}
	if env == nil {
		return nil, nil
	}
	return env.Data, nil
}
