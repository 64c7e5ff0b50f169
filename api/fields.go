// ABOUTME: Custom field discovery for persons, organizations and deals
// ABOUTME: Loads schemas from a cache or the <kind>Fields endpoints, once per client
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/harperreed/pipedrive/objects"
)

// FieldCache stores custom field schemas between runs.
type FieldCache interface {
	Get(kind objects.Kind) (objects.Schema, bool, error)
	Put(kind objects.Kind, schema objects.Schema) error
}

func (c *Client) ensureSchemas(ctx context.Context) error {
	if !c.loadFields {
		return nil
	}
	c.schemaMu.Lock()
	defer c.schemaMu.Unlock()
	if c.schemaLoaded {
		return nil
	}
	if err := c.loadSchemas(ctx, false); err != nil {
		return err
	}
	c.schemaLoaded = true
	return nil
}

// LoadSchemas loads the custom field schema of every kind that has custom fields,
// preferring the field cache. Later entity calls skip discovery.
func (c *Client) LoadSchemas(ctx context.Context) error {
	return c.reload(ctx, false)
}

// RefreshSchemas re-reads every schema from the API and overwrites the cache.
func (c *Client) RefreshSchemas(ctx context.Context) error {
	return c.reload(ctx, true)
}

func (c *Client) reload(ctx context.Context, skipCache bool) error {
	c.schemaMu.Lock()
	defer c.schemaMu.Unlock()
	if err := c.loadSchemas(ctx, skipCache); err != nil {
		return err
	}
	c.schemaLoaded = true
	return nil
}

func (c *Client) loadSchemas(ctx context.Context, skipCache bool) error {
	for _, kind := range objects.Kinds {
		if !kind.HasCustomFields() {
			continue
		}
		schema, err := c.schemaFor(ctx, kind, skipCache)
		if err != nil {
			return err
		}
		c.registry.Store(kind).SetSchema(schema)
	}
	return nil
}

func (c *Client) schemaFor(ctx context.Context, kind objects.Kind, skipCache bool) (objects.Schema, error) {
	if c.fieldCache != nil && !skipCache {
		schema, ok, err := c.fieldCache.Get(kind)
		if err != nil {
			log.Warn().Err(err).Str("kind", string(kind)).Msg("field cache read failed, loading from API")
		} else if ok {
			log.Debug().Str("kind", string(kind)).Int("fields", len(schema)).Msg("custom fields loaded from cache")
			return schema, nil
		}
	}

	defs, err := c.FieldDefinitions(ctx, kind)
	if err != nil {
		return nil, err
	}
	schema := objects.BuildSchema(defs)
	log.Info().Str("kind", string(kind)).Int("fields", len(schema)).Msg("custom fields loaded from API")

	if c.fieldCache != nil {
		if err := c.fieldCache.Put(kind, schema); err != nil {
			log.Warn().Err(err).Str("kind", string(kind)).Msg("failed to cache custom fields")
		}
	}
	return schema, nil
}

// FieldDefinitions returns every field definition of kind, built-in and custom.
// It bypasses schema discovery so it can be used while discovery runs.
func (c *Client) FieldDefinitions(ctx context.Context, kind objects.Kind) ([]objects.FieldDefinition, error) {
	env, err := c.transport.Fetch(ctx, kind.FieldsEndpoint(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", kind.FieldsEndpoint(), err)
	}
	if env == nil {
		return nil, nil
	}
	raw := bytes.TrimSpace(env.Data)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var defs []objects.FieldDefinition
	if err := dec.Decode(&defs); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", kind.FieldsEndpoint(), err)
	}
	return defs, nil
}
