// ABOUTME: Pagination driver for list endpoints
// ABOUTME: Follows the start/next_start cursor until exhausted or a record cap is reached
package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/harperreed/pipedrive/objects"
)

// MaxPageSize is the largest page the API serves.
const MaxPageSize = 500

// ListOptions controls a paginated list call.
type ListOptions struct {
	// Start is the initial cursor offset.
	Start int
	// Limit caps the number of records returned; zero means all.
	Limit int
	// PageSize is the requested page size; zero derives it from Limit.
	PageSize int
	// Params are extra query parameters, e.g. filter_id or status.
	Params url.Values
}

func (o ListOptions) pageSize() int {
	size := o.PageSize
	if size <= 0 {
		size = o.Limit
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return size
}

func (o ListOptions) query(start int) url.Values {
	q := url.Values{}
	for k, vs := range o.Params {
		q[k] = append([]string(nil), vs...)
	}
	q.Set("start", strconv.Itoa(start))
	if size := o.pageSize(); size > 0 {
		q.Set("limit", strconv.Itoa(size))
	}
	return q
}

// paginate fetches every page of endpoint, materializing items as kind. It continues
// while the server reports more items and, when a limit is set, the limit exceeds the
// next cursor. The result never holds more than Limit records. Any failed page aborts
// the whole call.
func (c *Client) paginate(ctx context.Context, kind objects.Kind, endpoint string, opts ListOptions) ([]*objects.Record, error) {
	var records []*objects.Record
	start := opts.Start

	for {
		env, err := c.fetch(ctx, endpoint, opts.query(start))
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s page at %d: %w", endpoint, start, err)
		}
		pagesFetchedTotal.WithLabelValues(string(kind)).Inc()

		page, err := c.asEntities(kind, env)
		if err != nil {
			return nil, err
		}
		records = append(records, page...)

		if env == nil || env.AdditionalData.Pagination == nil {
			break
		}
		pag := env.AdditionalData.Pagination
		if !pag.MoreItemsInCollection {
			break
		}
		if opts.Limit > 0 && opts.Limit <= pag.NextStart {
			break
		}
		if pag.NextStart <= start {
			log.Warn().Str("endpoint", endpoint).Int("start", start).Int("next_start", pag.NextStart).Msg("pagination cursor did not advance")
			break
		}
		start = pag.NextStart
		log.Debug().Str("endpoint", endpoint).Int("start", start).Int("loaded", len(records)).Msg("fetching next page")
	}

	if opts.Limit > 0 && len(records) > opts.Limit {
		records = records[:opts.Limit]
	}
	return records, nil
}
