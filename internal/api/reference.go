package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ppiankov/nyaya/internal/cache"
	"github.com/ppiankov/nyaya/internal/model"
)

// MappingQuery selects a page of law mappings
type MappingQuery struct {
	Filters model.MappingFilters
	Limit   int
	Offset  int
}

// ActQuery selects a page of central or state acts
type ActQuery struct {
	Filters model.ActFilters
	Limit   int
	Offset  int
}

// GetLawMappings lists section mappings of one mapping type (offset paging).
// Responses are cached when the client has a cache.
func (c *Client) GetLawMappings(ctx context.Context, q MappingQuery) (*model.Page[model.LawMapping], error) {
	if q.Filters.MappingType == "" {
		q.Filters.MappingType = model.MappingBNSIPC
	}

	params, err := FilterParams(q.Filters)
	if err != nil {
		return nil, err
	}
	addPaging(params, q.Limit, q.Offset)

	var page model.Page[model.LawMapping]
	err = c.do(ctx, request{
		method:  http.MethodGet,
		path:    "/api/law_mapping",
		query:   params,
		cacheAs: cache.ResourceLawMappings,
	}, &page)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// GetCentralActs lists central acts (offset paging, cached)
func (c *Client) GetCentralActs(ctx context.Context, q ActQuery) (*model.Page[model.Act], error) {
	q.Filters.Type = model.ActCentral
	return c.listActs(ctx, "/api/acts/central-acts", cache.ResourceCentralActs, q)
}

// GetStateActs lists state acts (offset paging, cached)
func (c *Client) GetStateActs(ctx context.Context, q ActQuery) (*model.Page[model.Act], error) {
	q.Filters.Type = model.ActState
	return c.listActs(ctx, "/api/acts/state-acts", cache.ResourceStateActs, q)
}

// ListActs dispatches on q.Filters.Type
func (c *Client) ListActs(ctx context.Context, q ActQuery) (*model.Page[model.Act], error) {
	switch q.Filters.Type {
	case model.ActState:
		return c.GetStateActs(ctx, q)
	case model.ActCentral, "":
		return c.GetCentralActs(ctx, q)
	default:
		return nil, fmt.Errorf("list acts: %w", &model.UnknownValueError{Field: "act type", Value: string(q.Filters.Type)})
	}
}

func (c *Client) listActs(ctx context.Context, path, resource string, q ActQuery) (*model.Page[model.Act], error) {
	params, err := FilterParams(q.Filters)
	if err != nil {
		return nil, err
	}
	addPaging(params, q.Limit, q.Offset)

	var page model.Page[model.Act]
	err = c.do(ctx, request{
		method:  http.MethodGet,
		path:    path,
		query:   params,
		cacheAs: resource,
	}, &page)
	if err != nil {
		return nil, err
	}
	return &page, nil
}
