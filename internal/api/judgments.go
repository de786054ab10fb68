package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ppiankov/nyaya/internal/model"
)

// JudgementQuery selects a page of judgments. When Cursor is set the
// listing continues after it; otherwise Offset is used.
type JudgementQuery struct {
	Filters model.Filters
	Limit   int
	Offset  int
	Cursor  *model.Cursor
}

// GetJudgements lists High Court judgments (cursor: decision date + id)
func (c *Client) GetJudgements(ctx context.Context, q JudgementQuery) (*model.Page[model.Judgment], error) {
	if q.Filters == nil {
		q.Filters = model.HighCourtFilters{}
	}
	if q.Filters.Kind() != model.KindHighCourt {
		return nil, fmt.Errorf("high court listing got %s filters", q.Filters.Kind())
	}

	params, err := FilterParams(q.Filters)
	if err != nil {
		return nil, err
	}
	addPaging(params, q.Limit, q.Offset)
	if q.Cursor != nil {
		params.Del("offset")
		params.Set("cursor_id", strconv.FormatInt(q.Cursor.ID, 10))
		if q.Cursor.DecisionDate != "" {
			params.Set("cursor_decision_date", q.Cursor.DecisionDate)
		}
	}

	var page model.Page[model.Judgment]
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/judgements", query: params}, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetSupremeCourtJudgements lists Supreme Court judgments (cursor: id)
func (c *Client) GetSupremeCourtJudgements(ctx context.Context, q JudgementQuery) (*model.Page[model.Judgment], error) {
	if q.Filters == nil {
		q.Filters = model.SupremeCourtFilters{}
	}
	if q.Filters.Kind() != model.KindSupremeCourt {
		return nil, fmt.Errorf("supreme court listing got %s filters", q.Filters.Kind())
	}

	params, err := FilterParams(q.Filters)
	if err != nil {
		return nil, err
	}
	addPaging(params, q.Limit, q.Offset)
	if q.Cursor != nil {
		params.Del("offset")
		params.Set("cursor_id", strconv.FormatInt(q.Cursor.ID, 10))
	}

	var page model.Page[model.Judgment]
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/supreme-court-judgements", query: params}, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListJudgements dispatches to the listing of the given court type
func (c *Client) ListJudgements(ctx context.Context, court model.CourtType, q JudgementQuery) (*model.Page[model.Judgment], error) {
	if court == model.CourtSupreme {
		return c.GetSupremeCourtJudgements(ctx, q)
	}
	return c.GetJudgements(ctx, q)
}

// GetJudgement fetches a single judgment
func (c *Client) GetJudgement(ctx context.Context, court model.CourtType, id int64) (*model.Judgment, error) {
	path := "/api/judgements/"
	if court == model.CourtSupreme {
		path = "/api/supreme-court-judgements/"
	}

	var j model.Judgment
	if err := c.do(ctx, request{method: http.MethodGet, path: path + strconv.FormatInt(id, 10)}, &j); err != nil {
		return nil, err
	}
	return &j, nil
}

// FilterParams translates a filter set into query parameters.
// Every filter shape is handled here; anything else is rejected.
func FilterParams(f model.Filters) (url.Values, error) {
	params := url.Values{}

	switch f := f.(type) {
	case nil:
		return params, nil

	case model.HighCourtFilters:
		for name, value := range f.Values() {
			switch name {
			case "decision_date_from", "decision_date_to":
				if _, err := time.Parse(time.DateOnly, value); err != nil {
					return nil, fmt.Errorf("%s must be YYYY-MM-DD, got %q", name, value)
				}
			case "year":
				if err := checkYear(value); err != nil {
					return nil, err
				}
			}
			params.Set(name, value)
		}
		if f.DecisionDateFrom != "" && f.DecisionDateTo != "" && f.DecisionDateFrom > f.DecisionDateTo {
			return nil, fmt.Errorf("decision_date_from %s is after decision_date_to %s", f.DecisionDateFrom, f.DecisionDateTo)
		}

	case model.SupremeCourtFilters:
		for name, value := range f.Values() {
			if name == "year" {
				if err := checkYear(value); err != nil {
					return nil, err
				}
			}
			params.Set(name, value)
		}

	case model.MappingFilters:
		if !f.MappingType.Valid() {
			return nil, &model.UnknownValueError{Field: "mapping type", Value: string(f.MappingType)}
		}
		for name, value := range f.Values() {
			params.Set(name, value)
		}

	case model.ActFilters:
		if f.Type != model.ActCentral && f.Type != model.ActState {
			return nil, &model.UnknownValueError{Field: "act type", Value: string(f.Type)}
		}
		for name, value := range f.Values() {
			if name == "year" {
				if err := checkYear(value); err != nil {
					return nil, err
				}
			}
			params.Set(name, value)
		}

	default:
		return nil, fmt.Errorf("unsupported filters %T", f)
	}

	return params, nil
}

func checkYear(value string) error {
	year, err := strconv.Atoi(value)
	if err != nil || year < 1800 || year > 2200 {
		return fmt.Errorf("year must be a four-digit year, got %q", value)
	}
	return nil
}

func addPaging(params url.Values, limit, offset int) {
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		params.Set("offset", strconv.Itoa(offset))
	}
}
