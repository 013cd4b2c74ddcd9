package supabase

import (
	"context"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"github.com/jrsteele09/sprinkler-crm/backend"
	apperrors "github.com/jrsteele09/sprinkler-crm/internal/errors"
)

const (
	objectAccept         = "application/vnd.pgrst.object+json"
	returnRepresentation = "return=representation"
	returnMinimal        = "return=minimal"
)

// queryValues renders q in PostgREST's query string syntax.
func queryValues(q backend.Query) url.Values {
	v := url.Values{}
	if q.Columns != "" {
		v.Set("select", q.Columns)
	}
	for _, f := range q.Filters {
		v.Add(f.Column, "eq."+f.Value)
	}
	if len(q.Orders) > 0 {
		parts := make([]string, 0, len(q.Orders))
		for _, o := range q.Orders {
			dir := "desc"
			if o.Ascending {
				dir = "asc"
			}
			parts = append(parts, o.Column+"."+dir)
		}
		v.Set("order", strings.Join(parts, ","))
	}
	return v
}

func tablePath(table string) string {
	return restPath + "/" + url.PathEscape(table)
}

func (c *Client) Select(ctx context.Context, q backend.Query, dest any) error {
	if q.Table == "" {
		return &apperrors.RemoteOperationError{Op: "select", Message: "table is required"}
	}
	headers := map[string]string{}
	if q.Single {
		headers["Accept"] = objectAccept
	}
	return c.do(ctx, request{
		op:      "select",
		table:   q.Table,
		method:  http.MethodGet,
		path:    tablePath(q.Table),
		query:   queryValues(q),
		headers: headers,
		authed:  true,
	}, dest)
}

func (c *Client) Insert(ctx context.Context, table string, rows any, dest any) error {
	if table == "" {
		return &apperrors.RemoteOperationError{Op: "insert", Message: "table is required"}
	}
	headers := map[string]string{"Prefer": returnMinimal}
	if dest != nil {
		headers["Prefer"] = returnRepresentation
		if !isSlice(rows) {
			headers["Accept"] = objectAccept
		}
	}
	return c.do(ctx, request{
		op:      "insert",
		table:   table,
		method:  http.MethodPost,
		path:    tablePath(table),
		query:   url.Values{"select": {"*"}},
		body:    rows,
		headers: headers,
		authed:  true,
	}, dest)
}

func (c *Client) Update(ctx context.Context, q backend.Query, values any, dest any) error {
	if q.Table == "" {
		return &apperrors.RemoteOperationError{Op: "update", Message: "table is required"}
	}
	if len(q.Filters) == 0 {
		return &apperrors.RemoteOperationError{Op: "update", Table: q.Table, Err: apperrors.ErrUnsupported, Message: "refusing to update without a filter"}
	}
	headers := map[string]string{"Prefer": returnMinimal}
	if dest != nil {
		headers["Prefer"] = returnRepresentation
		if q.Single {
			headers["Accept"] = objectAccept
		}
	}
	return c.do(ctx, request{
		op:      "update",
		table:   q.Table,
		method:  http.MethodPatch,
		path:    tablePath(q.Table),
		query:   queryValues(q),
		body:    values,
		headers: headers,
		authed:  true,
	}, dest)
}

func (c *Client) Delete(ctx context.Context, q backend.Query) error {
	if q.Table == "" {
		return &apperrors.RemoteOperationError{Op: "delete", Message: "table is required"}
	}
	if len(q.Filters) == 0 {
		return &apperrors.RemoteOperationError{Op: "delete", Table: q.Table, Err: apperrors.ErrUnsupported, Message: "refusing to delete without a filter"}
	}
	q.Columns = ""
	return c.do(ctx, request{
		op:      "delete",
		table:   q.Table,
		method:  http.MethodDelete,
		path:    tablePath(q.Table),
		query:   queryValues(q),
		headers: map[string]string{"Prefer": returnMinimal},
		authed:  true,
	}, nil)
}

func isSlice(v any) bool {
	k := reflect.ValueOf(v).Kind()
	return k == reflect.Slice || k == reflect.Array
}
