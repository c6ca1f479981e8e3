package echoapi

import (
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/bolingo/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// timeParam parses the query param name as RFC 3339 or as a date. A missing param gives the zero time.
func timeParam(ctx echo.Context, name string) (time.Time, error) {
	val := strings.TrimSpace(ctx.QueryParam(name))
	if val == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.Parse(layout, val); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, core.NewValidationError(
		errors.Errorf("invalid %s: %q", name, val),
		core.FieldError{Field: name, Error: "must be an RFC 3339 timestamp or a YYYY-MM-DD date"},
	)
}

// boolParam parses the optional query param name.
func boolParam(ctx echo.Context, name string) (*bool, error) {
	val := strings.TrimSpace(ctx.QueryParam(name))
	if val == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return nil, core.NewValidationError(err, core.FieldError{Field: name, Error: "must be a boolean"})
	}
	return &b, nil
}

// bindPagination reads page and limit from the query string.
func bindPagination(ctx echo.Context) (core.Pagination, error) {
	var page core.Pagination
	for name, dst := range map[string]*int{"page": &page.Page, "limit": &page.Limit} {
		val := strings.TrimSpace(ctx.QueryParam(name))
		if val == "" {
			continue
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			return core.Pagination{}, core.NewValidationError(err, core.FieldError{Field: name, Error: "must be an integer"})
		}
		*dst = n
	}
	page.Clean()
	return page, nil
}

type (
	SuccessResponse struct {
		Success string `json:"success"`
	}

	IDsRequest struct {
		IDs []string `query:"id"`
	}
)
