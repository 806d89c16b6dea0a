package httpserver

import (
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"

	"github.com/kersko/storefront/internal/logging"
	"github.com/kersko/storefront/internal/search"
	"github.com/kersko/storefront/internal/util"
)

type SearchHTTP struct {
	ES      *elasticsearch.Client
	ESIndex string
}

func (h *SearchHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "search")

	query := c.QueryParam("q")
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query parameter q required")
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	from, limit := util.Calculate(page, size)

	total, products, err := search.Search(ctx, h.ES, h.ESIndex, query, from, limit)
	if err != nil {
		l.Error("search_error", "status", 500, "query", query, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "search unavailable")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"total":    total,
		"page":     page,
		"size":     limit,
		"products": products,
	})
}
