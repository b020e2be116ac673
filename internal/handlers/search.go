package handlers

import (
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"

	"github.com/playersden/gamehub/internal/service/search"
	"github.com/playersden/gamehub/internal/util"
)

type SearchHandler struct {
	ES    *elasticsearch.Client
	Index string
}

func (h *SearchHandler) Search(c echo.Context) error {
	// Elasticsearch is optional; without it the endpoint degrades instead of
	// dereferencing a nil client.
	if h.ES == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "search is not available")
	}

	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing query")
	}

	page := util.ParsePage(c.QueryParam("page"), c.QueryParam("size"), "", "")

	total, games, err := search.Search(c.Request().Context(), h.ES, h.Index, q, page.Offset(), page.Size)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"total": total, "games": games})
}
