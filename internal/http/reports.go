package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/jmehdipour/teams-notify/internal/model"
	"github.com/jmehdipour/teams-notify/internal/repository"
	echo "github.com/labstack/echo/v4"
)

func listDeliveriesHandler(chRepo repository.CHDeliveriesRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		if chRepo == nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "reports not configured"})
		}

		limit := 50
		offset := 0
		if v := c.QueryParam("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
				limit = n
			}
		}
		if v := c.QueryParam("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				offset = n
			}
		}

		var outcome model.Outcome
		if raw := strings.TrimSpace(c.QueryParam("outcome")); raw != "" {
			o, ok := model.ParseOutcome(raw)
			if !ok {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid outcome"})
			}
			outcome = o
		}
		source := strings.TrimSpace(c.QueryParam("source"))

		rows, err := chRepo.List(c.Request().Context(), outcome, source, limit, offset)
		if err != nil {
			c.Logger().Errorf("clickhouse list failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "query failed"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"limit":   limit,
			"offset":  offset,
			"count":   len(rows),
			"results": rows,
		})
	}
}
