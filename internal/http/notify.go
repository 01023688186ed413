package http

import (
	"net/http"

	"github.com/jmehdipour/teams-notify/internal/dispatcher"
	"github.com/jmehdipour/teams-notify/internal/model"
	"github.com/jmehdipour/teams-notify/internal/processor"
	"github.com/jmehdipour/teams-notify/internal/util"
	"github.com/labstack/echo/v4"
)

type notifyReq struct {
	ID         string            `json:"id"`
	Attributes map[string]string `json:"attributes"`
}

type notifyResp struct {
	ID         string `json:"id"`
	Outcome    string `json:"outcome"` // Success | Failure
	StatusCode int    `json:"status_code,omitempty"`
	ErrorKind  string `json:"error_kind,omitempty"`
	Error      string `json:"error,omitempty"`
}

// notifyHandler processes one record synchronously; the HTTP response is the
// outcome channel. Failure answers 502 so callers can reprocess.
func notifyHandler(proc *processor.Processor) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req notifyReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}
		if err := model.ValidateID(req.ID); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		if req.Attributes == nil {
			req.Attributes = map[string]string{}
		}

		rec := &model.Record{ID: util.EnsureID(req.ID), Attributes: req.Attributes}
		res := proc.Process(c.Request().Context(), rec)
		proc.Observe(rec, res)

		resp := notifyResp{
			ID:         rec.ID,
			Outcome:    res.Outcome.DisplayName(),
			StatusCode: res.StatusCode,
		}
		if res.Outcome == model.OutcomeFailure {
			resp.ErrorKind = dispatcher.KindOf(res.Err).String()
			if res.Err != nil {
				resp.Error = res.Err.Error()
			}
			return c.JSON(http.StatusBadGateway, resp)
		}
		return c.JSON(http.StatusOK, resp)
	}
}
