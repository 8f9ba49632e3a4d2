package course

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sahilchouksey/uniguide-api/services"
	"github.com/sahilchouksey/uniguide-api/services/sources"
	"github.com/sahilchouksey/uniguide-api/utils/response"
	"github.com/sahilchouksey/uniguide-api/utils/validation"
)

// Refresher triggers a catalog refresh.
type Refresher interface {
	Refresh(ctx context.Context, source string) (*services.RefreshResult, error)
}

type RefreshQuery struct {
	Source string `query:"source" validate:"required,max=64"`
}

type ListRunsQuery struct {
	Limit int `query:"limit" validate:"gte=1,lte=100"`
}

// Refresh handles POST /courses/refresh
func (h *CourseHandler) Refresh(c *fiber.Ctx) error {
	q := RefreshQuery{Source: sources.SampleSourceName}
	if err := c.QueryParser(&q); err != nil {
		return response.BadRequest(c, "Invalid query parameters")
	}
	if err := h.validator.ValidateStruct(q); err != nil {
		return response.ValidationError(c, validation.Summary(err))
	}

	result, err := h.refresher.Refresh(c.UserContext(), q.Source)
	if err != nil {
		if errors.Is(err, services.ErrUnknownSource) {
			return response.BadRequest(c, err.Error())
		}
		h.logger.Error("error refreshing data", zap.String("source", q.Source), zap.Error(err))
		return response.Error(c, fiber.StatusInternalServerError, "Data refresh failed: "+err.Error(), "REFRESH_FAILED")
	}

	return response.JSON(c, fiber.Map{
		"message": "Data refresh completed successfully",
		"result":  result,
	})
}

// ListRuns handles GET /refresh/runs
func (h *CourseHandler) ListRuns(c *fiber.Ctx) error {
	q := ListRunsQuery{Limit: 20}
	if err := c.QueryParser(&q); err != nil {
		return response.BadRequest(c, "Invalid query parameters")
	}
	if err := h.validator.ValidateStruct(q); err != nil {
		return response.ValidationError(c, validation.Summary(err))
	}

	runs, err := h.runs.ListRecent(c.UserContext(), q.Limit)
	if err != nil {
		h.logger.Error("error listing refresh runs", zap.Error(err))
		return response.InternalServerError(c, "")
	}

	return response.JSON(c, fiber.Map{
		"total":   len(runs),
		"results": runs,
	})
}
