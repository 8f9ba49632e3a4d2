package university

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sahilchouksey/uniguide-api/services"
	"github.com/sahilchouksey/uniguide-api/utils/response"
)

type UniversityLister interface {
	ListUniversities(ctx context.Context) (*services.UniversityListResult, error)
}

// UniversityHandler handles university-related requests
type UniversityHandler struct {
	catalog UniversityLister
	logger  *zap.Logger
}

// NewUniversityHandler creates a new university handler
func NewUniversityHandler(catalog UniversityLister, logger *zap.Logger) *UniversityHandler {
	return &UniversityHandler{
		catalog: catalog,
		logger:  logger,
	}
}

// ListUniversities handles GET /universities
func (h *UniversityHandler) ListUniversities(c *fiber.Ctx) error {
	result, err := h.catalog.ListUniversities(c.UserContext())
	if err != nil {
		h.logger.Error("error fetching universities", zap.Error(err))
		return response.InternalServerError(c, "Internal server error")
	}
	return response.JSON(c, result)
}
