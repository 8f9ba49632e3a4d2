package course

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sahilchouksey/uniguide-api/repository"
	"github.com/sahilchouksey/uniguide-api/services"
	"github.com/sahilchouksey/uniguide-api/utils/response"
	"github.com/sahilchouksey/uniguide-api/utils/validation"
)

// CatalogReader is the read side used by CourseHandler.
type CatalogReader interface {
	ListCourses(ctx context.Context, filter repository.CourseFilter, limit, offset int) (*services.CourseListResult, error)
}

// CourseHandler handles course-related requests
type CourseHandler struct {
	catalog   CatalogReader
	refresher Refresher
	runs      repository.RefreshLogRepository
	validator *validation.Validator
	logger    *zap.Logger
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(catalog CatalogReader, refresher Refresher, runs repository.RefreshLogRepository, logger *zap.Logger) *CourseHandler {
	return &CourseHandler{
		catalog:   catalog,
		refresher: refresher,
		runs:      runs,
		validator: validation.NewValidator(),
		logger:    logger,
	}
}

// ListCoursesQuery holds the GET /courses query parameters
type ListCoursesQuery struct {
	University    string `query:"university" validate:"max=255"`
	Subject       string `query:"subject" validate:"max=255"`
	Year          int    `query:"year" validate:"omitempty,gte=1900,lte=2100"`
	Qualification string `query:"qualification" validate:"max=64"`
	Limit         int    `query:"limit" validate:"gte=1,lte=100"`
	Offset        int    `query:"offset" validate:"gte=0"`
}

// ListCourses handles GET /courses
func (h *CourseHandler) ListCourses(c *fiber.Ctx) error {
	q := ListCoursesQuery{Limit: services.DefaultPageLimit}
	if err := c.QueryParser(&q); err != nil {
		return response.BadRequest(c, "Invalid query parameters")
	}
	if err := h.validator.ValidateStruct(q); err != nil {
		return response.ValidationError(c, validation.Summary(err))
	}

	filter := repository.CourseFilter{
		University:    q.University,
		Subject:       q.Subject,
		Year:          q.Year,
		Qualification: q.Qualification,
	}

	result, err := h.catalog.ListCourses(c.UserContext(), filter, q.Limit, q.Offset)
	if err != nil {
		h.logger.Error("error fetching courses", zap.Error(err))
		return response.InternalServerError(c, "Internal server error")
	}

	return response.JSON(c, result)
}
