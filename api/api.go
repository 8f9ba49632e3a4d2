package api

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sahilchouksey/uniguide-api/utils/response"
)

type APIServer struct {
	app           *fiber.App
	listenAddress string
	logger        *zap.Logger
}

func NewAPIServer(listenAddress string, logger *zap.Logger) *APIServer {
	return &APIServer{
		app: fiber.New(fiber.Config{
			AppName:               "uniguide-api",
			DisableStartupMessage: true,
			ErrorHandler:          errorHandler(logger),
		}),
		listenAddress: listenAddress,
		logger:        logger,
	}
}

func (s *APIServer) GetEngine() *fiber.App {
	return s.app
}

func (s *APIServer) Run() error {
	s.logger.Info("starting API server", zap.String("addr", s.listenAddress))

	return s.app.Listen(s.listenAddress)
}

func (s *APIServer) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")
	return s.app.ShutdownWithContext(ctx)
}

// errorHandler renders unhandled errors in the standard envelope.
func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return response.Error(c, fe.Code, fe.Message, "HTTP_ERROR")
		}
		logger.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
		return response.InternalServerError(c, "")
	}
}
