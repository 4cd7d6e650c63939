package rest

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/viniciussvasques/crm-innexar/internal/application"
	"github.com/viniciussvasques/crm-innexar/internal/application/dto"
	"github.com/viniciussvasques/crm-innexar/internal/application/errs"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type Server struct {
	handlers *application.Collection
	auth     *AuthConfig
}

func NewServer(handlers *application.Collection, auth *AuthConfig) *Server {
	return &Server{handlers: handlers, auth: auth}
}

func (s *Server) Register(app *fiber.App) {
	app.Get("/health", s.Health)

	api := app.Group("/api")
	api.Post("/payments/webhook", s.PaymentWebhook)
	api.Get("/orders/lookup/:identifier", s.LookupOrder)
	api.Post("/orders/:identifier/onboarding", s.SubmitOnboarding)
	api.Get("/orders/:id/logs", s.GetLogs)
	api.Get("/orders/:id/stage", s.CheckStage)
	api.Post("/orders/:id/generate", RequireAdmin(s.auth), s.StartGeneration)
}

func (s *Server) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) PaymentWebhook(c *fiber.Ctx) error {
	err := s.handlers.Payment.Webhook(c.Context(), c.Body(), c.Get("Stripe-Signature"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}
	return c.SendStatus(fiber.StatusOK)
}

func (s *Server) LookupOrder(c *fiber.Ctx) error {
	order, err := s.handlers.GetOrder.Execute(c.Context(), c.Params("identifier"))
	if err != nil {
		return errorStatus(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(order)
}

func (s *Server) SubmitOnboarding(c *fiber.Ctx) error {
	var req dto.SubmitOnboardingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	if err := s.handlers.SubmitOnboarding.Execute(c.Context(), c.Params("identifier"), &req); err != nil {
		return errorStatus(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) GetLogs(c *fiber.Ctx) error {
	orderID, err := orderIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	logs, err := s.handlers.GetLogs.Execute(c.Context(), orderID)
	if err != nil {
		return errorStatus(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(logs)
}

func (s *Server) CheckStage(c *fiber.Ctx) error {
	orderID, err := orderIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	stage, err := s.handlers.CheckStage.Execute(c.Context(), orderID)
	if err != nil {
		return errorStatus(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(stage)
}

func (s *Server) StartGeneration(c *fiber.Ctx) error {
	orderID, err := orderIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	req := dto.StartGenerationRequest{}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
		}
	}

	resp, err := s.handlers.StartGeneration.Execute(c.Context(), orderID, &req)
	if err != nil {
		return errorStatus(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(resp)
}

func orderIDParam(c *fiber.Ctx) (int64, error) {
	return strconv.ParseInt(c.Params("id"), 10, 64)
}

func errorStatus(c *fiber.Ctx, err error) error {
	var notFound errs.NotFoundError
	if errors.As(err, &notFound) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: err.Error()})
	}
	var validation errs.ValidationError
	if errors.As(err, &validation) {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
}
