package rest

import (
	"github.com/AzielCF/az-invert/domains/health"
	"github.com/AzielCF/az-invert/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type Health struct {
	Service health.IHealthUsecase
}

func InitRestHealth(app fiber.Router, service health.IHealthUsecase) Health {
	handler := Health{Service: service}

	group := app.Group("/health")
	group.Get("/status", handler.GetStatus)
	group.Post("/check", handler.Check)

	return handler
}

func (h *Health) GetStatus(c *fiber.Ctx) error {
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Health status retrieved",
		Results: h.Service.GetStatus(c.UserContext()),
	})
}

func (h *Health) Check(c *fiber.Ctx) error {
	record := h.Service.CheckStorage(c.UserContext())
	if record.Status != health.StatusOk {
		return c.Status(fiber.StatusServiceUnavailable).JSON(utils.ResponseData{
			Status:  503,
			Code:    "SERVICE_UNAVAILABLE",
			Message: record.LastMessage,
			Results: record,
		})
	}
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Storage is reachable",
		Results: record,
	})
}
