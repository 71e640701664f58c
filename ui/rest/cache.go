package rest

import (
	domainCache "github.com/AzielCF/az-invert/domains/cache"
	"github.com/AzielCF/az-invert/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type Cache struct {
	Service domainCache.ICacheUsecase
}

func InitRestCache(app fiber.Router, service domainCache.ICacheUsecase) Cache {
	rest := Cache{Service: service}
	app.Get("/cache/stats", rest.GetStats)
	app.Post("/cache/sweep", rest.Sweep)
	app.Post("/cache/clear", rest.Clear)

	return rest
}

func (handler *Cache) GetStats(c *fiber.Ctx) error {
	stats, err := handler.Service.GetStats(c.UserContext())
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Cache stats retrieved",
		Results: stats,
	})
}

func (handler *Cache) Sweep(c *fiber.Ctx) error {
	report := handler.Service.Sweep(c.UserContext())

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Expired entries swept",
		Results: report,
	})
}

func (handler *Cache) Clear(c *fiber.Ctx) error {
	report, err := handler.Service.Clear(c.UserContext())
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Cache cleared successfully",
		Results: report,
	})
}
