package rest

import (
	domainCache "github.com/AzielCF/az-invert/domains/cache"
	"github.com/AzielCF/az-invert/domains/health"
	domainInvert "github.com/AzielCF/az-invert/domains/invert"
	"github.com/AzielCF/az-invert/ui/rest/middleware"
	"github.com/AzielCF/az-invert/views"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

type AppConfig struct {
	Name           string
	BasePath       string
	BodyLimit      int
	Debug          bool
	TrustedProxies []string
}

// NewApp builds the Fiber application with every route mounted under
// cfg.BasePath. Listening and shutdown are left to the caller.
func NewApp(cfg AppConfig, invertUsecase domainInvert.IInvertUsecase, cacheUsecase domainCache.ICacheUsecase, healthUsecase health.IHealthUsecase) *fiber.App {
	fiberConfig := fiber.Config{
		AppName:               cfg.Name,
		BodyLimit:             cfg.BodyLimit,
		Views:                 views.NewEngine(cfg.Debug),
		Network:               "tcp",
		DisableStartupMessage: !cfg.Debug,
		ServerHeader:          "Hidden",
	}
	if len(cfg.TrustedProxies) > 0 {
		fiberConfig.EnableTrustedProxyCheck = true
		fiberConfig.TrustedProxies = cfg.TrustedProxies
		fiberConfig.ProxyHeader = fiber.HeaderXForwardedFor
	}

	app := fiber.New(fiberConfig)

	app.Use(requestid.New())
	app.Use(middleware.Recovery())
	app.Use(helmet.New(helmet.Config{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "SAMEORIGIN",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:;",
	}))
	if cfg.Debug {
		app.Use(logger.New())
	}

	root := app.Group(cfg.BasePath)
	InitRestInvert(root, invertUsecase, cfg.BasePath)

	apiGroup := root.Group("/api")
	InitRestCache(apiGroup, cacheUsecase)
	InitRestHealth(apiGroup, healthUsecase)

	apiGroup.All("/*", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "API Endpoint not found",
			"path":  c.Path(),
		})
	})

	return app
}
