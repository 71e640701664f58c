package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	coreconfig "github.com/AzielCF/az-invert/core/config"
	"github.com/AzielCF/az-invert/domains/health"
	"github.com/AzielCF/az-invert/ui/rest"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var restCmd = &cobra.Command{
	Use:   "rest",
	Short: "Serve the upload form and JSON API over http",
	Run:   restServer,
}

func init() {
	rootCmd.AddCommand(restCmd)
}

func restServer(_ *cobra.Command, _ []string) {
	cfg := coreconfig.Global

	app := rest.NewApp(rest.AppConfig{
		Name:           "Az-Invert " + cfg.App.Version,
		BasePath:       cfg.App.BasePath,
		BodyLimit:      cfg.App.MaxUploadSize,
		Debug:          cfg.App.Debug,
		TrustedProxies: cfg.App.TrustedProxies,
	}, invertUsecase, cacheUsecase, healthUsecase)

	if record := healthUsecase.CheckStorage(context.Background()); record.Status != health.StatusOk {
		logrus.Warnf("[REST] storage %s is not healthy: %s", storeBackend, record.LastMessage)
	}

	// Graceful shutdown handler
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logrus.Info("[REST] Reception of termination signal, shutting down gracefully...")
		if err := app.Shutdown(); err != nil {
			logrus.Errorf("[REST] Error during Fiber shutdown: %v", err)
		}
	}()

	logrus.Infof("[REST] listening on :%s (policy=%s, hash=%s, retention=%s)",
		cfg.App.Port, cfg.Processing.Policy, cfg.Processing.HashAlgorithm, cfg.Storage.Retention)
	if err := app.Listen(":" + cfg.App.Port); err != nil {
		logrus.Fatalln("Failed to start: ", err.Error())
	}
	StopApp()
}
