package cmd

import (
	"os"
	"time"

	coreconfig "github.com/AzielCF/az-invert/core/config"
	"github.com/AzielCF/az-invert/domains/artifact"
	domainCache "github.com/AzielCF/az-invert/domains/cache"
	"github.com/AzielCF/az-invert/domains/health"
	domainInvert "github.com/AzielCF/az-invert/domains/invert"
	"github.com/AzielCF/az-invert/pkg/hash"
	"github.com/AzielCF/az-invert/pkg/utils"
	"github.com/AzielCF/az-invert/usecase"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	store        artifact.Store
	closeStore   func()
	storeBackend string

	// Usecase
	invertUsecase domainInvert.IInvertUsecase
	cacheUsecase  domainCache.ICacheUsecase
	healthUsecase health.IHealthUsecase
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "az-invert",
	Short: "Black and white image inverter over HTTP",
	Long: `Upload PNG, JPEG or GIF images and get back a black/white inverted copy.
Results are cached by content hash and everything stored is removed after the retention window.`,
}

func init() {
	// Load environment variables first
	utils.LoadConfig(".")

	time.Local = time.UTC

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	initFlags()

	cobra.OnInitialize(initApp)
}

func initFlags() {
	flags := rootCmd.PersistentFlags()

	flags.StringP("port", "p", "3000", "change port number with --port <number> | example: --port=8080")
	flags.BoolP("debug", "d", false, "hide or displaying log with --debug <true/false> | example: --debug=true")
	flags.String("base-path", "", `base path for subpath deployment --base-path <string> | example: --base-path="/invert"`)
	flags.Int("max-upload-size", 16*1024*1024, "maximum request body size in bytes --max-upload-size <number>")
	flags.String("cache-dir", "statics/uploads", "directory for originals and processed images when --storage-driver=fs")
	flags.Duration("retention", 24*time.Hour, "how long stored files are kept --retention <duration> | example: --retention=12h")
	flags.String("hash", hash.AlgorithmMD5, "content hash used for cache keys: md5 or murmur3")
	flags.String("policy", "threshold", "pixel transform: threshold (black/white) or invert (negative)")
	flags.String("storage-driver", coreconfig.StorageDriverFS, "where files are kept: fs or valkey")

	bindings := map[string]string{
		coreconfig.KeyAppPort:          "port",
		coreconfig.KeyAppDebug:         "debug",
		coreconfig.KeyAppBasePath:      "base-path",
		coreconfig.KeyAppMaxUploadSize: "max-upload-size",
		coreconfig.KeyCacheDir:         "cache-dir",
		coreconfig.KeyCacheRetention:   "retention",
		coreconfig.KeyCacheHash:        "hash",
		coreconfig.KeyInvertPolicy:     "policy",
		coreconfig.KeyStorageDriver:    "storage-driver",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			logrus.Fatalf("[CONFIG] failed to bind flag %s: %v", flag, err)
		}
	}
}

func initApp() {
	cfg, err := coreconfig.LoadConfig()
	if err != nil {
		logrus.Fatalf("[CONFIG] invalid configuration: %v", err)
	}

	if cfg.App.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	store, closeStore, storeBackend, err = newArtifactStore(cfg.Storage)
	if err != nil {
		logrus.Fatalf("[STORE] failed to initialize %s storage: %v", cfg.Storage.Driver, err)
	}

	hasher, err := hash.New(cfg.Processing.HashAlgorithm)
	if err != nil {
		logrus.Fatalf("[CONFIG] %v", err)
	}

	cacheUsecase = usecase.NewCacheService(store, cfg.Storage.Retention, storeBackend)
	invertUsecase = usecase.NewInvertService(store, cacheUsecase, usecase.InvertOptions{
		Policy:    cfg.Processing.Policy,
		Hasher:    hasher,
		Retention: cfg.Storage.Retention,
		BasePath:  cfg.App.BasePath,
	})

	healthUsecase = usecase.NewHealthService(store, storeBackend)

	logrus.Debugf("[CONFIG] %v", coreconfig.GetAllSettings())
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// StopApp releases the storage backend.
func StopApp() {
	logrus.Info("[APP] Stopping application...")
	if closeStore != nil {
		closeStore()
	}
	logrus.Info("[APP] Application stopped cleanly.")
}
