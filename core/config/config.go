package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/AzielCF/az-invert/pkg/hash"
	"github.com/AzielCF/az-invert/pkg/imgproc"
)

const (
	StorageDriverFS     = "fs"
	StorageDriverValkey = "valkey"
)

// Config holds all application configuration in a structured way.
type Config struct {
	App        AppConfig
	Storage    StorageConfig
	Processing ProcessingConfig
	MCP        MCPConfig
}

type AppConfig struct {
	Version        string
	Port           string
	Debug          bool
	BasePath       string
	MaxUploadSize  int
	TrustedProxies []string
}

type StorageConfig struct {
	Driver    string
	Dir       string
	Retention time.Duration

	ValkeyAddress   string
	ValkeyPassword  string
	ValkeyDB        int
	ValkeyKeyPrefix string
}

type ProcessingConfig struct {
	Policy        imgproc.Policy
	HashAlgorithm string
}

type MCPConfig struct {
	Port string
	Host string
}

// Global provides access to the loaded configuration.
var Global *Config

// LoadConfig reads every setting through viper, so flags bound by the CLI
// take precedence over environment variables and .env values.
func LoadConfig() (*Config, error) {
	setDefaults()

	policy, err := imgproc.ParsePolicy(getString(KeyInvertPolicy))
	if err != nil {
		return nil, err
	}

	hashAlgorithm := strings.ToLower(getString(KeyCacheHash))
	if _, err := hash.New(hashAlgorithm); err != nil {
		return nil, err
	}

	retention := getDuration(KeyCacheRetention)
	if retention <= 0 {
		return nil, fmt.Errorf("%s must be positive, got %s", KeyCacheRetention, retention)
	}

	driver := strings.ToLower(getString(KeyStorageDriver))
	if driver != StorageDriverFS && driver != StorageDriverValkey {
		return nil, fmt.Errorf("unknown storage driver %q (use %q or %q)", driver, StorageDriverFS, StorageDriverValkey)
	}

	maxUpload := getInt(KeyAppMaxUploadSize)
	if maxUpload <= 0 {
		return nil, fmt.Errorf("%s must be positive, got %d", KeyAppMaxUploadSize, maxUpload)
	}

	cfg := &Config{
		App: AppConfig{
			Version:        AppVersion,
			Port:           getString(KeyAppPort),
			Debug:          getBool(KeyAppDebug),
			BasePath:       strings.TrimRight(getString(KeyAppBasePath), "/"),
			MaxUploadSize:  maxUpload,
			TrustedProxies: getStringSlice(KeyAppTrustedProxies),
		},
		Storage: StorageConfig{
			Driver:          driver,
			Dir:             getString(KeyCacheDir),
			Retention:       retention,
			ValkeyAddress:   getString(KeyValkeyAddress),
			ValkeyPassword:  getString(KeyValkeyPassword),
			ValkeyDB:        getInt(KeyValkeyDB),
			ValkeyKeyPrefix: getString(KeyValkeyKeyPrefix),
		},
		Processing: ProcessingConfig{
			Policy:        policy,
			HashAlgorithm: hashAlgorithm,
		},
		MCP: MCPConfig{
			Port: getString(KeyMCPPort),
			Host: getString(KeyMCPHost),
		},
	}

	Global = cfg
	return cfg, nil
}
