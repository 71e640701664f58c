package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

const AppVersion = "v1.0.0"

// Viper keys. With AutomaticEnv each one maps to its uppercase environment
// variable (app_port -> APP_PORT).
const (
	KeyAppPort           = "app_port"
	KeyAppDebug          = "app_debug"
	KeyAppBasePath       = "app_base_path"
	KeyAppMaxUploadSize  = "app_max_upload_size"
	KeyAppTrustedProxies = "app_trusted_proxies"

	KeyCacheDir       = "cache_dir"
	KeyCacheRetention = "cache_retention"
	KeyCacheHash      = "cache_hash"
	KeyInvertPolicy   = "invert_policy"

	KeyStorageDriver   = "storage_driver"
	KeyValkeyAddress   = "valkey_address"
	KeyValkeyPassword  = "valkey_password"
	KeyValkeyDB        = "valkey_db"
	KeyValkeyKeyPrefix = "valkey_key_prefix"

	KeyMCPPort = "mcp_port"
	KeyMCPHost = "mcp_host"
)

var defaults = map[string]any{
	KeyAppPort:          "3000",
	KeyAppDebug:         false,
	KeyAppBasePath:      "",
	KeyAppMaxUploadSize: 16 * 1024 * 1024,
	KeyCacheDir:         "statics/uploads",
	KeyCacheRetention:   24 * time.Hour,
	KeyCacheHash:        "md5",
	KeyInvertPolicy:     "threshold",
	KeyStorageDriver:    StorageDriverFS,
	KeyValkeyAddress:    "localhost:6379",
	KeyValkeyDB:         0,
	KeyValkeyKeyPrefix:  "azinvert:",
	KeyMCPPort:          "8080",
	KeyMCPHost:          "localhost",
}

func setDefaults() {
	for key, value := range defaults {
		viper.SetDefault(key, value)
	}
}

// GetAllSettings returns the effective settings, without secrets.
func GetAllSettings() map[string]any {
	if Global == nil {
		return map[string]any{}
	}
	return map[string]any{
		"app_version":         Global.App.Version,
		"app_debug":           Global.App.Debug,
		"app_base_path":       Global.App.BasePath,
		"app_max_upload_size": Global.App.MaxUploadSize,
		"cache_dir":           Global.Storage.Dir,
		"cache_retention":     Global.Storage.Retention.String(),
		"cache_hash":          Global.Processing.HashAlgorithm,
		"invert_policy":       string(Global.Processing.Policy),
		"storage_driver":      Global.Storage.Driver,
	}
}

// Helpers
func getString(key string) string {
	return strings.TrimSpace(viper.GetString(key))
}

func getInt(key string) int {
	return viper.GetInt(key)
}

func getBool(key string) bool {
	return viper.GetBool(key)
}

func getDuration(key string) time.Duration {
	return viper.GetDuration(key)
}

// getStringSlice accepts both a real slice and a comma separated value.
func getStringSlice(key string) []string {
	var out []string
	for _, item := range viper.GetStringSlice(key) {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
