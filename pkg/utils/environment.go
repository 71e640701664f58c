package utils

import (
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// LoadConfig loads an optional .env file from path and makes every
// environment variable visible to viper under its lowercase name
// (APP_PORT -> app_port).
func LoadConfig(path string) {
	envFile := filepath.Join(path, ".env")
	if err := godotenv.Load(envFile); err != nil {
		logrus.Debugf("[CONFIG] no .env loaded from %s: %v", envFile, err)
	}

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
}
