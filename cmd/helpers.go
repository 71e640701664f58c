package cmd

import (
	"fmt"

	coreconfig "github.com/AzielCF/az-invert/core/config"
	"github.com/AzielCF/az-invert/domains/artifact"
	"github.com/AzielCF/az-invert/infrastructure/artifactstore"
	"github.com/AzielCF/az-invert/infrastructure/valkey"
	"github.com/sirupsen/logrus"
)

// newArtifactStore opens the configured backend. The returned close
// function is never nil.
func newArtifactStore(cfg coreconfig.StorageConfig) (artifact.Store, func(), string, error) {
	switch cfg.Driver {
	case coreconfig.StorageDriverValkey:
		client, err := valkey.NewClient(valkey.Config{
			Address:   cfg.ValkeyAddress,
			Password:  cfg.ValkeyPassword,
			DB:        cfg.ValkeyDB,
			KeyPrefix: cfg.ValkeyKeyPrefix,
		})
		if err != nil {
			return nil, nil, "", err
		}
		logrus.Infof("[STORE] using valkey at %s", cfg.ValkeyAddress)
		return artifactstore.NewValkeyStore(client), client.Close, "valkey", nil

	case coreconfig.StorageDriverFS, "":
		store, err := artifactstore.NewDiskStore(cfg.Dir)
		if err != nil {
			return nil, nil, "", err
		}
		logrus.Infof("[STORE] using directory %s", cfg.Dir)
		return store, func() {}, "fs", nil

	default:
		return nil, nil, "", fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
