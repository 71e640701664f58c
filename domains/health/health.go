package health

import (
	"context"
	"time"
)

type EntityType string

const (
	EntityStorage EntityType = "storage"
)

type Status string

const (
	StatusOk      Status = "OK"
	StatusError   Status = "ERROR"
	StatusUnknown Status = "UNKNOWN"
)

type HealthRecord struct {
	EntityType  EntityType `json:"entity_type"`
	EntityID    string     `json:"entity_id"`
	Status      Status     `json:"status"`
	LastMessage string     `json:"last_message"`
	LastChecked time.Time  `json:"last_checked"`
	LastSuccess *time.Time `json:"last_success,omitempty"`
}

type IHealthUsecase interface {
	// CheckStorage pings the storage backend and records the outcome.
	CheckStorage(ctx context.Context) HealthRecord
	// GetStatus returns the last recorded results without checking again.
	GetStatus(ctx context.Context) []HealthRecord
}
