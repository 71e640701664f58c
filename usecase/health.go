package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/AzielCF/az-invert/domains/artifact"
	"github.com/AzielCF/az-invert/domains/health"
	"github.com/sirupsen/logrus"
)

type healthService struct {
	store   artifact.Store
	backend string
	now     func() time.Time

	mu     sync.RWMutex
	record health.HealthRecord
}

func NewHealthService(store artifact.Store, backend string) health.IHealthUsecase {
	return &healthService{
		store:   store,
		backend: backend,
		now:     time.Now,
		record: health.HealthRecord{
			EntityType: health.EntityStorage,
			EntityID:   backend,
			Status:     health.StatusUnknown,
		},
	}
}

func (s *healthService) CheckStorage(ctx context.Context) health.HealthRecord {
	now := s.now()
	err := s.ping(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.record.LastChecked = now
	if err != nil {
		logrus.WithError(err).Warnf("[Health] storage %s check failed", s.backend)
		s.record.Status = health.StatusError
		s.record.LastMessage = err.Error()
		return s.record
	}

	s.record.Status = health.StatusOk
	s.record.LastMessage = ""
	s.record.LastSuccess = &now
	return s.record
}

func (s *healthService) GetStatus(ctx context.Context) []health.HealthRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return []health.HealthRecord{s.record}
}

// ping falls back to listing for stores without a cheaper probe.
func (s *healthService) ping(ctx context.Context) error {
	if pinger, ok := s.store.(artifact.Pinger); ok {
		return pinger.Ping(ctx)
	}
	_, err := s.store.List(ctx)
	return err
}
