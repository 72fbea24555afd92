package services

import (
	"context"

	"ecodescarte-user-service/internal/application/interfaces"
	"ecodescarte-user-service/internal/domain/repositories"
)

const (
	CacheConnected   = "connected"
	CacheDisabled    = "disabled"
	CacheUnavailable = "unavailable"
)

// DatabaseHealthService verifies database connectivity as part of health checks
// and reports on the profile cache alongside.
type DatabaseHealthService struct {
	Repo  repositories.UserRepository
	Cache interfaces.CacheProbe
}

func NewDatabaseHealthService(repo repositories.UserRepository, cache interfaces.CacheProbe) interfaces.HealthService {
	return DatabaseHealthService{Repo: repo, Cache: cache}
}

func (s DatabaseHealthService) Probe(ctx context.Context) error {
	return s.Repo.Ping(ctx)
}

func (s DatabaseHealthService) CacheStatus(ctx context.Context) string {
	if s.Cache == nil || !s.Cache.Enabled() {
		return CacheDisabled
	}
	if err := s.Cache.Ping(ctx); err != nil {
		return CacheUnavailable
	}
	return CacheConnected
}
