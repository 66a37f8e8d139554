package service

import (
	"context"
	"time"

	"reviewledger/internal/database"
	"reviewledger/internal/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	HealthOK    = "ok"
	HealthError = "error"
)

type HealthResponse struct {
	Status string `json:"status"`
	DB     string `json:"db"`
}

type HealthService interface {
	Check(ctx context.Context) (HealthResponse, bool)
}

type healthService struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewHealthService(db *gorm.DB) HealthService {
	return &healthService{db: db, timeout: 3 * time.Second}
}

// Check pings the database and reports whether the service is healthy.
func (s *healthService) Check(ctx context.Context) (HealthResponse, bool) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := database.Ping(ctx, s.db); err != nil {
		logger.FromContext(ctx).Error("health check database ping failed", zap.Error(err))
		return HealthResponse{Status: HealthError, DB: HealthError}, false
	}
	return HealthResponse{Status: HealthOK, DB: HealthOK}, true
}
