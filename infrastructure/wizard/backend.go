package wizard

import (
	"context"

	"condowater/models"
)

// Backend is the part of the billing API the wizard talks to.
//
//go:generate mockgen -destination=mocks/mock_backend.go -package=mocks -source=backend.go Backend
type Backend interface {
	LatestReadings(ctx context.Context) ([]models.LatestReading, error)
	ProcessReadings(ctx context.Context, payload models.ProcessReadingsPayload) (models.ProcessReadingsResponse, error)
}

// LogCarrier is implemented by backend errors that carry structured logs.
type LogCarrier interface {
	BackendLogs() []models.BackendLog
}
