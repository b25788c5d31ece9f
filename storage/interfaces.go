package storage

import (
	"context"

	"checkeasy-report/models"
)

// ReportWriter is the interface any export backend must satisfy.
type ReportWriter interface {
	Write(report *models.MappedRapport) error
	Close() error
}

// LoadArchiver records the outcome of each report load.
type LoadArchiver interface {
	ArchiveLoad(ctx context.Context, report *models.FusedReport) error
}
