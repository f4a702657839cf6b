// Package outwriter has output and writer logic.
package outwriter

import (
	"time"

	"github.com/kpilens/kpilens/internal/contract"
	"github.com/kpilens/kpilens/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteRecords prints scored KPI records using the configured output format.
func (ow *OutWriter) WriteRecords(records []schema.KpiRecord, cfg *contract.Config, duration time.Duration) error {
	return PrintRecordResults(records, cfg, duration)
}

// WritePortfolio prints portfolio metrics plus ranked records using the configured output format.
func (ow *OutWriter) WritePortfolio(metrics schema.PortfolioMetrics, records []schema.KpiRecord, cfg *contract.Config, duration time.Duration) error {
	return PrintPortfolioResults(metrics, records, cfg, duration)
}
