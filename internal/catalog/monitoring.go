package catalog

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/luct-reporting/luct-bot/internal/models"
	"github.com/luct-reporting/luct-bot/internal/screen"
)

type MonitoringAPI interface {
	ListMonitoring(ctx context.Context, q string) ([]models.MonitoringEntry, error)
}

// Monitoring is the read-only progress list for principal lecturers.
type Monitoring struct {
	api  MonitoringAPI
	log  *zap.Logger
	list listState[models.MonitoringEntry]
}

func NewMonitoring(api MonitoringAPI, log *zap.Logger) *Monitoring {
	return &Monitoring{api: api, log: nopIfNil(log)}
}

func (m *Monitoring) Load(ctx context.Context) error {
	return m.list.load(ctx, m.log, "monitoring", "Failed to fetch monitoring data", m.api.ListMonitoring)
}

func (m *Monitoring) Search(ctx context.Context, q string) error {
	m.list.setQuery(strings.TrimSpace(q))
	return m.Load(ctx)
}

func (m *Monitoring) Items() []models.MonitoringEntry { return m.list.snapshot() }
func (m *Monitoring) Notice() *screen.Notice          { return m.list.takeNotice() }
func (m *Monitoring) Reset()                          { m.list.reset() }
