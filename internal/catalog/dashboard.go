package catalog

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/luct-reporting/luct-bot/internal/apiclient"
	"github.com/luct-reporting/luct-bot/internal/fetchgen"
	"github.com/luct-reporting/luct-bot/internal/logging"
	"github.com/luct-reporting/luct-bot/internal/models"
)

type DashboardAPI interface {
	ListLectures(ctx context.Context) ([]models.Lecture, error)
	ListReports(ctx context.Context, q string) ([]models.Report, error)
}

type Stats struct {
	Courses   int
	Lecturers int
	Lectures  int
	Reports   int
}

// ComputeStats counts distinct courses over lectures and distinct
// non-zero lecturers over lectures and reports.
func ComputeStats(lectures []models.Lecture, reports []models.Report) Stats {
	lecturers := make(map[int64]struct{})
	for _, l := range lectures {
		if id := l.LecturerID.Int64(); id != 0 {
			lecturers[id] = struct{}{}
		}
	}
	for _, r := range reports {
		if r.LecturerID != nil && r.LecturerID.Int64() != 0 {
			lecturers[r.LecturerID.Int64()] = struct{}{}
		}
	}
	return Stats{
		Courses:   len(sortedCourseIDs(lectures)),
		Lecturers: len(lecturers),
		Lectures:  len(lectures),
		Reports:   len(reports),
	}
}

type Dashboard struct {
	api DashboardAPI
	log *zap.Logger
	gen fetchgen.Tracker

	mu    sync.Mutex
	stats Stats
}

func NewDashboard(api DashboardAPI, log *zap.Logger) *Dashboard {
	return &Dashboard{api: api, log: nopIfNil(log)}
}

// Load fetches lectures and reports together; either failing fails the load.
func (d *Dashboard) Load(ctx context.Context) error {
	ticket := d.gen.Begin()

	var (
		lectures []models.Lecture
		reports  []models.Report
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		lectures, err = d.api.ListLectures(gctx)
		return err
	})
	g.Go(func() (err error) {
		reports, err = d.api.ListReports(gctx, "")
		return err
	})
	err := g.Wait()

	if !ticket.Current() {
		return nil
	}
	if err != nil {
		if apiclient.IsSystem(err) {
			logging.With(ctx, d.log).Warn("fetch dashboard failed", zap.Error(err))
		}
		return apiclient.ScreenError(err, "Failed to fetch dashboard data")
	}
	d.mu.Lock()
	d.stats = ComputeStats(lectures, reports)
	d.mu.Unlock()
	return nil
}

func (d *Dashboard) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

func (d *Dashboard) Reset() {
	d.gen.Begin()
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats = Stats{}
}
