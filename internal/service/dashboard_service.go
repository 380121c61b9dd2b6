package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/campushq/college-admin-api/internal/models"
	appErrors "github.com/campushq/college-admin-api/pkg/errors"
)

type studentStatsProvider interface {
	CountBySemester(ctx context.Context) ([]models.SemesterCount, error)
	CountByStatus(ctx context.Context) ([]models.StatusCount, error)
}

type feeSummaryProvider interface {
	CollectionSummary(ctx context.Context) (*models.FeeCollectionSummary, error)
}

type hostelSummaryProvider interface {
	OccupancySummary(ctx context.Context) (*models.HostelOccupancySummary, error)
}

const dashboardSummaryCacheKey = "dashboard:summary"

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL time.Duration
}

// DashboardService composes the admin landing-page summary from the
// student, fee and hostel aggregates, with a cache in front.
type DashboardService struct {
	students studentStatsProvider
	fees     feeSummaryProvider
	hostel   hostelSummaryProvider
	cache    *CacheService
	logger   *zap.Logger
	now      func() time.Time
	cfg      DashboardServiceConfig
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Students studentStatsProvider
	Fees     feeSummaryProvider
	Hostel   hostelSummaryProvider
	Cache    *CacheService
	Logger   *zap.Logger
	Config   DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		students: params.Students,
		fees:     params.Fees,
		hostel:   params.Hostel,
		cache:    params.Cache,
		logger:   logger,
		now:      time.Now,
		cfg:      cfg,
	}
}

// Summary returns the admin dashboard aggregate and whether it was served
// from cache.
func (s *DashboardService) Summary(ctx context.Context) (*models.DashboardSummary, bool, error) {
	if s.cache.Enabled() {
		var cached models.DashboardSummary
		hit, err := s.cache.Get(ctx, dashboardSummaryCacheKey, &cached)
		if err != nil {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		} else if hit {
			return &cached, true, nil
		}
	}

	summary, err := s.compose(ctx)
	if err != nil {
		return nil, false, err
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, dashboardSummaryCacheKey, summary, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	return summary, false, nil
}

// Invalidate drops the cached summary. Callers invoke it after bulk
// mutations such as a semester promotion.
func (s *DashboardService) Invalidate(ctx context.Context) {
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, dashboardSummaryCacheKey); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}

func (s *DashboardService) compose(ctx context.Context) (*models.DashboardSummary, error) {
	bySemester, err := s.students.CountBySemester(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate students by semester")
	}
	byStatus, err := s.students.CountByStatus(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate students by status")
	}

	summary := &models.DashboardSummary{
		StudentsBySemester: bySemester,
		StudentsByStatus:   byStatus,
		GeneratedAt:        s.now().UTC(),
	}

	if s.fees != nil {
		fees, err := s.fees.CollectionSummary(ctx)
		if err != nil {
			s.logger.Warn("fee collection summary failed", zap.Error(err))
		} else if fees != nil {
			summary.FeeCollection = *fees
		}
	}
	if s.hostel != nil {
		occupancy, err := s.hostel.OccupancySummary(ctx)
		if err != nil {
			s.logger.Warn("hostel occupancy summary failed", zap.Error(err))
		} else if occupancy != nil {
			summary.HostelOccupancy = *occupancy
		}
	}
	return summary, nil
}
