package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/college-admin-api/internal/models"
	appErrors "github.com/campushq/college-admin-api/pkg/errors"
)

type dashboardStatsStub struct {
	bySemester []models.SemesterCount
	byStatus   []models.StatusCount
	calls      int
	err        error
}

func (s *dashboardStatsStub) CountBySemester(ctx context.Context) ([]models.SemesterCount, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.bySemester, nil
}

func (s *dashboardStatsStub) CountByStatus(ctx context.Context) ([]models.StatusCount, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.byStatus, nil
}

type feeSummaryStub struct {
	summary *models.FeeCollectionSummary
}

func (s *feeSummaryStub) CollectionSummary(ctx context.Context) (*models.FeeCollectionSummary, error) {
	return s.summary, nil
}

type hostelSummaryStub struct {
	summary *models.HostelOccupancySummary
}

func (s *hostelSummaryStub) OccupancySummary(ctx context.Context) (*models.HostelOccupancySummary, error) {
	return s.summary, nil
}

type memoryCacheRepo struct {
	entries map[string][]byte
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: map[string][]byte{}}
}

func (r *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := r.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (r *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	r.entries[key] = raw
	return nil
}

func (r *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	delete(r.entries, pattern)
	return nil
}

func newDashboardTestService(stats *dashboardStatsStub, cache *CacheService) *DashboardService {
	return NewDashboardService(DashboardServiceParams{
		Students: stats,
		Fees:     &feeSummaryStub{summary: &models.FeeCollectionSummary{TotalInvoiced: 500000, TotalCollected: 420000, Outstanding: 80000}},
		Hostel:   &hostelSummaryStub{summary: &models.HostelOccupancySummary{TotalRooms: 10, TotalCapacity: 40, Occupied: 31}},
		Cache:    cache,
	})
}

func TestDashboardSummaryComposesAggregates(t *testing.T) {
	stats := &dashboardStatsStub{
		bySemester: []models.SemesterCount{{Semester: 1, Count: 120}, {Semester: 3, Count: 96}},
		byStatus:   []models.StatusCount{{Status: models.StudentStatusApproved, Count: 216}},
	}
	svc := newDashboardTestService(stats, nil)

	summary, cached, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Len(t, summary.StudentsBySemester, 2)
	assert.Equal(t, int64(80000), summary.FeeCollection.Outstanding)
	assert.Equal(t, 31, summary.HostelOccupancy.Occupied)
	assert.False(t, summary.GeneratedAt.IsZero())
}

func TestDashboardSummaryServedFromCache(t *testing.T) {
	stats := &dashboardStatsStub{
		bySemester: []models.SemesterCount{{Semester: 2, Count: 80}},
	}
	cache := NewCacheService(newMemoryCacheRepo(), nil, time.Minute, nil, true)
	svc := newDashboardTestService(stats, cache)

	_, cached, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.False(t, cached)

	_, cached, err = svc.Summary(context.Background())
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, 1, stats.calls)
}

func TestDashboardInvalidateForcesRecompute(t *testing.T) {
	stats := &dashboardStatsStub{}
	cache := NewCacheService(newMemoryCacheRepo(), nil, time.Minute, nil, true)
	svc := newDashboardTestService(stats, cache)

	_, _, err := svc.Summary(context.Background())
	require.NoError(t, err)

	svc.Invalidate(context.Background())

	_, cached, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 2, stats.calls)
}

func TestDashboardSummaryPropagatesAggregateFailure(t *testing.T) {
	stats := &dashboardStatsStub{err: errors.New("db down")}
	svc := newDashboardTestService(stats, nil)

	_, _, err := svc.Summary(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}
