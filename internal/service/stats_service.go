package service

import (
	"context"

	"bluecrm/attribsync/internal/entity"
)

// StatsStore 统计查询依赖
type StatsStore interface {
	ListStats(ctx context.Context, tenantID, periodType string) ([]*entity.SyncStats, error)
	ListBreakdowns(ctx context.Context, tenantID, periodType, periodValue, dimension string) ([]*entity.StatBreakdown, error)
}

// StatsService 统计服务
type StatsService struct {
	stats StatsStore
}

// NewStatsService 创建统计服务实例
func NewStatsService(stats StatsStore) *StatsService {
	return &StatsService{stats: stats}
}

// Summaries 查询周期汇总
func (s *StatsService) Summaries(ctx context.Context, tenantID, periodType string) ([]*entity.SyncStats, error) {
	return s.stats.ListStats(ctx, tenantID, periodType)
}

// Breakdowns 查询分布统计
func (s *StatsService) Breakdowns(ctx context.Context, tenantID, periodType, periodValue, dimension string) ([]*entity.StatBreakdown, error) {
	return s.stats.ListBreakdowns(ctx, tenantID, periodType, periodValue, dimension)
}
