package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bluecrm/attribsync/internal/entity"
	"bluecrm/attribsync/internal/platform"
	"bluecrm/attribsync/pkg/errorutil"
)

// StatsRepository 统计仓储实现（MySQL）
// 全部更新走 INSERT ... ON DUPLICATE KEY UPDATE 的原子自增，
// 并发 worker 下不会丢失计数
type StatsRepository struct {
	db *gorm.DB
}

// NewStatsRepository 创建统计仓储实例
func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// RecordOrder 将一笔新入库订单计入年/月/日三个周期的汇总与分布
// 仅在订单首次入库时调用一次，重复同步不得重复计入
func (r *StatsRepository) RecordOrder(ctx context.Context, tenantID string, rec *platform.OrderRecord) error {
	periods := entity.PeriodValues(rec.CreatedAt)

	for periodType, periodValue := range periods {
		if err := r.incrementSummary(ctx, tenantID, periodType, periodValue, rec.Total); err != nil {
			return err
		}

		for _, item := range rec.Items {
			amount := item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
			if err := r.incrementBreakdown(ctx, tenantID, periodType, periodValue,
				entity.DimensionProduct, item.Name, amount); err != nil {
				return err
			}
		}

		if rec.PaymentMethod != "" {
			if err := r.incrementBreakdown(ctx, tenantID, periodType, periodValue,
				entity.DimensionPaymentMethod, rec.PaymentMethod, rec.Total); err != nil {
				return err
			}
		}

		if rec.ReferralCode != "" {
			if err := r.incrementBreakdown(ctx, tenantID, periodType, periodValue,
				entity.DimensionAffiliate, rec.ReferralCode, rec.Total); err != nil {
				return err
			}
		}
	}

	return nil
}

// ListStats 查询租户指定周期类型的汇总行
func (r *StatsRepository) ListStats(ctx context.Context, tenantID, periodType string) ([]*entity.SyncStats, error) {
	var rows []*entity.SyncStats
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND period_type = ?", tenantID, periodType).
		Order("period_value DESC").
		Find(&rows).Error
	if err != nil {
		return nil, errorutil.Persistence(err)
	}
	return rows, nil
}

// ListBreakdowns 查询租户指定周期与维度的分布行，按订单数倒序
func (r *StatsRepository) ListBreakdowns(ctx context.Context, tenantID, periodType, periodValue, dimension string) ([]*entity.StatBreakdown, error) {
	var rows []*entity.StatBreakdown
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND period_type = ? AND period_value = ? AND dimension = ?",
			tenantID, periodType, periodValue, dimension).
		Order("order_count DESC").
		Find(&rows).Error
	if err != nil {
		return nil, errorutil.Persistence(err)
	}
	return rows, nil
}

// incrementSummary 汇总行原子自增
func (r *StatsRepository) incrementSummary(ctx context.Context, tenantID, periodType, periodValue string, total decimal.Decimal) error {
	row := &entity.SyncStats{
		TenantID:     tenantID,
		PeriodType:   periodType,
		PeriodValue:  periodValue,
		TotalOrders:  1,
		TotalRevenue: total,
		UpdatedAt:    time.Now(),
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "tenant_id"}, {Name: "period_type"}, {Name: "period_value"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_orders":  gorm.Expr("total_orders + 1"),
			"total_revenue": gorm.Expr("total_revenue + ?", total),
			"updated_at":    time.Now(),
		}),
	}).Create(row).Error
	if err != nil {
		return errorutil.Persistence(err)
	}
	return nil
}

// incrementBreakdown 分布行原子自增
func (r *StatsRepository) incrementBreakdown(ctx context.Context, tenantID, periodType, periodValue, dimension, label string, amount decimal.Decimal) error {
	if label == "" {
		return nil
	}

	row := &entity.StatBreakdown{
		TenantID:    tenantID,
		PeriodType:  periodType,
		PeriodValue: periodValue,
		Dimension:   dimension,
		Label:       label,
		OrderCount:  1,
		Amount:      amount,
		UpdatedAt:   time.Now(),
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "tenant_id"}, {Name: "period_type"}, {Name: "period_value"},
			{Name: "dimension"}, {Name: "label"},
		},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"order_count": gorm.Expr("order_count + 1"),
			"amount":      gorm.Expr("amount + ?", amount),
			"updated_at":  time.Now(),
		}),
	}).Create(row).Error
	if err != nil {
		return errorutil.Persistence(err)
	}
	return nil
}
