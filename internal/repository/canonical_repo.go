package repository

import (
	"context"
	"time"

	"GridBridge/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CanonicalRepository 规范化半小时记录仓储
type CanonicalRepository interface {
	UpsertRecords(ctx context.Context, records []*model.CanonicalRecord) error
	ListRecords(ctx context.Context, filter RecordFilter, page, pageSize int) ([]*model.CanonicalRecord, int64, error)
	GetByTimestamp(ctx context.Context, ts time.Time) (*model.CanonicalRecord, error)
	CountRecords(ctx context.Context) (int64, error)
	TimeRange(ctx context.Context) (start, end *time.Time, err error)
}

// RecordFilter 记录列表筛选
type RecordFilter struct {
	FromTime *time.Time // 时间起
	ToTime   *time.Time // 时间止
}

type canonicalRepository struct {
	db *gorm.DB
}

func NewCanonicalRepository(db *gorm.DB) CanonicalRepository {
	return &canonicalRepository{db: db}
}

// UpsertRecords 按timestamp冲突更新（重复摄取同一区间幂等）
func (r *canonicalRepository) UpsertRecords(ctx context.Context, records []*model.CanonicalRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "timestamp"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"demand_mw", "wind_mw", "solar_mw", "gas_mw", "nuclear_mw",
			"coal_mw", "hydro_mw", "biomass_mw", "imports_mw",
			"carbon_intensity_gco2_kwh", "system_price_gbp_mwh", "extras", "updated_at",
		}),
	}).CreateInBatches(records, 500).Error
}

func (r *canonicalRepository) ListRecords(ctx context.Context, filter RecordFilter, page, pageSize int) ([]*model.CanonicalRecord, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 1000 {
		pageSize = 100
	}
	db := r.db.WithContext(ctx).Model(&model.CanonicalRecord{})
	if filter.FromTime != nil {
		db = db.Where("timestamp >= ?", *filter.FromTime)
	}
	if filter.ToTime != nil {
		db = db.Where("timestamp <= ?", *filter.ToTime)
	}
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []*model.CanonicalRecord
	if err := db.Order("timestamp ASC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *canonicalRepository) GetByTimestamp(ctx context.Context, ts time.Time) (*model.CanonicalRecord, error) {
	var rec model.CanonicalRecord
	if err := r.db.WithContext(ctx).Where("timestamp = ?", ts).First(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *canonicalRepository) CountRecords(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.CanonicalRecord{}).Count(&total).Error
	return total, err
}

func (r *canonicalRepository) TimeRange(ctx context.Context) (start, end *time.Time, err error) {
	type bounds struct {
		Min *time.Time
		Max *time.Time
	}
	var b bounds
	err = r.db.WithContext(ctx).Model(&model.CanonicalRecord{}).
		Select("MIN(timestamp) AS min, MAX(timestamp) AS max").Scan(&b).Error
	if err != nil {
		return nil, nil, err
	}
	return b.Min, b.Max, nil
}
