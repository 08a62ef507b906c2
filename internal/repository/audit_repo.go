package repository

import (
	"context"

	"GridBridge/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AuditRepository 摄取运行审计仓储
type AuditRepository interface {
	CreateTrace(ctx context.Context, trace *model.AuditTrace) error
	GetTraceByRunID(ctx context.Context, runID string) (*model.AuditTrace, error)
	ListTraces(ctx context.Context, page, pageSize int) ([]*model.AuditTrace, int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

// CreateTrace run_id冲突时不覆盖（审计记录只追加）
func (r *auditRepository) CreateTrace(ctx context.Context, trace *model.AuditTrace) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "run_id"}},
		DoNothing: true,
	}).Create(trace).Error
}

func (r *auditRepository) GetTraceByRunID(ctx context.Context, runID string) (*model.AuditTrace, error) {
	var trace model.AuditTrace
	if err := r.db.WithContext(ctx).Where("run_id = ?", runID).First(&trace).Error; err != nil {
		return nil, err
	}
	return &trace, nil
}

func (r *auditRepository) ListTraces(ctx context.Context, page, pageSize int) ([]*model.AuditTrace, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	db := r.db.WithContext(ctx).Model(&model.AuditTrace{})
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []*model.AuditTrace
	if err := db.Order("timestamp_utc DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}
