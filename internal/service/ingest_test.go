package service

import (
	"context"
	"testing"
	"time"

	"GridBridge/internal/config"
	"GridBridge/internal/model"
	"GridBridge/internal/repository"
	"GridBridge/internal/source"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ========== 内存仓储桩 ==========

type memCanonicalRepo struct {
	records []*model.CanonicalRecord
}

func (m *memCanonicalRepo) UpsertRecords(ctx context.Context, records []*model.CanonicalRecord) error {
	m.records = append(m.records, records...)
	return nil
}
func (m *memCanonicalRepo) ListRecords(ctx context.Context, filter repository.RecordFilter, page, pageSize int) ([]*model.CanonicalRecord, int64, error) {
	return m.records, int64(len(m.records)), nil
}
func (m *memCanonicalRepo) GetByTimestamp(ctx context.Context, ts time.Time) (*model.CanonicalRecord, error) {
	return nil, nil
}
func (m *memCanonicalRepo) CountRecords(ctx context.Context) (int64, error) {
	return int64(len(m.records)), nil
}
func (m *memCanonicalRepo) TimeRange(ctx context.Context) (*time.Time, *time.Time, error) {
	return nil, nil, nil
}

type memAuditRepo struct {
	traces []*model.AuditTrace
}

func (m *memAuditRepo) CreateTrace(ctx context.Context, trace *model.AuditTrace) error {
	m.traces = append(m.traces, trace)
	return nil
}
func (m *memAuditRepo) GetTraceByRunID(ctx context.Context, runID string) (*model.AuditTrace, error) {
	return nil, nil
}
func (m *memAuditRepo) ListTraces(ctx context.Context, page, pageSize int) ([]*model.AuditTrace, int64, error) {
	return m.traces, int64(len(m.traces)), nil
}

func newTestIngest(synthetic bool) (*IngestService, *memCanonicalRepo, *memAuditRepo) {
	cfg := &config.Config{
		Ingest:  config.IngestConfig{DefaultDays: 1, SyntheticFallback: synthetic},
		Sources: map[string]config.SourceConfig{},
	}
	registry := source.NewSourceRegistry(cfg, testLogger())
	canonicalRepo := &memCanonicalRepo{}
	auditRepo := &memAuditRepo{}
	svc := NewIngestService(cfg, registry, canonicalRepo, auditRepo, testLogger())
	return svc, canonicalRepo, auditRepo
}

func TestIngestSyntheticFallback(t *testing.T) {
	svc, canonicalRepo, auditRepo := newTestIngest(true)

	start := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	result, err := svc.Run(context.Background(), start, 1)
	require.NoError(t, err)

	assert.True(t, result.Synthetic)
	// 一天48个半小时周期
	assert.Equal(t, 48, result.RowCount)
	assert.Len(t, canonicalRepo.records, 48)
	require.Len(t, auditRepo.traces, 1)
	assert.Equal(t, result.RunID, auditRepo.traces[0].RunID)
	assert.Len(t, result.DataHash, 16)

	// 合成需求曲线落在合理区间
	for _, rec := range canonicalRepo.records {
		require.NotNil(t, rec.DemandMW)
		assert.InDelta(t, 25000, *rec.DemandMW, 5001)
	}
}

func TestIngestNoDataWithoutFallback(t *testing.T) {
	svc, canonicalRepo, auditRepo := newTestIngest(false)

	start := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	result, err := svc.Run(context.Background(), start, 1)
	require.NoError(t, err)

	assert.False(t, result.Synthetic)
	assert.Equal(t, 0, result.RowCount)
	assert.Empty(t, canonicalRepo.records)
	// 空运行也写审计
	require.Len(t, auditRepo.traces, 1)
	assert.Equal(t, 0, auditRepo.traces[0].RowCount)
}

func TestSyntheticTableShape(t *testing.T) {
	start := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	table := syntheticTable(start, start.AddDate(0, 0, 1))

	assert.Equal(t, 48, table.Len())
	assert.Equal(t, model.StandardColumns(), table.Columns()[:11])
	// 光伏钳制到非负
	for i := 0; i < table.Len(); i++ {
		if v, ok := table.Value(i, model.ColSolarMW); ok {
			assert.GreaterOrEqual(t, v, 0.0)
		}
	}
	// 夜间没有负需求
	v, ok := table.Value(0, model.ColDemandMW)
	require.True(t, ok)
	assert.Greater(t, v, 0.0)
}
