package service

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"GridBridge/internal/model"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ComputeTableHash 规范化表的确定性哈希：CSV序列化后sha256取前16位hex。
// 同一数据内容（行序、列序、值）必得同一哈希。
func ComputeTableHash(t *model.Table) string {
	h := sha256.Sum256([]byte(t.ToCSV()))
	return hex.EncodeToString(h[:])[:16]
}

// NewRunID 生成摄取运行ID：r-<UTC时间戳>-<uuid前8位>
func NewRunID(now time.Time) string {
	return fmt.Sprintf("r-%s-%s", now.UTC().Format("20060102150405"), uuid.NewString()[:8])
}

// BuildAuditTrace 构造一次摄取运行的审计记录
func BuildAuditTrace(runID string, table *model.Table, sources map[string]model.SourceStat, metadata map[string]interface{}) *model.AuditTrace {
	now := time.Now().UTC()

	trace := &model.AuditTrace{
		RunID:        runID,
		TimestampUTC: now,
		DataHash:     ComputeTableHash(table),
		RowCount:     table.Len(),
	}

	if start, end, ok := table.TimeRange(); ok {
		trace.TimeStart = &start
		trace.TimeEnd = &end
	}

	trace.Columns = mustJSON(table.Columns())
	trace.DataSources = mustJSON(sources)
	trace.Completeness = mustJSON(table.Completeness())
	trace.Metadata = mustJSON(metadata)
	return trace
}

// mustJSON 入参都是自有类型，序列化不应失败；失败时落空对象
func mustJSON(v interface{}) datatypes.JSON {
	data, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON([]byte("{}"))
	}
	return datatypes.JSON(data)
}
