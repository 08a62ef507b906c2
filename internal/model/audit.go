package model

import (
	"time"

	"gorm.io/datatypes"
)

// AuditTrace 每次入库运行的审计记录（规范化表哈希+来源溯源元数据）
type AuditTrace struct {
	ID           uint64         `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	RunID        string         `gorm:"column:run_id;type:varchar(64);uniqueIndex;not null" json:"run_id"`
	TimestampUTC time.Time      `gorm:"column:timestamp_utc;type:timestamptz;not null" json:"timestamp_utc"`
	DataHash     string         `gorm:"column:data_hash;type:varchar(16);not null" json:"data_hash"` // sha256(CSV)前16位hex
	RowCount     int            `gorm:"column:row_count;not null" json:"row_count"`
	TimeStart    *time.Time     `gorm:"column:time_start;type:timestamptz" json:"time_start"`
	TimeEnd      *time.Time     `gorm:"column:time_end;type:timestamptz" json:"time_end"`
	Columns      datatypes.JSON `gorm:"column:columns" json:"columns"`           // 列名列表
	DataSources  datatypes.JSON `gorm:"column:data_sources" json:"data_sources"` // 各来源行数与地址
	Completeness datatypes.JSON `gorm:"column:completeness" json:"completeness"` // 每列非空占比
	Metadata     datatypes.JSON `gorm:"column:metadata" json:"metadata"`         // 运行参数等
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime" json:"-"`
}

func (AuditTrace) TableName() string { return "audit_traces" }

// SourceStat 单个数据源的拉取统计（审计溯源用）
type SourceStat struct {
	Rows   int    `json:"rows"`
	Source string `json:"source"`
}
