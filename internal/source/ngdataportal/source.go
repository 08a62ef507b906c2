package ngdataportal

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"GridBridge/internal/config"
	"GridBridge/internal/interfaces"
	"GridBridge/internal/model"
	"GridBridge/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

// Streams CKAN数据流名 → resource_id映射
var Streams = map[string]string{
	"demand-outturn":            "177f6fa4-ae49-4182-81ea-0c6b35f26ca6",
	"generation-mix":            "88313ae5-94e4-4ad7-9c78-79e7f5cc0906",
	"carbon-intensity-forecast": "7c0411cd-2714-4bb5-a408-571b56a80690",
	"embedded-wind-and-solar":   "db6c038f-98af-4570-ab60-24d71ebd0ae5",
	"system-frequency":          "9a203f38-6c70-4d4e-a4ed-d1bf64c2abb7",
	"demand-forecast":           "93c3048e-1dab-4057-a2a9-417540583929",
}

// Source National Grid ESO Data Portal（CKAN datastore API）数据源
type Source struct {
	cfg    *config.SourceConfig
	client *httpclient.RestClient
	logger *logrus.Logger
}

// NewSource 创建NG Data Portal数据源
func NewSource(cfg *config.SourceConfig, logger *logrus.Logger) interfaces.GridSource {
	return &Source{
		cfg:    cfg,
		client: httpclient.NewRestClient(model.SourceNGDataPortal, cfg, logger),
		logger: logger,
	}
}

// GetName ========== 实现GridSource接口 ==========
func (s *Source) GetName() string {
	return model.SourceNGDataPortal
}

// FetchLatest 默认拉取最近一天的需求实绩（48个结算周期）
func (s *Source) FetchLatest(ctx context.Context) interfaces.FetchResult {
	data, err := s.queryRaw(ctx, "demand-outturn", 48, nil, nil)
	if err != nil {
		return interfaces.FetchResult{Source: s.GetName(), OK: false, Err: err.Error()}
	}
	return interfaces.FetchResult{Source: s.GetName(), OK: true, Data: data}
}

// QueryStream 查询指定数据流；带时间范围时走datastore_search_sql做日期过滤
func (s *Source) QueryStream(ctx context.Context, stream string, limit int, start, end *time.Time) (*model.CKANSearchResponse, error) {
	data, err := s.queryRaw(ctx, stream, limit, start, end)
	if err != nil {
		return nil, err
	}
	var resp model.CKANSearchResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("解析CKAN响应失败: %w", err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("CKAN查询未成功: stream=%s", stream)
	}
	return &resp, nil
}

func (s *Source) queryRaw(ctx context.Context, stream string, limit int, start, end *time.Time) ([]byte, error) {
	resourceID, ok := Streams[stream]
	if !ok {
		return nil, fmt.Errorf("未知数据流: %s", stream)
	}

	if start != nil && end != nil {
		sql := fmt.Sprintf(
			`SELECT * FROM %q WHERE "DATETIME" BETWEEN '%s'::timestamp AND '%s'::timestamp ORDER BY "DATETIME" DESC LIMIT %d`,
			resourceID, start.Format("2006-01-02"), end.Format("2006-01-02"), limit,
		)
		return s.client.GetJSON(ctx, "/datastore_search_sql", map[string]string{"sql": sql})
	}

	return s.client.GetJSON(ctx, "/datastore_search", map[string]string{
		"resource_id": resourceID,
		"limit":       strconv.Itoa(limit),
	})
}

// GetEmbeddedGeneration ========== 实现EmbeddedSource接口 ==========
// 最新嵌入式风光估计；任何失败降级为零值
func (s *Source) GetEmbeddedGeneration(ctx context.Context) model.EmbeddedGeneration {
	resp, err := s.QueryStream(ctx, "embedded-wind-and-solar", 1, nil, nil)
	if err != nil {
		s.logger.WithError(err).Warn("获取嵌入式发电估计失败，降级为零值")
		return model.EmbeddedGeneration{}
	}
	if len(resp.Result.Records) == 0 {
		return model.EmbeddedGeneration{}
	}
	rec := resp.Result.Records[0]
	return model.EmbeddedGeneration{
		WindMW:  numericField(rec, "EMBEDDED_WIND_GENERATION"),
		SolarMW: numericField(rec, "EMBEDDED_SOLAR_GENERATION"),
	}
}

// GetDemandHistory 需求历史表（每天48个结算周期），时间升序
func (s *Source) GetDemandHistory(ctx context.Context, days int) *model.Table {
	if days <= 0 {
		days = 7
	}
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -days)

	resp, err := s.QueryStream(ctx, "demand-outturn", days*48, &start, &end)
	if err != nil {
		s.logger.WithError(err).Warn("获取需求历史失败，降级为空表")
		return model.NewTable()
	}

	table := model.NewTable()
	for _, rec := range resp.Result.Records {
		ts, ok := recordTime(rec)
		if !ok {
			continue
		}
		values := make(map[string]float64)
		// 保留所有数值字段，键统一小写便于下游做规范化
		keys := make([]string, 0, len(rec))
		for k := range rec {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if k == "DATETIME" || k == "_id" {
				continue
			}
			if v, ok := asFloat(rec[k]); ok {
				values[strings.ToLower(k)] = v
			}
		}
		table.AppendRow(ts, values)
	}
	table.DedupSort()
	return table
}

// recordTime 解析记录里的DATETIME字段
func recordTime(rec map[string]interface{}) (time.Time, bool) {
	raw, ok := rec["DATETIME"].(string)
	if !ok {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

// numericField 兼容CKAN返回数字或字符串两种类型
func numericField(rec map[string]interface{}, key string) float64 {
	v, _ := asFloat(rec[key])
	return v
}

func asFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
