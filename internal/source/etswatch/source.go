package etswatch

import (
	"context"
	"encoding/json"
	"time"

	"GridBridge/internal/config"
	"GridBridge/internal/interfaces"
	"GridBridge/internal/model"
	"GridBridge/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

// Source ETS Watch：EU碳市场价格序列（并行数组OHLCV，-99999为空值哨兵）。
// 日级数据，缓存TTL建议1小时。
type Source struct {
	cfg    *config.SourceConfig
	client *httpclient.RestClient
	logger *logrus.Logger
}

// NewSource 创建ETS Watch数据源
func NewSource(cfg *config.SourceConfig, logger *logrus.Logger) interfaces.GridSource {
	return &Source{
		cfg:    cfg,
		client: httpclient.NewRestClient(model.SourceETSWatch, cfg, logger),
		logger: logger,
	}
}

// GetName ========== 实现GridSource接口 ==========
func (s *Source) GetName() string {
	return model.SourceETSWatch
}

// FetchLatest 拉取碳市场序列
func (s *Source) FetchLatest(ctx context.Context) interfaces.FetchResult {
	data, err := s.client.GetJSON(ctx, "/data/ets_mkt.json", nil)
	if err != nil {
		return interfaces.FetchResult{Source: s.GetName(), OK: false, Err: err.Error()}
	}
	return interfaces.FetchResult{Source: s.GetName(), OK: true, Data: data}
}

func (s *Source) fetchMarket(ctx context.Context) *model.ETSMarketData {
	res := s.FetchLatest(ctx)
	if !res.OK {
		return nil
	}
	var market model.ETSMarketData
	if err := json.Unmarshal(res.Data, &market); err != nil {
		s.logger.WithError(err).Warn("解析ETS市场序列失败，降级为空结果")
		return nil
	}
	return &market
}

// GetCarbonPrice 最新非空碳价（倒序找第一个有效close）；无数据返回nil
func (s *Source) GetCarbonPrice(ctx context.Context) *model.MarketPrice {
	market := s.fetchMarket(ctx)
	if market == nil || len(market.Datetime) == 0 || len(market.Close) == 0 {
		return nil
	}
	for i := len(market.Close) - 1; i >= 0; i-- {
		v := sanitize(market.Close[i])
		if v == nil || i >= len(market.Datetime) {
			continue
		}
		ts, err := parseETSTime(market.Datetime[i])
		if err != nil {
			continue
		}
		return &model.MarketPrice{
			Timestamp: ts,
			Price:     *v,
			Currency:  "EUR",
			Market:    "EU-ETS",
			Unit:      "EUR/tonne CO2",
		}
	}
	return nil
}

// GetPriceHistory 完整OHLCV历史表（哨兵值转为真正的空值）
func (s *Source) GetPriceHistory(ctx context.Context) *model.Table {
	market := s.fetchMarket(ctx)
	if market == nil {
		return model.NewTable()
	}

	table := model.NewTable("open", "high", "low", "close", "volume")
	for i, raw := range market.Datetime {
		ts, err := parseETSTime(raw)
		if err != nil {
			continue
		}
		values := make(map[string]float64, 5)
		put := func(col string, series []*float64) {
			if i < len(series) {
				if v := sanitize(series[i]); v != nil {
					values[col] = *v
				}
			}
		}
		put("open", market.Open)
		put("high", market.High)
		put("low", market.Low)
		put("close", market.Close)
		put("volume", market.Volume)
		table.AppendRow(ts, values)
	}
	table.DedupSort()
	return table
}

// sanitize -99999哨兵→空值
func sanitize(v *float64) *float64 {
	if v == nil || *v == model.ETSNullSentinel {
		return nil
	}
	return v
}

// parseETSTime 序列时间兼容ISO与纯日期两种格式
func parseETSTime(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), nil
		}
	}
	_, err := time.Parse(time.RFC3339, raw)
	return time.Time{}, err
}
