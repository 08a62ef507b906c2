package elexon

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

// Source Elexon Insights API（公开子集）：按燃料实测发电（FUELINST）、
// 国家需求（INDOD）、系统买卖价。入库管线的实测数据来源。
type Source struct {
	cfg    *config.SourceConfig
	client *httpclient.RestClient
	logger *logrus.Logger
	loc    *time.Location // Europe/London，结算日按本地日历
}

// NewSource 创建Elexon数据源
func NewSource(cfg *config.SourceConfig, logger *logrus.Logger) *Source {
	loc, err := time.LoadLocation("Europe/London")
	if err != nil {
		logger.WithError(err).Warn("加载Europe/London时区失败，改用UTC")
		loc = time.UTC
	}
	return &Source{
		cfg:    cfg,
		client: httpclient.NewRestClient(model.SourceElexon, cfg, logger),
		logger: logger,
		loc:    loc,
	}
}

// GetName ========== 实现GridSource接口 ==========
func (s *Source) GetName() string {
	return model.SourceElexon
}

// FetchLatest 拉取今日FUELINST（默认探活端点）
func (s *Source) FetchLatest(ctx context.Context) interfaces.FetchResult {
	today := time.Now().In(s.loc).Format("2006-01-02")
	data, err := s.client.GetJSON(ctx, "/datasets/FUELINST", map[string]string{
		"settlementDate": today,
		"format":         "json",
	})
	if err != nil {
		return interfaces.FetchResult{Source: s.GetName(), OK: false, Err: err.Error()}
	}
	return interfaces.FetchResult{Source: s.GetName(), OK: true, Data: data}
}

// SettlementPeriodTime 结算周期→UTC时间戳。
// SP 1=00:00-00:30（Europe/London本地时间），即第n期起点为本地0点+30*(n-1)分钟。
func (s *Source) SettlementPeriodTime(settlementDate string, period int) (time.Time, error) {
	day, err := time.ParseInLocation("2006-01-02", settlementDate, s.loc)
	if err != nil {
		return time.Time{}, err
	}
	return day.Add(time.Duration(period-1) * 30 * time.Minute).UTC(), nil
}

// decodeRows 兼容裸数组与{"data":[...]}两种响应形态
func (s *Source) decodeRows(data []byte) []model.ElexonRow {
	var rows []model.ElexonRow
	if err := json.Unmarshal(data, &rows); err == nil {
		return rows
	}
	var wrapped model.ElexonDatasetResponse
	if err := json.Unmarshal(data, &wrapped); err != nil {
		s.logger.WithError(err).Warn("解析Elexon响应失败，降级为空结果")
		return nil
	}
	return wrapped.Data
}

// GetGenerationByFuel 某结算日按燃料发电表：列为原始燃料代码，
// 同一(时间戳,燃料)多条5分钟瞬时值取均值。失败返回空表。
func (s *Source) GetGenerationByFuel(ctx context.Context, settlementDate string) *model.Table {
	data, err := s.client.GetJSON(ctx, "/datasets/FUELINST", map[string]string{
		"settlementDate": settlementDate,
		"format":         "json",
	})
	if err != nil {
		return model.NewTable()
	}
	rows := s.decodeRows(data)
	if len(rows) == 0 {
		return model.NewTable()
	}

	// 先按(时间戳,燃料)累计，再求均值展开成宽表
	type cell struct {
		sum   float64
		count int
	}
	byTS := make(map[int64]map[string]*cell)
	var order []int64
	for _, r := range rows {
		if r.FuelType == "" || r.Generation == nil {
			continue
		}
		sd := r.SettlementDate
		if sd == "" {
			sd = settlementDate
		}
		sp := r.SettlementPeriod
		if sp <= 0 {
			sp = 1
		}
		ts, err := s.SettlementPeriodTime(sd, sp)
		if err != nil {
			continue
		}
		key := ts.UnixNano()
		if _, ok := byTS[key]; !ok {
			byTS[key] = make(map[string]*cell)
			order = append(order, key)
		}
		c, ok := byTS[key][r.FuelType]
		if !ok {
			c = &cell{}
			byTS[key][r.FuelType] = c
		}
		c.sum += *r.Generation
		c.count++
	}

	table := model.NewTable()
	for _, key := range order {
		values := make(map[string]float64, len(byTS[key]))
		for fuel, c := range byTS[key] {
			values[fuel] = c.sum / float64(c.count)
		}
		table.AppendRow(time.Unix(0, key).UTC(), values)
	}
	table.SortByTime()
	return table
}

// GetDemand 某结算日国家需求表（列demand_mw）
func (s *Source) GetDemand(ctx context.Context, settlementDate string) *model.Table {
	data, err := s.client.GetJSON(ctx, "/datasets/INDOD", map[string]string{
		"settlementDate": settlementDate,
		"format":         "json",
	})
	if err != nil {
		return model.NewTable()
	}
	table := model.NewTable()
	for _, r := range s.decodeRows(data) {
		if r.Demand == nil {
			continue
		}
		sd := r.SettlementDate
		if sd == "" {
			sd = settlementDate
		}
		sp := r.SettlementPeriod
		if sp <= 0 {
			sp = 1
		}
		ts, err := s.SettlementPeriodTime(sd, sp)
		if err != nil {
			continue
		}
		table.AppendRow(ts, map[string]float64{model.ColDemandMW: *r.Demand})
	}
	table.SortByTime()
	return table
}

// GetSystemPrices 某结算日系统买卖价表（列system_buy_price/system_sell_price）
func (s *Source) GetSystemPrices(ctx context.Context, settlementDate string) *model.Table {
	data, err := s.client.GetJSON(ctx, "/balancing/settlement/system-prices", map[string]string{
		"settlementDate": settlementDate,
		"format":         "json",
	})
	if err != nil {
		return model.NewTable()
	}
	table := model.NewTable()
	for _, r := range s.decodeRows(data) {
		sd := r.SettlementDate
		if sd == "" {
			sd = settlementDate
		}
		sp := r.SettlementPeriod
		if sp <= 0 {
			sp = 1
		}
		ts, err := s.SettlementPeriodTime(sd, sp)
		if err != nil {
			continue
		}
		values := make(map[string]float64, 2)
		if r.SystemBuyPrice != nil {
			values["system_buy_price"] = *r.SystemBuyPrice
		}
		if r.SystemSellPrice != nil {
			values["system_sell_price"] = *r.SystemSellPrice
		}
		if len(values) == 0 {
			continue
		}
		table.AppendRow(ts, values)
	}
	table.SortByTime()
	return table
}
