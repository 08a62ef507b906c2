package octopus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"GridBridge/internal/config"
	"GridBridge/internal/interfaces"
	"GridBridge/internal/model"
	"GridBridge/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

// Source Octopus Energy API：产品与Agile动态电价（p/kWh，半小时粒度）
type Source struct {
	cfg    *config.SourceConfig
	client *httpclient.RestClient
	logger *logrus.Logger
	now    func() time.Time
}

// NewSource 创建Octopus数据源
func NewSource(cfg *config.SourceConfig, logger *logrus.Logger) interfaces.GridSource {
	return &Source{
		cfg:    cfg,
		client: httpclient.NewRestClient(model.SourceOctopus, cfg, logger),
		logger: logger,
		now:    time.Now,
	}
}

// GetName ========== 实现GridSource接口 ==========
func (s *Source) GetName() string {
	return model.SourceOctopus
}

// FetchLatest 拉取可用产品列表
func (s *Source) FetchLatest(ctx context.Context) interfaces.FetchResult {
	data, err := s.client.GetJSON(ctx, "/v1/products/", nil)
	if err != nil {
		return interfaces.FetchResult{Source: s.GetName(), OK: false, Err: err.Error()}
	}
	return interfaces.FetchResult{Source: s.GetName(), OK: true, Data: data}
}

// GetProducts 可用产品（失败返回空列表）
func (s *Source) GetProducts(ctx context.Context) []model.OctopusProduct {
	res := s.FetchLatest(ctx)
	if !res.OK {
		return []model.OctopusProduct{}
	}
	var resp model.OctopusProductsResponse
	if err := json.Unmarshal(res.Data, &resp); err != nil {
		s.logger.WithError(err).Warn("解析Octopus产品列表失败")
		return []model.OctopusProduct{}
	}
	return resp.Results
}

// GetAgileRates 某DNO区域（A-P）的Agile费率表：
// 时间戳为valid_from，列value_inc_vat。失败返回空表。
func (s *Source) GetAgileRates(ctx context.Context, region string) *model.Table {
	product := s.cfg.AgileProduct
	if product == "" {
		product = "AGILE-24-10-01"
	}
	if region == "" {
		region = s.defaultRegion()
	}
	tariff := fmt.Sprintf("E-1R-%s-%s", product, region)
	endpoint := fmt.Sprintf("/v1/products/%s/electricity-tariffs/%s/standard-unit-rates/", product, tariff)

	data, err := s.client.GetJSON(ctx, endpoint, map[string]string{"page_size": "200"})
	if err != nil {
		return model.NewTable()
	}
	var resp model.OctopusRatesResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		s.logger.WithError(err).Warn("解析Agile费率失败")
		return model.NewTable()
	}

	table := model.NewTable()
	for _, rate := range resp.Results {
		ts, err := time.Parse(time.RFC3339, rate.ValidFrom)
		if err != nil {
			continue
		}
		table.AppendRow(ts, map[string]float64{"value_inc_vat": rate.ValueIncVAT})
	}
	table.SortByTime()
	return table
}

// GetCurrentAgilePrice 当前时段的Agile价格：取valid_from不晚于当前时刻的最后一条
func (s *Source) GetCurrentAgilePrice(ctx context.Context, region string) (float64, bool) {
	return currentRateAt(s.GetAgileRates(ctx, region), s.now().UTC())
}

// currentRateAt 费率表（按时间升序）中valid_from不晚于now的最后一条
func currentRateAt(rates *model.Table, now time.Time) (float64, bool) {
	price, found := 0.0, false
	for i, row := range rates.Rows() {
		if row.Timestamp.After(now) {
			break
		}
		if v, ok := rates.Value(i, "value_inc_vat"); ok {
			price, found = v, true
		}
	}
	return price, found
}

func (s *Source) defaultRegion() string {
	if s.cfg.DefaultRegion != "" {
		return s.cfg.DefaultRegion
	}
	return "C"
}
