package kilowatts

import (
	"context"
	"encoding/json"
	"strings"

	"GridBridge/internal/config"
	"GridBridge/internal/interfaces"
	"GridBridge/internal/model"
	"GridBridge/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

// Source Kilowatts Grid：GB机组实时出力CDN feed（含坐标、平衡报量）。
// 实时数据，缓存TTL建议60s。
type Source struct {
	cfg    *config.SourceConfig
	client *httpclient.RestClient
	logger *logrus.Logger
}

// NewSource 创建Kilowatts Grid数据源
func NewSource(cfg *config.SourceConfig, logger *logrus.Logger) interfaces.GridSource {
	return &Source{
		cfg:    cfg,
		client: httpclient.NewRestClient(model.SourceKilowattsGrid, cfg, logger),
		logger: logger,
	}
}

// GetName ========== 实现GridSource接口 ==========
func (s *Source) GetName() string {
	return model.SourceKilowattsGrid
}

// FetchLatest 拉取GB汇总feed
func (s *Source) FetchLatest(ctx context.Context) interfaces.FetchResult {
	data, err := s.client.GetJSON(ctx, "/gb/summary_output.json", nil)
	if err != nil {
		return interfaces.FetchResult{Source: s.GetName(), OK: false, Err: err.Error()}
	}
	return interfaces.FetchResult{Source: s.GetName(), OK: true, Data: data}
}

// fetchSummary 拉取并解码汇总payload（失败返回nil，调用方降级为空）
func (s *Source) fetchSummary(ctx context.Context) *model.KwSummaryOutput {
	res := s.FetchLatest(ctx)
	if !res.OK {
		return nil
	}
	var summary model.KwSummaryOutput
	if err := json.Unmarshal(res.Data, &summary); err != nil {
		s.logger.WithError(err).Warn("解析Kilowatts汇总feed失败，降级为空结果")
		return nil
	}
	return &summary
}

// GetGenerators 全部机组（含坐标与实时出力）；拉取失败返回空列表
func (s *Source) GetGenerators(ctx context.Context) []*model.Generator {
	summary := s.fetchSummary(ctx)
	if summary == nil {
		return []*model.Generator{}
	}

	generators := make([]*model.Generator, 0, len(summary.Generators))
	for _, g := range summary.Generators {
		generators = append(generators, &model.Generator{
			ID:         g.Code,
			Name:       g.Name,
			FuelType:   model.ParseFuelType(g.FuelType),
			Coords:     model.Coords{Lat: g.Coords.Lat, Lng: g.Coords.Lng},
			CapacityMW: g.Cp,
			OutputMW:   g.Ac,
			BidsMW:     g.Bids,
			OffersMW:   g.Offers,
		})
	}
	return generators
}

// GetInterconnectors 互联线流量（正=进口到GB，负=出口）
func (s *Source) GetInterconnectors(ctx context.Context) []*model.Interconnector {
	summary := s.fetchSummary(ctx)
	if summary == nil {
		return []*model.Interconnector{}
	}

	var interconnectors []*model.Interconnector
	for _, market := range summary.ForeignMarkets {
		country := strings.ToUpper(market.Code)
		for _, ic := range market.Interconnectors {
			interconnectors = append(interconnectors, &model.Interconnector{
				ID:          ic.Code,
				Name:        ic.Name,
				CountryCode: country,
				Coords:      model.Coords{Lat: market.Coords.Lat, Lng: market.Coords.Lng},
				CapacityMW:  ic.Cp,
				FlowMW:      ic.Ac,
			})
		}
	}
	return interconnectors
}

// GetTotalsByFuel 按燃料汇总出力（键为feed原始燃料代码）
func (s *Source) GetTotalsByFuel(ctx context.Context) map[string]float64 {
	summary := s.fetchSummary(ctx)
	if summary == nil {
		return map[string]float64{}
	}
	totals := make(map[string]float64, len(summary.Totals))
	for _, t := range summary.Totals {
		code := t.Code
		if code == "" {
			code = "unknown"
		}
		totals[code] = t.Ac
	}
	return totals
}

// GetBalancingTotals 平衡市场总报量（失败返回零值）
func (s *Source) GetBalancingTotals(ctx context.Context) model.BalancingTotals {
	summary := s.fetchSummary(ctx)
	if summary == nil {
		return model.BalancingTotals{}
	}
	return model.BalancingTotals{
		BidsMW:   summary.BalancingTotals.Bids,
		OffersMW: summary.BalancingTotals.Offers,
	}
}
