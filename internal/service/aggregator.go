package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"GridBridge/internal/config"
	"GridBridge/internal/interfaces"
	"GridBridge/internal/model"
	"GridBridge/internal/source"

	"github.com/sirupsen/logrus"
)

// AggregatedSnapshot 全源聚合的电网状态快照
type AggregatedSnapshot struct {
	Timestamp time.Time `json:"timestamp"`

	Generation struct {
		TotalMW        float64            `json:"total_mw"`
		ByFuel         map[string]float64 `json:"by_fuel"`
		GeneratorCount int                `json:"generator_count"`
	} `json:"generation"`

	Demand struct {
		TotalMW         float64 `json:"total_mw"`
		EmbeddedWindMW  float64 `json:"embedded_wind_mw"`
		EmbeddedSolarMW float64 `json:"embedded_solar_mw"`
	} `json:"demand"`

	Interconnectors struct {
		NetImportsMW float64            `json:"net_imports_mw"`
		ByCountry    map[string]float64 `json:"by_country"`
	} `json:"interconnectors"`

	Carbon struct {
		IntensityGCO2KWh float64 `json:"intensity_gco2_kwh"`
		Index            string  `json:"index"`
	} `json:"carbon"`

	Markets struct {
		ETSPriceEUR   *float64 `json:"ets_price_eur"`
		AgilePriceGBP *float64 `json:"agile_price_gbp"`
	} `json:"markets"`

	CfD struct {
		TotalCapacityMW float64 `json:"total_capacity_mw"`
		ProjectCount    int     `json:"project_count"`
	} `json:"cfd"`

	Balancing struct {
		BidsMW   float64 `json:"bids_mw"`
		OffersMW float64 `json:"offers_mw"`
	} `json:"balancing"`
}

// FlexibilityOpportunity 灵活性机会建议
type FlexibilityOpportunity struct {
	Type       string  `json:"type"`
	Action     string  `json:"action"` // INCREASE_LOAD/REDUCE_LOAD/OFFER_DSR/CHARGE_STORAGE
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"`
}

// PriceCorrelation 碳价-电价-碳强度关联视图
type PriceCorrelation struct {
	Current struct {
		CarbonIntensity float64  `json:"carbon_intensity"`
		ETSPriceEUR     *float64 `json:"ets_price_eur"`
		AgilePriceGBP   *float64 `json:"agile_price_gbp"`
	} `json:"current"`
	AgileRateCount int    `json:"agile_rate_count"`
	ETSHistoryDays int    `json:"ets_history_days"`
	Insight        string `json:"insight"`
}

// CfDTechStats 单技术类型的合同统计
type CfDTechStats struct {
	Count     int     `json:"count"`
	TotalMW   float64 `json:"total_mw"`
	AvgStrike float64 `json:"avg_strike"`
}

// CfDAnalysis CfD合同组合分析
type CfDAnalysis struct {
	ByTechnology      map[string]CfDTechStats `json:"by_technology"`
	ByAllocationRound map[string]float64      `json:"by_allocation_round"`
	Totals            struct {
		Projects       int     `json:"projects"`
		CapacityMW     float64 `json:"capacity_mw"`
		AvgStrikePrice float64 `json:"avg_strike_price"`
		MinStrikePrice float64 `json:"min_strike_price"`
		MaxStrikePrice float64 `json:"max_strike_price"`
	} `json:"totals"`
}

// MultiSourceAggregator 多源聚合器：把注册表里的各数据源汇成统一视图。
// 快照带单槽TTL缓存，TTL内重复调用返回同一个指针。
type MultiSourceAggregator struct {
	registry *source.SourceRegistry
	cfg      *config.Config
	logger   *logrus.Logger

	mu       sync.Mutex
	cachedAt time.Time
	cached   *AggregatedSnapshot
	ttl      time.Duration
	now      func() time.Time // 测试注入
}

// NewMultiSourceAggregator 创建聚合器
func NewMultiSourceAggregator(registry *source.SourceRegistry, cfg *config.Config, logger *logrus.Logger) *MultiSourceAggregator {
	return &MultiSourceAggregator{
		registry: registry,
		cfg:      cfg,
		logger:   logger,
		ttl:      cfg.Aggregator.SnapshotTTL,
		now:      time.Now,
	}
}

// GetSnapshot 获取聚合快照。useCache为true且TTL未过期时直接返回缓存
func (a *MultiSourceAggregator) GetSnapshot(ctx context.Context, useCache bool) *AggregatedSnapshot {
	now := a.now().UTC()

	a.mu.Lock()
	if useCache && a.cached != nil && now.Sub(a.cachedAt) < a.ttl {
		cached := a.cached
		a.mu.Unlock()
		return cached
	}
	a.mu.Unlock()

	snapshot := a.buildSnapshot(ctx, now)

	a.mu.Lock()
	a.cached = snapshot
	a.cachedAt = now
	a.mu.Unlock()
	return snapshot
}

// buildSnapshot 逐源取数并聚合；任何数据源缺失都按零值/空值兜底
func (a *MultiSourceAggregator) buildSnapshot(ctx context.Context, now time.Time) *AggregatedSnapshot {
	s := &AggregatedSnapshot{Timestamp: now}
	s.Generation.ByFuel = map[string]float64{}
	s.Interconnectors.ByCountry = map[string]float64{}

	// ========== Kilowatts Grid：发电与平衡 ==========
	var totalGen, netImports float64
	if gen, ok := a.generatorSource(); ok {
		generators := gen.GetGenerators(ctx)
		totals := gen.GetTotalsByFuel(ctx)
		balancing := gen.GetBalancingTotals(ctx)
		interconnectors := gen.GetInterconnectors(ctx)

		for fuel, mw := range totals {
			totalGen += mw
			s.Generation.ByFuel[fuel] = round1(mw)
		}
		s.Generation.GeneratorCount = len(generators)

		for _, ic := range interconnectors {
			netImports += ic.FlowMW
			s.Interconnectors.ByCountry[ic.CountryCode] += ic.FlowMW
		}
		for cc, mw := range s.Interconnectors.ByCountry {
			s.Interconnectors.ByCountry[cc] = round1(mw)
		}

		s.Balancing.BidsMW = round1(balancing.BidsMW)
		s.Balancing.OffersMW = round1(balancing.OffersMW)
	}
	s.Generation.TotalMW = round1(totalGen)
	s.Interconnectors.NetImportsMW = round1(netImports)

	// ========== NG Data Portal：嵌入式发电 ==========
	if emb, ok := a.embeddedSource(); ok {
		e := emb.GetEmbeddedGeneration(ctx)
		s.Demand.EmbeddedWindMW = round1(e.WindMW)
		s.Demand.EmbeddedSolarMW = round1(e.SolarMW)
	}

	// 需求 = 发电 + 净进口
	s.Demand.TotalMW = round1(totalGen + netImports)

	// ========== 碳强度 ==========
	s.Carbon.Index = "unknown"
	if ci, ok := a.intensitySource(); ok {
		reading := ci.GetCurrentIntensity(ctx)
		s.Carbon.IntensityGCO2KWh = round1(reading.Forecast)
		if reading.Index != "" {
			s.Carbon.Index = reading.Index
		}
	}

	// ========== 市场价格 ==========
	if ets, ok := a.carbonMarketSource(); ok {
		if price := ets.GetCarbonPrice(ctx); price != nil {
			v := round2(price.Price)
			s.Markets.ETSPriceEUR = &v
		}
	}
	if tariff, ok := a.tariffSource(); ok {
		if price, found := tariff.GetCurrentAgilePrice(ctx, a.agileRegion()); found {
			v := round2(price)
			s.Markets.AgilePriceGBP = &v
		}
	}

	// ========== CfD ==========
	if cfd, ok := a.contractSource(); ok {
		contracts := cfd.GetContracts(ctx)
		var capacity float64
		for _, c := range contracts {
			capacity += c.CapacityMW
		}
		s.CfD.TotalCapacityMW = round1(capacity)
		s.CfD.ProjectCount = len(contracts)
	}

	a.logger.WithFields(logrus.Fields{
		"total_generation_mw": s.Generation.TotalMW,
		"total_demand_mw":     s.Demand.TotalMW,
		"carbon_index":        s.Carbon.Index,
	}).Info("聚合快照构建完成")
	return s
}

// GetPriceCorrelation 碳价、零售电价与碳强度的关联视图
func (a *MultiSourceAggregator) GetPriceCorrelation(ctx context.Context) *PriceCorrelation {
	snapshot := a.GetSnapshot(ctx, true)

	out := &PriceCorrelation{}
	out.Current.CarbonIntensity = snapshot.Carbon.IntensityGCO2KWh
	out.Current.ETSPriceEUR = snapshot.Markets.ETSPriceEUR
	out.Current.AgilePriceGBP = snapshot.Markets.AgilePriceGBP

	if tariff, ok := a.tariffSource(); ok {
		out.AgileRateCount = tariff.GetAgileRates(ctx, a.agileRegion()).Len()
	}
	if ets, ok := a.carbonMarketSource(); ok {
		out.ETSHistoryDays = ets.GetPriceHistory(ctx).Len()
	}
	out.Insight = priceInsight(snapshot)
	return out
}

// priceInsight 当前市场状态的文字洞察
func priceInsight(s *AggregatedSnapshot) string {
	var insights []string

	switch s.Carbon.Index {
	case "very low":
		insights = append(insights, "Grid is very clean - good time for flexible loads")
	case "very high":
		insights = append(insights, "High carbon period - consider load shifting")
	}

	if s.Markets.AgilePriceGBP != nil {
		switch {
		case *s.Markets.AgilePriceGBP < 10:
			insights = append(insights, fmt.Sprintf("Agile price low at %vp/kWh", *s.Markets.AgilePriceGBP))
		case *s.Markets.AgilePriceGBP > 30:
			insights = append(insights, fmt.Sprintf("Agile price elevated at %vp/kWh", *s.Markets.AgilePriceGBP))
		}
	}

	windPct := s.Generation.ByFuel["wind"] / math.Max(s.Generation.TotalMW, 1) * 100
	if windPct > 40 {
		insights = append(insights, fmt.Sprintf("High wind generation (%.0f%% of mix)", windPct))
	}

	if len(insights) == 0 {
		return "Normal grid conditions"
	}
	out := insights[0]
	for _, in := range insights[1:] {
		out += " | " + in
	}
	return out
}

// GetCfDAnalysis CfD合同组合分析
func (a *MultiSourceAggregator) GetCfDAnalysis(ctx context.Context) (*CfDAnalysis, error) {
	cfd, ok := a.contractSource()
	if !ok {
		return nil, fmt.Errorf("数据源%s不可用", model.SourceCfDWatch)
	}

	byTech := cfd.GetContractsByTechnology(ctx)
	byRound := cfd.GetCapacityByRound(ctx)
	all := cfd.GetContracts(ctx)

	out := &CfDAnalysis{
		ByTechnology:      make(map[string]CfDTechStats, len(byTech)),
		ByAllocationRound: byRound,
	}

	for tech, contracts := range byTech {
		stats := CfDTechStats{Count: len(contracts)}
		var strikeSum float64
		var strikeN int
		for _, c := range contracts {
			stats.TotalMW += c.CapacityMW
			if c.StrikePrice > 0 {
				strikeSum += c.StrikePrice
				strikeN++
			}
		}
		if strikeN > 0 {
			stats.AvgStrike = strikeSum / float64(strikeN)
		}
		out.ByTechnology[tech] = stats
	}

	var strikes []float64
	for _, c := range all {
		out.Totals.CapacityMW += c.CapacityMW
		if c.StrikePrice > 0 {
			strikes = append(strikes, c.StrikePrice)
		}
	}
	out.Totals.Projects = len(all)
	if len(strikes) > 0 {
		sum, min, max := 0.0, strikes[0], strikes[0]
		for _, p := range strikes {
			sum += p
			if p < min {
				min = p
			}
			if p > max {
				max = p
			}
		}
		out.Totals.AvgStrikePrice = sum / float64(len(strikes))
		out.Totals.MinStrikePrice = min
		out.Totals.MaxStrikePrice = max
	}
	return out, nil
}

// GetFlexibilityOpportunities 依据当前电网状态识别灵活性机会，按置信度降序
func (a *MultiSourceAggregator) GetFlexibilityOpportunities(ctx context.Context) []FlexibilityOpportunity {
	s := a.GetSnapshot(ctx, true)
	var opportunities []FlexibilityOpportunity

	// 低碳时段鼓励用电
	if s.Carbon.Index == "very low" || s.Carbon.Index == "low" {
		confidence := 0.7
		if s.Carbon.Index == "very low" {
			confidence = 0.9
		}
		opportunities = append(opportunities, FlexibilityOpportunity{
			Type:       "carbon_optimized",
			Action:     "INCREASE_LOAD",
			Reason:     fmt.Sprintf("Low carbon intensity (%v gCO2/kWh)", s.Carbon.IntensityGCO2KWh),
			Confidence: confidence,
		})
	}

	// 大风天通常批发电价低
	if windMW := s.Generation.ByFuel["wind"]; windMW > 10000 {
		opportunities = append(opportunities, FlexibilityOpportunity{
			Type:       "price_optimized",
			Action:     "INCREASE_LOAD",
			Reason:     fmt.Sprintf("High wind generation (%.0f MW)", windMW),
			Confidence: 0.75,
		})
	}

	// 高燃气依赖说明系统偏紧
	if gasMW := s.Generation.ByFuel["gas"]; gasMW > 15000 {
		opportunities = append(opportunities, FlexibilityOpportunity{
			Type:       "system_support",
			Action:     "REDUCE_LOAD",
			Reason:     fmt.Sprintf("High gas dependency (%.0f MW)", gasMW),
			Confidence: 0.65,
		})
	}

	// 平衡市场报量机会
	if s.Balancing.BidsMW > 1000 {
		opportunities = append(opportunities, FlexibilityOpportunity{
			Type:       "balancing_service",
			Action:     "OFFER_DSR",
			Reason:     fmt.Sprintf("High bid volume (%.0f MW)", s.Balancing.BidsMW),
			Confidence: 0.6,
		})
	}

	// 极低电价充储能
	if s.Markets.AgilePriceGBP != nil && *s.Markets.AgilePriceGBP < 5 {
		opportunities = append(opportunities, FlexibilityOpportunity{
			Type:       "cost_saving",
			Action:     "CHARGE_STORAGE",
			Reason:     fmt.Sprintf("Very low Agile price (%.1fp/kWh)", *s.Markets.AgilePriceGBP),
			Confidence: 0.85,
		})
	}

	// 稳定排序：同置信度保持加入顺序
	sort.SliceStable(opportunities, func(i, j int) bool {
		return opportunities[i].Confidence > opportunities[j].Confidence
	})
	return opportunities
}

// ========== 类型化数据源查找 ==========

func (a *MultiSourceAggregator) generatorSource() (interfaces.GeneratorSource, bool) {
	src, err := a.registry.Get(model.SourceKilowattsGrid)
	if err != nil {
		return nil, false
	}
	gen, ok := src.(interfaces.GeneratorSource)
	return gen, ok
}

func (a *MultiSourceAggregator) embeddedSource() (interfaces.EmbeddedSource, bool) {
	src, err := a.registry.Get(model.SourceNGDataPortal)
	if err != nil {
		return nil, false
	}
	emb, ok := src.(interfaces.EmbeddedSource)
	return emb, ok
}

func (a *MultiSourceAggregator) intensitySource() (interfaces.IntensitySource, bool) {
	src, err := a.registry.Get(model.SourceCarbonIntensity)
	if err != nil {
		return nil, false
	}
	ci, ok := src.(interfaces.IntensitySource)
	return ci, ok
}

func (a *MultiSourceAggregator) contractSource() (interfaces.ContractSource, bool) {
	src, err := a.registry.Get(model.SourceCfDWatch)
	if err != nil {
		return nil, false
	}
	cfd, ok := src.(interfaces.ContractSource)
	return cfd, ok
}

func (a *MultiSourceAggregator) tariffSource() (interfaces.TariffSource, bool) {
	src, err := a.registry.Get(model.SourceOctopus)
	if err != nil {
		return nil, false
	}
	tariff, ok := src.(interfaces.TariffSource)
	return tariff, ok
}

func (a *MultiSourceAggregator) carbonMarketSource() (interfaces.CarbonMarketSource, bool) {
	src, err := a.registry.Get(model.SourceETSWatch)
	if err != nil {
		return nil, false
	}
	ets, ok := src.(interfaces.CarbonMarketSource)
	return ets, ok
}

func (a *MultiSourceAggregator) agileRegion() string {
	if cfg, ok := a.cfg.Sources[model.SourceOctopus]; ok && cfg.DefaultRegion != "" {
		return cfg.DefaultRegion
	}
	return "C"
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
