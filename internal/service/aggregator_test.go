package service

import (
	"context"
	"testing"
	"time"

	"GridBridge/internal/config"
	"GridBridge/internal/interfaces"
	"GridBridge/internal/model"
	"GridBridge/internal/source"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ========== 测试桩数据源 ==========

type stubGeneratorSource struct {
	totals     map[string]float64
	balancing  model.BalancingTotals
	flows      []*model.Interconnector
	generators []*model.Generator
	calls      int
}

func (s *stubGeneratorSource) GetName() string { return model.SourceKilowattsGrid }
func (s *stubGeneratorSource) FetchLatest(ctx context.Context) interfaces.FetchResult {
	return interfaces.FetchResult{Source: s.GetName(), OK: true}
}
func (s *stubGeneratorSource) GetGenerators(ctx context.Context) []*model.Generator {
	return s.generators
}
func (s *stubGeneratorSource) GetInterconnectors(ctx context.Context) []*model.Interconnector {
	return s.flows
}
func (s *stubGeneratorSource) GetTotalsByFuel(ctx context.Context) map[string]float64 {
	s.calls++
	return s.totals
}
func (s *stubGeneratorSource) GetBalancingTotals(ctx context.Context) model.BalancingTotals {
	return s.balancing
}

type stubIntensitySource struct {
	reading model.IntensityReading
}

func (s *stubIntensitySource) GetName() string { return model.SourceCarbonIntensity }
func (s *stubIntensitySource) FetchLatest(ctx context.Context) interfaces.FetchResult {
	return interfaces.FetchResult{Source: s.GetName(), OK: true}
}
func (s *stubIntensitySource) GetCurrentIntensity(ctx context.Context) model.IntensityReading {
	return s.reading
}
func (s *stubIntensitySource) GetGenerationMix(ctx context.Context) map[string]float64 {
	return nil
}
func (s *stubIntensitySource) GetRegionalMapData(ctx context.Context) []model.RegionIntensity {
	return nil
}

type stubTariffSource struct {
	price float64
	found bool
}

func (s *stubTariffSource) GetName() string { return model.SourceOctopus }
func (s *stubTariffSource) FetchLatest(ctx context.Context) interfaces.FetchResult {
	return interfaces.FetchResult{Source: s.GetName(), OK: true}
}
func (s *stubTariffSource) GetCurrentAgilePrice(ctx context.Context, region string) (float64, bool) {
	return s.price, s.found
}
func (s *stubTariffSource) GetAgileRates(ctx context.Context, region string) *model.Table {
	return model.NewTable()
}

func newTestAggregator(sources ...interfaces.GridSource) *MultiSourceAggregator {
	cfg := &config.Config{
		Aggregator: config.AggregatorConfig{SnapshotTTL: 60 * time.Second},
		Sources:    map[string]config.SourceConfig{},
	}
	registry := source.NewSourceRegistry(cfg, testLogger())
	for _, s := range sources {
		registry.RegisterInstance(s)
	}
	return NewMultiSourceAggregator(registry, cfg, testLogger())
}

func TestSnapshotCacheIdentityWithinTTL(t *testing.T) {
	gen := &stubGeneratorSource{totals: map[string]float64{"wind": 5000}}
	agg := newTestAggregator(gen)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	agg.now = func() time.Time { return now }

	first := agg.GetSnapshot(context.Background(), true)
	now = now.Add(30 * time.Second)
	second := agg.GetSnapshot(context.Background(), true)

	// TTL内指针同一，不重复计算
	assert.Same(t, first, second)
	assert.Equal(t, 1, gen.calls)

	// TTL过期后重建快照
	now = now.Add(31 * time.Second)
	third := agg.GetSnapshot(context.Background(), true)
	assert.NotSame(t, first, third)
	assert.Equal(t, 2, gen.calls)
}

func TestSnapshotBypassCache(t *testing.T) {
	gen := &stubGeneratorSource{totals: map[string]float64{"wind": 5000}}
	agg := newTestAggregator(gen)

	first := agg.GetSnapshot(context.Background(), true)
	second := agg.GetSnapshot(context.Background(), false)
	assert.NotSame(t, first, second)
}

func TestSnapshotDemandIsGenerationPlusImports(t *testing.T) {
	gen := &stubGeneratorSource{
		totals: map[string]float64{"wind": 5000, "gas": 10000},
		flows: []*model.Interconnector{
			{CountryCode: "FR", FlowMW: 1500},
			{CountryCode: "NL", FlowMW: -500},
		},
	}
	agg := newTestAggregator(gen)

	s := agg.GetSnapshot(context.Background(), true)
	assert.Equal(t, 15000.0, s.Generation.TotalMW)
	assert.Equal(t, 1000.0, s.Interconnectors.NetImportsMW)
	assert.Equal(t, 16000.0, s.Demand.TotalMW)
	assert.Equal(t, 1500.0, s.Interconnectors.ByCountry["FR"])
}

func TestSnapshotMissingSourcesDegradeToZero(t *testing.T) {
	agg := newTestAggregator() // 注册表为空

	s := agg.GetSnapshot(context.Background(), true)
	assert.Equal(t, 0.0, s.Generation.TotalMW)
	assert.Equal(t, "unknown", s.Carbon.Index)
	assert.Nil(t, s.Markets.ETSPriceEUR)
	assert.Nil(t, s.Markets.AgilePriceGBP)
}

func TestFlexibilityOpportunitiesRulesAndOrder(t *testing.T) {
	gen := &stubGeneratorSource{
		totals:    map[string]float64{"wind": 12000, "gas": 16000},
		balancing: model.BalancingTotals{BidsMW: 1500},
	}
	ci := &stubIntensitySource{reading: model.IntensityReading{Forecast: 80, Index: "very low"}}
	tariff := &stubTariffSource{price: 3.2, found: true}

	agg := newTestAggregator(gen, ci, tariff)
	opportunities := agg.GetFlexibilityOpportunities(context.Background())

	require.Len(t, opportunities, 5)
	// 置信度降序：0.9 carbon, 0.85 storage, 0.75 wind, 0.65 gas, 0.6 bids
	wantActions := []string{"INCREASE_LOAD", "CHARGE_STORAGE", "INCREASE_LOAD", "REDUCE_LOAD", "OFFER_DSR"}
	wantConfidence := []float64{0.9, 0.85, 0.75, 0.65, 0.6}
	for i := range opportunities {
		assert.Equal(t, wantActions[i], opportunities[i].Action)
		assert.Equal(t, wantConfidence[i], opportunities[i].Confidence)
	}
}

func TestFlexibilityLowCarbonConfidence(t *testing.T) {
	ci := &stubIntensitySource{reading: model.IntensityReading{Forecast: 120, Index: "low"}}
	agg := newTestAggregator(ci)

	opportunities := agg.GetFlexibilityOpportunities(context.Background())
	require.Len(t, opportunities, 1)
	assert.Equal(t, 0.7, opportunities[0].Confidence)
	assert.Equal(t, "carbon_optimized", opportunities[0].Type)
}

func TestFlexibilityNoOpportunities(t *testing.T) {
	ci := &stubIntensitySource{reading: model.IntensityReading{Forecast: 200, Index: "moderate"}}
	agg := newTestAggregator(ci)

	assert.Empty(t, agg.GetFlexibilityOpportunities(context.Background()))
}

func TestPriceCorrelationInsight(t *testing.T) {
	gen := &stubGeneratorSource{totals: map[string]float64{"wind": 9000, "gas": 1000}}
	ci := &stubIntensitySource{reading: model.IntensityReading{Forecast: 50, Index: "very low"}}
	tariff := &stubTariffSource{price: 4.0, found: true}

	agg := newTestAggregator(gen, ci, tariff)
	corr := agg.GetPriceCorrelation(context.Background())

	assert.Equal(t, 50.0, corr.Current.CarbonIntensity)
	require.NotNil(t, corr.Current.AgilePriceGBP)
	assert.Contains(t, corr.Insight, "very clean")
	assert.Contains(t, corr.Insight, "High wind generation")
}

func TestCfDAnalysisUnavailable(t *testing.T) {
	agg := newTestAggregator()
	_, err := agg.GetCfDAnalysis(context.Background())
	assert.Error(t, err)
}
