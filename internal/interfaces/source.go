package interfaces

import (
	"context"
	"encoding/json"

	"GridBridge/internal/config"
	"GridBridge/internal/model"

	"github.com/sirupsen/logrus"
)

// GridSource 所有数据源必须实现的核心接口。
// 类型化取数方法失败时降级为空结果而不是抛错：调用方必须把"无数据"
// 当作正常结果处理（所有上游都是尽力而为的公共API）。
type GridSource interface {
	GetName() string                             // 数据源名称（注册表键）
	FetchLatest(ctx context.Context) FetchResult // 拉取最新原始payload
}

// FetchResult 单次拉取的类型化结果：降级为空的契约显式化，
// 不靠catch-and-ignore。OK为false时Data为空、Err给出原因。
type FetchResult struct {
	Source string          `json:"source"`
	OK     bool            `json:"ok"`
	Err    string          `json:"error,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Factory 数据源工厂函数签名
type Factory func(cfg *config.SourceConfig, logger *logrus.Logger) GridSource

// GeneratorSource 提供机组/互联线/按燃料汇总/平衡报量（Kilowatts Grid）
type GeneratorSource interface {
	GetGenerators(ctx context.Context) []*model.Generator
	GetInterconnectors(ctx context.Context) []*model.Interconnector
	GetTotalsByFuel(ctx context.Context) map[string]float64
	GetBalancingTotals(ctx context.Context) model.BalancingTotals
}

// EmbeddedSource 提供配网侧嵌入式风光估计（NG Data Portal）
type EmbeddedSource interface {
	GetEmbeddedGeneration(ctx context.Context) model.EmbeddedGeneration
}

// IntensitySource 提供碳强度与发电占比（Carbon Intensity API）
type IntensitySource interface {
	GetCurrentIntensity(ctx context.Context) model.IntensityReading
	GetGenerationMix(ctx context.Context) map[string]float64
	GetRegionalMapData(ctx context.Context) []model.RegionIntensity
}

// ContractSource 提供CfD合同清单（CfD Watch）
type ContractSource interface {
	GetContracts(ctx context.Context) []*model.CfDContract
	GetContractsByTechnology(ctx context.Context) map[string][]*model.CfDContract
	GetCapacityByRound(ctx context.Context) map[string]float64
}

// TariffSource 提供零售电价（Octopus Agile）
type TariffSource interface {
	// GetCurrentAgilePrice 当前时段Agile价格（p/kWh），第二返回值表示有数据
	GetCurrentAgilePrice(ctx context.Context, region string) (float64, bool)
	GetAgileRates(ctx context.Context, region string) *model.Table
}

// CarbonMarketSource 提供碳市场价格（ETS Watch）
type CarbonMarketSource interface {
	// GetCarbonPrice 最新非空碳价，无数据时返回nil
	GetCarbonPrice(ctx context.Context) *model.MarketPrice
	GetPriceHistory(ctx context.Context) *model.Table
}
