package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// 数据源名称常量（注册表键）
const (
	SourceKilowattsGrid   = "kilowatts-grid"
	SourceNGDataPortal    = "ng-data-portal"
	SourceCarbonIntensity = "carbon-intensity"
	SourceCfDWatch        = "cfd-watch"
	SourceOctopus         = "octopus"
	SourceETSWatch        = "ets-watch"
	SourceElexon          = "elexon"
)

// Coords 地理坐标
type Coords struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Generator 发电机组（每次fetch新建，不落库）
type Generator struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	FuelType   FuelType `json:"fuel_type"`
	Coords     Coords   `json:"coords"`
	CapacityMW float64  `json:"capacity_mw"`
	OutputMW   float64  `json:"output_mw"`
	BidsMW     float64  `json:"bids_mw"`   // 平衡市场压低出力报量
	OffersMW   float64  `json:"offers_mw"` // 平衡市场增加出力报量
}

// Interconnector 跨国互联线。FlowMW为有符号流量：正=进口到GB，负=出口
type Interconnector struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	CountryCode   string  `json:"country_code"`
	Coords        Coords  `json:"coords"`
	CapacityMW    float64 `json:"capacity_mw"`
	FlowMW        float64 `json:"flow_mw"`
	FlowDirection string  `json:"flow_direction,omitempty"` // import/export/balanced，图层刷新时填充
}

// GridNode 电网节点（GSP/BSP/变电站）
type GridNode struct {
	ID         string                 `json:"id"`
	Name       string                 `json:"name"`
	NodeType   string                 `json:"node_type"` // gsp/bsp/substation
	Coords     Coords                 `json:"coords"`
	VoltageKV  float64                `json:"voltage_kv"`
	HeadroomMW float64                `json:"headroom_mw"`
	LoadMW     float64                `json:"load_mw"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// HeadroomLevel 余量分级：high>100MW，medium为50–100MW，low≤50MW
func (n *GridNode) HeadroomLevel() string {
	switch {
	case n.HeadroomMW > 100:
		return "high"
	case n.HeadroomMW > 50:
		return "medium"
	default:
		return "low"
	}
}

// CfDContract 差价合约项目（ID由名称哈希派生）
type CfDContract struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Technology      string  `json:"technology"`
	CapacityMW      float64 `json:"capacity_mw"`
	StrikePrice     float64 `json:"strike_price"`
	AllocationRound string  `json:"allocation_round"`
	Status          string  `json:"status"`
	Coords          *Coords `json:"coords,omitempty"`
}

// CfDContractID 由项目名称派生稳定ID（sha256前8位hex）
func CfDContractID(name string) string {
	h := sha256.Sum256([]byte(name))
	return hex.EncodeToString(h[:])[:8]
}

// MarketPrice 市场价格点
type MarketPrice struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
	Currency  string    `json:"currency"`
	Market    string    `json:"market"`
	Unit      string    `json:"unit"`
}

// BalancingTotals 平衡市场总报量
type BalancingTotals struct {
	BidsMW   float64 `json:"bids_mw"`
	OffersMW float64 `json:"offers_mw"`
}

// EmbeddedGeneration 嵌入式（配网侧）风电/光伏估计
type EmbeddedGeneration struct {
	WindMW  float64 `json:"wind_mw"`
	SolarMW float64 `json:"solar_mw"`
}

// IntensityReading 当前碳强度读数
type IntensityReading struct {
	Forecast float64  `json:"forecast"`
	Actual   *float64 `json:"actual,omitempty"`
	Index    string   `json:"index"` // very low/low/moderate/high/very high
}

// RegionIntensity DNO区域碳强度（附区域质心坐标，供地图图层）
type RegionIntensity struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	Coords    Coords  `json:"coords"`
	Intensity float64 `json:"intensity"`
	Index     string  `json:"index"`
}
