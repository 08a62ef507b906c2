package model

// Kilowatts Grid CDN汇总feed的wire结构
// （https://github.com/BenjaminWatts/kilowatts-grid 的 /gb/summary_output.json）

// KwSummaryOutput GB实时汇总
type KwSummaryOutput struct {
	Generators      []KwGenerator     `json:"generators"`
	ForeignMarkets  []KwForeignMarket `json:"foreign_markets"`
	Totals          []KwFuelTotal     `json:"totals"`
	BalancingTotals KwBalancing       `json:"balancing_totals"`
}

// KwGenerator 单台机组：cp=容量，ac=实际出力
type KwGenerator struct {
	Code     string   `json:"code"`
	Name     string   `json:"name"`
	FuelType string   `json:"fuel_type"`
	Coords   KwCoords `json:"coords"`
	Cp       float64  `json:"cp"`
	Ac       float64  `json:"ac"`
	Bids     float64  `json:"bids"`
	Offers   float64  `json:"offers"`
}

// KwForeignMarket 对端国家市场（下挂互联线）
type KwForeignMarket struct {
	Code            string             `json:"code"`
	Coords          KwCoords           `json:"coords"`
	Interconnectors []KwInterconnector `json:"interconnectors"`
}

// KwInterconnector 互联线：ac为有符号实际流量
type KwInterconnector struct {
	Code string  `json:"code"`
	Name string  `json:"name"`
	Cp   float64 `json:"cp"`
	Ac   float64 `json:"ac"`
}

// KwFuelTotal 按燃料汇总出力
type KwFuelTotal struct {
	Code string  `json:"code"`
	Ac   float64 `json:"ac"`
}

// KwBalancing 平衡市场总报量
type KwBalancing struct {
	Bids   float64 `json:"bids"`
	Offers float64 `json:"offers"`
}

// KwCoords feed坐标
type KwCoords struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
