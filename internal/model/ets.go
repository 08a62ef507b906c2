package model

// ETS Watch碳价序列（OSUKED/ETS-Watch的ets_mkt.json）：
// 并行数组形态的OHLCV，-99999为空值哨兵，解析时必须转为真正的缺值。

// ETSMarketData 并行数组序列（下标对齐）
type ETSMarketData struct {
	Datetime []string   `json:"datetime"`
	Open     []*float64 `json:"open"`
	High     []*float64 `json:"high"`
	Low      []*float64 `json:"low"`
	Close    []*float64 `json:"close"`
	Volume   []*float64 `json:"volume"`
}

// ETSNullSentinel 上游用该值占位空值
const ETSNullSentinel = -99999
