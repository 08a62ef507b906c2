package model

// Carbon Intensity API（api.carbonintensity.org.uk）的wire结构

// CIIntensityResponse /intensity 与 /intensity/{from}/{to}
type CIIntensityResponse struct {
	Data []CIIntensityEntry `json:"data"`
}

// CIIntensityEntry 单个结算周期的碳强度
type CIIntensityEntry struct {
	From      string      `json:"from"` // ISO时间（如2025-01-15T00:00Z）
	To        string      `json:"to"`
	Intensity CIIntensity `json:"intensity"`
}

// CIIntensity actual可为null（未来周期只有forecast）
type CIIntensity struct {
	Forecast *float64 `json:"forecast"`
	Actual   *float64 `json:"actual"`
	Index    string   `json:"index"`
}

// CIGenerationResponse /generation/{from}/{to}（区间查询data为数组）
type CIGenerationResponse struct {
	Data []CIGenerationEntry `json:"data"`
}

// CIGenerationCurrent /generation（当前时刻data为单对象）
type CIGenerationCurrent struct {
	Data CIGenerationEntry `json:"data"`
}

// CIGenerationEntry 发电占比条目
type CIGenerationEntry struct {
	From          string       `json:"from"`
	To            string       `json:"to"`
	GenerationMix []CIFuelPerc `json:"generationmix"`
}

// CIFuelPerc 单燃料百分比
type CIFuelPerc struct {
	Fuel string  `json:"fuel"`
	Perc float64 `json:"perc"`
}

// CIRegionalResponse /regional
type CIRegionalResponse struct {
	Data []CIRegion `json:"data"`
}

// CIRegion DNO区域碳强度
type CIRegion struct {
	RegionID  int          `json:"regionid"`
	DNORegion string       `json:"dnoregion"`
	ShortName string       `json:"shortname"`
	Intensity CIIntensity  `json:"intensity"`
	Mix       []CIFuelPerc `json:"generationmix"`
}
