package model

// Octopus Energy API的wire结构（产品与Agile电价）

// OctopusProductsResponse /v1/products/
type OctopusProductsResponse struct {
	Results []OctopusProduct `json:"results"`
}

// OctopusProduct 产品概要
type OctopusProduct struct {
	Code        string `json:"code"`
	FullName    string `json:"full_name"`
	DisplayName string `json:"display_name"`
	Brand       string `json:"brand"`
	IsVariable  bool   `json:"is_variable"`
	IsGreen     bool   `json:"is_green"`
}

// OctopusRatesResponse standard-unit-rates分页响应
type OctopusRatesResponse struct {
	Count   int               `json:"count"`
	Results []OctopusUnitRate `json:"results"`
}

// OctopusUnitRate 单个半小时费率（p/kWh）
type OctopusUnitRate struct {
	ValueExcVAT float64 `json:"value_exc_vat"`
	ValueIncVAT float64 `json:"value_inc_vat"`
	ValidFrom   string  `json:"valid_from"`
	ValidTo     string  `json:"valid_to"`
}
