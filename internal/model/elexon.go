package model

// Elexon Insights API（data.elexon.co.uk/bmrs/api/v1）的wire结构。
// 部分端点直接返回数组，部分包一层data字段，解码时两种都要兼容。

// ElexonDatasetResponse 包data字段的响应形态
type ElexonDatasetResponse struct {
	Data []ElexonRow `json:"data"`
}

// ElexonRow FUELINST/INDOD/系统价格的行（字段按端点选用）
type ElexonRow struct {
	SettlementDate   string   `json:"settlementDate"`   // YYYY-MM-DD（本地Europe/London日期）
	SettlementPeriod int      `json:"settlementPeriod"` // 1-48/50（夏令时切换日）
	FuelType         string   `json:"fuelType"`         // FUELINST：CCGT/WIND/INTFR等
	Generation       *float64 `json:"generation"`       // FUELINST：出力MW
	Demand           *float64 `json:"demand"`           // INDOD：国家需求MW
	SystemSellPrice  *float64 `json:"systemSellPrice"`  // 系统卖出价£/MWh
	SystemBuyPrice   *float64 `json:"systemBuyPrice"`   // 系统买入价£/MWh
}

// ElexonFuelColumnMap FUELINST燃料代码→规范化列名的固定映射表。
// 互联线列（import_*前缀）在规范化时按行求和进imports_mw。
var ElexonFuelColumnMap = map[string]string{
	"WIND":    ColWindMW,
	"SOLAR":   ColSolarMW,
	"CCGT":    ColGasMW,
	"OCGT":    "gas_ocgt_mw",
	"NUCLEAR": ColNuclearMW,
	"COAL":    ColCoalMW,
	"HYDRO":   ColHydroMW,
	"BIOMASS": ColBiomassMW,
	"INTFR":   "import_fr_mw",
	"INTIRL":  "import_irl_mw",
	"INTNED":  "import_ned_mw",
	"INTEW":   "import_ew_mw",
	"INTNEM":  "import_nem_mw",
	"INTNSL":  "import_nsl_mw",
	"INTELEC": "import_elec_mw",
	"INTIFA2": "import_ifa2_mw",
	"INTVKL":  "import_vkl_mw",
	"PS":      "pumped_storage_mw",
	"NPSHYD":  "hydro_non_ps_mw",
	"OTHER":   "other_gen_mw",
	"OIL":     "oil_mw",
}
