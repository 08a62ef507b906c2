package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// 规范化表的11个标准列（固定顺序，永远排在最前）
const (
	ColDemandMW        = "demand_mw"
	ColWindMW          = "wind_mw"
	ColSolarMW         = "solar_mw"
	ColGasMW           = "gas_mw"
	ColNuclearMW       = "nuclear_mw"
	ColCoalMW          = "coal_mw"
	ColHydroMW         = "hydro_mw"
	ColBiomassMW       = "biomass_mw"
	ColImportsMW       = "imports_mw"
	ColCarbonIntensity = "carbon_intensity_gco2_kwh"
	ColSystemPrice     = "system_price_gbp_mwh"
)

// StandardColumns 标准列顺序（副本）
func StandardColumns() []string {
	return []string{
		ColDemandMW, ColWindMW, ColSolarMW, ColGasMW, ColNuclearMW,
		ColCoalMW, ColHydroMW, ColBiomassMW, ColImportsMW,
		ColCarbonIntensity, ColSystemPrice,
	}
}

// CanonicalRecord 规范化表的一行（落库模型）。
// 11个标准列固定存在（可空），数据源特有的附加列统一入Extras。
type CanonicalRecord struct {
	ID                     uint64         `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	Timestamp              time.Time      `gorm:"column:timestamp;type:timestamptz;uniqueIndex;not null" json:"timestamp"` // 结算周期起点（UTC）
	DemandMW               *float64       `gorm:"column:demand_mw" json:"demand_mw"`
	WindMW                 *float64       `gorm:"column:wind_mw" json:"wind_mw"`
	SolarMW                *float64       `gorm:"column:solar_mw" json:"solar_mw"`
	GasMW                  *float64       `gorm:"column:gas_mw" json:"gas_mw"`
	NuclearMW              *float64       `gorm:"column:nuclear_mw" json:"nuclear_mw"`
	CoalMW                 *float64       `gorm:"column:coal_mw" json:"coal_mw"`
	HydroMW                *float64       `gorm:"column:hydro_mw" json:"hydro_mw"`
	BiomassMW              *float64       `gorm:"column:biomass_mw" json:"biomass_mw"`
	ImportsMW              *float64       `gorm:"column:imports_mw" json:"imports_mw"`
	CarbonIntensityGCO2KWh *float64       `gorm:"column:carbon_intensity_gco2_kwh" json:"carbon_intensity_gco2_kwh"`
	SystemPriceGBPMWh      *float64       `gorm:"column:system_price_gbp_mwh" json:"system_price_gbp_mwh"`
	Extras                 datatypes.JSON `gorm:"column:extras" json:"extras,omitempty"` // 附加列（JSON对象）
	CreatedAt              time.Time      `gorm:"column:created_at;autoCreateTime" json:"-"`
	UpdatedAt              time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"-"`
}

func (CanonicalRecord) TableName() string { return "canonical_records" }

// RecordsFromTable 把规范化表转为落库行：标准列进固定字段，其余列序列化进Extras
func RecordsFromTable(t *Table) []*CanonicalRecord {
	if t.IsEmpty() {
		return []*CanonicalRecord{}
	}
	standard := make(map[string]bool, 11)
	for _, c := range StandardColumns() {
		standard[c] = true
	}
	records := make([]*CanonicalRecord, 0, t.Len())
	for _, row := range t.Rows() {
		rec := &CanonicalRecord{Timestamp: row.Timestamp}
		pick := func(col string) *float64 {
			if v, ok := row.Values[col]; ok {
				vv := v
				return &vv
			}
			return nil
		}
		rec.DemandMW = pick(ColDemandMW)
		rec.WindMW = pick(ColWindMW)
		rec.SolarMW = pick(ColSolarMW)
		rec.GasMW = pick(ColGasMW)
		rec.NuclearMW = pick(ColNuclearMW)
		rec.CoalMW = pick(ColCoalMW)
		rec.HydroMW = pick(ColHydroMW)
		rec.BiomassMW = pick(ColBiomassMW)
		rec.ImportsMW = pick(ColImportsMW)
		rec.CarbonIntensityGCO2KWh = pick(ColCarbonIntensity)
		rec.SystemPriceGBPMWh = pick(ColSystemPrice)

		extras := make(map[string]float64)
		for k, v := range row.Values {
			if !standard[k] {
				extras[k] = v
			}
		}
		if len(extras) > 0 {
			if raw, err := json.Marshal(extras); err == nil {
				rec.Extras = raw
			}
		}
		records = append(records, rec)
	}
	return records
}
