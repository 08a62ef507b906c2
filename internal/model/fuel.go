package model

import "strings"

// FuelType 燃料类型枚举（闭集）
type FuelType string

const (
	FuelGas     FuelType = "gas"
	FuelCoal    FuelType = "coal"
	FuelNuclear FuelType = "nuclear"
	FuelWind    FuelType = "wind"
	FuelSolar   FuelType = "solar"
	FuelHydro   FuelType = "hydro"
	FuelBiomass FuelType = "biomass"
	FuelBattery FuelType = "battery"
	FuelImports FuelType = "imports"
	FuelOther   FuelType = "other"
)

// fuelAliases 各数据源燃料字符串→枚举的别名表（枚举本身的小写值在ParseFuelType中直接命中）
var fuelAliases = map[string]FuelType{
	// Elexon FUELINST燃料代码
	"ccgt":   FuelGas,
	"ocgt":   FuelGas,
	"npshyd": FuelHydro,
	"ps":     FuelHydro, // 抽水蓄能归入hydro
	"oil":    FuelOther,
	// Kilowatts Grid使用的别名
	"battery_storage": FuelBattery,
	"interconnector":  FuelImports,
}

// ParseFuelType 全映射函数：任意数据源燃料字符串→闭集枚举。
// 未识别的值一律归为other，永不报错。
func ParseFuelType(s string) FuelType {
	normalized := strings.ToLower(strings.TrimSpace(s))
	switch FuelType(normalized) {
	case FuelGas, FuelCoal, FuelNuclear, FuelWind, FuelSolar,
		FuelHydro, FuelBiomass, FuelBattery, FuelImports, FuelOther:
		return FuelType(normalized)
	}
	if ft, ok := fuelAliases[normalized]; ok {
		return ft
	}
	// 各国互联线代码（INTFR/INTIRL/INTNED等）统一归为imports
	if strings.HasPrefix(normalized, "int") {
		return FuelImports
	}
	return FuelOther
}

// AllFuelTypes 全部燃料枚举值（固定顺序，供图层样式与测试遍历）
func AllFuelTypes() []FuelType {
	return []FuelType{
		FuelGas, FuelCoal, FuelNuclear, FuelWind, FuelSolar,
		FuelHydro, FuelBiomass, FuelBattery, FuelImports, FuelOther,
	}
}
