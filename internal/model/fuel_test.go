package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// 覆盖所有已知数据源燃料字符串的全映射表
func TestParseFuelType(t *testing.T) {
	cases := []struct {
		input string
		want  FuelType
	}{
		// 枚举值直接命中（大小写与空白不敏感）
		{"gas", FuelGas},
		{"GAS", FuelGas},
		{" coal ", FuelCoal},
		{"nuclear", FuelNuclear},
		{"wind", FuelWind},
		{"solar", FuelSolar},
		{"hydro", FuelHydro},
		{"biomass", FuelBiomass},
		{"battery", FuelBattery},
		{"imports", FuelImports},
		{"other", FuelOther},
		// Elexon FUELINST代码
		{"CCGT", FuelGas},
		{"OCGT", FuelGas},
		{"NPSHYD", FuelHydro},
		{"PS", FuelHydro},
		{"OIL", FuelOther},
		{"COAL", FuelCoal},
		{"NUCLEAR", FuelNuclear},
		{"WIND", FuelWind},
		{"BIOMASS", FuelBiomass},
		// 互联线代码统一归imports
		{"INTFR", FuelImports},
		{"INTIRL", FuelImports},
		{"INTNED", FuelImports},
		{"INTEW", FuelImports},
		{"INTNEM", FuelImports},
		{"INTNSL", FuelImports},
		{"INTELEC", FuelImports},
		{"INTIFA2", FuelImports},
		{"INTVKL", FuelImports},
		// Kilowatts Grid别名
		{"battery_storage", FuelBattery},
		{"interconnector", FuelImports},
		// 未识别值兜底为other
		{"", FuelOther},
		{"fusion", FuelOther},
		{"tidal", FuelOther},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ParseFuelType(tc.input), "input=%q", tc.input)
	}
}

func TestAllFuelTypesCovered(t *testing.T) {
	// 每个枚举值都能被自己的字符串解析回来
	for _, ft := range AllFuelTypes() {
		assert.Equal(t, ft, ParseFuelType(string(ft)))
	}
}
