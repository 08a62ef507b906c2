package service

import (
	"testing"
	"time"

	"GridBridge/internal/model"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(minute int) time.Time {
	return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(minute) * time.Minute)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func empty() *model.Table { return model.NewTable() }

func TestCanonicalizeEmptyInputs(t *testing.T) {
	result := CanonicalizeToSchema(empty(), empty(), empty(), empty(), empty(), testLogger())

	assert.Equal(t, 0, result.Len())
	for _, col := range model.StandardColumns() {
		assert.True(t, result.HasColumn(col), "缺少标准列: %s", col)
	}
}

func TestCanonicalizeDemandPassthrough(t *testing.T) {
	demand := model.NewTable()
	demand.AppendRow(ts(0), map[string]float64{model.ColDemandMW: 100})
	demand.AppendRow(ts(30), map[string]float64{model.ColDemandMW: 200})
	demand.AppendRow(ts(60), map[string]float64{model.ColDemandMW: 300})

	result := CanonicalizeToSchema(empty(), empty(), demand, empty(), empty(), testLogger())

	require.Equal(t, 3, result.Len())
	for i, want := range []float64{100, 200, 300} {
		v, ok := result.Value(i, model.ColDemandMW)
		require.True(t, ok)
		assert.Equal(t, want, v)
	}
}

func TestCanonicalizeDeduplicatesTimestamps(t *testing.T) {
	demand := model.NewTable()
	demand.AppendRow(ts(0), map[string]float64{model.ColDemandMW: 100})
	demand.AppendRow(ts(0), map[string]float64{model.ColDemandMW: 150})
	demand.AppendRow(ts(30), map[string]float64{model.ColDemandMW: 200})

	result := CanonicalizeToSchema(empty(), empty(), demand, empty(), empty(), testLogger())

	require.Equal(t, 2, result.Len())
	// 重复时间戳保留首次出现的值
	v, _ := result.Value(0, model.ColDemandMW)
	assert.Equal(t, 100.0, v)
}

func TestCanonicalizeCCGTMapsToGas(t *testing.T) {
	gen := model.NewTable()
	gen.AppendRow(ts(0), map[string]float64{"CCGT": 1000})
	gen.AppendRow(ts(30), map[string]float64{"CCGT": 1100})
	gen.AppendRow(ts(60), map[string]float64{"CCGT": 1200})

	result := CanonicalizeToSchema(empty(), empty(), empty(), gen, empty(), testLogger())

	require.Equal(t, 3, result.Len())
	for i, want := range []float64{1000, 1100, 1200} {
		v, ok := result.Value(i, model.ColGasMW)
		require.True(t, ok)
		assert.Equal(t, want, v)
	}
	assert.False(t, result.HasColumn("CCGT"))
}

func TestCanonicalizeImportsAggregated(t *testing.T) {
	gen := model.NewTable()
	gen.AppendRow(ts(0), map[string]float64{"INTFR": 500, "INTIRL": 200, "INTNED": 100})
	gen.AppendRow(ts(30), map[string]float64{"INTFR": 600, "INTIRL": 300, "INTNED": 100})

	result := CanonicalizeToSchema(empty(), empty(), empty(), gen, empty(), testLogger())

	require.Equal(t, 2, result.Len())
	v, _ := result.Value(0, model.ColImportsMW)
	assert.Equal(t, 800.0, v)
	v, _ = result.Value(1, model.ColImportsMW)
	assert.Equal(t, 1000.0, v)
}

func TestCanonicalizeStandardColumnsFirst(t *testing.T) {
	demand := model.NewTable()
	demand.AppendRow(ts(0), map[string]float64{model.ColDemandMW: 100, "extra": 1})

	result := CanonicalizeToSchema(empty(), empty(), demand, empty(), empty(), testLogger())

	cols := result.Columns()
	require.GreaterOrEqual(t, len(cols), 11)
	assert.Equal(t, model.StandardColumns(), cols[:11])
}

func TestCanonicalizeNullPreserved(t *testing.T) {
	demand := model.NewTable()
	demand.AppendRow(ts(0), map[string]float64{model.ColDemandMW: 100})
	demand.AppendRow(ts(30), map[string]float64{}) // 需求缺失行

	result := CanonicalizeToSchema(empty(), empty(), demand, empty(), empty(), testLogger())

	require.Equal(t, 2, result.Len())
	_, ok := result.Value(1, model.ColDemandMW)
	assert.False(t, ok, "缺失值不能被填成0")
}

func TestCanonicalizePctEstimationWithDemand(t *testing.T) {
	demand := model.NewTable()
	demand.AppendRow(ts(0), map[string]float64{model.ColDemandMW: 20000})

	carbonGen := model.NewTable()
	carbonGen.AppendRow(ts(0), map[string]float64{"wind_pct": 30, "gas_pct": 40})

	result := CanonicalizeToSchema(carbonGen, empty(), demand, empty(), empty(), testLogger())

	v, ok := result.Value(0, "wind_mw_est")
	require.True(t, ok)
	assert.Equal(t, 6000.0, v)
	v, ok = result.Value(0, "gas_mw_est")
	require.True(t, ok)
	assert.Equal(t, 8000.0, v)
	// 占比列不保留
	assert.False(t, result.HasColumn("wind_pct"))
}

func TestCanonicalizePctSkippedWithoutDemand(t *testing.T) {
	carbonGen := model.NewTable()
	carbonGen.AppendRow(ts(0), map[string]float64{"wind_pct": 30})

	result := CanonicalizeToSchema(carbonGen, empty(), empty(), empty(), empty(), testLogger())

	// 无需求基底时占比数据不产生估算列
	assert.False(t, result.HasColumn("wind_mw_est"))
}

func TestCanonicalizePctSkippedWhenMeasuredWindPresent(t *testing.T) {
	gen := model.NewTable()
	gen.AppendRow(ts(0), map[string]float64{"WIND": 5000})

	demand := model.NewTable()
	demand.AppendRow(ts(0), map[string]float64{model.ColDemandMW: 20000})

	carbonGen := model.NewTable()
	carbonGen.AppendRow(ts(0), map[string]float64{"wind_pct": 30})

	result := CanonicalizeToSchema(carbonGen, empty(), demand, gen, empty(), testLogger())

	// 已有实测MW时不做估算
	assert.False(t, result.HasColumn("wind_mw_est"))
	v, _ := result.Value(0, model.ColWindMW)
	assert.Equal(t, 5000.0, v)
}

func TestCanonicalizeCarbonIntensityCoalesce(t *testing.T) {
	demand := model.NewTable()
	demand.AppendRow(ts(0), map[string]float64{model.ColDemandMW: 100})
	demand.AppendRow(ts(30), map[string]float64{model.ColDemandMW: 200})

	intensity := model.NewTable()
	intensity.AppendRow(ts(0), map[string]float64{"carbon_intensity_actual": 120, "carbon_intensity_forecast": 130})
	intensity.AppendRow(ts(30), map[string]float64{"carbon_intensity_forecast": 140}) // 实测缺失

	result := CanonicalizeToSchema(empty(), intensity, demand, empty(), empty(), testLogger())

	v, _ := result.Value(0, model.ColCarbonIntensity)
	assert.Equal(t, 120.0, v, "实测优先")
	v, _ = result.Value(1, model.ColCarbonIntensity)
	assert.Equal(t, 140.0, v, "实测缺失回退预测")
}

func TestCanonicalizeSystemPriceAverage(t *testing.T) {
	demand := model.NewTable()
	demand.AppendRow(ts(0), map[string]float64{model.ColDemandMW: 100})

	prices := model.NewTable()
	prices.AppendRow(ts(0), map[string]float64{"system_buy_price": 80, "system_sell_price": 60})

	result := CanonicalizeToSchema(empty(), empty(), demand, empty(), prices, testLogger())

	v, ok := result.Value(0, model.ColSystemPrice)
	require.True(t, ok)
	assert.Equal(t, 70.0, v)
}

func TestCanonicalizeSortedAscending(t *testing.T) {
	demand := model.NewTable()
	demand.AppendRow(ts(60), map[string]float64{model.ColDemandMW: 300})
	demand.AppendRow(ts(0), map[string]float64{model.ColDemandMW: 100})
	demand.AppendRow(ts(30), map[string]float64{model.ColDemandMW: 200})

	result := CanonicalizeToSchema(empty(), empty(), demand, empty(), empty(), testLogger())

	rows := result.Rows()
	require.Equal(t, 3, len(rows))
	for i := 1; i < len(rows); i++ {
		assert.True(t, rows[i-1].Timestamp.Before(rows[i].Timestamp))
	}
}
