package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(minute int) time.Time {
	return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(minute) * time.Minute)
}

func TestTableAppendAndValue(t *testing.T) {
	table := NewTable()
	table.AppendRow(ts(0), map[string]float64{"demand_mw": 100})
	table.AppendRow(ts(30), map[string]float64{"demand_mw": 200, "wind_mw": 50})

	assert.Equal(t, 2, table.Len())
	assert.Equal(t, []string{"demand_mw", "wind_mw"}, table.Columns())

	v, ok := table.Value(0, "demand_mw")
	require.True(t, ok)
	assert.Equal(t, 100.0, v)

	// 第一行没有wind_mw，应为空
	_, ok = table.Value(0, "wind_mw")
	assert.False(t, ok)
}

func TestTableNilSafety(t *testing.T) {
	var table *Table
	assert.True(t, table.IsEmpty())
	assert.Equal(t, 0, table.Len())
	assert.Nil(t, table.Columns())
}

func TestTableRename(t *testing.T) {
	table := NewTable()
	table.AppendRow(ts(0), map[string]float64{"CCGT": 1000, "WIND": 500})
	table.Rename(map[string]string{"CCGT": "gas_mw", "WIND": "wind_mw"})

	assert.True(t, table.HasColumn("gas_mw"))
	assert.False(t, table.HasColumn("CCGT"))
	v, ok := table.Value(0, "gas_mw")
	require.True(t, ok)
	assert.Equal(t, 1000.0, v)
}

func TestTableSumColumnsInto(t *testing.T) {
	table := NewTable()
	table.AppendRow(ts(0), map[string]float64{"import_fr_mw": 500, "import_irl_mw": 200})
	table.AppendRow(ts(30), map[string]float64{"import_fr_mw": 600})
	table.AppendRow(ts(60), map[string]float64{})

	table.SumColumnsInto("imports_mw", []string{"import_fr_mw", "import_irl_mw"})

	v, _ := table.Value(0, "imports_mw")
	assert.Equal(t, 700.0, v)
	// 部分缺失：跳过空值求和
	v, _ = table.Value(1, "imports_mw")
	assert.Equal(t, 600.0, v)
	// 全部缺失：求和为0
	v, ok := table.Value(2, "imports_mw")
	require.True(t, ok)
	assert.Equal(t, 0.0, v)
}

func TestTableOuterJoin(t *testing.T) {
	left := NewTable()
	left.AppendRow(ts(0), map[string]float64{"demand_mw": 100})
	left.AppendRow(ts(30), map[string]float64{"demand_mw": 200})

	right := NewTable()
	right.AppendRow(ts(30), map[string]float64{"gas_mw": 1000})
	right.AppendRow(ts(60), map[string]float64{"gas_mw": 1100})

	joined := left.OuterJoin(right)
	assert.Equal(t, 3, joined.Len())

	// 共同时间戳：两边的列都有值
	v, ok := joined.Value(1, "demand_mw")
	require.True(t, ok)
	assert.Equal(t, 200.0, v)
	v, ok = joined.Value(1, "gas_mw")
	require.True(t, ok)
	assert.Equal(t, 1000.0, v)

	// 仅右表有的时间戳：左表列为空
	_, ok = joined.Value(2, "demand_mw")
	assert.False(t, ok)
}

func TestTableLeftJoinColumns(t *testing.T) {
	base := NewTable()
	base.AppendRow(ts(0), map[string]float64{"demand_mw": 100})
	base.AppendRow(ts(30), map[string]float64{"demand_mw": 200})

	other := NewTable()
	other.AppendRow(ts(0), map[string]float64{"wind_pct": 30, "noise": 1})
	other.AppendRow(ts(90), map[string]float64{"wind_pct": 40})

	base.LeftJoinColumns(other, "wind_pct")

	// 左连接不增加行
	assert.Equal(t, 2, base.Len())
	assert.False(t, base.HasColumn("noise"))
	v, ok := base.Value(0, "wind_pct")
	require.True(t, ok)
	assert.Equal(t, 30.0, v)
	_, ok = base.Value(1, "wind_pct")
	assert.False(t, ok)
}

func TestTableDedupSortKeepsFirst(t *testing.T) {
	table := NewTable()
	table.AppendRow(ts(30), map[string]float64{"demand_mw": 200})
	table.AppendRow(ts(0), map[string]float64{"demand_mw": 100})
	table.AppendRow(ts(0), map[string]float64{"demand_mw": 150})

	table.DedupSort()

	require.Equal(t, 2, table.Len())
	// 升序且重复时间戳保留首次出现的值
	assert.Equal(t, ts(0), table.Rows()[0].Timestamp)
	v, _ := table.Value(0, "demand_mw")
	assert.Equal(t, 100.0, v)
}

func TestTableReorderColumns(t *testing.T) {
	table := NewTable()
	table.AppendRow(ts(0), map[string]float64{"extra_col": 1, "demand_mw": 100})
	table.EnsureColumns(StandardColumns())
	table.ReorderColumns(StandardColumns())

	cols := table.Columns()
	require.GreaterOrEqual(t, len(cols), 12)
	assert.Equal(t, StandardColumns(), cols[:11])
	assert.Equal(t, "extra_col", cols[11])
}

func TestTableCompleteness(t *testing.T) {
	table := NewTable()
	table.AppendRow(ts(0), map[string]float64{"demand_mw": 100})
	table.AppendRow(ts(30), map[string]float64{})

	comp := table.Completeness()
	assert.Equal(t, 0.5, comp["demand_mw"])
}

func TestTableColumnOrderStableAcrossBuilds(t *testing.T) {
	build := func() *Table {
		table := NewTable()
		table.AppendRow(ts(0), map[string]float64{"e": 5, "a": 1, "b": 2, "c": 3, "d": 4})
		return table
	}
	// map遍历顺序随机，列登记必须与之无关
	want := build()
	for i := 0; i < 20; i++ {
		got := build()
		assert.Equal(t, want.Columns(), got.Columns())
		assert.Equal(t, want.ToCSV(), got.ToCSV())
	}
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, want.Columns())
}

func TestTableToCSVDeterministic(t *testing.T) {
	build := func() *Table {
		table := NewTable()
		table.AppendRow(ts(0), map[string]float64{"a": 1, "b": 4})
		table.AppendRow(ts(30), map[string]float64{"a": 2})
		return table
	}
	assert.Equal(t, build().ToCSV(), build().ToCSV())

	changed := build()
	changed.SetValue(0, "a", 9)
	assert.NotEqual(t, build().ToCSV(), changed.ToCSV())
}
