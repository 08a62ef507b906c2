package service

import (
	"GridBridge/internal/model"

	"github.com/sirupsen/logrus"
)

// estimableFuels 可用发电占比×需求估算MW的燃料（估算列带_mw_est后缀）
var estimableFuels = []string{"wind", "solar", "gas", "nuclear", "coal", "hydro", "biomass", "imports"}

// CanonicalizeToSchema 把各上游表合并为统一的半小时粒度规范表。
//
// 合并顺序（后并入的不覆盖已有列）：
//  1. Elexon需求作为基底（最可靠）
//  2. Elexon分燃料发电：燃料码重命名为规范列名，import_*求和为imports_mw，外连接
//  3. 无MW实测时用碳强度API的占比×需求估算（demand_mw缺失则跳过）
//  4. 碳强度：实测优先，缺失回退预测
//  5. 系统电价：(买价+卖价)/2
//  6. 补齐11个标准列并排到最前
//  7. 重复时间戳保留首次出现，按时间升序
//
// 所有缺失值保持为空，不做填充。
func CanonicalizeToSchema(
	carbonGen *model.Table,
	carbonIntensity *model.Table,
	elexonDemand *model.Table,
	elexonGen *model.Table,
	elexonPrices *model.Table,
	logger *logrus.Logger,
) *model.Table {
	var canonical *model.Table
	if !elexonDemand.IsEmpty() {
		canonical = elexonDemand.Copy()
	} else {
		canonical = model.NewTable()
	}

	// ========== Elexon分燃料发电 ==========
	if !elexonGen.IsEmpty() {
		renamed := elexonGen.Copy()
		renamed.Rename(model.ElexonFuelColumnMap)

		importCols := renamed.ColumnsWithPrefix("import_")
		if len(importCols) > 0 {
			renamed.SumColumnsInto(model.ColImportsMW, importCols)
		}

		if canonical.IsEmpty() {
			canonical = renamed
		} else {
			canonical = canonical.OuterJoin(renamed)
		}
	}

	// ========== 占比估算兜底 ==========
	if !carbonGen.IsEmpty() && !canonical.HasColumn(model.ColWindMW) {
		if canonical.HasColumn(model.ColDemandMW) {
			for _, fuel := range estimableFuels {
				pctCol := fuel + "_pct"
				if !carbonGen.HasColumn(pctCol) {
					continue
				}
				canonical.LeftJoinColumns(carbonGen, pctCol)
				estimateFromShare(canonical, fuel+"_mw_est", pctCol)
				canonical.DropColumns(pctCol)
			}
		} else if logger != nil {
			logger.Warn("缺少demand_mw，无法用发电占比估算MW，跳过估算")
		}
	}

	// ========== 碳强度 ==========
	if !carbonIntensity.IsEmpty() {
		canonical.LeftJoinColumns(carbonIntensity, "carbon_intensity_actual", "carbon_intensity_forecast")
		coalesceColumns(canonical, model.ColCarbonIntensity, "carbon_intensity_actual", "carbon_intensity_forecast")
	}

	// ========== 系统电价 ==========
	if !elexonPrices.IsEmpty() {
		canonical.LeftJoinColumns(elexonPrices, elexonPrices.Columns()...)
		if canonical.HasColumn("system_buy_price") && canonical.HasColumn("system_sell_price") {
			averageColumns(canonical, model.ColSystemPrice, "system_buy_price", "system_sell_price")
		}
	}

	// ========== 标准列补齐与排序 ==========
	canonical.EnsureColumns(model.StandardColumns())
	canonical.ReorderColumns(model.StandardColumns())
	canonical.DedupSort()

	if logger != nil {
		start, end, ok := canonical.TimeRange()
		fields := logrus.Fields{
			"rows":    canonical.Len(),
			"columns": len(canonical.Columns()),
		}
		if ok {
			fields["start"] = start
			fields["end"] = end
		}
		logger.WithFields(fields).Info("规范化合并完成")
	}
	return canonical
}

// estimateFromShare est = demand × pct / 100；需求或占比任一缺失则该行留空
func estimateFromShare(t *model.Table, target, pctCol string) {
	t.EnsureColumns([]string{target})
	for i := 0; i < t.Len(); i++ {
		demand, ok1 := t.Value(i, model.ColDemandMW)
		pct, ok2 := t.Value(i, pctCol)
		if ok1 && ok2 {
			t.SetValue(i, target, demand*pct/100)
		}
	}
}

// coalesceColumns 逐行取第一个非空值
func coalesceColumns(t *model.Table, target string, sources ...string) {
	t.EnsureColumns([]string{target})
	for i := 0; i < t.Len(); i++ {
		for _, src := range sources {
			if v, ok := t.Value(i, src); ok {
				t.SetValue(i, target, v)
				break
			}
		}
	}
}

// averageColumns 逐行求均值；任一来源缺失则该行留空（与上游价格语义一致）
func averageColumns(t *model.Table, target string, a, b string) {
	t.EnsureColumns([]string{target})
	for i := 0; i < t.Len(); i++ {
		va, ok1 := t.Value(i, a)
		vb, ok2 := t.Value(i, b)
		if ok1 && ok2 {
			t.SetValue(i, target, (va+vb)/2)
		}
	}
}
