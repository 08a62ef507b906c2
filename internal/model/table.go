package model

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Row 时间序列表的一行：UTC时间戳 + 稀疏数值集合。
// Values中缺键即表示空值（保留空值语义，不用0偷换）。
type Row struct {
	Timestamp time.Time
	Values    map[string]float64
}

// Table 按时间索引的列式表，规范化管线的核心数据结构。
// 每行对应一个30分钟结算周期（GB惯例）。列顺序显式维护，
// 规范化完成后时间戳唯一且单调递增（重复保留首次出现）。
type Table struct {
	columns []string
	rows    []Row
}

// NewTable 创建空表（可预声明列顺序）
func NewTable(columns ...string) *Table {
	return &Table{columns: append([]string{}, columns...)}
}

// IsEmpty 空表判定（nil表视为空，所有join对空输入为no-op）
func (t *Table) IsEmpty() bool {
	return t == nil || len(t.rows) == 0
}

// Len 行数
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Columns 列名（按当前顺序的副本）
func (t *Table) Columns() []string {
	if t == nil {
		return nil
	}
	return append([]string{}, t.columns...)
}

// HasColumn 列是否存在
func (t *Table) HasColumn(name string) bool {
	if t == nil {
		return false
	}
	for _, c := range t.columns {
		if c == name {
			return true
		}
	}
	return false
}

func (t *Table) ensureColumn(name string) {
	if !t.HasColumn(name) {
		t.columns = append(t.columns, name)
	}
}

// AppendRow 追加一行；新列按名称排序后登记，保证同一批数据
// 反复构建得到相同的列顺序（ToCSV与审计哈希的确定性前提）
func (t *Table) AppendRow(ts time.Time, values map[string]float64) {
	copied := make(map[string]float64, len(values))
	keys := make([]string, 0, len(values))
	for k, v := range values {
		keys = append(keys, k)
		copied[k] = v
	}
	sort.Strings(keys)
	for _, k := range keys {
		t.ensureColumn(k)
	}
	t.rows = append(t.rows, Row{Timestamp: ts.UTC(), Values: copied})
}

// Rows 所有行（内部切片，调用方不应修改结构）
func (t *Table) Rows() []Row {
	if t == nil {
		return nil
	}
	return t.rows
}

// Value 取指定行列的值，第二返回值表示非空
func (t *Table) Value(i int, column string) (float64, bool) {
	if t == nil || i < 0 || i >= len(t.rows) {
		return 0, false
	}
	v, ok := t.rows[i].Values[column]
	return v, ok
}

// SetValue 写指定行列的值，列不存在时自动注册
func (t *Table) SetValue(i int, column string, v float64) {
	if t == nil || i < 0 || i >= len(t.rows) {
		return
	}
	t.ensureColumn(column)
	if t.rows[i].Values == nil {
		t.rows[i].Values = make(map[string]float64)
	}
	t.rows[i].Values[column] = v
}

// Column 按列取值（空值为nil），主要供测试与完整度统计
func (t *Table) Column(name string) []*float64 {
	if t == nil {
		return nil
	}
	out := make([]*float64, len(t.rows))
	for i, r := range t.rows {
		if v, ok := r.Values[name]; ok {
			vv := v
			out[i] = &vv
		}
	}
	return out
}

// Copy 深拷贝
func (t *Table) Copy() *Table {
	if t == nil {
		return NewTable()
	}
	out := NewTable(t.columns...)
	for _, r := range t.rows {
		out.AppendRow(r.Timestamp, r.Values)
	}
	return out
}

// Rename 按映射表重命名列（行内键同步改名，未命中的列保持原名）
func (t *Table) Rename(mapping map[string]string) {
	if t == nil {
		return
	}
	for i, c := range t.columns {
		if newName, ok := mapping[c]; ok {
			t.columns[i] = newName
		}
	}
	for _, r := range t.rows {
		for old, newName := range mapping {
			if v, ok := r.Values[old]; ok {
				delete(r.Values, old)
				r.Values[newName] = v
			}
		}
	}
}

// ColumnsWithPrefix 前缀匹配的列名列表
func (t *Table) ColumnsWithPrefix(prefix string) []string {
	var out []string
	if t == nil {
		return out
	}
	for _, c := range t.columns {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

// SumColumnsInto 行内求和写入目标列（空值跳过；全空时记0，与来源聚合语义一致）
func (t *Table) SumColumnsInto(target string, columns []string) {
	if t == nil || len(columns) == 0 {
		return
	}
	t.ensureColumn(target)
	for _, r := range t.rows {
		sum := 0.0
		for _, c := range columns {
			if v, ok := r.Values[c]; ok {
				sum += v
			}
		}
		r.Values[target] = sum
	}
}

// OuterJoin 按时间戳外连接：保留双方全部时间戳，右表同时间戳的值并入
// （右表重复时间戳只取首次出现）。结果按时间升序。
func (t *Table) OuterJoin(other *Table) *Table {
	if other.IsEmpty() {
		return t.Copy()
	}
	if t.IsEmpty() {
		return other.Copy()
	}
	out := t.Copy()
	for _, c := range other.columns {
		out.ensureColumn(c)
	}

	rightByTS := make(map[int64]Row, other.Len())
	for _, r := range other.rows {
		key := r.Timestamp.UnixNano()
		if _, exists := rightByTS[key]; !exists {
			rightByTS[key] = r
		}
	}

	seen := make(map[int64]bool, out.Len())
	for _, r := range out.rows {
		key := r.Timestamp.UnixNano()
		seen[key] = true
		if rr, ok := rightByTS[key]; ok {
			for k, v := range rr.Values {
				r.Values[k] = v
			}
		}
	}
	// 右表独有的时间戳补行
	for _, r := range other.rows {
		if !seen[r.Timestamp.UnixNano()] {
			seen[r.Timestamp.UnixNano()] = true
			out.AppendRow(r.Timestamp, r.Values)
		}
	}
	out.SortByTime()
	return out
}

// LeftJoinColumns 按时间戳左连接：仅把右表指定列并入左表已有行，不新增行
func (t *Table) LeftJoinColumns(other *Table, columns ...string) {
	if t.IsEmpty() || other.IsEmpty() {
		return
	}
	rightByTS := make(map[int64]Row, other.Len())
	for _, r := range other.rows {
		key := r.Timestamp.UnixNano()
		if _, exists := rightByTS[key]; !exists {
			rightByTS[key] = r
		}
	}
	for _, c := range columns {
		if other.HasColumn(c) {
			t.ensureColumn(c)
		}
	}
	for _, r := range t.rows {
		rr, ok := rightByTS[r.Timestamp.UnixNano()]
		if !ok {
			continue
		}
		for _, c := range columns {
			if v, exists := rr.Values[c]; exists {
				r.Values[c] = v
			}
		}
	}
}

// EnsureColumns 保证列存在（缺失的补全为全空列）
func (t *Table) EnsureColumns(columns []string) {
	if t == nil {
		return
	}
	for _, c := range columns {
		t.ensureColumn(c)
	}
}

// ReorderColumns 指定列排在最前（保持其内部顺序），其余列按原顺序跟在后面
func (t *Table) ReorderColumns(front []string) {
	if t == nil {
		return
	}
	inFront := make(map[string]bool, len(front))
	var ordered []string
	for _, c := range front {
		if t.HasColumn(c) {
			ordered = append(ordered, c)
			inFront[c] = true
		}
	}
	for _, c := range t.columns {
		if !inFront[c] {
			ordered = append(ordered, c)
		}
	}
	t.columns = ordered
}

// DropColumns 删除列（含行内值）
func (t *Table) DropColumns(columns ...string) {
	if t == nil {
		return
	}
	drop := make(map[string]bool, len(columns))
	for _, c := range columns {
		drop[c] = true
	}
	var kept []string
	for _, c := range t.columns {
		if !drop[c] {
			kept = append(kept, c)
		}
	}
	t.columns = kept
	for _, r := range t.rows {
		for c := range drop {
			delete(r.Values, c)
		}
	}
}

// SortByTime 按时间戳升序稳定排序
func (t *Table) SortByTime() {
	if t == nil {
		return
	}
	sort.SliceStable(t.rows, func(i, j int) bool {
		return t.rows[i].Timestamp.Before(t.rows[j].Timestamp)
	})
}

// DedupSort 去除重复时间戳（保留首次出现），再按时间升序排序
func (t *Table) DedupSort() {
	if t == nil {
		return
	}
	seen := make(map[int64]bool, len(t.rows))
	kept := t.rows[:0]
	for _, r := range t.rows {
		key := r.Timestamp.UnixNano()
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, r)
	}
	t.rows = kept
	t.SortByTime()
}

// TimeRange 时间范围（空表时ok为false）
func (t *Table) TimeRange() (start, end time.Time, ok bool) {
	if t.IsEmpty() {
		return time.Time{}, time.Time{}, false
	}
	start, end = t.rows[0].Timestamp, t.rows[0].Timestamp
	for _, r := range t.rows[1:] {
		if r.Timestamp.Before(start) {
			start = r.Timestamp
		}
		if r.Timestamp.After(end) {
			end = r.Timestamp
		}
	}
	return start, end, true
}

// Completeness 每列非空值占比（空表返回空map）
func (t *Table) Completeness() map[string]float64 {
	out := make(map[string]float64)
	if t.IsEmpty() {
		return out
	}
	for _, c := range t.columns {
		nonNull := 0
		for _, r := range t.rows {
			if _, ok := r.Values[c]; ok {
				nonNull++
			}
		}
		out[c] = float64(nonNull) / float64(len(t.rows))
	}
	return out
}

// ToCSV 确定性文本序列化（审计哈希输入）：
// 表头timestamp+列名，时间戳RFC3339，空值为空字段，浮点用最短往返格式。
func (t *Table) ToCSV() string {
	var b strings.Builder
	b.WriteString("timestamp")
	if t != nil {
		for _, c := range t.columns {
			b.WriteByte(',')
			b.WriteString(c)
		}
	}
	b.WriteByte('\n')
	if t == nil {
		return b.String()
	}
	for _, r := range t.rows {
		b.WriteString(r.Timestamp.UTC().Format(time.RFC3339))
		for _, c := range t.columns {
			b.WriteByte(',')
			if v, ok := r.Values[c]; ok {
				b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
