package cfdwatch

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"GridBridge/internal/config"
	"GridBridge/internal/interfaces"
	"GridBridge/internal/model"
	"GridBridge/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

// allocationRounds LCCC注册表的分配轮次（逐轮抓取）
var allocationRounds = []string{
	"Allocation Round 1",
	"Allocation Round 2",
	"Allocation Round 3",
	"Allocation Round 4",
	"Allocation Round 5",
	"Investment Contract",
}

// Source CfD Watch：从Low Carbon Contracts Company网站抓取
// 差价合约项目表（HTML表格）。更新很慢，缓存TTL建议1小时。
type Source struct {
	cfg    *config.SourceConfig
	client *httpclient.RestClient
	logger *logrus.Logger
}

// NewSource 创建CfD Watch数据源
func NewSource(cfg *config.SourceConfig, logger *logrus.Logger) interfaces.GridSource {
	return &Source{
		cfg:    cfg,
		client: httpclient.NewRestClient(model.SourceCfDWatch, cfg, logger),
		logger: logger,
	}
}

// GetName ========== 实现GridSource接口 ==========
func (s *Source) GetName() string {
	return model.SourceCfDWatch
}

// FetchLatest 抓取全部轮次，返回行记录JSON（与其他源的payload形态对齐）
func (s *Source) FetchLatest(ctx context.Context) interfaces.FetchResult {
	records := s.scrapeAllRounds(ctx)
	data, err := json.Marshal(map[string]interface{}{
		"success":  len(records) > 0,
		"projects": records,
	})
	if err != nil {
		return interfaces.FetchResult{Source: s.GetName(), OK: false, Err: err.Error()}
	}
	return interfaces.FetchResult{Source: s.GetName(), OK: len(records) > 0, Data: data}
}

// scrapeAllRounds 逐轮抓取并解析HTML表格；单轮失败只跳过该轮
func (s *Source) scrapeAllRounds(ctx context.Context) []map[string]string {
	var all []map[string]string
	for _, round := range allocationRounds {
		html, err := s.client.GetJSON(ctx, "/cfds", map[string]string{
			"agreement_type":     "All",
			"allocation_round[]": round,
			"sort_by":            "name_1",
			"page":               "0",
		})
		if err != nil {
			continue
		}
		rows, err := ParseFirstHTMLTable(string(html))
		if err != nil {
			s.logger.WithError(err).WithField("round", round).Warn("解析CfD表格失败，跳过该轮")
			continue
		}
		for _, row := range rows {
			row["allocation_round"] = round
			all = append(all, row)
		}
	}
	return all
}

// GetContracts 全部CfD合同（ID由名称哈希派生；抓取失败返回空列表）
func (s *Source) GetContracts(ctx context.Context) []*model.CfDContract {
	records := s.scrapeAllRounds(ctx)
	contracts := make([]*model.CfDContract, 0, len(records))
	for _, rec := range records {
		name := firstNonEmpty(rec["Name"], rec["name_1"], "Unknown")
		tech := firstNonEmpty(rec["Technology"], "Unknown")
		status := firstNonEmpty(rec["Status"], "Active")
		capacity := parseNumeric(firstNonEmpty(rec["Capacity (MW)"], "0"))
		strike := parseNumeric(firstNonEmpty(rec["Strike Price (£/MWh)"], rec["Current Strike Price"], "0"))

		contracts = append(contracts, &model.CfDContract{
			ID:              model.CfDContractID(name),
			Name:            name,
			Technology:      tech,
			CapacityMW:      capacity,
			StrikePrice:     strike,
			AllocationRound: rec["allocation_round"],
			Status:          status,
		})
	}
	return contracts
}

// GetContractsByTechnology 按技术类型分组
func (s *Source) GetContractsByTechnology(ctx context.Context) map[string][]*model.CfDContract {
	result := make(map[string][]*model.CfDContract)
	for _, c := range s.GetContracts(ctx) {
		result[c.Technology] = append(result[c.Technology], c)
	}
	return result
}

// GetCapacityByRound 按分配轮次汇总容量
func (s *Source) GetCapacityByRound(ctx context.Context) map[string]float64 {
	result := make(map[string]float64)
	for _, c := range s.GetContracts(ctx) {
		result[c.AllocationRound] += c.CapacityMW
	}
	return result
}

// parseNumeric 解析带£与千分位逗号的数值，失败兜底为0
func parseNumeric(s string) float64 {
	cleaned := strings.NewReplacer("£", "", ",", "").Replace(strings.TrimSpace(s))
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
