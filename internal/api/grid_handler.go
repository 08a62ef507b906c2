package api

import (
	"net/http"
	"strconv"
	"time"

	"GridBridge/internal/repository"
	"GridBridge/internal/service"
	"GridBridge/internal/source"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// GridHandler 提供给前端的电网状态查询接口
type GridHandler struct {
	registry      *source.SourceRegistry
	aggregator    *service.MultiSourceAggregator
	canonicalRepo repository.CanonicalRepository
	logger        *logrus.Logger
}

// NewGridHandler 创建 GridHandler
func NewGridHandler(db *gorm.DB, registry *source.SourceRegistry, aggregator *service.MultiSourceAggregator, logger *logrus.Logger) *GridHandler {
	return &GridHandler{
		registry:      registry,
		aggregator:    aggregator,
		canonicalRepo: repository.NewCanonicalRepository(db),
		logger:        logger,
	}
}

// GetStatus 数据源健康状态：逐源拉取并汇报成功与否
// GET /api/grid/status
func (h *GridHandler) GetStatus(c *gin.Context) {
	results := h.registry.FetchAll(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"sources": results,
		"count":   len(results),
	})
}

// GetSnapshot 聚合快照
// GET /api/grid/snapshot?use_cache=true
func (h *GridHandler) GetSnapshot(c *gin.Context) {
	useCache := c.DefaultQuery("use_cache", "true") != "false"
	snapshot := h.aggregator.GetSnapshot(c.Request.Context(), useCache)
	c.JSON(http.StatusOK, snapshot)
}

// GetFlexibility 灵活性机会列表（按置信度降序）
// GET /api/grid/flexibility
func (h *GridHandler) GetFlexibility(c *gin.Context) {
	opportunities := h.aggregator.GetFlexibilityOpportunities(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"count":         len(opportunities),
		"opportunities": opportunities,
	})
}

// GetPriceCorrelation 碳价-电价-碳强度关联视图
// GET /api/grid/price-correlation
func (h *GridHandler) GetPriceCorrelation(c *gin.Context) {
	c.JSON(http.StatusOK, h.aggregator.GetPriceCorrelation(c.Request.Context()))
}

// GetCfDAnalysis CfD合同组合分析
// GET /api/grid/cfd-analysis
func (h *GridHandler) GetCfDAnalysis(c *gin.Context) {
	analysis, err := h.aggregator.GetCfDAnalysis(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("GetCfDAnalysis failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, analysis)
}

// ListRecords 规范化记录查询
// GET /api/grid/records?from=2026-08-01T00:00:00Z&to=2026-08-02T00:00:00Z&page=1&page_size=100
func (h *GridHandler) ListRecords(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "100"))

	var filter repository.RecordFilter
	if raw := c.Query("from"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from须为RFC3339格式"})
			return
		}
		filter.FromTime = &ts
	}
	if raw := c.Query("to"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to须为RFC3339格式"})
			return
		}
		filter.ToTime = &ts
	}

	records, total, err := h.canonicalRepo.ListRecords(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		h.logger.WithError(err).Error("ListRecords failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total":   total,
		"page":    page,
		"records": records,
	})
}
