package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"GridBridge/internal/repository"
	"GridBridge/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// IngestHandler 数据摄取与审计查询接口
type IngestHandler struct {
	ingestService *service.IngestService
	auditRepo     repository.AuditRepository
	logger        *logrus.Logger
}

// NewIngestHandler 创建 IngestHandler
func NewIngestHandler(db *gorm.DB, ingestService *service.IngestService, logger *logrus.Logger) *IngestHandler {
	return &IngestHandler{
		ingestService: ingestService,
		auditRepo:     repository.NewAuditRepository(db),
		logger:        logger,
	}
}

// RunIngest 触发一次摄取运行
// POST /api/ingest/run?start=2026-08-01&days=1
func (h *IngestHandler) RunIngest(c *gin.Context) {
	start := time.Now().UTC().AddDate(0, 0, -1)
	if raw := c.Query("start"); raw != "" {
		ts, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start须为YYYY-MM-DD格式"})
			return
		}
		start = ts
	}
	days, _ := strconv.Atoi(c.DefaultQuery("days", "0"))

	result, err := h.ingestService.Run(c.Request.Context(), start, days)
	if err != nil {
		h.logger.WithError(err).Error("RunIngest failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListAudits 审计记录列表（按运行时间倒序）
// GET /api/ingest/audits?page=1&page_size=20
func (h *IngestHandler) ListAudits(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	traces, total, err := h.auditRepo.ListTraces(c.Request.Context(), page, pageSize)
	if err != nil {
		h.logger.WithError(err).Error("ListAudits failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total":  total,
		"page":   page,
		"audits": traces,
	})
}

// GetAudit 按run_id查单条审计记录
// GET /api/ingest/audits/:run_id
func (h *IngestHandler) GetAudit(c *gin.Context) {
	runID := c.Param("run_id")
	trace, err := h.auditRepo.GetTraceByRunID(c.Request.Context(), runID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "审计记录不存在"})
			return
		}
		h.logger.WithError(err).Error("GetAudit failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, trace)
}
