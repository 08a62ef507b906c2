package api

import (
	"net/http"
	"strconv"

	"GridBridge/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// OverlayHandler 地图叠加图层接口
type OverlayHandler struct {
	overlay *service.GridOverlay
	logger  *logrus.Logger
}

// NewOverlayHandler 创建 OverlayHandler
func NewOverlayHandler(overlay *service.GridOverlay, logger *logrus.Logger) *OverlayHandler {
	return &OverlayHandler{overlay: overlay, logger: logger}
}

// GetState 完整叠加态
// GET /api/overlay/state
func (h *OverlayHandler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.overlay.GetState())
}

// GetSummary 跨图层汇总统计
// GET /api/overlay/summary
func (h *OverlayHandler) GetSummary(c *gin.Context) {
	c.JSON(http.StatusOK, h.overlay.GetSummary())
}

// RefreshAll 刷新全部图层
// POST /api/overlay/refresh
func (h *OverlayHandler) RefreshAll(c *gin.Context) {
	layers := h.overlay.RefreshAll(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"refreshed": len(layers)})
}

// RefreshLayer 刷新单个图层
// POST /api/overlay/layers/:layer/refresh
func (h *OverlayHandler) RefreshLayer(c *gin.Context) {
	layerType := service.LayerType(c.Param("layer"))
	layer, err := h.overlay.RefreshLayer(c.Request.Context(), layerType)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, layer)
}

// SetVisibility 设置图层可见性
// PUT /api/overlay/layers/:layer/visibility?visible=true
func (h *OverlayHandler) SetVisibility(c *gin.Context) {
	layerType := service.LayerType(c.Param("layer"))
	visible, err := strconv.ParseBool(c.DefaultQuery("visible", "true"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "visible须为布尔值"})
		return
	}
	h.overlay.SetLayerVisibility(layerType, visible)
	c.JSON(http.StatusOK, gin.H{"layer": layerType, "visible": visible})
}

// SetOpacity 设置图层透明度（0-1，自动钳制）
// PUT /api/overlay/layers/:layer/opacity?opacity=0.5
func (h *OverlayHandler) SetOpacity(c *gin.Context) {
	layerType := service.LayerType(c.Param("layer"))
	opacity, err := strconv.ParseFloat(c.DefaultQuery("opacity", "1"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "opacity须为数字"})
		return
	}
	h.overlay.SetLayerOpacity(layerType, opacity)
	c.JSON(http.StatusOK, gin.H{"layer": layerType, "opacity": opacity})
}
