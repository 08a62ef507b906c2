package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"GridBridge/internal/config"
	"GridBridge/internal/model"
	"GridBridge/internal/source"

	"github.com/sirupsen/logrus"
)

// LayerType 图层类型（封闭枚举，RefreshLayer做穷举分发）
type LayerType string

const (
	LayerGenerators      LayerType = "generators"
	LayerInterconnectors LayerType = "interconnectors"
	LayerGridNodes       LayerType = "grid_nodes"
	LayerCarbonIntensity LayerType = "carbon_intensity"
	LayerCfDProjects     LayerType = "cfd_projects"
	LayerDemandHeatmap   LayerType = "demand_heatmap"
	LayerConstraints     LayerType = "constraints"
	LayerHeadroom        LayerType = "headroom"
)

// AllLayerTypes 全部图层类型（RefreshAll遍历顺序）
func AllLayerTypes() []LayerType {
	return []LayerType{
		LayerGenerators, LayerInterconnectors, LayerGridNodes,
		LayerCarbonIntensity, LayerCfDProjects, LayerDemandHeatmap,
		LayerConstraints, LayerHeadroom,
	}
}

// LayerStyle 单条样式项（颜色/图标/线宽等）
type LayerStyle map[string]interface{}

// OverlayLayer 单个叠加图层
type OverlayLayer struct {
	LayerType   LayerType             `json:"layer_type"`
	Name        string                `json:"name"`
	Visible     bool                  `json:"visible"`
	Opacity     float64               `json:"opacity"`
	Data        interface{}           `json:"data"`
	Style       map[string]LayerStyle `json:"style"`
	LastUpdated *time.Time            `json:"last_updated"`
}

// MapBounds 地图可视范围
type MapBounds struct {
	North float64 `json:"north"` // 苏格兰北端
	South float64 `json:"south"` // 海峡群岛
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// DefaultMapBounds GB默认范围
func DefaultMapBounds() MapBounds {
	return MapBounds{North: 60.0, South: 49.5, East: 2.0, West: -8.0}
}

// Contains 坐标是否落在范围内（含边界）
func (b MapBounds) Contains(lat, lng float64) bool {
	return b.South <= lat && lat <= b.North && b.West <= lng && lng <= b.East
}

// defaultStyles 各图层默认样式表
var defaultStyles = map[LayerType]map[string]LayerStyle{
	LayerGenerators: {
		"gas":     {"color": "#ef4444", "icon": "flame"},
		"coal":    {"color": "#1f2937", "icon": "factory"},
		"nuclear": {"color": "#f59e0b", "icon": "atom"},
		"wind":    {"color": "#10b981", "icon": "wind"},
		"solar":   {"color": "#fbbf24", "icon": "sun"},
		"hydro":   {"color": "#3b82f6", "icon": "droplet"},
		"biomass": {"color": "#84cc16", "icon": "leaf"},
		"battery": {"color": "#8b5cf6", "icon": "battery"},
		"other":   {"color": "#6b7280", "icon": "zap"},
	},
	LayerInterconnectors: {
		"default": {"color": "#06b6d4", "width": 3},
		"import":  {"color": "#22c55e", "width": 3},
		"export":  {"color": "#ef4444", "width": 3},
	},
	LayerCarbonIntensity: {
		"very low":  {"color": "#22c55e", "fill": "#dcfce7"},
		"low":       {"color": "#84cc16", "fill": "#ecfccb"},
		"moderate":  {"color": "#f59e0b", "fill": "#fef3c7"},
		"high":      {"color": "#f97316", "fill": "#ffedd5"},
		"very high": {"color": "#ef4444", "fill": "#fee2e2"},
	},
	LayerGridNodes: {
		"gsp":        {"color": "#3b82f6", "size": 12},
		"bsp":        {"color": "#8b5cf6", "size": 10},
		"substation": {"color": "#6b7280", "size": 8},
	},
	LayerHeadroom: {
		"high":   {"color": "#22c55e", "fill_opacity": 0.6},
		"medium": {"color": "#f59e0b", "fill_opacity": 0.6},
		"low":    {"color": "#ef4444", "fill_opacity": 0.6},
	},
	LayerCfDProjects: {
		"default": {"color": "#8b5cf6", "icon": "contract"},
	},
}

// HeadroomEntry 余量图层数据项
type HeadroomEntry struct {
	NodeID     string       `json:"node_id"`
	Name       string       `json:"name"`
	Coords     model.Coords `json:"coords"`
	HeadroomMW float64      `json:"headroom_mw"`
	Level      string       `json:"level"`
}

// OverlayState 完整叠加态（供序列化下发前端）
type OverlayState struct {
	Bounds    MapBounds                   `json:"bounds"`
	Layers    map[LayerType]*OverlayLayer `json:"layers"`
	Timestamp time.Time                   `json:"timestamp"`
}

// OverlaySummary 各图层汇总统计
type OverlaySummary struct {
	TotalGenerators      int                `json:"total_generators"`
	TotalCapacityMW      float64            `json:"total_capacity_mw"`
	TotalOutputMW        float64            `json:"total_output_mw"`
	GenerationByFuel     map[string]float64 `json:"generation_by_fuel"`
	InterconnectorFlowMW float64            `json:"interconnector_flow_mw"`
	AvgCarbonIntensity   float64            `json:"avg_carbon_intensity"`
	CfDProjects          int                `json:"cfd_projects"`
	CfDCapacityMW        float64            `json:"cfd_capacity_mw"`
	GridNodes            int                `json:"grid_nodes"`
	TotalHeadroomMW      float64            `json:"total_headroom_mw"`
}

// GridOverlay 叠加图层管理器：把各数据源汇成地图图层
type GridOverlay struct {
	registry *source.SourceRegistry
	logger   *logrus.Logger
	bounds   MapBounds
	agg      *MultiSourceAggregator // 复用类型化数据源查找

	mu        sync.RWMutex
	layers    map[LayerType]*OverlayLayer
	callbacks []func(LayerType)
}

// NewGridOverlay 创建叠加管理器；地理范围取自配置，未配置时用GB默认
func NewGridOverlay(registry *source.SourceRegistry, agg *MultiSourceAggregator, cfg *config.Config, logger *logrus.Logger) *GridOverlay {
	bounds := DefaultMapBounds()
	if cfg != nil && (cfg.Overlay.BoundsNorth != 0 || cfg.Overlay.BoundsSouth != 0) {
		bounds = MapBounds{
			North: cfg.Overlay.BoundsNorth,
			South: cfg.Overlay.BoundsSouth,
			East:  cfg.Overlay.BoundsEast,
			West:  cfg.Overlay.BoundsWest,
		}
	}
	return &GridOverlay{
		registry: registry,
		logger:   logger,
		agg:      agg,
		bounds:   bounds,
		layers:   make(map[LayerType]*OverlayLayer),
	}
}

// OnUpdate 注册图层更新回调
func (o *GridOverlay) OnUpdate(callback func(LayerType)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.callbacks = append(o.callbacks, callback)
}

// notifyUpdate 逐个触发回调；单个回调panic不影响其余
func (o *GridOverlay) notifyUpdate(layerType LayerType) {
	o.mu.RLock()
	callbacks := append([]func(LayerType){}, o.callbacks...)
	o.mu.RUnlock()

	for _, cb := range callbacks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					o.logger.WithFields(logrus.Fields{
						"layer": layerType,
						"panic": r,
					}).Warn("图层更新回调异常，已忽略")
				}
			}()
			cb(layerType)
		}()
	}
}

// RefreshLayer 刷新指定图层。穷举分发：未知图层类型返回错误
func (o *GridOverlay) RefreshLayer(ctx context.Context, layerType LayerType) (*OverlayLayer, error) {
	var layer *OverlayLayer
	switch layerType {
	case LayerGenerators:
		layer = o.refreshGenerators(ctx)
	case LayerInterconnectors:
		layer = o.refreshInterconnectors(ctx)
	case LayerCarbonIntensity:
		layer = o.refreshCarbonIntensity(ctx)
	case LayerCfDProjects:
		layer = o.refreshCfDProjects(ctx)
	case LayerGridNodes:
		layer = o.refreshGridNodes()
	case LayerHeadroom:
		layer = o.refreshHeadroom()
	case LayerDemandHeatmap, LayerConstraints:
		// 暂无数据来源：已有图层原样返回，否则给个空图层占位
		o.mu.RLock()
		existing, ok := o.layers[layerType]
		o.mu.RUnlock()
		if ok {
			return existing, nil
		}
		return newLayer(layerType, string(layerType), nil, nil), nil
	default:
		return nil, fmt.Errorf("未知图层类型: %s", layerType)
	}

	o.mu.Lock()
	o.layers[layerType] = layer
	o.mu.Unlock()
	o.notifyUpdate(layerType)
	return layer, nil
}

// RefreshAll 刷新全部图层；单图层失败只记日志
func (o *GridOverlay) RefreshAll(ctx context.Context) map[LayerType]*OverlayLayer {
	for _, lt := range AllLayerTypes() {
		if _, err := o.RefreshLayer(ctx, lt); err != nil {
			o.logger.WithError(err).WithField("layer", lt).Error("刷新图层失败")
		}
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make(map[LayerType]*OverlayLayer, len(o.layers))
	for lt, layer := range o.layers {
		out[lt] = layer
	}
	return out
}

func newLayer(lt LayerType, name string, data interface{}, style map[string]LayerStyle) *OverlayLayer {
	now := time.Now().UTC()
	return &OverlayLayer{
		LayerType:   lt,
		Name:        name,
		Visible:     true,
		Opacity:     1.0,
		Data:        data,
		Style:       style,
		LastUpdated: &now,
	}
}

// refreshGenerators 机组图层（过滤到GB范围内）
func (o *GridOverlay) refreshGenerators(ctx context.Context) *OverlayLayer {
	var generators []*model.Generator
	if src, ok := o.agg.generatorSource(); ok {
		for _, g := range src.GetGenerators(ctx) {
			if o.bounds.Contains(g.Coords.Lat, g.Coords.Lng) {
				generators = append(generators, g)
			}
		}
	}
	return newLayer(LayerGenerators, "Power Generators", generators, defaultStyles[LayerGenerators])
}

// refreshInterconnectors 互联线图层（按流量方向标注）
func (o *GridOverlay) refreshInterconnectors(ctx context.Context) *OverlayLayer {
	var interconnectors []*model.Interconnector
	if src, ok := o.agg.generatorSource(); ok {
		interconnectors = src.GetInterconnectors(ctx)
		for _, ic := range interconnectors {
			switch {
			case ic.FlowMW > 0:
				ic.FlowDirection = "import"
			case ic.FlowMW < 0:
				ic.FlowDirection = "export"
			default:
				ic.FlowDirection = "balanced"
			}
		}
	}
	return newLayer(LayerInterconnectors, "Interconnectors", interconnectors, defaultStyles[LayerInterconnectors])
}

// refreshCarbonIntensity 区域碳强度图层
func (o *GridOverlay) refreshCarbonIntensity(ctx context.Context) *OverlayLayer {
	var regions []model.RegionIntensity
	if src, ok := o.agg.intensitySource(); ok {
		regions = src.GetRegionalMapData(ctx)
	}
	return newLayer(LayerCarbonIntensity, "Carbon Intensity by Region", regions, defaultStyles[LayerCarbonIntensity])
}

// refreshCfDProjects CfD项目图层
func (o *GridOverlay) refreshCfDProjects(ctx context.Context) *OverlayLayer {
	var contracts []*model.CfDContract
	if src, ok := o.agg.contractSource(); ok {
		contracts = src.GetContracts(ctx)
	}
	return newLayer(LayerCfDProjects, "CfD Projects", contracts, defaultStyles[LayerCfDProjects])
}

// refreshGridNodes GSP节点图层（静态清单，无公开实时GSP数据源）
func (o *GridOverlay) refreshGridNodes() *OverlayLayer {
	return newLayer(LayerGridNodes, "Grid Supply Points", gridSupplyPoints(), defaultStyles[LayerGridNodes])
}

// refreshHeadroom 余量图层（按GSP余量分级）
func (o *GridOverlay) refreshHeadroom() *OverlayLayer {
	var entries []HeadroomEntry
	for _, node := range gridSupplyPoints() {
		entries = append(entries, HeadroomEntry{
			NodeID:     node.ID,
			Name:       node.Name,
			Coords:     node.Coords,
			HeadroomMW: node.HeadroomMW,
			Level:      node.HeadroomLevel(),
		})
	}
	return newLayer(LayerHeadroom, "Available Headroom", entries, defaultStyles[LayerHeadroom])
}

// GetLayer 取已刷新的图层，未刷新过返回nil
func (o *GridOverlay) GetLayer(layerType LayerType) *OverlayLayer {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.layers[layerType]
}

// SetLayerVisibility 设置图层可见性；图层尚未刷新时为no-op
func (o *GridOverlay) SetLayerVisibility(layerType LayerType, visible bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if layer, ok := o.layers[layerType]; ok {
		layer.Visible = visible
	}
}

// SetLayerOpacity 设置图层透明度，钳制到[0,1]
func (o *GridOverlay) SetLayerOpacity(layerType LayerType, opacity float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if layer, ok := o.layers[layerType]; ok {
		if opacity < 0 {
			opacity = 0
		}
		if opacity > 1 {
			opacity = 1
		}
		layer.Opacity = opacity
	}
}

// GetState 完整叠加态
func (o *GridOverlay) GetState() *OverlayState {
	o.mu.RLock()
	defer o.mu.RUnlock()
	layers := make(map[LayerType]*OverlayLayer, len(o.layers))
	for lt, layer := range o.layers {
		layers[lt] = layer
	}
	return &OverlayState{
		Bounds:    o.bounds,
		Layers:    layers,
		Timestamp: time.Now().UTC(),
	}
}

// GetSummary 跨图层汇总统计（只统计已刷新的图层）
func (o *GridOverlay) GetSummary() *OverlaySummary {
	o.mu.RLock()
	defer o.mu.RUnlock()

	summary := &OverlaySummary{GenerationByFuel: map[string]float64{}}

	if layer, ok := o.layers[LayerGenerators]; ok {
		if generators, ok := layer.Data.([]*model.Generator); ok {
			summary.TotalGenerators = len(generators)
			for _, g := range generators {
				summary.TotalCapacityMW += g.CapacityMW
				summary.TotalOutputMW += g.OutputMW
				summary.GenerationByFuel[string(g.FuelType)] += g.OutputMW
			}
		}
	}

	if layer, ok := o.layers[LayerInterconnectors]; ok {
		if interconnectors, ok := layer.Data.([]*model.Interconnector); ok {
			for _, ic := range interconnectors {
				summary.InterconnectorFlowMW += ic.FlowMW
			}
		}
	}

	if layer, ok := o.layers[LayerCarbonIntensity]; ok {
		if regions, ok := layer.Data.([]model.RegionIntensity); ok && len(regions) > 0 {
			var sum float64
			for _, r := range regions {
				sum += r.Intensity
			}
			summary.AvgCarbonIntensity = sum / float64(len(regions))
		}
	}

	if layer, ok := o.layers[LayerCfDProjects]; ok {
		if contracts, ok := layer.Data.([]*model.CfDContract); ok {
			summary.CfDProjects = len(contracts)
			for _, c := range contracts {
				summary.CfDCapacityMW += c.CapacityMW
			}
		}
	}

	if layer, ok := o.layers[LayerGridNodes]; ok {
		if nodes, ok := layer.Data.([]*model.GridNode); ok {
			summary.GridNodes = len(nodes)
			for _, n := range nodes {
				summary.TotalHeadroomMW += n.HeadroomMW
			}
		}
	}

	return summary
}
