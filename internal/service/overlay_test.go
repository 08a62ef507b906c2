package service

import (
	"context"
	"testing"

	"GridBridge/internal/config"
	"GridBridge/internal/interfaces"
	"GridBridge/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOverlay(sources ...interfaces.GridSource) *GridOverlay {
	agg := newTestAggregator(sources...)
	return NewGridOverlay(agg.registry, agg, nil, testLogger())
}

func TestRefreshLayerEmptyUpstream(t *testing.T) {
	overlay := newTestOverlay() // 无任何数据源

	layer, err := overlay.RefreshLayer(context.Background(), LayerGenerators)
	require.NoError(t, err)
	require.NotNil(t, layer)
	assert.Equal(t, LayerGenerators, layer.LayerType)
	// 上游为空也要返回图层对象，数据为空列表而不是报错
	generators, _ := layer.Data.([]*model.Generator)
	assert.Empty(t, generators)
	assert.NotNil(t, layer.LastUpdated)
}

func TestRefreshLayerUnknownType(t *testing.T) {
	overlay := newTestOverlay()
	_, err := overlay.RefreshLayer(context.Background(), LayerType("nonsense"))
	assert.Error(t, err)
}

func TestRefreshGridNodesStaticFixture(t *testing.T) {
	overlay := newTestOverlay()

	layer, err := overlay.RefreshLayer(context.Background(), LayerGridNodes)
	require.NoError(t, err)
	nodes, ok := layer.Data.([]*model.GridNode)
	require.True(t, ok)
	assert.Equal(t, 35, len(nodes))
	for _, n := range nodes {
		assert.True(t, DefaultMapBounds().Contains(n.Coords.Lat, n.Coords.Lng), "节点%s超出GB范围", n.ID)
	}
}

func TestHeadroomLevels(t *testing.T) {
	overlay := newTestOverlay()

	layer, err := overlay.RefreshLayer(context.Background(), LayerHeadroom)
	require.NoError(t, err)
	entries, ok := layer.Data.([]HeadroomEntry)
	require.True(t, ok)
	require.NotEmpty(t, entries)

	for _, e := range entries {
		switch {
		case e.HeadroomMW > 100:
			assert.Equal(t, "high", e.Level)
		case e.HeadroomMW > 50:
			assert.Equal(t, "medium", e.Level)
		default:
			assert.Equal(t, "low", e.Level)
		}
	}
}

func TestCallbackPanicSwallowed(t *testing.T) {
	overlay := newTestOverlay()

	var called []LayerType
	overlay.OnUpdate(func(lt LayerType) { panic("boom") })
	overlay.OnUpdate(func(lt LayerType) { called = append(called, lt) })

	_, err := overlay.RefreshLayer(context.Background(), LayerGridNodes)
	require.NoError(t, err)
	// 第一个回调panic不影响第二个回调
	assert.Equal(t, []LayerType{LayerGridNodes}, called)
}

func TestSetVisibilityAndOpacity(t *testing.T) {
	overlay := newTestOverlay()
	_, err := overlay.RefreshLayer(context.Background(), LayerGridNodes)
	require.NoError(t, err)

	overlay.SetLayerVisibility(LayerGridNodes, false)
	assert.False(t, overlay.GetLayer(LayerGridNodes).Visible)

	overlay.SetLayerOpacity(LayerGridNodes, 1.7)
	assert.Equal(t, 1.0, overlay.GetLayer(LayerGridNodes).Opacity)
	overlay.SetLayerOpacity(LayerGridNodes, -0.2)
	assert.Equal(t, 0.0, overlay.GetLayer(LayerGridNodes).Opacity)

	// 未刷新过的图层：no-op而非panic
	overlay.SetLayerVisibility(LayerConstraints, false)
	assert.Nil(t, overlay.GetLayer(LayerConstraints))
}

func TestMapBoundsContains(t *testing.T) {
	b := DefaultMapBounds()
	assert.True(t, b.Contains(51.5, -0.1))   // 伦敦
	assert.True(t, b.Contains(57.5, -4.2))   // 因弗内斯
	assert.False(t, b.Contains(48.85, 2.35)) // 巴黎：纬度越界
	assert.False(t, b.Contains(52.0, 5.0))   // 经度越界
}

func TestGetSummaryAggregates(t *testing.T) {
	overlay := newTestOverlay()
	_, err := overlay.RefreshLayer(context.Background(), LayerGridNodes)
	require.NoError(t, err)

	summary := overlay.GetSummary()
	assert.Equal(t, 35, summary.GridNodes)
	assert.Greater(t, summary.TotalHeadroomMW, 0.0)
	// 未刷新的图层不计入
	assert.Equal(t, 0, summary.TotalGenerators)
}

func TestGetStateIncludesBounds(t *testing.T) {
	overlay := newTestOverlay()
	state := overlay.GetState()
	assert.Equal(t, 60.0, state.Bounds.North)
	assert.Equal(t, 49.5, state.Bounds.South)
	assert.Empty(t, state.Layers)
}

func TestConfiguredBoundsUsed(t *testing.T) {
	gen := &stubGeneratorSource{
		generators: []*model.Generator{
			{ID: "inside", Coords: model.Coords{Lat: 52.0, Lng: -1.0}},
			{ID: "outside", Coords: model.Coords{Lat: 55.5, Lng: -3.0}}, // 配置北界以外
		},
	}
	agg := newTestAggregator(gen)
	cfg := &config.Config{
		Overlay: config.OverlayConfig{
			BoundsNorth: 54.0,
			BoundsSouth: 50.0,
			BoundsEast:  1.5,
			BoundsWest:  -6.0,
		},
	}
	overlay := NewGridOverlay(agg.registry, agg, cfg, testLogger())

	state := overlay.GetState()
	assert.Equal(t, 54.0, state.Bounds.North)
	assert.Equal(t, -6.0, state.Bounds.West)

	// 收紧后的范围过滤掉北界外的机组
	layer, err := overlay.RefreshLayer(context.Background(), LayerGenerators)
	require.NoError(t, err)
	generators, ok := layer.Data.([]*model.Generator)
	require.True(t, ok)
	require.Len(t, generators, 1)
	assert.Equal(t, "inside", generators[0].ID)
}
