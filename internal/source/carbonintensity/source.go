package carbonintensity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"GridBridge/internal/config"
	"GridBridge/internal/interfaces"
	"GridBridge/internal/model"
	"GridBridge/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

// ciTimeLayout Carbon Intensity API的时间格式（分钟精度+Z）
const ciTimeLayout = "2006-01-02T15:04Z"

// Source UK National Grid Carbon Intensity API：
// 碳强度（实时/预测/分区）与发电占比。
type Source struct {
	cfg    *config.SourceConfig
	client *httpclient.RestClient
	logger *logrus.Logger
}

// NewSource 创建Carbon Intensity数据源
func NewSource(cfg *config.SourceConfig, logger *logrus.Logger) interfaces.GridSource {
	return &Source{
		cfg:    cfg,
		client: httpclient.NewRestClient(model.SourceCarbonIntensity, cfg, logger),
		logger: logger,
	}
}

// GetName ========== 实现GridSource接口 ==========
func (s *Source) GetName() string {
	return model.SourceCarbonIntensity
}

// FetchLatest 拉取当前碳强度
func (s *Source) FetchLatest(ctx context.Context) interfaces.FetchResult {
	data, err := s.client.GetJSON(ctx, "/intensity", nil)
	if err != nil {
		return interfaces.FetchResult{Source: s.GetName(), OK: false, Err: err.Error()}
	}
	return interfaces.FetchResult{Source: s.GetName(), OK: true, Data: data}
}

// GetCurrentIntensity 当前碳强度读数（失败返回零值，Index为unknown）
func (s *Source) GetCurrentIntensity(ctx context.Context) model.IntensityReading {
	reading := model.IntensityReading{Index: "unknown"}
	res := s.FetchLatest(ctx)
	if !res.OK {
		return reading
	}
	var resp model.CIIntensityResponse
	if err := json.Unmarshal(res.Data, &resp); err != nil || len(resp.Data) == 0 {
		s.logger.WithError(err).Warn("解析碳强度响应失败，降级为空结果")
		return reading
	}
	entry := resp.Data[0]
	if entry.Intensity.Forecast != nil {
		reading.Forecast = *entry.Intensity.Forecast
	}
	reading.Actual = entry.Intensity.Actual
	if entry.Intensity.Index != "" {
		reading.Index = entry.Intensity.Index
	}
	return reading
}

// GetGenerationMix 当前发电占比（燃料→百分比）
func (s *Source) GetGenerationMix(ctx context.Context) map[string]float64 {
	data, err := s.client.GetJSON(ctx, "/generation", nil)
	if err != nil {
		return map[string]float64{}
	}
	var resp model.CIGenerationCurrent
	if err := json.Unmarshal(data, &resp); err != nil {
		s.logger.WithError(err).Warn("解析发电占比响应失败")
		return map[string]float64{}
	}
	mix := make(map[string]float64, len(resp.Data.GenerationMix))
	for _, item := range resp.Data.GenerationMix {
		mix[item.Fuel] = item.Perc
	}
	return mix
}

// dnoRegionCoords DNO区域近似质心（地图图层用）
var dnoRegionCoords = map[int]struct {
	Lat  float64
	Lng  float64
	Name string
}{
	1:  {51.5, -0.1, "North Scotland"},
	2:  {56.5, -4.0, "South Scotland"},
	3:  {54.5, -1.5, "North East England"},
	4:  {53.5, -2.5, "North West England"},
	5:  {53.8, -1.5, "Yorkshire"},
	6:  {52.5, -1.5, "West Midlands"},
	7:  {52.5, 0.5, "East Midlands"},
	8:  {52.0, 1.0, "East England"},
	9:  {51.5, -1.5, "South West England"},
	10: {51.3, -0.5, "South England"},
	11: {51.5, -0.1, "London"},
	12: {51.3, 0.5, "South East England"},
	13: {52.0, -3.5, "Wales"},
}

// GetRegionalMapData 分区碳强度（只保留有质心坐标的区域）
func (s *Source) GetRegionalMapData(ctx context.Context) []model.RegionIntensity {
	data, err := s.client.GetJSON(ctx, "/regional", nil)
	if err != nil {
		return []model.RegionIntensity{}
	}
	var resp model.CIRegionalResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		s.logger.WithError(err).Warn("解析分区碳强度响应失败")
		return []model.RegionIntensity{}
	}

	result := make([]model.RegionIntensity, 0, len(resp.Data))
	for _, region := range resp.Data {
		rc, ok := dnoRegionCoords[region.RegionID]
		if !ok {
			continue
		}
		intensity := 0.0
		if region.Intensity.Forecast != nil {
			intensity = *region.Intensity.Forecast
		}
		index := region.Intensity.Index
		if index == "" {
			index = "unknown"
		}
		result = append(result, model.RegionIntensity{
			ID:        region.RegionID,
			Name:      rc.Name,
			Coords:    model.Coords{Lat: rc.Lat, Lng: rc.Lng},
			Intensity: intensity,
			Index:     index,
		})
	}
	return result
}

// GetGenerationMixSeries 半小时发电占比序列（入库管线用）。
// 列名为<fuel>_pct，时间戳取每个周期的from。失败返回空表。
func (s *Source) GetGenerationMixSeries(ctx context.Context, from, to time.Time) *model.Table {
	endpoint := fmt.Sprintf("/generation/%s/%s", from.UTC().Format(ciTimeLayout), to.UTC().Format(ciTimeLayout))
	data, err := s.client.GetJSON(ctx, endpoint, nil)
	if err != nil {
		return model.NewTable()
	}
	var resp model.CIGenerationResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		s.logger.WithError(err).Warn("解析发电占比序列失败")
		return model.NewTable()
	}

	table := model.NewTable()
	for _, entry := range resp.Data {
		ts, err := time.Parse(ciTimeLayout, entry.From)
		if err != nil {
			s.logger.WithField("from", entry.From).Warn("发电占比条目时间解析失败，跳过")
			continue
		}
		values := make(map[string]float64, len(entry.GenerationMix))
		for _, fuel := range entry.GenerationMix {
			values[fuel.Fuel+"_pct"] = fuel.Perc
		}
		table.AppendRow(ts, values)
	}
	table.SortByTime()
	return table
}

// GetIntensitySeries 半小时碳强度序列（入库管线用）。
// 列：carbon_intensity_actual（可空）、carbon_intensity_forecast。
func (s *Source) GetIntensitySeries(ctx context.Context, from, to time.Time) *model.Table {
	endpoint := fmt.Sprintf("/intensity/%s/%s", from.UTC().Format(ciTimeLayout), to.UTC().Format(ciTimeLayout))
	data, err := s.client.GetJSON(ctx, endpoint, nil)
	if err != nil {
		return model.NewTable()
	}
	var resp model.CIIntensityResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		s.logger.WithError(err).Warn("解析碳强度序列失败")
		return model.NewTable()
	}

	table := model.NewTable()
	for _, entry := range resp.Data {
		ts, err := time.Parse(ciTimeLayout, entry.From)
		if err != nil {
			continue
		}
		values := make(map[string]float64, 2)
		if entry.Intensity.Actual != nil {
			values["carbon_intensity_actual"] = *entry.Intensity.Actual
		}
		if entry.Intensity.Forecast != nil {
			values["carbon_intensity_forecast"] = *entry.Intensity.Forecast
		}
		table.AppendRow(ts, values)
	}
	table.SortByTime()
	return table
}
