package source

import (
	"context"
	"fmt"
	"sync"

	"GridBridge/internal/config"
	"GridBridge/internal/interfaces"
	"GridBridge/internal/model"
	"GridBridge/internal/source/carbonintensity"
	"GridBridge/internal/source/cfdwatch"
	"GridBridge/internal/source/etswatch"
	"GridBridge/internal/source/kilowatts"
	"GridBridge/internal/source/ngdataportal"
	"GridBridge/internal/source/octopus"

	"github.com/sirupsen/logrus"
)

// 默认数据源的工厂函数在此集中挂接（elexon走独立的回补摄取链路，不进注册表）
func init() {
	Register(model.SourceKilowattsGrid, kilowatts.NewSource)
	Register(model.SourceNGDataPortal, ngdataportal.NewSource)
	Register(model.SourceCarbonIntensity, carbonintensity.NewSource)
	Register(model.SourceCfDWatch, cfdwatch.NewSource)
	Register(model.SourceOctopus, octopus.NewSource)
	Register(model.SourceETSWatch, etswatch.NewSource)
}

// SourceRegistry 数据源实例注册表
type SourceRegistry struct {
	cfg    *config.Config
	logger *logrus.Logger
	// 数据源名→实例的映射
	sources map[string]interfaces.GridSource
}

// NewSourceRegistry 从配置+工厂注册表初始化所有数据源实例
func NewSourceRegistry(cfg *config.Config, logger *logrus.Logger) *SourceRegistry {
	r := &SourceRegistry{
		cfg:     cfg,
		logger:  logger,
		sources: make(map[string]interfaces.GridSource),
	}
	r.initSourcesFromFactories()
	return r
}

// initSourcesFromFactories 遍历配置中的数据源，匹配工厂函数创建实例
func (r *SourceRegistry) initSourcesFromFactories() {
	r.logger.WithField("factory_sources", ListFactories()).Info("已注册的数据源工厂函数")

	for name, srcCfg := range r.cfg.Sources {
		factory, ok := GetFactory(name)
		if !ok {
			// elexon等走独立链路的数据源会落到这里，属于正常情况
			r.logger.WithField("source", name).Debug("该数据源无对应工厂函数，跳过")
			continue
		}

		cfgCopy := srcCfg
		ins := factory(&cfgCopy, r.logger)
		if ins == nil {
			r.logger.WithField("source", name).Error("工厂函数返回nil数据源实例")
			continue
		}
		if ins.GetName() != name {
			r.logger.WithFields(logrus.Fields{
				"config_source":   name,
				"instance_source": ins.GetName(),
			}).Error("数据源名与配置不匹配")
			continue
		}

		r.sources[name] = ins
		r.logger.WithField("source", name).Info("数据源实例初始化成功并加入注册表")
	}

	r.logger.WithField("instance_sources", len(r.sources)).Info("最终初始化的数据源实例数量")
}

// RegisterInstance 直接挂一个数据源实例（覆盖同名实例）
func (r *SourceRegistry) RegisterInstance(ins interfaces.GridSource) {
	r.sources[ins.GetName()] = ins
}

// Get 获取数据源实例
func (r *SourceRegistry) Get(name string) (interfaces.GridSource, error) {
	ins, ok := r.sources[name]
	if !ok {
		var registered []string
		for n := range r.sources {
			registered = append(registered, n)
		}
		return nil, fmt.Errorf("数据源%s未初始化（已初始化：%v）", name, registered)
	}
	return ins, nil
}

// List 所有已初始化的数据源名
func (r *SourceRegistry) List() []string {
	var names []string
	for n := range r.sources {
		names = append(names, n)
	}
	return names
}

// Count 已初始化实例数量
func (r *SourceRegistry) Count() int {
	return len(r.sources)
}

// FetchAll 并发拉取所有数据源的最新数据；单个失败不影响其他数据源
func (r *SourceRegistry) FetchAll(ctx context.Context) map[string]interfaces.FetchResult {
	results := make(map[string]interfaces.FetchResult, len(r.sources))

	var mu sync.Mutex
	var wg sync.WaitGroup
	for name, src := range r.sources {
		wg.Add(1)
		go func(name string, src interfaces.GridSource) {
			defer wg.Done()
			res := src.FetchLatest(ctx)
			mu.Lock()
			results[name] = res
			mu.Unlock()
		}(name, src)
	}
	wg.Wait()

	ok := 0
	for _, res := range results {
		if res.OK {
			ok++
		}
	}
	r.logger.WithFields(logrus.Fields{
		"total": len(results),
		"ok":    ok,
	}).Info("全量数据源拉取完成")
	return results
}
