// internal/source/factory.go
package source

import (
	"fmt"

	"GridBridge/internal/interfaces"

	"github.com/sirupsen/logrus"
)

// ========== 全局工厂函数注册表（依赖interfaces包） ==========
var factoryRegistry = make(map[string]interfaces.Factory)

// Register 注册数据源工厂函数，供各数据源包挂接
func Register(name string, factory interfaces.Factory) {
	if factory == nil {
		panic(fmt.Sprintf("数据源%s的工厂函数不能为nil", name))
	}
	if _, exists := factoryRegistry[name]; exists {
		logrus.Warnf("数据源%s已注册，将覆盖原有实现", name)
	}
	factoryRegistry[name] = factory
}

// GetFactory 获取指定数据源的工厂函数
func GetFactory(name string) (interfaces.Factory, bool) {
	factory, ok := factoryRegistry[name]
	return factory, ok
}

// ListFactories 列出所有已注册的数据源名
func ListFactories() []string {
	var names []string
	for n := range factoryRegistry {
		names = append(names, n)
	}
	return names
}
