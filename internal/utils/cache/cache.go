package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
	"time"
)

// TTLCache 显式TTL响应缓存：每个数据源客户端持有一个实例，
// 生命周期随客户端、无全局状态，TTL由构造参数给定（测试可控）。
type TTLCache struct {
	ttl     time.Duration
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

type entry struct {
	storedAt time.Time
	data     []byte
}

// New 创建缓存（ttl<=0时所有条目立即过期，等于禁用缓存）
func New(ttl time.Duration) *TTLCache {
	return &TTLCache{
		ttl:     ttl,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Key 由(endpoint, 参数)生成缓存键：参数按键名排序保证确定性
func Key(endpoint string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(endpoint)
	for _, k := range keys {
		b.WriteByte(':')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}
	h := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(h[:])[:32]
}

// Get 取未过期的条目
func (c *TTLCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return e.data, true
}

// Set 写入条目（覆盖旧值）
func (c *TTLCache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{storedAt: c.now(), data: data}
}

// Len 当前条目数（含已过期未清理的）
func (c *TTLCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Purge 清空全部条目（测试复位用）
func (c *TTLCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}
