package httpclient

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"GridBridge/internal/config"
	"GridBridge/internal/utils/cache"

	"github.com/sirupsen/logrus"
)

// NewHTTPClient 通用HTTP客户端构建方法（支持代理、超时、自动解压）
func NewHTTPClient(cfg *config.SourceConfig, logger *logrus.Logger) *http.Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		IdleConnTimeout:     30 * time.Second,
		DisableCompression:  false,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	// 配置代理
	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil {
			logger.WithError(err).WithField("proxy", cfg.Proxy).Warn("代理地址解析失败，将不使用代理")
		} else {
			transport.Proxy = http.ProxyURL(proxyURL)
			logger.WithField("proxy", cfg.Proxy).Info("HTTP客户端已配置代理")
		}
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: &compressedTransport{transport: transport, logger: logger},
	}
}

// RestClient 带限速、重试退避与TTL响应缓存的REST客户端。
// 每个数据源持有一个实例；缓存键为(endpoint, 序列化参数)。
type RestClient struct {
	name      string
	baseURL   string
	apiKey    string // 非空时作为basic auth用户名附带（Octopus约定：key为用户名，密码留空）
	http      *http.Client
	logger    *logrus.Logger
	retries   int
	rateDelay time.Duration
	lastCall  time.Time
	cache     *cache.TTLCache
}

// NewRestClient 按数据源配置构建REST客户端
func NewRestClient(name string, cfg *config.SourceConfig, logger *logrus.Logger) *RestClient {
	retries := cfg.RetryCount
	if retries <= 0 {
		retries = 1
	}
	ttl := time.Duration(cfg.CacheTTL) * time.Second
	if ttl <= 0 {
		ttl = 300 * time.Second
	}
	return &RestClient{
		name:      name,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		http:      NewHTTPClient(cfg, logger),
		logger:    logger,
		retries:   retries,
		rateDelay: time.Duration(cfg.RateLimitMs) * time.Millisecond,
		cache:     cache.New(ttl),
	}
}

// Cache 暴露底层缓存（测试复位用）
func (c *RestClient) Cache() *cache.TTLCache { return c.cache }

// GetJSON 带缓存的GET：命中缓存直接返回，否则限速+重试拉取。
// 非2xx状态码与网络错误都返回error，由上层降级为空结果。
func (c *RestClient) GetJSON(ctx context.Context, endpoint string, params map[string]string) ([]byte, error) {
	key := cache.Key(endpoint, params)
	if data, ok := c.cache.Get(key); ok {
		return data, nil
	}

	var lastErr error
	for attempt := 0; attempt < c.retries; attempt++ {
		if attempt > 0 {
			// 指数退避：1s、2s、4s…
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
		c.throttle()

		data, err := c.doGet(ctx, endpoint, params)
		if err == nil {
			c.cache.Set(key, data)
			return data, nil
		}
		lastErr = err
		c.logger.WithError(err).WithFields(logrus.Fields{
			"source":   c.name,
			"endpoint": endpoint,
			"attempt":  attempt + 1,
		}).Warn("数据源请求失败")
	}
	return nil, fmt.Errorf("%s请求%s失败: %w", c.name, endpoint, lastErr)
}

// throttle 两次请求间的限速等待（单线程顺序调用假设，见并发模型）
func (c *RestClient) throttle() {
	if c.rateDelay <= 0 {
		return
	}
	if wait := c.rateDelay - time.Since(c.lastCall); wait > 0 {
		time.Sleep(wait)
	}
	c.lastCall = time.Now()
}

func (c *RestClient) doGet(ctx context.Context, endpoint string, params map[string]string) ([]byte, error) {
	u := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.SetBasicAuth(c.apiKey, "")
	}
	if len(params) > 0 {
		q := req.URL.Query()
		for k, v := range params {
			q.Set(k, v)
		}
		req.URL.RawQuery = q.Encode()
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Errorf("关闭%s响应体失败: %v", c.name, err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("非2xx状态码: %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// ========== gzip自动解压transport ==========
type compressedTransport struct {
	transport http.RoundTripper
	logger    *logrus.Logger
}

func (c *compressedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Add("Accept-Encoding", "gzip")
	resp, err := c.transport.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	// 处理gzip解压
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			c.logger.WithError(err).Warn("gzip解压失败，返回原始响应")
			return resp, nil
		}
		resp.Body = &gzipReadCloser{
			Reader: gzReader,
			closer: resp.Body,
		}
		resp.Header.Del("Content-Encoding")
	}

	return resp, nil
}

// gzipReadCloser 包装io.ReadCloser，实现Close()方法
type gzipReadCloser struct {
	*gzip.Reader
	closer io.ReadCloser
}

// Close 先关闭gzip reader，再关闭原始响应体
func (g *gzipReadCloser) Close() error {
	if err := g.Reader.Close(); err != nil {
		return err
	}
	return g.closer.Close()
}
