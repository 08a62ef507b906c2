package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"GridBridge/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func TestGetJSONSendsAPIKeyAsBasicAuth(t *testing.T) {
	var gotUser, gotPass string
	var gotAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, gotAuth = r.BasicAuth()
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	cfg := &config.SourceConfig{BaseURL: srv.URL, APIKey: "sk_test_key", Timeout: 5}
	client := NewRestClient("octopus", cfg, testLogger())

	data, err := client.GetJSON(context.Background(), "/v1/accounts/", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(data))
	require.True(t, gotAuth)
	assert.Equal(t, "sk_test_key", gotUser)
	// Octopus约定：key作basic auth用户名，密码留空
	assert.Equal(t, "", gotPass)
}

func TestGetJSONNoAuthHeaderWithoutAPIKey(t *testing.T) {
	var sawAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _, sawAuth = r.BasicAuth()
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	cfg := &config.SourceConfig{BaseURL: srv.URL, Timeout: 5}
	client := NewRestClient("carbon-intensity", cfg, testLogger())

	_, err := client.GetJSON(context.Background(), "/intensity", nil)
	require.NoError(t, err)
	assert.False(t, sawAuth)
}

func TestGetJSONNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cfg := &config.SourceConfig{BaseURL: srv.URL, Timeout: 5, RetryCount: 1}
	client := NewRestClient("test", cfg, testLogger())

	_, err := client.GetJSON(context.Background(), "/whatever", nil)
	assert.Error(t, err)
}
