package bot

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/edgard/kbzhubot/internal/config"
	"github.com/edgard/kbzhubot/internal/metrics"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func testConfig() *config.Config {
	return &config.Config{
		HTTP:     config.HTTPConfig{Listen: ":0", MetricsPath: "/metrics"},
		Telegram: config.TelegramConfig{Webhook: config.WebhookConfig{Path: "/telegram/webhook"}},
	}
}

func get(t *testing.T, h http.Handler, target string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return rec.Code, string(body)
}

func TestHTTPHandlerServesMetrics(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	m.MealsLogged.Inc()
	h := NewHTTPHandler(testConfig(), m, nil, nil)

	code, body := get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, "kbzhu_meals_logged_total 1")
	require.Contains(t, body, "go_goroutines")
}

func TestHTTPHandlerHealth(t *testing.T) {
	t.Parallel()

	healthy := NewHTTPHandler(testConfig(), metrics.New(), pingerFunc(func(context.Context) error { return nil }), nil)
	code, body := get(t, healthy, "/healthz")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "ok", body)

	down := NewHTTPHandler(testConfig(), metrics.New(), pingerFunc(func(context.Context) error { return errors.New("db down") }), nil)
	code, _ = get(t, down, "/healthz")
	require.Equal(t, http.StatusServiceUnavailable, code)
}

func TestHTTPHandlerMountsWebhookOnlyWhenGiven(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	code, _ := get(t, NewHTTPHandler(cfg, metrics.New(), nil, nil), "/telegram/webhook")
	require.Equal(t, http.StatusNotFound, code)

	webhook := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("delivered"))
	})
	code, body := get(t, NewHTTPHandler(cfg, metrics.New(), nil, webhook), "/telegram/webhook")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "delivered", body)
}
