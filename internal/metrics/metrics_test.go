package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersIndependently(t *testing.T) {
	t.Parallel()

	// Two instances must not collide on registration.
	a := New()
	b := New()

	a.MealsLogged.Inc()
	require.Equal(t, 1.0, testutil.ToFloat64(a.MealsLogged))
	require.Equal(t, 0.0, testutil.ToFloat64(b.MealsLogged))
}

func TestHandlerExposesCollectors(t *testing.T) {
	t.Parallel()

	m := New()
	m.OnboardingSteps.WithLabelValues("awaiting_goal", ResultAccepted).Inc()
	m.UpdatesTotal.WithLabelValues("message").Add(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	require.True(t, strings.Contains(body, `kbzhu_onboarding_steps_total{result="accepted",state="awaiting_goal"} 1`), body)
	require.True(t, strings.Contains(body, `kbzhu_updates_total{type="message"} 3`))
}
