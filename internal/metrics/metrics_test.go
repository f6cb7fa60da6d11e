package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestLoginAttemptCounts(t *testing.T) {
	m := New()
	m.LoginAttempt(ResultSuccess)
	m.LoginAttempt(ResultFailure)
	m.LoginAttempt(ResultFailure)

	if got := testutil.ToFloat64(m.loginAttempts.WithLabelValues(ResultFailure)); got != 2 {
		t.Fatalf("expected 2 failures, got %v", got)
	}
	if got := testutil.ToFloat64(m.loginAttempts.WithLabelValues(ResultSuccess)); got != 1 {
		t.Fatalf("expected 1 success, got %v", got)
	}
}

func TestTableRendered(t *testing.T) {
	m := New()
	m.TableRendered("neutron_ports", 3)
	m.TableRendered("neutron_ports", 5)

	if got := testutil.ToFloat64(m.tableRows.WithLabelValues("neutron_ports")); got != 5 {
		t.Fatalf("expected last render to win, got %v", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.LoginAttempt(ResultSuccess)
	m.ObserveRequest(http.MethodGet, http.StatusOK, 15*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	for _, want := range []string{"dlux_login_attempts_total", "dlux_http_request_duration_seconds"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %s in metrics output", want)
		}
	}
}
