package observability_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nps_survey/internal/adapters/observability"
)

func TestMetricsRegistryAndHandler(t *testing.T) {
	reg := observability.InitRegistry()

	// record samples so the vectors are exported
	observability.ObserveHTTP("/api/survey", "POST", 201, 12*time.Millisecond)
	observability.ObserveSubmission(observability.OutcomeValidationError, 3*time.Millisecond)
	observability.ObserveAnalytics("nps", observability.OutcomeSuccess, time.Millisecond)

	mh := observability.MetricsHandler(reg)
	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	mh.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	out := string(body)
	for _, want := range []string{
		"nps_http_requests_total",
		`nps_survey_submission_requests_total{outcome="validation_error"}`,
		`nps_analytics_requests_total{endpoint="nps",outcome="success"}`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in output", want)
		}
	}
}
