package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/amulyarudresh/CorpCard-Sentinel/config"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.ObservabilityConfig
		level   zapcore.Level
		wantErr bool
	}{
		{name: "json info", cfg: config.ObservabilityConfig{LogLevel: "info", LogFormat: "json"}, level: zapcore.InfoLevel},
		{name: "text debug", cfg: config.ObservabilityConfig{LogLevel: "DEBUG", LogFormat: "text"}, level: zapcore.DebugLevel},
		{name: "invalid level", cfg: config.ObservabilityConfig{LogLevel: "chatty", LogFormat: "json"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.level))
			assert.False(t, logger.Core().Enabled(tt.level-1))
		})
	}
}

func TestMetrics_Record(t *testing.T) {
	m := NewMetrics()

	m.RecordDecision("VIOLATION", 120*time.Millisecond)
	m.RecordDecision("VIOLATION", 80*time.Millisecond)
	m.RecordDecision("SAFE", 10*time.Millisecond)
	m.RecordInvestigation()
	m.RecordOracleFailure("unavailable")
	m.RecordEnforcementFailure()
	m.RecordFrozenRejection()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.decisions.WithLabelValues("VIOLATION")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.decisions.WithLabelValues("SAFE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.investigations))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.oracleFailures.WithLabelValues("unavailable")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.enforcementFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.frozenShortCircuits))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordDecision("SAFE", time.Second)
		m.RecordInvestigation()
		m.RecordOracleFailure("malformed")
		m.RecordEnforcementFailure()
		m.RecordFrozenRejection()
	})

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	assert.NotNil(t, m.InstrumentHandler(h))
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.RecordDecision("SAFE", time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `sentinel_decisions_total{decision="SAFE"} 1`))
	assert.Contains(t, body, "sentinel_run_duration_seconds_bucket")
	assert.Contains(t, body, "go_goroutines")
}

func TestMetrics_InstrumentHandler(t *testing.T) {
	m := NewMetrics()
	h := m.InstrumentHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/transactions", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("post", "201")))
}
