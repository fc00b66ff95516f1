package pkg

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"cssl-judging/internal/testutil"
)

func TestMetricsRecord(t *testing.T) {
	m := NewMetrics()

	m.RecordScores(false, 3)
	m.RecordScores(true, 2)
	m.RecordReport("leaderboard", 10*time.Millisecond, nil)
	m.RecordReport("leaderboard", time.Millisecond, errors.New("down"))
	m.RecordAnomalies(0)
	m.RecordAnomalies(4)

	assert.Equal(t, 3.0, promtest.ToFloat64(m.scoresSubmitted.WithLabelValues("final")))
	assert.Equal(t, 2.0, promtest.ToFloat64(m.scoresSubmitted.WithLabelValues("draft")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.reportErrors.WithLabelValues("leaderboard")))
	assert.Equal(t, 4.0, promtest.ToFloat64(m.scoringAnomalies))
	assert.Equal(t, 1, promtest.CollectAndCount(m.reportLatency))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordScores(false, 1)
		m.RecordReport("x", time.Second, nil)
		m.RecordAnomalies(1)
	})
}

func TestMetricsHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()
	m.RecordScores(false, 1)

	router := gin.New()
	router.GET("/metrics", m.Handler())

	res := testutil.PerformRequest(router, http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), `judging_scores_submitted_total{kind="final"} 1`)
}
