package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"licitaflow/internal/controller"
	"licitaflow/internal/service"
	"licitaflow/internal/util"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserverCounts(t *testing.T) {
	m := New()

	m.RunStarted()
	m.CallFinished(service.OpIngest, nil, 20*time.Millisecond)
	m.CallFinished(service.OpDetail, util.NewWorkflowError(util.ErrService, service.OpDetail, "Not Found", nil), 5*time.Millisecond)
	m.RunFinished(controller.PhaseFailed, time.Second)

	m.RunStarted()
	m.CallFinished(service.OpIngest, errors.New("boom"), time.Millisecond)
	m.StaleDropped()

	require.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("failed")))
	require.Equal(t, 0.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("succeeded")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.RemoteCallsTotal.WithLabelValues("ingest", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.RemoteCallsTotal.WithLabelValues("fetch detail", "service")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.RemoteCallsTotal.WithLabelValues("ingest", "unknown")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.StaleResultsTotal))
	require.Equal(t, 0.0, testutil.ToFloat64(m.RunsInFlight))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.RunStarted()
	m.RunFinished(controller.PhaseSucceeded, 2*time.Second)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `licitaflow_runs_total{outcome="succeeded"} 1`)
	require.Contains(t, string(body), "licitaflow_run_duration_seconds_bucket")
}
