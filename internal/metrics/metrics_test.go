package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Counters(t *testing.T) {
	r := New()

	r.Locators.Add(3)
	r.Downloads.WithLabelValues(OutcomeDownloaded).Inc()
	r.Downloads.WithLabelValues(OutcomeDownloaded).Inc()
	r.Downloads.WithLabelValues(OutcomeExpired).Inc()
	r.Segments.Inc()

	assert.Equal(t, 3.0, testutil.ToFloat64(r.Locators))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.Downloads.WithLabelValues(OutcomeDownloaded)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Downloads.WithLabelValues(OutcomeExpired)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Segments))
}

func TestRecorder_Independent(t *testing.T) {
	a, b := New(), New()
	a.Silences.Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.Silences))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Silences))
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r := New()
	r.Locators.Add(2)
	r.ObserveTool(OpExtract, time.Now().Add(-time.Second))
	r.MarkSuccess(time.Unix(1700000000, 0))

	path := filepath.Join(t.TempDir(), "audiobooker.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "audiobooker_locators_total 2")
	assert.Contains(t, text, `audiobooker_tool_duration_seconds_count{op="extract"} 1`)
	assert.Contains(t, text, "audiobooker_last_run_success_timestamp_seconds ")
	assert.Equal(t, 1.7e9, testutil.ToFloat64(r.LastRunSuccess))

	err = r.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "x.prom"))
	assert.Error(t, err)
}
