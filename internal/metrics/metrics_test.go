package metrics_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"catsort/internal/metrics"
	"catsort/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	rec := metrics.NewRecorder()
	started := time.Unix(1700000000, 0)

	rec.ObserveRun("organize", types.OrganizeResult{
		Directory:  "/data/inbox",
		Status:     types.StatusSuccess,
		FilesMoved: 3,
		BytesMoved: 2048,
		Started:    started,
		Duration:   150 * time.Millisecond,
	})
	rec.ObserveRun("organize", types.OrganizeResult{
		Directory: "/etc",
		Status:    types.StatusFailure,
		Filter:    "critical-directory",
		Started:   started,
	})
	rec.ObserveRun("organize", types.OrganizeResult{Directory: "/data/off", Status: types.StatusSkipped})

	families, err := rec.Registry().Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				values[mf.GetName()] += m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				values[mf.GetName()] += float64(m.GetHistogram().GetSampleCount())
			}
		}
	}

	assert.Equal(t, 3.0, values["catsort_runs_total"])
	assert.Equal(t, 1.0, values["catsort_run_failures_total"])
	assert.Equal(t, 3.0, values["catsort_files_moved_total"])
	assert.Equal(t, 2048.0, values["catsort_bytes_moved_total"])
	assert.Equal(t, 2.0, values["catsort_run_duration_seconds"])
}

func TestWriteTextfile(t *testing.T) {
	rec := metrics.NewRecorder()
	rec.ObserveRun("reset", types.OrganizeResult{
		Directory:  "/data/inbox",
		Status:     types.StatusSuccess,
		FilesMoved: 1,
		Started:    time.Unix(1700000000, 0),
	})

	path := filepath.Join(t.TempDir(), "catsort.prom")
	require.NoError(t, rec.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `catsort_runs_total{operation="reset",status="success"} 1`)
	assert.Contains(t, out, `catsort_last_run_timestamp_seconds{directory="/data/inbox"} 1.7e+09`)
	assert.Contains(t, out, "# HELP catsort_files_moved_total")
}
