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

func TestRun_Observe(t *testing.T) {
	r := NewRun()

	r.ObserveRows("funding", 10)
	r.ObserveRows("funding", 2)
	r.ObserveRows("signal", 5)
	r.ObserveMap("full", 12, 3)

	assert.Equal(t, 12.0, testutil.ToFloat64(r.RowsRead.WithLabelValues("funding")))
	assert.Equal(t, 5.0, testutil.ToFloat64(r.RowsRead.WithLabelValues("signal")))
	assert.Equal(t, 12.0, testutil.ToFloat64(r.CompaniesScored.WithLabelValues("full")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.CompaniesRanked.WithLabelValues("full")))

	now := time.Unix(1700000000, 0)
	r.Done(1500*time.Millisecond, now)
	assert.Equal(t, 1.5, testutil.ToFloat64(r.Duration))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(r.LastSuccess))
}

func TestRun_WriteFile(t *testing.T) {
	r := NewRun()
	r.ObserveRows("funding", 4)

	path := filepath.Join(t.TempDir(), "shortlist.prom")
	require.NoError(t, r.WriteFile(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `shortlist_source_rows_total{source="funding"} 4`)
}

func TestRun_WriteFile_EmptyPath(t *testing.T) {
	assert.Error(t, NewRun().WriteFile(""))
}

