package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rafaelsntn/keywords-common-crawl/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_ObserveSegment(t *testing.T) {
	r := NewRecorder()

	r.ObserveSegment(models.SegmentResult{
		Outcome:      models.OK(),
		Observations: 4,
		Bytes:        100,
		Skipped:      map[string]int{"not_html": 3},
	})
	r.ObserveSegment(models.SegmentResult{
		Outcome:      models.Skipped(models.ReasonDownload, errors.New("404")),
		Observations: 9,
	})

	assert.Equal(t, float64(1), testutil.ToFloat64(r.segments.WithLabelValues("ok", "")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.segments.WithLabelValues("skipped", "download_error")))
	assert.Equal(t, float64(3), testutil.ToFloat64(r.records.WithLabelValues("skipped", "not_html")))
	assert.Equal(t, float64(4), testutil.ToFloat64(r.records.WithLabelValues("ok", "")))
	assert.Equal(t, float64(4), testutil.ToFloat64(r.observations), "skipped segments contribute no observations")
	assert.Equal(t, float64(100), testutil.ToFloat64(r.bytes))
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.SetPhrases(42)
	r.ObserveSegment(models.SegmentResult{Outcome: models.OK(), Observations: 1})

	path := filepath.Join(t.TempDir(), "keyphrase.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "keyphrase_phrases 42")
	assert.Contains(t, string(data), `keyphrase_records_total{outcome="ok",reason=""} 1`)

	assert.Error(t, r.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "x.prom")))
}
