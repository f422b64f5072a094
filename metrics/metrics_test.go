package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func counterValues(t *testing.T, reg *prometheus.Registry) map[string]float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather: %v", err)
	}
	result := map[string]float64{}
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			name := family.GetName()
			for _, label := range metric.GetLabel() {
				name += "{" + label.GetValue() + "}"
			}
			result[name] = metric.GetCounter().GetValue()
		}
	}
	return result
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.RecordRead(true)
	m.RecordRead(false)
	m.RecordRead(false)
	m.RecordWrite()
	m.RecordLiteral(ResultWritten)
	m.RecordStaleKeys(3)
	m.RecordStaleKeys(0)
	m.RecordPrunedFile()
	m.RecordRewrittenFiles(2)
	m.RecordError("wrong_thread")

	values := counterValues(t, reg)
	assert.EqualValues(t, 1, values["selfie_disk_reads_total{hit}"])
	assert.EqualValues(t, 2, values["selfie_disk_reads_total{miss}"])
	assert.EqualValues(t, 1, values["selfie_disk_writes_total"])
	assert.EqualValues(t, 1, values["selfie_inline_checks_total{written}"])
	assert.EqualValues(t, 3, values["selfie_gc_stale_keys_total"])
	assert.EqualValues(t, 1, values["selfie_gc_pruned_files_total"])
	assert.EqualValues(t, 2, values["selfie_inline_rewritten_files_total"])
	assert.EqualValues(t, 1, values["selfie_errors_total{wrong_thread}"])
}

func TestMetrics_Nil(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRead(true)
		m.RecordWrite()
		m.RecordError("x")
	})
}

func TestMetrics_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(nil)
		New(nil)
	})
}
