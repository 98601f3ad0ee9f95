package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmgilman/go/lspinstall"
)

func TestSink_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewSink(reg)
	require.NoError(t, err)

	ctx := context.Background()
	sink.Record(ctx, lspinstall.Event{
		Server:        "codewhisperer",
		Outcome:       lspinstall.OutcomeSucceeded,
		Duration:      250 * time.Millisecond,
		Version:       "1.1.0",
		SchemaVersion: "1.0.0",
		Provenance:    lspinstall.ProvenanceRemote,
	})
	sink.Record(ctx, lspinstall.Event{
		Server:        "codewhisperer",
		Outcome:       lspinstall.OutcomeSucceeded,
		Duration:      time.Millisecond,
		Version:       "1.2.0",
		SchemaVersion: "1.0.0",
		Provenance:    lspinstall.ProvenanceRemote,
	})
	sink.Record(ctx, lspinstall.Event{
		Server:  "codewhisperer",
		Outcome: lspinstall.OutcomeFailed,
	})

	assert.Equal(t, 2.0, testutil.ToFloat64(sink.installs.WithLabelValues("codewhisperer", "succeeded", "remote")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.installs.WithLabelValues("codewhisperer", "failed", "none")))
	assert.Equal(t, 2, testutil.CollectAndCount(sink.duration))

	// Only the latest successful version is reported.
	assert.Equal(t, 1, testutil.CollectAndCount(sink.version))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.version.WithLabelValues("codewhisperer", "1.2.0", "1.0.0")))
}

func TestNewSink_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewSink(reg)
	require.NoError(t, err)

	_, err = NewSink(reg)
	assert.Error(t, err)
}
