package coresvc_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/sectrean/ioc-kit"
	"github.com/sectrean/ioc-kit/coresvc"
	"github.com/sectrean/ioc-kit/internal/testutils"
)

func Test_CoreServices(t *testing.T) {
	z, logs := testutils.ObservedLogger(zapcore.InfoLevel)
	cfg := coresvc.NewConfiguration(map[string]any{"env": "test"})

	kernel, err := ioc.NewKernel(ioc.WithLogger(z)).Configure(func(c *ioc.Collection) error {
		if err := coresvc.AddSystemClock(c); err != nil {
			return err
		}
		if err := coresvc.AddLogger(c); err != nil {
			return err
		}
		return coresvc.AddConfiguration(c, cfg)
	}).Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = kernel.Close(context.Background()) })

	b, err := kernel.CreateChildScope("worker")
	require.NoError(t, err)
	worker, err := b.Build()
	require.NoError(t, err)

	t.Run("clock", func(t *testing.T) {
		clock, err := ioc.Get[coresvc.Clock](worker.Provider(), coresvc.ClockID)
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now(), clock.Now(), time.Minute)
		assert.Equal(t, time.UTC, clock.UTCNow().Location())
	})

	t.Run("logger per module", func(t *testing.T) {
		kernelLogger := ioc.MustGet[*coresvc.Logger](kernel.Provider(), coresvc.LoggerID)
		workerLogger := ioc.MustGet[*coresvc.Logger](worker.Provider(), coresvc.LoggerID)
		assert.NotSame(t, kernelLogger, workerLogger)
		assert.Same(t, workerLogger, ioc.MustGet[*coresvc.Logger](worker.Provider(), coresvc.LoggerID))

		kernelLogger.Info("hello from {who}", "kernel")
		workerLogger.Info("hello from {who}", "worker")

		entries := logs.FilterMessageSnippet("hello from").All()
		require.Len(t, entries, 2)
		assert.Equal(t, "kernel", entries[0].ContextMap()["module"])
		assert.Equal(t, "kernel/worker", entries[1].ContextMap()["module"])
		assert.Equal(t, "kernel.worker", entries[1].LoggerName)
	})

	t.Run("configuration", func(t *testing.T) {
		got, err := ioc.Get[*coresvc.Configuration](worker.Provider(), coresvc.ConfigurationID)
		require.NoError(t, err)
		assert.Same(t, cfg, got)
		assert.Equal(t, "test", got.String("env", ""))
	})
}
