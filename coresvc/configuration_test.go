package coresvc_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sectrean/ioc-kit/coresvc"
	"github.com/sectrean/ioc-kit/internal/testutils"
)

func Test_Configuration(t *testing.T) {
	values := map[string]any{"host": "localhost"}
	cfg := coresvc.NewConfiguration(values)
	values["host"] = "changed"

	assert.Equal(t, "localhost", cfg.String("host", ""), "the configuration holds a copy")
	assert.Equal(t, "fallback", cfg.String("missing", "fallback"))

	var changes []coresvc.Change
	unsubscribe := cfg.OnDidUpdate(func(c coresvc.Change) {
		changes = append(changes, c)
	})

	cfg.Update(map[string]any{"port": 8080, "host": "example.com"})

	assert.Equal(t, []coresvc.Change{
		{Key: "host", Old: "localhost", New: "example.com", Existed: true},
		{Key: "port", Old: nil, New: 8080, Existed: false},
	}, changes)
	assert.Equal(t, "fallback", cfg.String("port", "fallback"), "non string values fall back")

	port, ok := cfg.Get("port")
	assert.True(t, ok)
	assert.Equal(t, 8080, port)

	unsubscribe()
	cfg.Update(map[string]any{"host": "other"})
	assert.Len(t, changes, 2)
	assert.Equal(t, map[string]any{"host": "other", "port": 8080}, cfg.Values())
}

func Test_LoadEnvConfiguration(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "base.env")
	local := filepath.Join(dir, "local.env")
	require.NoError(t, os.WriteFile(base, []byte("HOST=localhost\nPORT=80\n"), 0o600))
	require.NoError(t, os.WriteFile(local, []byte("# overrides\nPORT=8080\n"), 0o600))

	cfg, err := coresvc.LoadEnvConfiguration(base, local)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"HOST": "localhost", "PORT": "8080"}, cfg.Values())

	_, err = coresvc.LoadEnvConfiguration(filepath.Join(dir, "missing.env"))
	testutils.LogError(t, err)
	assert.ErrorContains(t, err, "coresvc.LoadEnvConfiguration "+filepath.Join(dir, "missing.env"))
}
