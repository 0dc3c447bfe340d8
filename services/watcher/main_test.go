package main

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/02loveslollipop/spaarnelanden-watcher/services/watcher/internal/config"
)

func TestApplyFlagsOverridesOnlyChangedValues(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.Flags().Parse([]string{"--container", "X9", "--interval", "2"}))

	cfg := config.Config{
		ContainerNumber: "X1",
		UpdateInterval:  10 * time.Minute,
		StatusAddr:      ":9090",
		LogLevel:        "warn",
	}
	require.NoError(t, applyFlags(cmd, &cfg))

	assert.Equal(t, "X9", cfg.ContainerNumber)
	assert.Equal(t, 2*time.Minute, cfg.UpdateInterval)
	assert.Equal(t, ":9090", cfg.StatusAddr)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestApplyFlagsRejectsNonPositiveInterval(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.Flags().Parse([]string{"--interval", "0"}))

	cfg := config.Config{UpdateInterval: 10 * time.Minute}
	err := applyFlags(cmd, &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--interval")
}

func TestRootCommandFlags(t *testing.T) {
	cmd := newRootCmd()
	for _, name := range []string{"container", "interval", "status-addr", "log-level", "once"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
}

func TestApplyFlagsReturnsLookupErrors(t *testing.T) {
	cmd := &cobra.Command{Use: "watcher"}
	cmd.Flags().Int("container", 0, "")
	require.NoError(t, cmd.Flags().Parse([]string{"--container", "7"}))

	cfg := config.Config{ContainerNumber: "X1"}
	err := applyFlags(cmd, &cfg)
	require.Error(t, err)
	assert.Equal(t, "X1", cfg.ContainerNumber)
}
