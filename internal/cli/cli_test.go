package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildCLI(t *testing.T) {
	cmd := BuildCLI()

	assert.NotNil(t, cmd, "BuildCLI should return a non-nil command")
	assert.Equal(t, "gocoro", cmd.Use, "Root command should be 'gocoro'")

	commands := cmd.Commands()
	assert.Len(t, commands, 3, "Should have 3 subcommands")

	names := make(map[string]bool)
	for _, c := range commands {
		names[c.Name()] = true
	}
	assert.True(t, names["run"], "Should have 'run' command")
	assert.True(t, names["bench"], "Should have 'bench' command")
	assert.True(t, names["scenarios"], "Should have 'scenarios' command")

	configFlag := cmd.PersistentFlags().Lookup("config")
	assert.NotNil(t, configFlag, "Should have --config flag")
}

func TestBuildRunCommand(t *testing.T) {
	cmd := buildRunCommand()

	assert.NotNil(t, cmd)
	assert.Equal(t, "run <scenario>", cmd.Use)
	assert.NotNil(t, cmd.RunE)
}

func TestBuildBenchCommand(t *testing.T) {
	cmd := buildBenchCommand()

	assert.NotNil(t, cmd)
	assert.Equal(t, "bench", cmd.Use)
	assert.NotNil(t, cmd.Flags().Lookup("workers"))
}

func TestLookupScenario(t *testing.T) {
	sc, err := lookupScenario("pipeline")
	assert.NoError(t, err)
	assert.Equal(t, "pipeline", sc.Name)

	_, err = lookupScenario("does-not-exist")
	assert.Error(t, err)
}

func TestLoadConfigDefaultsWhenNoFileSpecified(t *testing.T) {
	configFile = ""
	cfg, err := loadConfig()
	assert.NoError(t, err)
	assert.Equal(t, "threaded", cfg.Executor.Kind)
}
