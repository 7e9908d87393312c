package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	p := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.Equal(t, []string{"**/*.java"}, cfg.Include)
	assert.Equal(t, "raw", cfg.Noise)
	assert.Zero(t, cfg.Jobs)
	assert.Empty(t, cfg.DBPath())
	require.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := writeConfig(t, dir, `
include:
  - "src/main/java/**/*.java"
jobs: 4
noise: balanced
rules:
  - rules/no_jdk.risor
where: rel["kind"] != "USE"
external_types:
  - org.slf4j.Logger
db: .understory/relations.db
`)

	cfg, err := Load(p)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, []string{"src/main/java/**/*.java"}, cfg.Include)
	assert.Equal(t, Default().Exclude, cfg.Exclude, "unset keys keep defaults")
	assert.Equal(t, 4, cfg.Jobs)
	assert.Equal(t, "balanced", cfg.Noise)
	assert.Equal(t, `rel["kind"] != "USE"`, cfg.Where)
	assert.Equal(t, []string{"org.slf4j.Logger"}, cfg.ExternalTypes)

	abs, err := filepath.Abs(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(abs, "rules", "no_jdk.risor")}, cfg.RulePaths())
	assert.Equal(t, filepath.Join(abs, ".understory", "relations.db"), cfg.DBPath())
}

func TestLoadAbsolutePathsUnchanged(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	db := filepath.Join(t.TempDir(), "x.db")
	p := writeConfig(t, dir, "db: "+db+"\n")

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, db, cfg.DBPath())
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	p := writeConfig(t, t.TempDir(), "noise: pure\nlanguages: [go]\n")
	_, err = Load(p)
	require.Error(t, err, "unknown keys are rejected")
}

func TestParseEmpty(t *testing.T) {
	t.Parallel()

	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"unknown noise", func(c *Config) { c.Noise = "loud" }},
		{"negative jobs", func(c *Config) { c.Jobs = -1 }},
		{"bad include glob", func(c *Config) { c.Include = []string{"src/[*.java"} }},
		{"bad exclude glob", func(c *Config) { c.Exclude = []string{"{a,b"} }},
		{"empty include", func(c *Config) { c.Include = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.modify(cfg)
			require.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestFind(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	p := writeConfig(t, root, "jobs: 2\n")
	deep := filepath.Join(root, "src", "main", "java")
	require.NoError(t, os.MkdirAll(deep, 0o755))

	assert.Equal(t, p, Find(deep))

	cfg, err := LoadOrDefault(deep, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Jobs)
}

func TestLoadOrDefaultWithoutFile(t *testing.T) {
	t.Parallel()

	// Assumes no .understory.yaml above the temp directory.
	cfg, err := LoadOrDefault(t.TempDir(), nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
