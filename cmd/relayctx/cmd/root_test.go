package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WildfireRanch/relayctx/internal/config"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	cmd := NewRootCmd()
	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"query", "ingest", "serve", "config", "version"} {
		assert.True(t, names[want], want)
	}
}

func TestVersionCmd_Short(t *testing.T) {
	out, err := runCLI(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", out)
}

func TestVersionCmd_JSON(t *testing.T) {
	out, err := runCLI(t, "version", "--json")
	require.NoError(t, err)

	var info map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "dev", info["version"])
	assert.Contains(t, info, "go_version")
}

func TestConfigCmd_PrintsEffectiveConfig(t *testing.T) {
	t.Chdir(t.TempDir())

	out, err := runCLI(t, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "max_context_tokens: 2400")
	assert.Contains(t, out, "project_docs:")
}

func TestIngestThenQuery(t *testing.T) {
	project := t.TempDir()
	docs := filepath.Join(project, "docs")
	require.NoError(t, os.MkdirAll(docs, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "battery.md"),
		[]byte("solar battery sizing depends on daily load and autonomy days"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "unrelated.md"),
		[]byte("kubernetes rollout strategy notes"), 0o644))

	t.Chdir(project)

	out, err := runCLI(t, "ingest", docs, "--tier", "project_docs")
	require.NoError(t, err)
	assert.Contains(t, out, "indexed 2 document(s)")

	out, err = runCLI(t, "query", "solar battery sizing", "--format", "json")
	require.NoError(t, err)

	var res struct {
		Context   string   `json:"context"`
		FilesUsed []string `json:"files_used"`
		Meta      struct {
			Hits int `json:"hits"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.NotZero(t, res.Meta.Hits)
	assert.Contains(t, res.FilesUsed, "battery.md")
	assert.Contains(t, res.Context, "battery.md")
}

func TestIngestCmd_RejectsUnknownTier(t *testing.T) {
	project := t.TempDir()
	t.Chdir(project)

	_, err := runCLI(t, "ingest", project, "--tier", "context")
	require.Error(t, err)
}

func TestBuildEngine_FromDefaultConfig(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()

	eng, cleanup, err := buildEngine(root, cfg)
	require.NoError(t, err)
	defer cleanup()
	assert.NotNil(t, eng)
}
