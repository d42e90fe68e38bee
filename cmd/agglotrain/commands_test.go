package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeRun(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	def := "features:\n  - name: a\n    arity: 2\n  - name: b\n    arity: 2\n"
	var vecs strings.Builder
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&vecs, "%d 0\n", i/5)
	}
	run := "definition: def.yaml\nvectors: vectors.txt\nholdout_skip: -1\nworkers: 1\n" + extra
	require.NoError(t, os.WriteFile(filepath.Join(dir, "def.yaml"), []byte(def), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vectors.txt"), []byte(vecs.String()), 0o644))
	path := filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(run), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTrainCommand(t *testing.T) {
	metrics := filepath.Join(t.TempDir(), "agglo.prom")
	path := writeRun(t, "metrics_textfile: "+metrics+"\n")

	out, err := execute(t, "train", "--config", path)
	require.NoError(t, err)

	var r report
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	require.Equal(t, []string{"a"}, r.Path)
	require.Equal(t, "leaf_growth", r.StopReason)
	require.Equal(t, 10, r.Training)
	require.Equal(t, 2, r.Leaves)
	require.Len(t, r.Depths, 1)
	require.Equal(t, "a", r.Depths[0].Feature)
	require.NotEmpty(t, r.RunID)

	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	require.Contains(t, string(data), "agglo_leaves 2")
}

func TestTrainCommand_OutputFile(t *testing.T) {
	path := writeRun(t, "")
	reportPath := filepath.Join(t.TempDir(), "report.json")

	out, err := execute(t, "train", "-c", path, "-o", reportPath, "--workers", "2")
	require.NoError(t, err)
	require.Empty(t, out)

	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	require.Contains(t, string(data), `"stop_reason": "leaf_growth"`)
}

func TestCheckCommand(t *testing.T) {
	path := writeRun(t, "")
	out, err := execute(t, "check", "--config", path)
	require.NoError(t, err)
	require.Equal(t, "2 features, 10 vectors (0 held out), distance hamming\n", out)
}

func TestTrainCommand_Errors(t *testing.T) {
	_, err := execute(t, "train", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := writeRun(t, "features: [zzz]\n")
	_, err = execute(t, "train", "--config", path)
	require.ErrorContains(t, err, "zzz")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteReport_PropagatesWriteError(t *testing.T) {
	err := writeReport(failingWriter{}, report{RunID: "r"})
	require.ErrorContains(t, err, "disk full")
}

func TestTrainCommand_OutputFileError(t *testing.T) {
	path := writeRun(t, "")
	dir := filepath.Join(t.TempDir(), "missing", "report.json")
	_, err := execute(t, "train", "-c", path, "-o", dir)
	require.Error(t, err)
}
