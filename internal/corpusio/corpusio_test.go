package corpusio

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/TrevorS/agglo"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
)

const testDefinition = `
features:
  - name: phone
    values: ["0", a, e, i]
  - name: stressed
    arity: 2
  - name: pos
    kind: short
    arity: 300
  - name: f0
    kind: continuous
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadDefinition(t *testing.T) {
	def, err := ReadDefinition(strings.NewReader(testDefinition))
	require.NoError(t, err)
	require.Equal(t, 4, def.NumFeatures())
	require.Equal(t, 4, def.Arity(0))
	require.Equal(t, agglo.KindShort, def.Kind(2))
	require.Equal(t, agglo.KindContinuous, def.Kind(3))
	require.Equal(t, []int{0, 1}, def.ByteFeatures())
}

func TestReadDefinition_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no features", "features: []\n"},
		{"missing name", "features:\n  - arity: 2\n"},
		{"bad kind", "features:\n  - name: a\n    kind: float\n    arity: 2\n"},
		{"negative arity", "features:\n  - name: a\n    arity: -1\n"},
		{"zero arity", "features:\n  - name: a\n"},
		{"not yaml", "features: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadDefinition(strings.NewReader(tt.yaml))
			require.Error(t, err)
		})
	}
}

func TestReadVectors(t *testing.T) {
	def, err := ReadDefinition(strings.NewReader(testDefinition))
	require.NoError(t, err)

	input := `# phone stressed pos f0
a 1 12 0.53
3 0 299 x

i 0 7 -
`
	vs, err := ReadVectors(strings.NewReader(input), def)
	require.NoError(t, err)
	require.Len(t, vs, 3)
	require.Equal(t, []uint16{1, 1, 12, 0}, vs[0].Values)
	require.Equal(t, []uint16{3, 0, 299, 0}, vs[1].Values)
	require.Equal(t, 2, vs[2].Index)
	require.Equal(t, []uint16{3, 0, 7, 0}, vs[2].Values)
}

func TestReadVectors_Errors(t *testing.T) {
	def, err := ReadDefinition(strings.NewReader(testDefinition))
	require.NoError(t, err)

	_, err = ReadVectors(strings.NewReader("a 1 12\n"), def)
	require.ErrorContains(t, err, "line 1")

	_, err = ReadVectors(strings.NewReader("u 1 12 0\n"), def)
	require.ErrorContains(t, err, `unknown value "u"`)
}

func TestLoadVectors_Zstd(t *testing.T) {
	dir := t.TempDir()
	def, err := ReadDefinition(strings.NewReader(testDefinition))
	require.NoError(t, err)

	path := filepath.Join(dir, "vectors.txt.zst")
	f, err := os.Create(path)
	require.NoError(t, err)
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		_, err := enc.Write([]byte("e 1 42 0\n"))
		require.NoError(t, err)
	}
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())

	vs, err := LoadVectors(path, def)
	require.NoError(t, err)
	require.Len(t, vs, 100)
	require.Equal(t, 99, vs[99].Index)
	require.Equal(t, []uint16{2, 1, 42, 0}, vs[99].Values)
}

func TestReadPayload(t *testing.T) {
	rows, err := ReadPayload(strings.NewReader("1 2.5\n# comment\n-3 4e2\n"))
	require.NoError(t, err)
	require.Equal(t, [][]float64{{1, 2.5}, {-3, 400}}, rows)

	_, err = ReadPayload(strings.NewReader("1 x\n"))
	require.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "run.yaml", `
definition: features.yaml
vectors: /data/vectors.txt.zst
features: [phone, stressed]
holdout_skip: -1
workers: 4
log_format: json
log_level: debug
metrics_textfile: out/agglo.prom
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "features.yaml"), cfg.Definition)
	require.Equal(t, "/data/vectors.txt.zst", cfg.Vectors)
	require.Equal(t, filepath.Join(dir, "out", "agglo.prom"), cfg.MetricsTextfile)
	require.Equal(t, "hamming", cfg.Distance)
	require.Equal(t, agglo.DefaultMinLeafGrowth, cfg.MinLeafGrowth)

	tc := cfg.TrainConfig()
	require.Equal(t, -1, tc.HoldoutSkip)
	require.Equal(t, 4, tc.Workers)
	require.Equal(t, []string{"phone", "stressed"}, tc.Features)
	require.Equal(t, "DEBUG", cfg.Level().String())
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing vectors", "definition: d.yaml\n"},
		{"unknown distance", "definition: d.yaml\nvectors: v.txt\ndistance: cosine\n"},
		{"weighted without weights", "definition: d.yaml\nvectors: v.txt\ndistance: weighted\n"},
		{"payload without file", "definition: d.yaml\nvectors: v.txt\ndistance: payload\n"},
		{"holdout skip 1", "definition: d.yaml\nvectors: v.txt\nholdout_skip: 1\n"},
		{"negative growth", "definition: d.yaml\nvectors: v.txt\nmin_leaf_growth: -1\n"},
		{"bad log format", "definition: d.yaml\nvectors: v.txt\nlog_format: xml\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "run.yaml", tt.yaml)
			_, err := LoadConfig(path)
			require.Error(t, err)
		})
	}
}

func TestRunConfig_DistanceMeasure(t *testing.T) {
	dir := t.TempDir()
	def, err := ReadDefinition(strings.NewReader(testDefinition))
	require.NoError(t, err)

	cfg := DefaultRunConfig()
	d, err := cfg.DistanceMeasure(def, 10)
	require.NoError(t, err)
	require.IsType(t, agglo.HammingDistance{}, d)

	cfg.Distance = "weighted"
	cfg.Weights = []float64{1, 2}
	_, err = cfg.DistanceMeasure(def, 10)
	require.Error(t, err)
	cfg.Weights = []float64{1, 2, 0.5, 0}
	d, err = cfg.DistanceMeasure(def, 10)
	require.NoError(t, err)
	require.IsType(t, agglo.WeightedHamming{}, d)

	cfg.Distance = "payload"
	cfg.Payload = writeFile(t, dir, "payload.txt", "0 0\n3 4\n")
	_, err = cfg.DistanceMeasure(def, 3)
	require.Error(t, err)
	d, err = cfg.DistanceMeasure(def, 2)
	require.NoError(t, err)
	a := &agglo.FeatureVector{Index: 0}
	b := &agglo.FeatureVector{Index: 1}
	require.InDelta(t, 25.0, d.SquaredDistance(a, b), 1e-12)
}
