package corpusio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/TrevorS/agglo"
	"github.com/klauspost/compress/zstd"
)

// openMaybeCompressed opens path, transparently decompressing files ending
// in .zst.
func openMaybeCompressed(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".zst") {
		return f, nil
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("corpusio: create zstd reader: %w", err)
	}
	return &zstdFile{dec: dec, f: f}, nil
}

type zstdFile struct {
	dec *zstd.Decoder
	f   *os.File
}

func (z *zstdFile) Read(p []byte) (int, error) { return z.dec.Read(p) }

func (z *zstdFile) Close() error {
	z.dec.Close()
	return z.f.Close()
}

// ReadVectors parses one feature vector per line. Fields are separated by
// whitespace and given either as numbers or as value names of the feature.
// Continuous features take a placeholder value that is ignored. Blank lines
// and lines starting with '#' are skipped. Vectors are indexed in file
// order.
func ReadVectors(r io.Reader, def *agglo.FeatureDefinition) ([]*agglo.FeatureVector, error) {
	lookup := make([]map[string]uint16, def.NumFeatures())
	for i := range lookup {
		f := def.Feature(i)
		if len(f.ValueNames) == 0 {
			continue
		}
		lookup[i] = make(map[string]uint16, len(f.ValueNames))
		for v, name := range f.ValueNames {
			lookup[i][name] = uint16(v)
		}
	}

	var out []*agglo.FeatureVector
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || text[0] == '#' {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != def.NumFeatures() {
			return nil, fmt.Errorf("corpusio: line %d: %d fields, want %d", line, len(fields), def.NumFeatures())
		}
		values := make([]uint16, len(fields))
		for i, field := range fields {
			if def.Kind(i) == agglo.KindContinuous {
				continue
			}
			if v, ok := lookup[i][field]; ok {
				values[i] = v
				continue
			}
			n, err := strconv.ParseUint(field, 10, 16)
			if err != nil {
				return nil, fmt.Errorf("corpusio: line %d: feature %q: unknown value %q", line, def.Name(i), field)
			}
			values[i] = uint16(n)
		}
		out = append(out, &agglo.FeatureVector{Index: len(out), Values: values})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("corpusio: read vectors: %w", err)
	}
	return out, nil
}

// LoadVectors reads feature vectors from path, which may be zstd-compressed.
func LoadVectors(path string, def *agglo.FeatureDefinition) ([]*agglo.FeatureVector, error) {
	rc, err := openMaybeCompressed(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return ReadVectors(rc, def)
}

// ReadPayload parses one row of whitespace-separated floats per line, for
// use with agglo.PayloadDistance. Row i belongs to vector i.
func ReadPayload(r io.Reader) ([][]float64, error) {
	var out [][]float64
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || text[0] == '#' {
			continue
		}
		fields := strings.Fields(text)
		row := make([]float64, len(fields))
		for i, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("corpusio: payload line %d: %w", line, err)
			}
			row[i] = v
		}
		out = append(out, row)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("corpusio: read payload: %w", err)
	}
	return out, nil
}

// LoadPayload reads a payload table from path, which may be
// zstd-compressed.
func LoadPayload(path string) ([][]float64, error) {
	rc, err := openMaybeCompressed(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return ReadPayload(rc)
}
