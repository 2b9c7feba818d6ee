package stats

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *Report {
	count := 250
	pct := 2.5
	return &Report{
		Timestamp: time.Date(2025, 9, 15, 10, 30, 0, 0, time.UTC),
		Workers:   8,
		TileSize:  64,
		Radius:    10,
		Sigma:     5.5,
		Pipelines: []PipelineResult{
			{
				Name:       "Gaussian blur",
				InputPaths: []string{"hedgehog.png"},
				OutputPath: "grey_blurred.png",
				Width:      640,
				Height:     480,
				Sequential: 2 * time.Second,
				Parallel:   500 * time.Millisecond,
			},
			{
				Name:            "RGB difference",
				InputPaths:      []string{"render_1.png", "render_2.png"},
				OutputPath:      "RGB_processed.png",
				Width:           100,
				Height:          100,
				Sequential:      40 * time.Millisecond,
				Parallel:        10 * time.Millisecond,
				DifferingPixels: &count,
				DifferingPct:    &pct,
			},
		},
	}
}

func TestSpeedup(t *testing.T) {
	assert.Equal(t, 4.0, PipelineResult{Sequential: 4 * time.Second, Parallel: time.Second}.Speedup())
	assert.Equal(t, 0.0, PipelineResult{Sequential: time.Second}.Speedup())
}

func TestPrint(t *testing.T) {
	var buf bytes.Buffer
	sampleReport().Print(&buf)

	out := buf.String()
	assert.Contains(t, out, "=== Gaussian blur (640x480) ===")
	assert.Contains(t, out, "Sequential time taken = 2.000000 seconds")
	assert.Contains(t, out, "Parallel time taken = 0.500000 seconds")
	assert.Contains(t, out, "Speedup = 4.00x")
	assert.Contains(t, out, "Differing pixels = 250")
	assert.Contains(t, out, "Percentage of differing pixels = 2.5000%")
}

func TestWriteResults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	path, err := WriteResults(dir, sampleReport())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "pixelbench_2025-09-15_10-30-00.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "Workers: 8")
	assert.Contains(t, content, "Kernel radius: 10 (size 21)")
	assert.Contains(t, content, "  2. render_2.png")
	assert.Contains(t, content, "RGB difference output file: RGB_processed.png")
}

func TestStreamValues(t *testing.T) {
	values, err := streamValues(sampleReport())
	require.NoError(t, err)
	assert.Equal(t, int64(1757932200), values["timestamp"])
	assert.Equal(t, 8, values["workers"])

	var decoded Report
	require.NoError(t, json.Unmarshal([]byte(values["report"].(string)), &decoded))
	assert.Len(t, decoded.Pipelines, 2)
	assert.Equal(t, 250, *decoded.Pipelines[1].DifferingPixels)
	assert.Nil(t, decoded.Pipelines[0].DifferingPixels)
}
