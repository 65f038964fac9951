package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/nonmax/internal/geometry"
	"github.com/MeKo-Tech/nonmax/internal/suppress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDetectionsJSON = `{
	"id": "frame-1",
	"detections": [
		{"box": {"x1": 0, "y1": 0, "x2": 10, "y2": 10}, "score": 0.9},
		{"box": {"x1": 1, "y1": 1, "x2": 10, "y2": 10}, "score": 0.8},
		{"box": {"x1": 100, "y1": 100, "x2": 110, "y2": 110}, "score": 0.7}
	]
}`

func writeTestDetections(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "detections.json")
	require.NoError(t, os.WriteFile(path, []byte(testDetectionsJSON), 0o600))
	return path
}

func TestRunCommand(t *testing.T) {
	resetCommandFlags(t)
	path := writeTestDetections(t)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"run", path})

	require.NoError(t, rootCmd.Execute())

	var res suppress.ResultJSON
	require.NoError(t, json.Unmarshal(buf.Bytes(), &res))
	assert.Equal(t, "frame-1", res.ID)
	assert.Equal(t, 3, res.Input)
	assert.Equal(t, []int{0, 2}, res.Kept)
}

func TestRunCommandTextFormat(t *testing.T) {
	resetCommandFlags(t)
	path := writeTestDetections(t)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"run", path, "--format", "text"})

	require.NoError(t, rootCmd.Execute())

	output := buf.String()
	assert.Contains(t, output, "Frame frame-1")
	assert.Contains(t, output, "kept 2 of 3")
}

func TestRunCommandOutputFile(t *testing.T) {
	resetCommandFlags(t)
	path := writeTestDetections(t)
	outPath := filepath.Join(t.TempDir(), "kept.json")

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"run", path, "--output", outPath})

	require.NoError(t, rootCmd.Execute())

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)

	var res suppress.ResultJSON
	require.NoError(t, json.Unmarshal(data, &res))
	assert.Equal(t, []int{0, 2}, res.Kept)
}

func TestRunCommandMissingFile(t *testing.T) {
	resetCommandFlags(t)
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"run", "/nonexistent/detections.json"})

	assert.Error(t, rootCmd.Execute())
}

func TestSuppressOptions(t *testing.T) {
	opts, err := suppressOptions(0.3, "exclusive")
	require.NoError(t, err)
	assert.InDelta(t, 0.3, opts.Threshold, 1e-9)
	assert.Equal(t, geometry.Exclusive, opts.Mode)

	opts, err = suppressOptions(0.5, "")
	require.NoError(t, err)
	assert.Equal(t, geometry.Inclusive, opts.Mode)

	_, err = suppressOptions(0.5, "bogus")
	assert.Error(t, err)

	_, err = suppressOptions(1.5, "inclusive")
	assert.Error(t, err)
}

func TestFormatResult(t *testing.T) {
	dets := []suppress.Detection{
		{Box: geometry.NewBox(0, 0, 10, 10), Score: 0.9},
	}
	res := suppress.BuildResult("f", dets, []int{0})

	jsonOut, err := formatResult(res, outputFormatJSON)
	require.NoError(t, err)
	assert.Contains(t, jsonOut, `"id": "f"`)

	csvOut, err := formatResult(res, outputFormatCSV)
	require.NoError(t, err)
	assert.Contains(t, csvOut, "id,x1,y1,x2,y2,score")
	assert.Contains(t, csvOut, "f,0,0,10,10,0.9")

	textOut, err := formatResult(res, outputFormatText)
	require.NoError(t, err)
	assert.Contains(t, textOut, "kept 1 of 1")

	_, err = formatResult(res, "xml")
	assert.Error(t, err)
}
