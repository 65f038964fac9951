package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MeKo-Tech/nonmax/internal/batch"
	"github.com/MeKo-Tech/nonmax/internal/suppress"
	"github.com/spf13/cobra"
)

// batchCmd represents the batch command for parallel frame processing.
var batchCmd = &cobra.Command{
	Use:   "batch [files or directories...]",
	Short: "Suppress detections in many files in parallel",
	Long: `Run non-maximum suppression over many detection files using parallel
workers. Directories are scanned for .json files; with --recursive the scan
descends into subdirectories.

Per-file results are written next to the input as <name>.nms.json, or into
the directory given by --output-dir.

Examples:
  nonmax batch results/
  nonmax batch results/ --recursive --workers 8
  nonmax batch a.json b.json --output-dir suppressed/`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runBatchCommand,
}

func runBatchCommand(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	workers := cfg.Batch.Workers
	if cmd.Flags().Changed("workers") {
		workers, _ = cmd.Flags().GetInt("workers")
	}
	recursive := cfg.Batch.Recursive
	if cmd.Flags().Changed("recursive") {
		recursive, _ = cmd.Flags().GetBool("recursive")
	}
	outputDir := cfg.Batch.OutputDir
	if cmd.Flags().Changed("output-dir") {
		outputDir, _ = cmd.Flags().GetString("output-dir")
	}
	threshold := cfg.Suppression.Threshold
	if cmd.Flags().Changed("threshold") {
		threshold, _ = cmd.Flags().GetFloat64("threshold")
	}
	coordMode := cfg.Suppression.Coordinates
	if cmd.Flags().Changed("mode") {
		coordMode, _ = cmd.Flags().GetString("mode")
	}
	minScore := cfg.Suppression.MinScore
	if cmd.Flags().Changed("min-score") {
		minScore, _ = cmd.Flags().GetFloat64("min-score")
	}

	opts, err := suppressOptions(threshold, coordMode)
	if err != nil {
		return err
	}

	files, err := batch.DiscoverFiles(args, recursive)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no detection files found in %s", strings.Join(args, ", "))
	}

	frames, entries, err := loadBatchFrames(files, minScore)
	if err != nil {
		return err
	}

	if outputDir != "" {
		if err := os.MkdirAll(outputDir, 0o750); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	start := time.Now()
	results, err := batch.ProcessFrames(cmd.Context(), frames, suppress.Greedy{Options: opts}, batch.Config{
		Workers: workers,
		Progress: func(done, total int) {
			slog.Debug("batch progress", "done", done, "total", total)
		},
	})
	if err != nil {
		return err
	}

	kept := 0
	for i, res := range results {
		kept += len(res.Kept)
		if err := writeBatchResult(res, entries[i], outputDir); err != nil {
			return err
		}
	}

	slog.Info("batch complete",
		"files", len(files),
		"frames", len(frames),
		"kept", kept,
		"duration", time.Since(start).String())
	return nil
}

// batchEntry keeps the parsed detections and original frame ID alongside a
// worker-pool frame whose ID is the source path.
type batchEntry struct {
	frameID string
	dets    []suppress.Detection
}

// loadBatchFrames parses every discovered file into frames for the worker
// pool. Frame IDs are derived from the source path so result files never
// collide even when frames share IDs across files.
func loadBatchFrames(files []string, minScore float64) ([]batch.Frame, []batchEntry, error) {
	var frames []batch.Frame
	var entries []batchEntry

	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, nil, fmt.Errorf("reading %s: %w", file, err)
		}
		parsed, err := suppress.FramesFromJSON(data)
		if err != nil {
			return nil, nil, fmt.Errorf("parsing %s: %w", file, err)
		}
		for i, frame := range parsed {
			id := file
			if len(parsed) > 1 {
				id = fmt.Sprintf("%s#%d", file, i)
			}
			dets := frame.ToDetections()
			if minScore > 0 {
				dets = suppress.FilterByScore(dets, minScore)
			}
			frames = append(frames, batch.Frame{ID: id, Detections: dets})
			entries = append(entries, batchEntry{frameID: frame.ID, dets: dets})
		}
	}
	return frames, entries, nil
}

// writeBatchResult writes one frame's result file.
func writeBatchResult(res batch.Result, entry batchEntry, outputDir string) error {
	resultID := entry.frameID
	if resultID == "" {
		resultID = res.ID
	}
	out := suppress.BuildResult(resultID, entry.dets, res.Kept)
	data, err := suppress.ResultToJSON(out)
	if err != nil {
		return fmt.Errorf("encoding result for %s: %w", res.ID, err)
	}

	path := resultPath(res.ID, outputDir)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// resultPath derives the output file name for a frame.
func resultPath(id, outputDir string) string {
	base := filepath.Base(id)
	// Multi-frame files carry a "#index" suffix on the frame ID.
	frag := ""
	if idx := strings.LastIndex(base, "#"); idx >= 0 {
		frag = "_" + base[idx+1:]
		base = base[:idx]
	}
	base = strings.TrimSuffix(base, filepath.Ext(base)) + frag + ".nms.json"

	if outputDir != "" {
		return filepath.Join(outputDir, base)
	}
	return filepath.Join(filepath.Dir(id), base)
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().IntP("workers", "w", 0, "number of parallel workers (0 = number of CPUs)")
	batchCmd.Flags().BoolP("recursive", "r", false, "scan directories recursively")
	batchCmd.Flags().String("output-dir", "", "directory for result files (default: next to inputs)")
	batchCmd.Flags().Float64P("threshold", "t", 0.5, "IoU threshold at or above which boxes are suppressed (0..1)")
	batchCmd.Flags().String("mode", "inclusive", "coordinate semantics: inclusive (pixel) or exclusive (continuous)")
	batchCmd.Flags().Float64("min-score", 0, "drop detections scoring below this before suppression")
}
