package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/MeKo-Tech/nonmax/internal/geometry"
	"github.com/MeKo-Tech/nonmax/internal/suppress"
	"github.com/spf13/cobra"
)

const (
	outputFormatJSON = "json"
	outputFormatCSV  = "csv"
	outputFormatText = "text"
)

// runCmd represents the run command.
var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Suppress overlapping detections in a single file",
	Long: `Read candidate detections from a JSON file (or stdin with "-") and
print the surviving detections after non-maximum suppression.

The input is a frame object with a "detections" array, or a bare array of
frames. Each detection carries a box ({x1, y1, x2, y2}) and a score.

Examples:
  nonmax run detections.json
  nonmax run - < detections.json
  nonmax run detections.json --threshold 0.3 --format csv
  nonmax run detections.json --mode exclusive --output kept.json`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return errors.New("no input file provided (use \"-\" for stdin)")
		}

		cfg := GetConfig()

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
		format := cfg.Output.Format
		if cmd.Flags().Changed("format") {
			format, _ = cmd.Flags().GetString("format")
		}
		outputFile := cfg.Output.File
		if cmd.Flags().Changed("output") {
			outputFile, _ = cmd.Flags().GetString("output")
		}

		opts, err := suppressOptions(threshold, coordMode)
		if err != nil {
			return err
		}

		data, err := readInput(args[0])
		if err != nil {
			return err
		}

		frames, err := suppress.FramesFromJSON(data)
		if err != nil {
			return fmt.Errorf("parsing input: %w", err)
		}

		var out strings.Builder
		for _, frame := range frames {
			dets := frame.ToDetections()
			if minScore > 0 {
				dets = suppress.FilterByScore(dets, minScore)
			}

			kept, err := suppress.Greedy{Options: opts}.Suppress(detectionBoxes(dets), detectionScores(dets))
			if err != nil {
				return fmt.Errorf("suppressing frame %s: %w", frame.ID, err)
			}
			slog.Debug("frame suppressed", "id", frame.ID, "input", len(dets), "kept", len(kept))

			res := suppress.BuildResult(frame.ID, dets, kept)
			formatted, err := formatResult(res, format)
			if err != nil {
				return err
			}
			out.WriteString(formatted)
		}

		return writeOutput(cmd, out.String(), outputFile)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Float64P("threshold", "t", 0.5, "IoU threshold at or above which boxes are suppressed (0..1)")
	runCmd.Flags().String("mode", "inclusive", "coordinate semantics: inclusive (pixel) or exclusive (continuous)")
	runCmd.Flags().Float64("min-score", 0, "drop detections scoring below this before suppression")
	runCmd.Flags().StringP("format", "f", "json", "output format (json, csv, text)")
	runCmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
}

// readInput reads the whole input, treating "-" as stdin.
func readInput(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// suppressOptions builds engine options from the resolved flag values.
func suppressOptions(threshold float64, coordMode string) (suppress.Options, error) {
	opts := suppress.Options{Threshold: threshold}
	switch coordMode {
	case "", "inclusive":
		opts.Mode = geometry.Inclusive
	case "exclusive":
		opts.Mode = geometry.Exclusive
	default:
		return opts, fmt.Errorf("invalid coordinate mode %q (want inclusive or exclusive)", coordMode)
	}
	if threshold < 0 || threshold > 1 {
		return opts, fmt.Errorf("threshold must be in [0, 1], got %v", threshold)
	}
	return opts, nil
}

// formatResult renders a suppression result in the requested format.
func formatResult(res suppress.ResultJSON, format string) (string, error) {
	switch format {
	case outputFormatJSON:
		data, err := suppress.ResultToJSON(res)
		if err != nil {
			return "", fmt.Errorf("encoding result: %w", err)
		}
		return string(data) + "\n", nil
	case outputFormatCSV:
		var b strings.Builder
		b.WriteString("id,x1,y1,x2,y2,score\n")
		for _, d := range res.Detections {
			fmt.Fprintf(&b, "%s,%g,%g,%g,%g,%g\n", res.ID, d.Box.X1, d.Box.Y1, d.Box.X2, d.Box.Y2, d.Score)
		}
		return b.String(), nil
	case outputFormatText:
		var b strings.Builder
		fmt.Fprintf(&b, "Frame %s: kept %d of %d detections\n", res.ID, len(res.Kept), res.Input)
		for _, d := range res.Detections {
			fmt.Fprintf(&b, "  [%g, %g, %g, %g] score=%.4f\n", d.Box.X1, d.Box.Y1, d.Box.X2, d.Box.Y2, d.Score)
		}
		return b.String(), nil
	default:
		return "", fmt.Errorf("invalid output format: %s", format)
	}
}

// writeOutput writes the formatted output to a file or the command's stdout.
func writeOutput(cmd *cobra.Command, content, outputFile string) error {
	if outputFile == "" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), content)
		return err
	}
	if err := os.WriteFile(outputFile, []byte(content), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", outputFile, err)
	}
	slog.Info("results written", "file", outputFile)
	return nil
}

// detectionBoxes extracts the boxes from a detection slice.
func detectionBoxes(dets []suppress.Detection) []geometry.Box {
	boxes := make([]geometry.Box, len(dets))
	for i, d := range dets {
		boxes[i] = d.Box
	}
	return boxes
}

// detectionScores extracts the scores from a detection slice.
func detectionScores(dets []suppress.Detection) []float64 {
	scores := make([]float64, len(dets))
	for i, d := range dets {
		scores[i] = d.Score
	}
	return scores
}
