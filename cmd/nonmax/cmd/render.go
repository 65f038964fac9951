package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/nonmax/internal/render"
	"github.com/MeKo-Tech/nonmax/internal/suppress"
	"github.com/spf13/cobra"
)

// renderCmd represents the render command.
var renderCmd = &cobra.Command{
	Use:   "render [image] [detections]",
	Short: "Draw suppression results onto an image",
	Long: `Run non-maximum suppression on a detection file and draw the outcome
onto the source image. Kept boxes are outlined in the kept color; with
--show-dropped, suppressed boxes are outlined too.

Supported image formats: JPEG, PNG, BMP, TIFF

Examples:
  nonmax render photo.jpg detections.json
  nonmax render photo.jpg detections.json --output overlay.png
  nonmax render photo.jpg detections.json --show-dropped --dropped-color "#FF00FF"`,
	Args:         cobra.ExactArgs(2),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		imagePath, detsPath := args[0], args[1]

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
		keptColor := cfg.Output.OverlayKept
		if cmd.Flags().Changed("kept-color") {
			keptColor, _ = cmd.Flags().GetString("kept-color")
		}
		droppedColor := cfg.Output.OverlayDropped
		if cmd.Flags().Changed("dropped-color") {
			droppedColor, _ = cmd.Flags().GetString("dropped-color")
		}
		showDropped := cfg.Output.OverlayShowDrop
		if cmd.Flags().Changed("show-dropped") {
			showDropped, _ = cmd.Flags().GetBool("show-dropped")
		}
		outputPath, _ := cmd.Flags().GetString("output")
		thickness, _ := cmd.Flags().GetInt("thickness")

		opts, err := suppressOptions(threshold, coordMode)
		if err != nil {
			return err
		}

		style, err := overlayStyle(keptColor, droppedColor, thickness, showDropped)
		if err != nil {
			return err
		}

		img, err := render.LoadImage(imagePath)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(detsPath)
		if err != nil {
			return fmt.Errorf("reading %s: %w", detsPath, err)
		}
		frame, err := suppress.FrameFromJSON(data)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", detsPath, err)
		}

		dets := frame.ToDetections()
		if minScore > 0 {
			dets = suppress.FilterByScore(dets, minScore)
		}

		kept, err := suppress.Greedy{Options: opts}.Suppress(detectionBoxes(dets), detectionScores(dets))
		if err != nil {
			return err
		}

		overlay := render.Overlay(img, dets, kept, style)

		if outputPath == "" {
			ext := filepath.Ext(imagePath)
			outputPath = strings.TrimSuffix(imagePath, ext) + ".nms.png"
		}
		if err := render.SaveImage(overlay, outputPath); err != nil {
			return err
		}

		slog.Info("overlay written",
			"file", outputPath,
			"detections", len(dets),
			"kept", len(kept))
		return nil
	},
}

// overlayStyle builds a render style from the resolved flag values.
func overlayStyle(keptColor, droppedColor string, thickness int, showDropped bool) (render.Style, error) {
	style := render.DefaultStyle()

	kc, err := render.ParseColor(keptColor)
	if err != nil {
		return style, fmt.Errorf("invalid kept color: %w", err)
	}
	dc, err := render.ParseColor(droppedColor)
	if err != nil {
		return style, fmt.Errorf("invalid dropped color: %w", err)
	}

	style.KeptColor = kc
	style.SuppressedColor = dc
	style.DrawSuppressed = showDropped
	if thickness > 0 {
		style.Thickness = thickness
	}
	return style, nil
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringP("output", "o", "", "output image path (default: <image>.nms.png)")
	renderCmd.Flags().Float64P("threshold", "t", 0.5, "IoU threshold at or above which boxes are suppressed (0..1)")
	renderCmd.Flags().String("mode", "inclusive", "coordinate semantics: inclusive (pixel) or exclusive (continuous)")
	renderCmd.Flags().Float64("min-score", 0, "drop detections scoring below this before suppression")
	renderCmd.Flags().String("kept-color", "#00FF00", "outline color for kept boxes (hex)")
	renderCmd.Flags().String("dropped-color", "#FF0000", "outline color for suppressed boxes (hex)")
	renderCmd.Flags().Bool("show-dropped", false, "also outline suppressed boxes")
	renderCmd.Flags().Int("thickness", 0, "outline thickness in pixels (0 = default)")
}
