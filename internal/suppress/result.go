package suppress

import (
	"encoding/json"
	"fmt"

	"github.com/MeKo-Tech/nonmax/internal/geometry"
)

// FrameJSON is the serializable form of one frame of candidate detections.
type FrameJSON struct {
	ID         string          `json:"id,omitempty"`
	Width      int             `json:"width,omitempty"`
	Height     int             `json:"height,omitempty"`
	Detections []DetectionJSON `json:"detections"`
}

type DetectionJSON struct {
	Box   BoxJSON `json:"box"`
	Score float64 `json:"score"`
}

type BoxJSON struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// ResultJSON reports the outcome of suppressing one frame: the surviving
// input indices in ascending order and the surviving detections themselves.
type ResultJSON struct {
	ID         string          `json:"id,omitempty"`
	Input      int             `json:"input"`
	Kept       []int           `json:"kept"`
	Detections []DetectionJSON `json:"detections"`
}

// FrameFromJSON parses one frame of detections.
func FrameFromJSON(data []byte) (FrameJSON, error) {
	var f FrameJSON
	if err := json.Unmarshal(data, &f); err != nil {
		return FrameJSON{}, fmt.Errorf("parsing detections frame: %w", err)
	}
	return f, nil
}

// FramesFromJSON parses either a single frame object or an array of frames.
func FramesFromJSON(data []byte) ([]FrameJSON, error) {
	var frames []FrameJSON
	if err := json.Unmarshal(data, &frames); err == nil {
		return frames, nil
	}
	f, err := FrameFromJSON(data)
	if err != nil {
		return nil, err
	}
	return []FrameJSON{f}, nil
}

// ToDetections converts the frame payload to engine detections.
func (f FrameJSON) ToDetections() []Detection {
	dets := make([]Detection, 0, len(f.Detections))
	for _, d := range f.Detections {
		dets = append(dets, Detection{
			Box:   geometry.NewBox(d.Box.X1, d.Box.Y1, d.Box.X2, d.Box.Y2),
			Score: d.Score,
		})
	}
	return dets
}

// DetectionToJSON converts a single detection to its serializable form.
func DetectionToJSON(d Detection) DetectionJSON {
	return DetectionJSON{
		Box:   BoxJSON{X1: d.Box.MinX, Y1: d.Box.MinY, X2: d.Box.MaxX, Y2: d.Box.MaxY},
		Score: d.Score,
	}
}

// BuildResult assembles the result payload for a frame. kept holds ascending
// input indices as returned by Suppress.
func BuildResult(id string, dets []Detection, kept []int) ResultJSON {
	out := ResultJSON{
		ID:         id,
		Input:      len(dets),
		Kept:       kept,
		Detections: make([]DetectionJSON, 0, len(kept)),
	}
	if out.Kept == nil {
		out.Kept = []int{}
	}
	for _, i := range kept {
		out.Detections = append(out.Detections, DetectionToJSON(dets[i]))
	}
	return out
}

// ResultToJSON renders a result payload with indentation for CLI output.
func ResultToJSON(res ResultJSON) ([]byte, error) {
	return json.MarshalIndent(res, "", "  ")
}
