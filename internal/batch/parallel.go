// Package batch runs suppression over many independent frames concurrently.
// Each frame is a self-contained set of candidate detections, so frames can
// be processed on separate workers without any shared state.
package batch

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/MeKo-Tech/nonmax/internal/geometry"
	"github.com/MeKo-Tech/nonmax/internal/suppress"
)

// Frame is one unit of work: a named set of candidate detections.
type Frame struct {
	ID         string
	Detections []suppress.Detection
}

// Result holds the suppression outcome for one frame.
type Result struct {
	ID   string
	Kept []int // surviving input indices, ascending
}

// ProgressCallback reports completed frames out of the total.
type ProgressCallback func(done, total int)

// Config holds configuration for parallel frame processing.
type Config struct {
	Workers  int              // number of parallel workers (0 = runtime.NumCPU())
	Progress ProgressCallback // optional progress reporting
}

type frameJob struct {
	index int
	frame Frame
}

type frameResult struct {
	index  int
	result Result
	err    error
}

// ProcessFrames suppresses every frame using the given Suppressor and returns
// results in input order. Processing stops early when ctx is canceled. On
// per-frame failure the remaining frames still run; the first error is
// returned alongside the partial results.
func ProcessFrames(ctx context.Context, frames []Frame, sup suppress.Suppressor, cfg Config) ([]Result, error) {
	if sup == nil {
		return nil, errors.New("no suppressor provided")
	}
	if len(frames) == 0 {
		return nil, nil
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}

	// A single frame or worker runs sequentially.
	if len(frames) == 1 || cfg.Workers == 1 {
		return processSequential(ctx, frames, sup, cfg)
	}

	jobs := make(chan frameJob, len(frames))
	results := make(chan frameResult, len(frames))

	var wg sync.WaitGroup
	for range cfg.Workers {
		wg.Add(1)
		go worker(ctx, sup, jobs, results, &wg)
	}

	go func() {
		defer close(jobs)
		for i, f := range frames {
			select {
			case jobs <- frameJob{index: i, frame: f}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	resultMap := make(map[int]Result)
	errorMap := make(map[int]error)
	done := 0
	for r := range results {
		resultMap[r.index] = r.result
		errorMap[r.index] = r.err
		done++
		if cfg.Progress != nil {
			cfg.Progress(done, len(frames))
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ordered := make([]Result, len(frames))
	var firstErr error
	for i := range frames {
		if err := errorMap[i]; err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("frame %d (%s): %w", i, frames[i].ID, err)
			}
			continue
		}
		ordered[i] = resultMap[i]
	}
	return ordered, firstErr
}

func processSequential(ctx context.Context, frames []Frame, sup suppress.Suppressor, cfg Config) ([]Result, error) {
	ordered := make([]Result, len(frames))
	var firstErr error
	for i, f := range frames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := suppressFrame(sup, f)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("frame %d (%s): %w", i, f.ID, err)
			}
		} else {
			ordered[i] = res
		}
		if cfg.Progress != nil {
			cfg.Progress(i+1, len(frames))
		}
	}
	return ordered, firstErr
}

func worker(ctx context.Context, sup suppress.Suppressor, jobs <-chan frameJob, results chan<- frameResult, wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		select {
		case job, ok := <-jobs:
			if !ok {
				return
			}
			res, err := suppressFrame(sup, job.frame)
			select {
			case results <- frameResult{index: job.index, result: res, err: err}:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func suppressFrame(sup suppress.Suppressor, f Frame) (Result, error) {
	boxes := make([]geometry.Box, len(f.Detections))
	scores := make([]float64, len(f.Detections))
	for i, d := range f.Detections {
		boxes[i] = d.Box
		scores[i] = d.Score
	}
	kept, err := sup.Suppress(boxes, scores)
	if err != nil {
		return Result{}, err
	}
	return Result{ID: f.ID, Kept: kept}, nil
}
