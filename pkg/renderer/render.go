package renderer

import (
	"context"
	"image/color"
	"time"
)

// RowCompletion is delivered to the row callback as each row finishes
type RowCompletion struct {
	Row       int          // Image row, 0 at the top
	Colors    []color.RGBA // Quantized pixels of the row
	RowsDone  int          // Rows finished so far, including this one
	TotalRows int
	Elapsed   time.Duration
}

// Render renders the image on a pool of workers. The callback, if non-nil,
// runs on the calling goroutine once per finished row, in completion order.
// The returned frame is identical to RenderSequential for the same config.
func (rt *Raytracer) Render(ctx context.Context, rowCallback func(RowCompletion)) (*Frame, RenderStats, error) {
	if err := rt.config.Validate(); err != nil {
		return nil, RenderStats{}, err
	}

	start := time.Now()
	frame := NewFrame(rt.config.Width, rt.config.Height)
	pool := NewWorkerPool(rt, frame, min(rt.NumWorkers(), frame.Height))

	rt.logger.Printf("Rendering %dx%d at %d samples per pixel (max depth %d, %d workers)...\n",
		frame.Width, frame.Height, rt.config.SamplesPerPixel, rt.config.MaxDepth, pool.GetNumWorkers())

	pool.Start(ctx)
	for y := 0; y < frame.Height; y++ {
		pool.SubmitTask(RowTask{Row: y, TaskID: y})
	}

	var renderErr error
	rowsDone := 0
	lastReported := 0
	for rowsDone < frame.Height {
		result, ok := pool.GetResult()
		if !ok {
			break
		}
		rowsDone++

		if result.Error != nil {
			if renderErr == nil {
				renderErr = result.Error
			}
			continue
		}

		if rowCallback != nil {
			row := frame.Row(result.Row)
			colors := make([]color.RGBA, len(row))
			for i := range row {
				colors[i] = row[i].RGBA()
			}
			rowCallback(RowCompletion{
				Row:       result.Row,
				Colors:    colors,
				RowsDone:  rowsDone,
				TotalRows: frame.Height,
				Elapsed:   time.Since(start),
			})
		}

		// Report roughly every 10%
		percent := rowsDone * 100 / frame.Height
		if percent/10 > lastReported/10 {
			lastReported = percent
			rt.logger.Printf("Rendered %d/%d rows (%d%%)\n", rowsDone, frame.Height, percent)
		}
	}
	pool.Stop()

	if renderErr != nil {
		rt.logger.Printf("Render cancelled after %v\n", time.Since(start))
		return nil, RenderStats{}, renderErr
	}

	stats := frame.Stats()
	stats.Elapsed = time.Since(start)
	rt.logger.Printf("Render completed in %v (%d samples)\n", stats.Elapsed, stats.TotalSamples)
	return frame, stats, nil
}
