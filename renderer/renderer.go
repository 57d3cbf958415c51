package renderer

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/blockspacer/kdtracer/log"
	"github.com/blockspacer/kdtracer/tracer"
	"golang.org/x/sync/errgroup"
)

type Renderer interface {
	// Render frame.
	Render(ctx context.Context) error

	// Get the rendered frame.
	Frame() *FrameBuffer

	// Shutdown renderer and release the frame buffer.
	Close()

	// Get render statistics.
	Stats() FrameStats
}

// A renderer that splits the frame into tiles and traces them on a pool of
// goroutines.
type cpuRenderer struct {
	logger log.Logger

	tracer *tracer.Tracer
	opts   Options

	frame *FrameBuffer
	stats FrameStats
}

// Create a CPU renderer for a configured tracer. The render options are
// applied to the tracer; a KD tree is built for the tracer's model if
// requested and missing.
func NewCPU(tr *tracer.Tracer, opts Options) (Renderer, error) {
	if tr == nil {
		return nil, ErrNoTracer
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if w, h := tr.FrameSize(); w != opts.FrameW || h != opts.FrameH {
		return nil, fmt.Errorf("renderer: tracer frame size %dx%d does not match options %dx%d", w, h, opts.FrameW, opts.FrameH)
	}

	tr.TileSize = opts.TileSize
	tr.Shadows = opts.Shadows
	tr.ShadowBias = opts.ShadowBias
	tr.BackfaceCulling = opts.BackfaceCulling
	tr.FrontfaceCulling = opts.FrontfaceCulling
	if err := tr.Validate(); err != nil {
		return nil, err
	}

	if opts.Workers == 0 {
		opts.Workers = runtime.NumCPU()
	}

	r := &cpuRenderer{
		logger: log.New("renderer"),
		tracer: tr,
		opts:   opts,
		frame:  NewFrameBuffer(opts.FrameW, opts.FrameH),
	}

	if model := tr.Model(); opts.UseKDTree && model.Tree() == nil {
		model.BuildTree()
	}

	return r, nil
}

// Render frame. Workers check ctx between tiles; if it is cancelled the
// tiles in flight are completed and ErrInterrupted is returned.
func (r *cpuRenderer) Render(ctx context.Context) error {
	start := time.Now()
	r.frame.Clear()

	cursor := tracer.NewTileCursor(r.opts.FrameW, r.opts.FrameH, r.opts.TileSize)
	numTiles := cursor.NumTiles()
	workerStats := make([]WorkerStat, r.opts.Workers)

	var tilesDone atomic.Int64
	var lastReport atomic.Int64

	r.logger.Debugf("rendering %dx%d frame: %d tiles, %d workers", r.opts.FrameW, r.opts.FrameH, numTiles, r.opts.Workers)

	g, gctx := errgroup.WithContext(ctx)
	for i := range workerStats {
		stat := &workerStats[i]
		stat.Id = fmt.Sprintf("cpu-%d", i)

		g.Go(func() error {
			for {
				if gctx.Err() != nil {
					return ErrInterrupted
				}

				x, y, ok := cursor.Next()
				if !ok {
					return nil
				}

				tileStart := time.Now()
				tileStats := r.tracer.RenderTile(x, y, r.frame)
				stat.RenderTime += time.Since(tileStart)
				stat.Tiles++
				stat.Pixels += tileStats.Pixels
				stat.Hits += tileStats.Hits
				stat.ShadowRays += tileStats.ShadowRays

				r.reportProgress(tilesDone.Add(1), int64(numTiles), &lastReport)
			}
		})
	}
	err := g.Wait()

	r.stats = FrameStats{
		Workers:    workerStats,
		RenderTime: time.Since(start),
	}
	totalPixels := float32(r.opts.FrameW * r.opts.FrameH)
	for i := range workerStats {
		workerStats[i].FramePercent = 100 * float32(workerStats[i].Pixels) / totalPixels
		r.stats.Tiles += workerStats[i].Tiles
		r.stats.Pixels += workerStats[i].Pixels
		r.stats.Hits += workerStats[i].Hits
		r.stats.ShadowRays += workerStats[i].ShadowRays
	}

	if err != nil {
		r.logger.Warningf("render interrupted after %d of %d tiles", r.stats.Tiles, numTiles)
		return err
	}

	r.logger.Debugf("rendered frame in %d ms", r.stats.RenderTime.Nanoseconds()/1e6)
	return nil
}

// Log progress whenever another 10% of the tiles has been traced.
func (r *cpuRenderer) reportProgress(done, total int64, lastReport *atomic.Int64) {
	step := done * 10 / total
	for {
		last := lastReport.Load()
		if step <= last {
			return
		}
		if lastReport.CompareAndSwap(last, step) {
			r.logger.Infof("rendered %d%% (%d/%d tiles)", step*10, done, total)
			return
		}
	}
}

// Get the rendered frame.
func (r *cpuRenderer) Frame() *FrameBuffer {
	return r.frame
}

// Shutdown renderer.
func (r *cpuRenderer) Close() {
	r.frame = nil
}

// Get last frame stats.
func (r *cpuRenderer) Stats() FrameStats {
	return r.stats
}
