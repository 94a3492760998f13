// Package render evaluates algorithms over a whole band stack in parallel and
// returns one named output layer per algorithm.
package render

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"spectralviz/internal/models"
	"spectralviz/pkg/algorithm"
	"spectralviz/pkg/metrics"
)

// DefaultRowsPerTask is used when Params.RowsPerTask is not set.
const DefaultRowsPerTask = 16

// Params holds the parallelism settings of a render.
type Params struct {
	// Workers bounds how many row partitions are evaluated at once.
	// Zero or less means one worker per CPU.
	Workers int

	// RowsPerTask is the height of one row partition.
	RowsPerTask int
}

// Option customizes a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger used for progress reporting.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Renderer) { r.logger = logger }
}

// WithRecorder makes the renderer report per-layer statistics.
func WithRecorder(rec *metrics.Recorder) Option {
	return func(r *Renderer) { r.recorder = rec }
}

// Renderer runs algorithms over band stacks.
type Renderer struct {
	params   Params
	logger   *zap.Logger
	recorder *metrics.Recorder
}

// Result is the output of one render call.
type Result struct {
	// ID correlates log lines and exported files of one render
	ID string

	// Layers holds one layer per algorithm, in request order
	Layers []*models.Layer

	Duration time.Duration
}

// Layer finds a layer by algorithm name.
func (r *Result) Layer(name string) (*models.Layer, bool) {
	for _, l := range r.Layers {
		if l.Name == name {
			return l, true
		}
	}
	return nil, false
}

// NewRenderer creates a renderer. Unset parameters take their defaults.
func NewRenderer(params Params, opts ...Option) *Renderer {
	if params.Workers <= 0 {
		params.Workers = runtime.NumCPU()
	}
	if params.RowsPerTask <= 0 {
		params.RowsPerTask = DefaultRowsPerTask
	}
	r := &Renderer{params: params, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Params returns the effective parameters.
func (r *Renderer) Params() Params { return r.params }

// Render evaluates every algorithm over the stack. The stack is only read.
// Input problems (bad dimensions, a band an algorithm needs missing from the
// stack, duplicate algorithm names) are reported before any pixel is
// evaluated. A cancelled context stops the render at the next row boundary
// and its error is returned.
func (r *Renderer) Render(ctx context.Context, stack *models.BandStack, algs ...*algorithm.Algorithm) (*Result, error) {
	if err := stack.Validate(); err != nil {
		return nil, fmt.Errorf("invalid band stack: %w", err)
	}
	if len(algs) == 0 {
		return nil, fmt.Errorf("no algorithms to render")
	}

	positions := make([][]int, len(algs))
	seen := make(map[string]bool)
	for i, a := range algs {
		if seen[a.Name()] {
			return nil, fmt.Errorf("algorithm %s requested twice", a.Name())
		}
		seen[a.Name()] = true

		pos, err := resolveBands(stack, a)
		if err != nil {
			return nil, err
		}
		positions[i] = pos
	}

	res := &Result{ID: uuid.NewString()}
	logger := r.logger.With(zap.String("render", res.ID))
	start := time.Now()

	logger.Info("Render started",
		zap.Int("width", stack.Width),
		zap.Int("height", stack.Height),
		zap.Strings("bands", stack.Bands),
		zap.Int("algorithms", len(algs)),
		zap.Int("workers", r.params.Workers))

	if r.recorder != nil {
		r.recorder.SetActiveWorkers(r.params.Workers)
		defer r.recorder.SetActiveWorkers(0)
	}

	for i, a := range algs {
		layerStart := time.Now()
		layer, err := r.renderLayer(ctx, stack, a, positions[i])
		if err != nil {
			logger.Warn("Render aborted", zap.String("algorithm", a.Name()), zap.Error(err))
			return nil, err
		}
		elapsed := time.Since(layerStart)

		logger.Debug("Layer rendered",
			zap.String("algorithm", a.Name()),
			zap.Int("channels", layer.Channels),
			zap.Any("ruleHits", layer.RuleHits),
			zap.Duration("duration", elapsed))

		if r.recorder != nil {
			r.recorder.ObserveLayer(layer, elapsed)
		}
		res.Layers = append(res.Layers, layer)
	}

	res.Duration = time.Since(start)
	logger.Info("Render completed",
		zap.Int("layers", len(res.Layers)),
		zap.Duration("duration", res.Duration))
	return res, nil
}

// resolveBands maps an algorithm's layout onto stack positions.
func resolveBands(stack *models.BandStack, a *algorithm.Algorithm) ([]int, error) {
	names := a.Bands()
	pos := make([]int, len(names))
	for i, name := range names {
		p, ok := stack.BandIndex(name)
		if !ok {
			return nil, fmt.Errorf("algorithm %s needs band %s, stack has %v", a.Name(), name, stack.Bands)
		}
		pos[i] = p
	}
	return pos, nil
}

// renderLayer evaluates one algorithm. Row partitions are disjoint, so each
// task writes its own part of the layer without locking; rule hit counts are
// kept per task and merged once the group has finished.
func (r *Renderer) renderLayer(ctx context.Context, stack *models.BandStack, a *algorithm.Algorithm, positions []int) (*models.Layer, error) {
	layer := models.NewLayer(a.Name(), stack.Width, stack.Height, a.Channels())
	layer.Title = a.Title()
	layer.Visible = a.Visible()
	out := a.Scaler().Out()
	layer.Domain = [2]float64{out.Min, out.Max}

	parts := models.Partitions(stack.Height, r.params.RowsPerTask)
	rules := a.Rules().Rules()
	hits := make([][]int, len(parts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.params.Workers)

	for _, p := range parts {
		p := p
		g.Go(func() error {
			ev := a.NewEvaluator()
			samples := make([]float64, len(positions))
			counts := make([]int, len(rules))

			for y := p.StartRow; y < p.EndRow; y++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				for x := 0; x < stack.Width; x++ {
					px := stack.Pixel(x, y)
					for i, pos := range positions {
						samples[i] = px[pos]
					}
					counts[ev.Evaluate(samples, layer.At(x, y))]++
				}
			}
			hits[p.Index] = counts
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	// Cancelled after the last row check
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, counts := range hits {
		for i, n := range counts {
			if n > 0 {
				layer.RuleHits[rules[i].Name] += n
			}
		}
	}
	return layer, nil
}
