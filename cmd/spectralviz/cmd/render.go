package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"spectralviz/internal/models"
	"spectralviz/pkg/algorithm"
	"spectralviz/pkg/metrics"
	"spectralviz/pkg/raster"
	"spectralviz/pkg/render"
	"spectralviz/pkg/report"
	"spectralviz/pkg/visualization"
)

func newRenderCmd(a *app) *cobra.Command {
	var (
		names         []string
		bandArgs      []string
		outputDir     string
		format        string
		includeHidden bool
		workers       int
		rowsPerTask   int
		textfile      string
		quiet         bool
	)

	cmd := &cobra.Command{
		Use:   "render --band BAND=PATH... [--algorithm NAME...]",
		Short: "Render visualization layers from band rasters",
		Long: `Render loads one single-band PNG or TIFF raster per band, evaluates the
requested algorithms over every pixel in parallel and writes one image per
layer.

Without --algorithm every visible algorithm whose bands were all given is
rendered.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			flags := cmd.Flags()
			if flags.Changed("output") {
				cfg.Output.Dir = outputDir
			}
			if flags.Changed("format") {
				cfg.Output.Format = format
			}
			if flags.Changed("include-hidden") {
				cfg.Output.IncludeHidden = includeHidden
			}
			if flags.Changed("workers") {
				cfg.Processing.Workers = workers
			}
			if flags.Changed("rows-per-task") {
				cfg.Processing.RowsPerTask = rowsPerTask
			}
			if flags.Changed("metrics-textfile") {
				cfg.Metrics.Textfile = textfile
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			sources, err := parseSources(bandArgs)
			if err != nil {
				return err
			}
			stack, err := raster.LoadStack(sources, raster.Options{
				Quantification: cfg.Input.Quantification,
				Offset:         cfg.Input.Offset,
			})
			if err != nil {
				return err
			}

			algs, err := selectAlgorithms(a.catalog, stack, names)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			recorder := metrics.NewRecorder()
			renderer := render.NewRenderer(render.Params{
				Workers:     cfg.Processing.Workers,
				RowsPerTask: cfg.Processing.RowsPerTask,
			}, render.WithLogger(a.logger), render.WithRecorder(recorder))

			res, err := renderer.Render(ctx, stack, algs...)
			if err != nil {
				return err
			}

			written, err := visualization.SaveLayers(res.Layers, cfg.Output.Dir, cfg.Output.Format, cfg.Output.IncludeHidden)
			if err != nil {
				return err
			}
			a.logger.Info("Layers written",
				zap.String("render", res.ID),
				zap.String("dir", cfg.Output.Dir),
				zap.Strings("files", written))

			if cfg.Metrics.Textfile != "" {
				if err := recorder.WriteTextfile(cfg.Metrics.Textfile); err != nil {
					return err
				}
			}

			if !quiet {
				summaries := make([]render.LayerSummary, len(res.Layers))
				for i, l := range res.Layers {
					summaries[i] = render.Summarize(l)
				}
				report.Summaries(cmd.OutOrStdout(), summaries)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringSliceVarP(&names, "algorithm", "a", nil, "algorithms to render (repeatable)")
	flags.StringSliceVarP(&bandArgs, "band", "b", nil, "band raster as BAND=PATH (repeatable)")
	flags.StringVarP(&outputDir, "output", "o", "", "output directory")
	flags.StringVar(&format, "format", "", "output image format: png or jpeg")
	flags.BoolVar(&includeHidden, "include-hidden", false, "also write layers hidden by default")
	flags.IntVarP(&workers, "workers", "w", 0, "concurrent row partitions (0 for one per CPU)")
	flags.IntVar(&rowsPerTask, "rows-per-task", 0, "rows per partition")
	flags.StringVar(&textfile, "metrics-textfile", "", "write Prometheus metrics to this file")
	flags.BoolVarP(&quiet, "quiet", "q", false, "do not print layer summaries")
	_ = cmd.MarkFlagRequired("band")
	return cmd
}

// parseSources reads BAND=PATH arguments, ordered by band name.
func parseSources(args []string) ([]raster.Source, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no bands given")
	}
	paths, err := parseAssignments(args)
	if err != nil {
		return nil, err
	}
	sources := make([]raster.Source, 0, len(paths))
	for name, path := range paths {
		sources = append(sources, raster.Source{Band: name, Path: path})
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].Band < sources[j].Band })
	return sources, nil
}

// selectAlgorithms resolves the requested names, or picks every visible
// algorithm the stack has all bands for.
func selectAlgorithms(c *algorithm.Catalog, stack *models.BandStack, names []string) ([]*algorithm.Algorithm, error) {
	if len(names) > 0 {
		return c.Lookup(names...)
	}

	var out []*algorithm.Algorithm
	for _, alg := range c.All() {
		if !alg.Visible() {
			continue
		}
		complete := true
		for _, b := range alg.Bands() {
			if _, ok := stack.BandIndex(b); !ok {
				complete = false
				break
			}
		}
		if complete {
			out = append(out, alg)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no visible algorithm can be rendered from bands %v", stack.Bands)
	}
	return out, nil
}
