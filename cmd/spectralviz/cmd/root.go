package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"spectralviz/internal/logging"
	"spectralviz/pkg/algorithm"
	"spectralviz/pkg/config"
	"spectralviz/pkg/report"
)

// app is the state shared by all subcommands once the root command has
// loaded configuration and definitions.
type app struct {
	cfgFile  string
	defFiles []string
	verbose  bool
	color    bool

	cfg     *config.Config
	logger  *zap.Logger
	catalog *algorithm.Catalog
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "spectralviz",
		Short: "Spectral index visualizations for multispectral rasters",
		Long: `spectralviz turns per-pixel band reflectances into colour or scalar
visualization layers.

Algorithms are declared in YAML: the bands they read, the spectral indices
they compute, optional refinement stages and an ordered list of guarded
output rules. A built-in catalog covers true and false colour composites,
NDVI, aquatic plants and algae, chlorophyll-a and one scalar layer per
built-in index. Extra definitions are loaded with --definitions or from the
algorithms list of the configuration file.`,
		SilenceUsage:      true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return a.setup() },
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", "spectralviz.yaml", "configuration file (defaults apply when it does not exist)")
	flags.StringSliceVarP(&a.defFiles, "definitions", "d", nil, "extra algorithm definition files")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging with the console encoder")
	flags.BoolVar(&a.color, "color", false, "coloured tables")

	rootCmd.AddCommand(
		newListCmd(a),
		newDescribeCmd(a),
		newEvalCmd(a),
		newRenderCmd(a),
		newConfigCmd(a),
	)
	return rootCmd
}

// Execute runs the command line tool and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func (a *app) setup() error {
	cfg, err := config.LoadConfig(a.cfgFile)
	if err != nil {
		return err
	}
	if a.verbose {
		cfg.Logging.Level = "debug"
		cfg.Logging.Development = true
	}
	a.cfg = cfg

	a.logger, err = logging.New(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		return err
	}

	if a.color {
		report.Style = table.StyleColoredBright
	}

	a.catalog, err = algorithm.Builtin()
	if err != nil {
		return fmt.Errorf("built-in catalog: %w", err)
	}
	files := append(append([]string(nil), cfg.Algorithms...), a.defFiles...)
	for _, path := range files {
		if err := a.catalog.AddFile(path); err != nil {
			return err
		}
		a.logger.Debug("Definitions loaded", zap.String("path", path))
	}
	return nil
}

// parseAssignments splits NAME=VALUE arguments.
func parseAssignments(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("expected NAME=VALUE, got %q", arg)
		}
		if _, dup := out[name]; dup {
			return nil, fmt.Errorf("%s given twice", name)
		}
		out[name] = strings.TrimSpace(value)
	}
	return out, nil
}

// parseSamples reads band reflectances from NAME=VALUE arguments.
func parseSamples(args []string) (map[string]float64, error) {
	raw, err := parseAssignments(args)
	if err != nil {
		return nil, err
	}
	samples := make(map[string]float64, len(raw))
	for name, s := range raw {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("band %s: %w", name, err)
		}
		samples[name] = v
	}
	return samples, nil
}
