package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"spectralviz/pkg/report"
)

func newListCmd(a *app) *cobra.Command {
	var formulas bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the available algorithms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			report.Algorithms(out, a.catalog.All())
			if formulas {
				fmt.Fprintln(out)
				report.Formulas(out)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&formulas, "formulas", "f", false, "also list the built-in index formulas")
	return cmd
}

func newDescribeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "describe NAME",
		Short: "Show the bands, indices, stages and rules of an algorithm",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			algs, err := a.catalog.Lookup(args[0])
			if err != nil {
				return err
			}
			report.Describe(cmd.OutOrStdout(), algs[0])
			return nil
		},
	}
}

func newEvalCmd(a *app) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "eval --algorithm NAME BAND=VALUE...",
		Short: "Evaluate one pixel and explain the result",
		Long: `Evaluate one pixel from band reflectances given on the command line,
for example:

  spectralviz eval -a chlorophyll-a B02=0.05 B03=0.07 B04=0.04 B05=0.05 \
    B08=0.03 B8A=0.03 B11=0.01 B12=0.01

Every band the algorithm declares must be given.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			algs, err := a.catalog.Lookup(name)
			if err != nil {
				return err
			}
			samples, err := parseSamples(args)
			if err != nil {
				return err
			}
			ex, err := algs[0].Explain(samples)
			if err != nil {
				return err
			}
			report.Explanation(cmd.OutOrStdout(), ex)
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "algorithm", "a", "true-color", "algorithm to evaluate")
	return cmd
}
