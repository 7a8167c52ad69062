package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/physlearn/physlearn/pkg/export"
	"github.com/physlearn/physlearn/pkg/learn"
	"github.com/physlearn/physlearn/pkg/netio"
	"github.com/physlearn/physlearn/pkg/score"
)

// learnOpts holds the command-line flags for the learn command.
type learnOpts struct {
	config     string  // TOML config file path
	ensembles  int     // outer restart count
	iterations int     // inner iterations per ensemble
	seed       int64   // random seed
	ess        float64 // BDeu equivalent sample size
	output     string  // network JSON output path
	dotOut     string  // DOT output path
	svgOut     string  // SVG output path
}

// newLearnCmd creates the learn command.
//
// Flags override config file values, which override built-in defaults.
func newLearnCmd() *cobra.Command {
	var opts learnOpts

	cmd := &cobra.Command{
		Use:   "learn <dataset.csv>",
		Short: "Learn a network structure from a CSV dataset",
		Long: `Learn a network structure from a discrete CSV dataset.

The first row names the variables; every following row is one observation.
Values are treated as categorical labels.

Examples:
  physlearn learn data.csv
  physlearn learn data.csv --ensembles 5 --seed 7 -o network.json
  physlearn learn data.csv --config run.toml --svg network.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return runLearn(c.Context(), &opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.config, "config", "", "TOML config file with run options")
	cmd.Flags().IntVar(&opts.ensembles, "ensembles", 0, "ensemble restarts (default 3)")
	cmd.Flags().IntVar(&opts.iterations, "iterations", 0, "iterations per ensemble (default 10)")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "random seed (default 42)")
	cmd.Flags().Float64Var(&opts.ess, "ess", 0, "BDeu equivalent sample size (default 1)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the learned network as JSON")
	cmd.Flags().StringVar(&opts.dotOut, "dot", "", "write the learned network as Graphviz DOT")
	cmd.Flags().StringVar(&opts.svgOut, "svg", "", "render the learned network as SVG")

	return cmd
}

func runLearn(ctx context.Context, opts *learnOpts, datasetPath string) error {
	logger := loggerFromContext(ctx)

	runOpts, err := buildRunOptions(opts)
	if err != nil {
		return err
	}
	runOpts.Logger = logger
	if err := runOpts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	data, err := score.LoadCSV(datasetPath)
	if err != nil {
		return err
	}
	logger.Debug("loaded dataset", "variables", data.N(), "rows", data.Rows())

	oracle, err := score.NewBDeu(data, runOpts.ESS)
	if err != nil {
		return err
	}

	p := newProgress(logger)
	sp := newSpinner(ctx, "learning structure")
	sp.Start()
	res, err := learn.NewRunner(oracle, logger).Run(ctx, data.N(), runOpts)
	if err != nil {
		sp.StopWithError(fmt.Sprintf("Learning failed: %v", err))
		return err
	}
	sp.StopWithSuccess(fmt.Sprintf("Learned structure over %d variables", data.N()))
	p.done(fmt.Sprintf("Best network has %d edges", res.Stats.EdgeCount))

	printNewline()
	printKeyValue("score", fmt.Sprintf("%.4f", res.Score))
	printKeyValue("elapsed", res.Stats.Elapsed.String())
	printStats(res.Stats.NodeCount, res.Stats.EdgeCount)
	printNewline()
	for _, e := range res.Network.Edges() {
		printEdge(data.Name(e.From), data.Name(e.To))
	}

	return writeArtifacts(opts, res, data.Names())
}

// buildRunOptions merges the config file (if any) with explicit flags.
// Flags win over config values.
func buildRunOptions(opts *learnOpts) (learn.Options, error) {
	var runOpts learn.Options
	if opts.config != "" {
		loaded, err := loadOptionsFile(opts.config)
		if err != nil {
			return learn.Options{}, err
		}
		runOpts = loaded
	}
	if opts.ensembles != 0 {
		runOpts.Ensembles = opts.ensembles
	}
	if opts.iterations != 0 {
		runOpts.Iterations = opts.iterations
	}
	if opts.seed != 0 {
		runOpts.Seed = opts.seed
	}
	if opts.ess != 0 {
		runOpts.ESS = opts.ess
	}
	return runOpts, nil
}

func writeArtifacts(opts *learnOpts, res *learn.Result, names []string) error {
	if opts.output == "" && opts.dotOut == "" && opts.svgOut == "" {
		return nil
	}

	net, err := netio.FromDAG(res.Network, names, res.Score)
	if err != nil {
		return err
	}

	printNewline()
	if opts.output != "" {
		if err := netio.WriteFile(net, opts.output); err != nil {
			return err
		}
		printFile(opts.output)
	}

	dot := export.ToDOT(res.Network, names)
	if opts.dotOut != "" {
		if err := os.WriteFile(opts.dotOut, []byte(dot), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", opts.dotOut, err)
		}
		printFile(opts.dotOut)
	}
	if opts.svgOut != "" {
		svg, err := export.RenderSVG(dot)
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.svgOut, svg, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", opts.svgOut, err)
		}
		printFile(opts.svgOut)
	}
	return nil
}
