package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/viant/afs"
	"github.com/viant/lakeflow"
	"github.com/viant/lakeflow/baker"
	"github.com/viant/lakeflow/model/graph"
	"github.com/viant/lakeflow/policy"
	"github.com/viant/lakeflow/progress"
	"github.com/viant/lakeflow/service/action/function"
	"github.com/viant/lakeflow/service/meta"
	qmemory "github.com/viant/lakeflow/service/query/memory"
	"gopkg.in/yaml.v3"
)

// options holds flags shared by commands
type options struct {
	configURL   string
	environment string
	fixturesURL string
	traceFile   string
	block       []string
	skipBlocked bool
	verbose     bool
}

func newRootCommand(out io.Writer) *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:           "lakeflow",
		Short:         "Data lake pipeline engine",
		Long:          "Lists, describes and dry-runs the baked data lake pipelines against an in-memory query engine.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)
	rootCmd.PersistentFlags().StringVarP(&opts.configURL, "config", "c", "", "engine configuration file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVarP(&opts.environment, "env", "e", "", "deployment environment (development, staging, production)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(newListCommand(opts))
	rootCmd.AddCommand(newDescribeCommand(opts))
	rootCmd.AddCommand(newRunCommand(opts))
	return rootCmd
}

func newListCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered pipelines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, _, err := newService(cmd.Context(), opts)
			if err != nil {
				return err
			}
			for _, pipeline := range srv.Runtime().Pipelines() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", pipeline.Name, pipeline.Description)
			}
			return nil
		},
	}
}

func newDescribeCommand(opts *options) *cobra.Command {
	tree := false
	cmd := &cobra.Command{
		Use:   "describe <pipeline>",
		Short: "Print pipeline definition as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, _, err := newService(cmd.Context(), opts)
			if err != nil {
				return err
			}
			pipeline, err := srv.Runtime().Pipeline(args[0])
			if err != nil {
				return err
			}
			if tree {
				return pipeline.Root.Walk(func(_ string, depth int, node *graph.Node) error {
					_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s%s [%s]\n", strings.Repeat("  ", depth), node.Name, node.Kind)
					return err
				})
			}
			encoder := yaml.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent(2)
			if err = encoder.Encode(pipeline); err != nil {
				return err
			}
			return encoder.Close()
		},
	}
	cmd.Flags().BoolVar(&tree, "tree", false, "print the node tree outline instead of YAML")
	return cmd
}

func newRunCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <pipeline> [key=value ...]",
		Short: "Dry-run a pipeline against the in-memory query engine",
		Long: `Runs a pipeline with scripted query results (--fixtures) and echoing transformer
functions, then prints the execution report as JSON.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := parseSeed(args[1:])
			if err != nil {
				return err
			}
			srv, queries, err := newService(cmd.Context(), opts)
			if err != nil {
				return err
			}
			report, err := srv.Runtime().Run(cmd.Context(), args[0], seed)
			if err != nil {
				return err
			}
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			if err = encoder.Encode(report); err != nil {
				return err
			}
			slog.Debug("dry run finished", slog.Int("queries", queries.Calls("")), slog.Int("maxInFlight", queries.MaxInFlight()))
			if report.ErrorKind != "" {
				return fmt.Errorf("pipeline %v %v: %v", report.Pipeline, report.Status, report.ErrorKind)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.fixturesURL, "fixtures", "f", "", "query fixtures file (YAML or JSON)")
	cmd.Flags().StringVar(&opts.traceFile, "trace", "", "write spans to the file")
	cmd.Flags().StringSliceVar(&opts.block, "block", nil, "actions (service.method) that must not run")
	cmd.Flags().BoolVar(&opts.skipBlocked, "skip-blocked", false, "complete blocked tasks without running them instead of failing")
	return cmd
}

func newService(ctx context.Context, opts *options) (*lakeflow.Service, *qmemory.Executor, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	fs := afs.New()
	metaService := meta.New(fs, "")
	config := lakeflow.DefaultConfig()
	if opts.configURL != "" {
		loaded, err := lakeflow.LoadConfig(ctx, metaService, location(opts.configURL))
		if err != nil {
			return nil, nil, err
		}
		config = loaded
	}
	if opts.environment != "" {
		config.Environment = opts.environment
	}
	if len(opts.block) > 0 {
		config.Policy.BlockList = append(config.Policy.BlockList, opts.block...)
	}
	if opts.skipBlocked {
		config.Policy.Mode = policy.ModeSkip
	}
	if config.Query.Database == "" {
		config.Query.Database = baker.Database
	}

	queries := qmemory.New()
	if opts.fixturesURL != "" {
		if err := queries.Load(ctx, metaService, location(opts.fixturesURL)); err != nil {
			return nil, nil, err
		}
	}
	funcs := map[string]function.Func{}
	for _, name := range []string{baker.CreateCurrentElectionsCSV, baker.CreateCurrentBoundaryReviewsCSV, baker.FirstLetterToOutcodeParquet} {
		funcs[name] = echo(name)
	}
	options := []lakeflow.Option{
		lakeflow.WithConfig(config),
		lakeflow.WithLogger(logger),
		lakeflow.WithFileSystem(fs),
		lakeflow.WithMetaService(metaService),
		lakeflow.WithQueryExecutor(queries),
		lakeflow.WithQueryTexts(baker.Texts()),
		lakeflow.WithFunctions(funcs),
		lakeflow.WithPipelines(baker.Pipelines()...),
	}
	if opts.verbose {
		options = append(options, lakeflow.WithProgressListener(func(p progress.Progress) {
			logger.Debug("progress", slog.String("pipeline", p.Pipeline), slog.Int("running", p.RunningTasks), slog.Int("completed", p.CompletedTasks), slog.Int("failed", p.FailedTasks))
		}))
	}
	if opts.traceFile != "" {
		options = append(options, lakeflow.WithTracing("lakeflow", "dev", opts.traceFile))
	}
	srv, err := lakeflow.New(options...)
	return srv, queries, err
}

// echo returns a transformer that logs and returns its arguments
func echo(name string) function.Func {
	return func(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
		slog.Info("function invoked", slog.String("function", name), slog.Any("args", args))
		return args, nil
	}
}

func parseSeed(args []string) (map[string]interface{}, error) {
	seed := map[string]interface{}{}
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected key=value", arg)
		}
		if number, err := strconv.Atoi(value); err == nil {
			seed[key] = number
			continue
		}
		if flag, err := strconv.ParseBool(value); err == nil {
			seed[key] = flag
			continue
		}
		seed[key] = value
	}
	return seed, nil
}

func location(path string) string {
	if strings.Contains(path, "://") {
		return path
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
