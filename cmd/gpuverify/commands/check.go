package commands

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/gogpu/gpuverify"
	"github.com/gogpu/gpuverify/history"
	"github.com/gogpu/gpuverify/internal/config"
	"github.com/gogpu/gpuverify/internal/pool"
	"github.com/gogpu/gpuverify/internal/report"
	"github.com/gogpu/gpuverify/ir"
	"github.com/gogpu/gpuverify/irtext"
	"github.com/gogpu/gpuverify/shader"
)

var errChecksFailed = errors.New("one or more inputs failed verification")

// dialHistory connects to the verdict store. Replaced in tests.
var dialHistory = func(ctx context.Context, opts history.Options) (history.Conn, error) {
	return history.Dial(ctx, opts)
}

type checkFlags struct {
	profile string
	limits  []string
	record  bool
	jobs    int
}

func newCheckCommand(opts *options) *cobra.Command {
	f := &checkFlags{}

	cmd := &cobra.Command{
		Use:   "check [files...]",
		Short: "Verify IR or WGSL files against resource limits",
		Long: `Verify each input against the resolved limits and print one line per input.

Files ending in .wgsl are parsed as WGSL; anything else is read as a YAML IR
tree. Limits come from the device profile, then the config file overrides,
then --limit flags. The command fails if any input exceeds a limit or is
malformed.`,
		Example: `  gpuverify check --profile cuda kernels/*.yaml
  gpuverify check --limit max_shared_memory_per_block=16384 shader.wgsl`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, opts.cfg, f, args)
		},
	}

	cmd.Flags().StringVarP(&f.profile, "profile", "p", "", "device profile (default from config)")
	cmd.Flags().StringArrayVarP(&f.limits, "limit", "l", nil, "override a limit as key=value, value may be \"unbounded\" (repeatable)")
	cmd.Flags().BoolVar(&f.record, "record", false, "record verdicts in ClickHouse")
	cmd.Flags().IntVarP(&f.jobs, "jobs", "j", 0, "inputs checked in parallel (default GOMAXPROCS)")

	return cmd
}

func runCheck(cmd *cobra.Command, base *config.Config, f *checkFlags, args []string) error {
	cfg := *base
	if f.profile != "" {
		cfg.Profile = f.profile
	}
	overrides, err := parseLimits(f.limits)
	if err != nil {
		return err
	}
	cfg.Constraints = cfg.Constraints.Merge(overrides)
	if err := cfg.Validate(); err != nil {
		return err
	}
	constraints, err := cfg.Resolve()
	if err != nil {
		return err
	}

	workers := pool.New(min(f.jobs, len(args)))
	results := pool.Map(workers, len(args), func(i int) report.Result {
		return checkFile(args[i], constraints)
	})
	workers.Close()

	pr := report.New(cmd.OutOrStdout(), language.English)
	for _, r := range results {
		pr.Result(r)
	}
	allPassed := pr.Summary(results)

	if f.record || cfg.History.Enabled {
		if err := recordResults(cmd.Context(), cfg, results); err != nil {
			return err
		}
	}

	if !allPassed {
		return errChecksFailed
	}
	return nil
}

// parseLimits parses key=value overrides. Key validity is checked with
// the rest of the configuration.
func parseLimits(specs []string) (gpuverify.Constraints, error) {
	out := make(gpuverify.Constraints, len(specs))
	for _, s := range specs {
		key, val, ok := strings.Cut(s, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --limit %q: want key=value", s)
		}
		if val == "unbounded" {
			out[key] = gpuverify.Unbounded
			continue
		}
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --limit %q: %w", s, err)
		}
		out[key] = n
	}
	return out, nil
}

// checkFile loads and verifies one input. Precondition violations are
// reported as the result's error.
func checkFile(path string, c gpuverify.Constraints) (r report.Result) {
	r.Source = path

	tree, err := loadTree(path)
	if err != nil {
		r.Err = err
		return r
	}
	r.Kernels = ir.CountKernels(tree)

	defer func() {
		if rec := recover(); rec != nil {
			pe, ok := gpuverify.AsPrecondition(rec)
			if !ok {
				panic(rec)
			}
			r.Passed = false
			r.Err = pe
		}
	}()
	r.Passed = gpuverify.Verify(tree, c)

	gpuverify.Logger().Info("checked input", "source", path, "kernels", r.Kernels, "passed", r.Passed)
	return r
}

func loadTree(path string) (ir.Stmt, error) {
	data, err := report.ReadSource(path)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), ".wgsl") {
		return shader.FromWGSL(string(data))
	}
	return irtext.Unmarshal(data)
}

func recordResults(ctx context.Context, cfg config.Config, results []report.Result) error {
	conn, err := dialHistory(ctx, history.Options{
		Addr:     cfg.History.Addr,
		Database: cfg.History.Database,
		Username: cfg.History.Username,
		Password: cfg.History.Password,
	})
	if err != nil {
		return err
	}

	rec, err := history.NewRecorder(conn, cfg.History.Database, cfg.History.Table)
	if err != nil {
		return err
	}
	defer rec.Close()

	if err := rec.EnsureSchema(ctx); err != nil {
		return err
	}

	entries := make([]history.Entry, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		entries = append(entries, history.Entry{
			Source:  r.Source,
			Profile: cfg.Profile,
			Kernels: r.Kernels,
			Passed:  r.Passed,
		})
	}
	return rec.Record(ctx, entries...)
}
