// Package commands implements the gpuverify command line.
package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/gogpu/gpuverify"
	"github.com/gogpu/gpuverify/internal/config"
)

// options holds state shared by all subcommands.
type options struct {
	cfgFile string
	verbose bool
	cfg     *config.Config
}

// NewRootCommand returns the gpuverify command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "gpuverify",
		Short: "Check GPU kernels against device resource limits",
		Long: `gpuverify statically checks GPU kernels against the resource limits of a
target device: threads per block, threads per dimension, and local and
shared memory per block.

Inputs are IR trees in YAML or WGSL compute shaders. Nothing is executed
and no GPU is required.`,
		Version:      gpuverify.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default is $HOME/.gpuverify/config.yaml)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(
		newCheckCommand(opts),
		newLowerCommand(opts),
		newProfilesCommand(opts),
		newVersionCommand(),
	)
	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}

// load reads the configuration and installs the logger.
func (o *options) load(cmd *cobra.Command) error {
	cfg, err := config.Load(o.cfgFile)
	if err != nil {
		return err
	}
	if o.verbose {
		cfg.Logging.Level = "debug"
	}
	o.cfg = cfg

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Logging.Level)); err != nil {
		return err
	}
	gpuverify.SetLogger(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
	return nil
}
