package commands

import (
	"github.com/spf13/cobra"

	"github.com/gogpu/gpuverify/internal/report"
	"github.com/gogpu/gpuverify/irtext"
	"github.com/gogpu/gpuverify/shader"
)

func newLowerCommand(_ *options) *cobra.Command {
	return &cobra.Command{
		Use:   "lower file.wgsl",
		Short: "Print the IR tree of a WGSL shader as YAML",
		Long: `Lower the compute entry points of a WGSL shader and print the resulting IR
tree in the format accepted by "gpuverify check".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := report.ReadSource(args[0])
			if err != nil {
				return err
			}
			tree, err := shader.FromWGSL(string(data))
			if err != nil {
				return err
			}
			return irtext.Encode(cmd.OutOrStdout(), tree)
		},
	}
}
