package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/gogpu/gpuverify/device"
	"github.com/gogpu/gpuverify/internal/report"
)

func newProfilesCommand(_ *options) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles [names...]",
		Short: "List device profiles and their limits",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args
			if len(names) == 0 {
				names = device.Names()
			}

			pr := report.New(cmd.OutOrStdout(), language.English)
			for _, name := range names {
				p, err := device.Lookup(name)
				if err != nil {
					return err
				}
				heading := p.Name
				if p.Description != "" {
					heading = fmt.Sprintf("%s - %s", p.Name, p.Description)
				}
				if err := pr.Limits(heading, p.Constraints); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
