package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"autoalt/internal/config"
)

func (c *cli) newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, v, err := c.load()
			if err != nil {
				return err
			}
			out, err := config.YAML(cfg)
			if err != nil {
				return err
			}
			if used := v.ConfigFileUsed(); used != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", used)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
