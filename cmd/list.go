package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lone-faerie/ps2mqtt/config"
	"github.com/lone-faerie/ps2mqtt/metrics"
)

// ListCommand prints the metrics the daemon would publish on this host.
var ListCommand = &cobra.Command{
	Use:     "list [--config <path>]",
	Short:   "List the metrics available on this host",
	GroupID: "commands",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(ConfigPath)
		if err != nil {
			return err
		}

		catalog, err := metrics.Build(cfg, metrics.NewRateTracker())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "METRIC\tUNIT\tTOPIC")

		for _, m := range catalog {
			fmt.Fprintf(w, "%s\t%s\t%s\n", m.Name, m.Unit, cfg.StateTopic(m.Name))
		}

		return w.Flush()
	},
}

func init() {
	ListCommand.Flags().StringVarP(&ConfigPath, "config", "c", "", "Path to config file")
	ListCommand.MarkFlagFilename("config", "yaml", "yml")

	RootCommand.AddCommand(ListCommand)
}
