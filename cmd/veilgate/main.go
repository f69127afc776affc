package main

import (
	"os"

	"github.com/spf13/cobra"

	"veilgate/internal/interfaces/cli/worker"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "veilgate",
		Short: "Veilgate - proxy fleet usage settlement",
		Long:  `Veilgate collects traffic counters from a proxy node fleet and settles usage totals for users, admins, nodes, and the system.`,
	}

	rootCmd.AddCommand(
		worker.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
