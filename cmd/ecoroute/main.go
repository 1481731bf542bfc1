package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configDir string

	rootCmd := &cobra.Command{
		Use:          "ecoroute",
		Short:        "Multi-objective route optimiser trading travel time against CO2",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", ".", "directory holding the .env file")

	rootCmd.AddCommand(serveCmd(&configDir))
	rootCmd.AddCommand(optimizeCmd(&configDir))
	rootCmd.AddCommand(locationsCmd(&configDir))
	rootCmd.AddCommand(hashPasswordCmd())
	return rootCmd
}

func serveCmd(configDir *string) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API with the cache warm-up job",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), *configDir, port)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "HTTP port (overrides SERVER_PORT)")
	return cmd
}

func optimizeCmd(configDir *string) *cobra.Command {
	var (
		alpha  float64
		single bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "optimize [start] [end]",
		Short: "Compute fast, eco and balanced routes between two locations",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOptimize(cmd, *configDir, args[0], args[1], alpha, single, asJSON)
		},
	}

	cmd.Flags().Float64VarP(&alpha, "alpha", "a", 1.0, "emissions weight")
	cmd.Flags().BoolVar(&single, "single", false, "return only the optimal route at alpha")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func locationsCmd(configDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "locations",
		Short: "List the routable locations of the configured graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLocations(cmd, *configDir)
		},
	}
}

func hashPasswordCmd() *cobra.Command {
	var cost int

	cmd := &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print the bcrypt hash to use as ADMIN_PASSWORD_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHashPassword(cmd, args[0], cost)
		},
	}

	cmd.Flags().IntVar(&cost, "cost", 10, "bcrypt cost factor")
	return cmd
}
