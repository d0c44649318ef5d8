package fitmesh

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "fitmesh",
	Short: "fitmesh - a mesh of cooperating fitness agents speaking A2A",
	Long:  "fitmesh runs a coach, a workout planner, and a logistics validator as separate agent processes that coordinate over the A2A JSON-RPC task protocol.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.fitmesh/fitmesh.toml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(cardCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(auditCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of fitmesh",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("fitmesh v%s\n", version)
	},
}
