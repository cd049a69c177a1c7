package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wilbertliawantara/fitness-companion/cmd/configure/commands"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "fitness-configure",
		Short: "Configuration tool for the fitness companion API",
		Long:  "CLI tool for managing database-backed CORS and rate limit settings",
	}

	rootCmd.AddCommand(commands.NewCorsCmd())
	rootCmd.AddCommand(commands.NewRatelimitCmd())
	rootCmd.AddCommand(commands.NewCheckCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
