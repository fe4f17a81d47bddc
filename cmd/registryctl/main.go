// Command registryctl registers customers from the terminal, either against a
// running API or in a local in-memory session.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "registryctl",
		Short:         "Customer registry command line client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(registerCmd())
	cmd.AddCommand(sessionCmd())
	cmd.AddCommand(calcCmd())

	return cmd
}
