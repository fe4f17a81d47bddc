package main

import (
	"customer-registry/internal/console"
	"errors"
	"io"

	"github.com/spf13/cobra"
)

func calcCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "calc",
		Short: "Integer arithmetic that re-prompts on bad input or division by zero",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := console.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
			_, err := console.RunArithmetic(p, cmd.OutOrStdout())
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		},
	}
}
