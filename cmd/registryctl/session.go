package main

import (
	"customer-registry/internal/config"
	"customer-registry/internal/console"
	"customer-registry/internal/domain/customer"
	"customer-registry/internal/event"
	"customer-registry/internal/infrastructure/logging"
	"customer-registry/internal/infrastructure/memory"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func sessionCmd() *cobra.Command {
	var (
		logLevel    string
		maxAttempts int
	)

	cmd := &cobra.Command{
		Use:   "session",
		Short: "Register customers into a local in-memory registry",
		Long: `Repeatedly prompt for customers and register them into a registry that lives
only for the duration of the session. End input (Ctrl-D) to finish.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.New(config.LoggerConfig{Level: logLevel, Encoding: "text"}, cmd.ErrOrStderr())
			accounts, err := customer.NewRandomAccountNumbers(customer.DefaultAccountNumberRange(), nil)
			if err != nil {
				return err
			}
			registry := customer.NewRegistryService(memory.NewCustomerRepository(), event.NoopPublisher{}, accounts, maxAttempts, logger)
			return runSession(cmd, registry)
		},
	}

	cmd.Flags().StringVar(&logLevel, "log-level", "error", "Log level for registry diagnostics")
	cmd.Flags().IntVar(&maxAttempts, "max-attempts", 32, "Account number draws per registration")

	return cmd
}

func runSession(cmd *cobra.Command, registry customer.RegistryService) error {
	out := cmd.OutOrStdout()
	p := console.NewPrompter(cmd.InOrStdin(), out)
	registered := 0

	for {
		req, err := promptRegistration(p)
		if errors.Is(err, io.EOF) {
			fmt.Fprintf(out, "\nSession ended. Registered %d customer(s).\n", registered)
			return nil
		}
		if err != nil {
			return err
		}

		result, err := registry.Register(cmd.Context(), req.ToInput())
		switch {
		case errors.Is(err, customer.ErrDuplicateCustomer):
			fmt.Fprintln(out, customer.RejectionMessage)
		case err != nil:
			fmt.Fprintf(out, "Registration failed: %v\n", err)
		default:
			registered++
			fmt.Fprintln(out, result.Message)
		}
	}
}
