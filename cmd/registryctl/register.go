package main

import (
	"bytes"
	"context"
	"customer-registry/internal/api/handler/dto"
	"customer-registry/internal/console"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func registerCmd() *cobra.Command {
	var (
		apiURL  string
		token   string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a customer through the API",
		Long: `Prompt for the customer's details and register them through the HTTP API.

Examples:
  registryctl register
  registryctl register --api http://registry:8080 --token "Bearer eyJ..."
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := console.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
			req, err := promptRegistration(p)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			client := &apiClient{baseURL: strings.TrimRight(apiURL, "/"), token: token, http: &http.Client{Timeout: timeout}}
			resp, err := client.register(ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
			return nil
		},
	}

	cmd.Flags().StringVar(&apiURL, "api", "http://localhost:8080", "Customer registry API base URL")
	cmd.Flags().StringVar(&token, "token", "", "Authorization header value, e.g. \"Bearer <jwt>\"")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	return cmd
}

func promptRegistration(p *console.Prompter) (dto.RegisterCustomerRequest, error) {
	var req dto.RegisterCustomerRequest
	var err error

	if req.Name, err = p.ReadLine("Name: "); err != nil {
		return req, err
	}
	if req.Age, err = p.ReadInt("Age: "); err != nil {
		return req, err
	}
	if req.Address, err = p.ReadLine("Address: "); err != nil {
		return req, err
	}
	if req.ContactID, err = p.ReadLine("Email: "); err != nil {
		return req, err
	}
	return req, nil
}

type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func (c *apiClient) register(ctx context.Context, in dto.RegisterCustomerRequest) (*dto.RegistrationResponse, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/customers", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call registry API: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated {
		var apiErr dto.ErrorResponse
		if err := json.Unmarshal(payload, &apiErr); err == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("%s", apiErr.Error.Message)
		}
		return nil, fmt.Errorf("registry API returned %s", resp.Status)
	}

	var out dto.RegistrationResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}
