package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL   string
	timeout   time.Duration
	actorID   string
	actorRole string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ledger-cli",
		Short: "Ledger CLI tool",
		Long:  `A command line interface for interacting with the ledger API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the ledger API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&actorID, "actor", "", "Acting account ID (sent as X-Actor-ID)")
	rootCmd.PersistentFlags().StringVar(&actorRole, "role", "", "Acting role (sent as X-Actor-Role)")

	// Account commands
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Account operations",
	}

	accountCmd.AddCommand(&cobra.Command{
		Use:   "create <handle>",
		Short: "Create a new account",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			doRequest(http.MethodPost, "/api/v1/accounts/", map[string]string{"handle": args[0]})
		},
	})

	accountCmd.AddCommand(&cobra.Command{
		Use:   "get <id-or-handle>",
		Short: "Get an account",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			doRequest(http.MethodGet, "/api/v1/accounts/"+args[0], nil)
		},
	})

	var limit, offset int
	historyCmd := &cobra.Command{
		Use:   "history <id-or-handle>",
		Short: "List an account's transactions, newest first",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			path := fmt.Sprintf("/api/v1/accounts/%s/transactions?limit=%d&offset=%d", args[0], limit, offset)
			doRequest(http.MethodGet, path, nil)
		},
	}
	historyCmd.Flags().IntVar(&limit, "limit", 20, "Page size")
	historyCmd.Flags().IntVar(&offset, "offset", 0, "Page offset")
	accountCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(accountCmd)

	// Transfer command
	var description string
	transferCmd := &cobra.Command{
		Use:   "transfer <receiver> <amount>",
		Short: "Transfer money from the acting account to a receiver",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			doRequest(http.MethodPost, "/api/v1/transfers/", map[string]string{
				"receiver":    args[0],
				"amount":      args[1],
				"description": description,
			})
		},
	}
	transferCmd.Flags().StringVar(&description, "description", "", "Transfer description")
	rootCmd.AddCommand(transferCmd)

	// Credit command
	var creditDescription string
	creditCmd := &cobra.Command{
		Use:   "credit <account> <amount>",
		Short: "Credit an account (requires the admin role)",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			doRequest(http.MethodPost, "/api/v1/credits/", map[string]string{
				"account":     args[0],
				"amount":      args[1],
				"description": creditDescription,
			})
		},
	}
	creditCmd.Flags().StringVar(&creditDescription, "description", "", "Credit description")
	rootCmd.AddCommand(creditCmd)

	// Ledger commands
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	ledgerCmd.AddCommand(&cobra.Command{
		Use:   "consistency",
		Short: "Check ledger consistency",
		Run: func(cmd *cobra.Command, args []string) {
			doRequest(http.MethodGet, "/api/v1/ledger/consistency", nil)
		},
	})
	rootCmd.AddCommand(ledgerCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func doRequest(method, path string, body any) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			fmt.Printf("Failed to encode request: %v\n", err)
			os.Exit(1)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, baseURL+path, reader)
	if err != nil {
		fmt.Printf("Failed to build request: %v\n", err)
		os.Exit(1)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if actorID != "" {
		req.Header.Set("X-Actor-ID", actorID)
	}
	if actorRole != "" {
		req.Header.Set("X-Actor-Role", actorRole)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 400 {
		fmt.Printf("Request failed (Status: %d)\nResponse: %s\n", resp.StatusCode, string(respBody))
		os.Exit(1)
	}

	var decoded any
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		fmt.Println(string(respBody))
		return
	}

	printJSON(decoded)
}

func printJSON(v any) {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("Failed to format response: %v\n", err)
		return
	}
	fmt.Println(string(encoded))
}
