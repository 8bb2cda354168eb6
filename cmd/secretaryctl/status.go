package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var statusJSON bool

// NewStatusCommand creates the status command
func NewStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show pipeline health",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := apiGet("/api/health")
			if err != nil {
				return err
			}

			var result struct {
				Status        string `json:"status"`
				ActiveChats   int    `json:"active_chats"`
				PendingDrafts int    `json:"pending_drafts"`
			}
			if err := json.Unmarshal(body, &result); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			if statusJSON {
				out, _ := json.MarshalIndent(result, "", "  ")
				fmt.Println(string(out))
				return nil
			}

			fmt.Printf("status:         %s\n", result.Status)
			fmt.Printf("active chats:   %d\n", result.ActiveChats)
			fmt.Printf("pending drafts: %d\n", result.PendingDrafts)
			return nil
		},
	}
	cmd.Flags().BoolVar(&statusJSON, "json", false, "Output as JSON")
	return cmd
}
