package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/cobra"
)

var draftsJSON bool

// NewDraftsCommand creates the drafts command group
func NewDraftsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drafts",
		Short: "Inspect and act on reply drafts waiting for review",
	}
	cmd.PersistentFlags().BoolVar(&draftsJSON, "json", false, "Output as JSON")

	cmd.AddCommand(newDraftsListCommand())
	cmd.AddCommand(newDraftsApproveCommand())
	cmd.AddCommand(newDraftsEditCommand())
	cmd.AddCommand(newDraftsDiscardCommand())
	return cmd
}

type draftItem struct {
	ChatID     string `json:"chat_id"`
	ChatTitle  string `json:"chat_title"`
	Text       string `json:"text"`
	Confidence int    `json:"confidence"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
	LastError  string `json:"last_error,omitempty"`
}

func newDraftsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List drafts awaiting operator action",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := apiGet("/api/drafts")
			if err != nil {
				return err
			}

			var result struct {
				Drafts []draftItem `json:"drafts"`
			}
			if err := json.Unmarshal(body, &result); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			if draftsJSON {
				out, _ := json.MarshalIndent(result.Drafts, "", "  ")
				fmt.Println(string(out))
				return nil
			}

			if len(result.Drafts) == 0 {
				fmt.Println("No drafts waiting for review.")
				return nil
			}
			for _, d := range result.Drafts {
				title := d.ChatTitle
				if title == "" {
					title = d.ChatID
				}
				fmt.Printf("%s  [%s, confidence %d]\n", title, d.Status, d.Confidence)
				fmt.Printf("  chat: %s\n", d.ChatID)
				if d.LastError != "" {
					fmt.Printf("  last error: %s\n", d.LastError)
				}
				fmt.Printf("  %s\n\n", d.Text)
			}
			return nil
		},
	}
}

func newDraftsApproveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "approve <chat-id>",
		Short: "Approve a draft and send its text unchanged",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDraftAction(args[0], "approve", nil)
		},
	}
}

func newDraftsEditCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <chat-id> <text>",
		Short: "Replace a draft's text and send the replacement",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDraftAction(args[0], "edit", map[string]string{"text": args[1]})
		},
	}
}

func newDraftsDiscardCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "discard <chat-id>",
		Short: "Discard a draft without sending anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDraftAction(args[0], "discard", nil)
		},
	}
}

func runDraftAction(chatID, action string, payload map[string]string) error {
	endpoint := fmt.Sprintf("/api/drafts/%s/%s", url.PathEscape(chatID), action)

	var body io.Reader
	if payload != nil {
		raw, _ := json.Marshal(payload)
		body = bytes.NewReader(raw)
	}

	resp, err := apiClient().Post(apiBase+endpoint, "application/json", body)
	if err != nil {
		return fmt.Errorf("call operator api: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var result struct {
		Success bool   `json:"success"`
		Status  string `json:"status"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("unexpected response (%d): %s", resp.StatusCode, string(raw))
	}

	fmt.Println(result.Status)
	if !result.Success {
		return fmt.Errorf("%s failed", action)
	}
	return nil
}

func apiGet(path string) ([]byte, error) {
	resp, err := apiClient().Get(apiBase + path)
	if err != nil {
		return nil, fmt.Errorf("call operator api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("operator api returned %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

func apiClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}
