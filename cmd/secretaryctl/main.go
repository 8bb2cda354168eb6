// secretaryctl is the operator CLI for the secretary service. It talks to
// the local operator API and covers the same actions as the chat buttons:
// inspect pending drafts, approve, edit or discard them.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var apiBase string

func main() {
	root := &cobra.Command{
		Use:   "secretaryctl",
		Short: "Operator CLI for the secretary auto-reply service",
	}
	root.PersistentFlags().StringVar(&apiBase, "api", defaultAPIBase(), "Base URL of the operator API")

	root.AddCommand(NewDraftsCommand())
	root.AddCommand(NewStatusCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAPIBase() string {
	if base := os.Getenv("SECRETARY_API"); base != "" {
		return base
	}
	port := os.Getenv("OPS_API_PORT")
	if port == "" {
		port = "8790"
	}
	return "http://127.0.0.1:" + port
}
