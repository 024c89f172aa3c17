// Package main provides the entry point for the form autofill agent CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "form_agent",
	Short: "Form autofill agent",
	Long:  "Form autofill agent extracts questions from a live form page, resolves answers from your profile and learned history, fills the fields, watches your edits, and saves reviewed answers for next time.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
