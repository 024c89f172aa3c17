package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/form-autofill/internal/store"
)

var initCommand = &cobra.Command{
	Use:   "init",
	Short: "Create a starter profile document",
	Long:  "Writes a profile document with empty personal_info, education, and professional sections and default preferences. Fill in the sections before running the agent.",
	RunE:  runInitCmd,
}

var (
	initDataFile string
	initForce    bool
)

func init() {
	initCommand.Flags().StringVarP(&initDataFile, "data-file", "d", "user_profile.json", "Path to write the profile document to")
	initCommand.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing profile document")

	rootCmd.AddCommand(initCommand)
}

func runInitCmd(_ *cobra.Command, _ []string) error {
	if _, err := os.Stat(initDataFile); err == nil {
		if !initForce {
			return fmt.Errorf("profile document already exists at %s (use --force to overwrite)", initDataFile)
		}
		if err := os.Remove(initDataFile); err != nil {
			return fmt.Errorf("failed to remove existing profile document: %w", err)
		}
	}

	s, err := store.Open(initDataFile, false)
	if err != nil {
		return fmt.Errorf("failed to create profile document: %w", err)
	}

	fmt.Printf("Created profile document at %s\n", s.Path())
	fmt.Printf("Edit personal_info, education, and professional before running the agent.\n")
	return nil
}
