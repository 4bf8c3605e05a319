package cli

import (
	"fmt"
	"os"

	"quizdeck/internal/ingest"
	"github.com/spf13/cobra"
)

// NewValidateCmd checks a quiz document offline, without touching any store.
func NewValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file.json>",
		Short: "Validate a quiz document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			doc, err := ingest.Decode(raw)
			if err != nil {
				return err
			}
			// Build validates before mapping the graph.
			quiz, err := ingest.Build(doc, ingest.NewID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "valid: %q, %d questions, %d options\n",
				quiz.Title, len(quiz.Questions), quiz.OptionCount())
			return nil
		},
	}
}
