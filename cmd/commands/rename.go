package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rapidtypst/rapidtypst-terminal/internal/cli"
)

// NewRenameCommand creates the rename command
func NewRenameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <document> <new-title>",
		Short: "Rename a document",
		Long: `Change the title of a stored document.

Examples:
  rapidtypst rename "Draft" "Final Report"`,
		Args:    cobra.ExactArgs(2),
		PreRunE: requireProject,
		RunE:    runRename,
	}
}

func runRename(cmd *cobra.Command, args []string) error {
	if err := cli.ValidateTitle(args[1]); err != nil {
		return err
	}

	services, err := cli.NewCommandContext().Open()
	if err != nil {
		return err
	}
	defer services.Close()

	doc, err := resolveDocument(cmd, services, args[0])
	if err != nil {
		return err
	}
	renamed, err := services.Store.Rename(cmd.Context(), doc.ID, args[1])
	if err != nil {
		return fmt.Errorf("failed to rename document: %w", err)
	}
	cli.PrintSuccess("Renamed %q to %q", doc.Title, renamed.Title)
	return nil
}
