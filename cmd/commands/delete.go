package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rapidtypst/rapidtypst-terminal/internal/cli"
	"github.com/rapidtypst/rapidtypst-terminal/pkg/files"
)

// NewDeleteCommand creates the delete command
func NewDeleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <document>",
		Short: "Permanently delete a document",
		Long: `Permanently delete a stored document.

Examples:
  # Delete with confirmation
  rapidtypst delete "Old Draft"

  # Skip the confirmation
  rapidtypst delete "Old Draft" --yes`,
		Args:    cobra.ExactArgs(1),
		PreRunE: requireProject,
		RunE:    runDelete,
	}
	return cmd
}

func runDelete(cmd *cobra.Command, args []string) error {
	services, err := cli.NewCommandContext().Open()
	if err != nil {
		return err
	}
	defer services.Close()

	doc, err := resolveDocument(cmd, services, args[0])
	if err != nil {
		return err
	}

	if skip, _ := cmd.Flags().GetBool("yes"); !skip {
		confirmed, err := cli.Confirm(fmt.Sprintf("Delete %q? This cannot be undone.", doc.Title), false)
		if err != nil {
			return err
		}
		if !confirmed {
			cli.PrintInfo("Deletion cancelled")
			return nil
		}
	}

	if err := services.Store.Delete(cmd.Context(), doc.ID); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if err := files.RemoveRecent(doc.ID); err != nil {
		cli.PrintWarning("Failed to update recent documents: %v", err)
	}

	cli.PrintSuccess("Deleted %q", doc.Title)
	return nil
}
