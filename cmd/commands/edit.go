package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rapidtypst/rapidtypst-terminal/internal/cli"
)

// NewEditCommand creates the edit command
func NewEditCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <document>",
		Short: "Edit a document in $EDITOR",
		Long: `Open a stored document in your $EDITOR and save the result.

Examples:
  # Edit a document
  rapidtypst edit Thesis

  # Use a specific editor
  EDITOR=nano rapidtypst edit Thesis`,
		Args:    cobra.ExactArgs(1),
		PreRunE: requireProject,
		RunE:    runEdit,
	}
	return cmd
}

func runEdit(cmd *cobra.Command, args []string) error {
	services, err := cli.NewCommandContext().Open()
	if err != nil {
		return err
	}
	defer services.Close()

	doc, err := resolveDocument(cmd, services, args[0])
	if err != nil {
		return err
	}

	edited, err := cli.NewEditorLauncher().EditText(doc.Content)
	if err != nil {
		return err
	}
	if edited == doc.Content {
		cli.PrintInfo("No changes to %q", doc.Title)
		return nil
	}

	if _, err := services.Store.Update(cmd.Context(), doc.ID, edited); err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	cli.PrintSuccess("Saved %q", doc.Title)
	return nil
}
