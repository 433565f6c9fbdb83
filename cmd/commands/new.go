package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rapidtypst/rapidtypst-terminal/internal/cli"
	"github.com/rapidtypst/rapidtypst-terminal/pkg/files"
)

var (
	newTemplate string
	newFromFile string
)

// NewNewCommand creates the new command
func NewNewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new <title>",
		Short: "Create a new document",
		Long: `Create a new stored document.

The document starts with the content of a template (blank by default)
or of an existing .typ file.

Examples:
  # Create an empty document
  rapidtypst new "Lab Notes"

  # Start from the resume template
  rapidtypst new "My CV" --template resume

  # Import a file
  rapidtypst new Thesis --file thesis.typ`,
		Args:    cobra.ExactArgs(1),
		PreRunE: requireProject,
		RunE:    runNew,
	}

	cmd.Flags().StringVarP(&newTemplate, "template", "t", "", "Template id to start from")
	cmd.Flags().StringVarP(&newFromFile, "file", "f", "", "Import content from a .typ file")

	return cmd
}

func runNew(cmd *cobra.Command, args []string) error {
	title := args[0]
	if err := cli.ValidateTitle(title); err != nil {
		return err
	}
	if newTemplate != "" && newFromFile != "" {
		return fmt.Errorf("--template and --file cannot be used together")
	}

	services, err := cli.NewCommandContext().Open()
	if err != nil {
		return err
	}
	defer services.Close()

	ctx := cmd.Context()
	var content string
	switch {
	case newFromFile != "":
		if err := cli.ValidateFilePath(newFromFile); err != nil {
			return err
		}
		if content, err = files.ReadFile(newFromFile); err != nil {
			return err
		}
	case newTemplate != "":
		if content, err = services.Catalog.Content(ctx, newTemplate); err != nil {
			return fmt.Errorf("failed to load template '%s': %w", newTemplate, err)
		}
	}

	doc, err := services.Store.Create(ctx, title, content)
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}

	if format := outputFormat(cmd); format != string(cli.FormatText) {
		return cli.OutputResults(cmd.OutOrStdout(), format, doc)
	}
	cli.PrintSuccess("Created document %q (%s)", doc.Title, shortID(doc.ID))
	return nil
}
