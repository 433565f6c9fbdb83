package commands

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/rapidtypst/rapidtypst-terminal/internal/cli"
	"github.com/rapidtypst/rapidtypst-terminal/pkg/highlight"
	"github.com/rapidtypst/rapidtypst-terminal/pkg/models"
	"github.com/rapidtypst/rapidtypst-terminal/pkg/utils"
)

var (
	showCopy      bool
	showHighlight bool
	showMetadata  bool
)

// copyToClipboard is replaced in tests.
var copyToClipboard = clipboard.WriteAll

// NewShowCommand creates the show command
func NewShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <document>",
		Short: "Display document source",
		Long: `Display the Typst source of a stored document.

The document can be given by id, id prefix or title.

Examples:
  # Print a document
  rapidtypst show Thesis

  # Syntax highlighted
  rapidtypst show Thesis --highlight

  # Copy the source to the clipboard
  rapidtypst show 3f2a --copy`,
		Args:    cobra.ExactArgs(1),
		PreRunE: requireProject,
		RunE:    runShow,
	}

	cmd.Flags().BoolVarP(&showCopy, "copy", "c", false, "Copy the source to the clipboard")
	cmd.Flags().BoolVar(&showHighlight, "highlight", false, "Syntax highlight the source")
	cmd.Flags().BoolVarP(&showMetadata, "metadata", "m", false, "Show document metadata")

	return cmd
}

func runShow(cmd *cobra.Command, args []string) error {
	services, err := cli.NewCommandContext().Open()
	if err != nil {
		return err
	}
	defer services.Close()

	doc, err := resolveDocument(cmd, services, args[0])
	if err != nil {
		return err
	}

	if showCopy {
		if err := copyToClipboard(doc.Content); err != nil {
			return fmt.Errorf("failed to copy to clipboard: %w", err)
		}
		cli.PrintSuccess("Copied %q to clipboard (%s)", doc.Title, cli.FormatBytes(int64(len(doc.Content))))
		return nil
	}

	if format := outputFormat(cmd); format != string(cli.FormatText) {
		return cli.OutputResults(cmd.OutOrStdout(), format, doc)
	}

	out := cmd.OutOrStdout()
	if showMetadata {
		printMetadata(cmd, doc)
	}
	if showHighlight {
		fmt.Fprintln(out, highlight.DefaultTheme().Render(doc.Content))
		return nil
	}
	fmt.Fprintln(out, doc.Content)
	return nil
}

func printMetadata(cmd *cobra.Command, doc *models.Document) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Title:   %s\n", doc.Title)
	fmt.Fprintf(out, "ID:      %s\n", doc.ID)
	fmt.Fprintf(out, "Created: %s\n", doc.CreatedAt.Local().Format("2006-01-02 15:04"))
	fmt.Fprintf(out, "Updated: %s\n", doc.UpdatedAt.Local().Format("2006-01-02 15:04"))
	words := utils.CountWords(doc.Content)
	fmt.Fprintf(out, "Length:  %s, ~%d min read\n", utils.FormatWordCount(words), utils.ReadingTime(words))
	fmt.Fprintln(out, "---")
}
