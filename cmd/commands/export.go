package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rapidtypst/rapidtypst-terminal/internal/cli"
	"github.com/rapidtypst/rapidtypst-terminal/pkg/files"
)

var (
	exportFormat string
	exportFile   string
	exportOut    string
)

// NewExportCommand creates the export command
func NewExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [document]",
		Short: "Export a document as PDF, HTML, DOCX or SVG",
		Long: `Export a document with the configured exporter.

The artifact is written to --out, or to document.<format> in the
current directory.

Examples:
  # Export a stored document as PDF
  rapidtypst export Thesis

  # Export a file as HTML
  rapidtypst export --file paper.typ --format html --out paper.html`,
		Args:    cobra.MaximumNArgs(1),
		PreRunE: requireProject,
		RunE:    runExport,
	}

	cmd.Flags().StringVar(&exportFormat, "format", "pdf", "Export format: pdf, html, docx or svg")
	cmd.Flags().StringVarP(&exportFile, "file", "f", "", "Export a .typ file instead of a stored document")
	cmd.Flags().StringVar(&exportOut, "out", "", "Output path")

	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	format, err := cli.ValidateExportFormat(exportFormat)
	if err != nil {
		return err
	}

	services, err := cli.NewCommandContext().Open()
	if err != nil {
		return err
	}
	defer services.Close()

	src, err := loadSource(cmd, services, args, exportFile)
	if err != nil {
		return err
	}

	data, err := services.Exporter.Export(cmd.Context(), src.Content, format)
	if err != nil {
		return fmt.Errorf("failed to export %q: %w", src.Title, err)
	}

	out := exportOut
	if out == "" {
		out = format.Filename()
	}
	if err := files.WriteFile(filepath.Clean(out), data); err != nil {
		return err
	}
	cli.PrintSuccess("Exported %q to %s (%s)", src.Title, out, cli.FormatBytes(int64(len(data))))
	return nil
}
