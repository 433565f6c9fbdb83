package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rapidtypst/rapidtypst-terminal/internal/cli"
	"github.com/rapidtypst/rapidtypst-terminal/pkg/files"
	"github.com/rapidtypst/rapidtypst-terminal/pkg/render"
)

var (
	renderFile    string
	renderOut     string
	renderRefresh int
)

// NewRenderCommand creates the render command
func NewRenderCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render [document]",
		Short: "Compile a document into an HTML preview",
		Long: `Compile a document with the configured compiler and write the
preview page (one SVG per page) to an HTML file.

Examples:
  # Render a stored document to the preview file
  rapidtypst render Thesis

  # Render a file on disk
  rapidtypst render --file paper.typ --out paper.html`,
		Args:    cobra.MaximumNArgs(1),
		PreRunE: requireProject,
		RunE:    runRender,
	}

	cmd.Flags().StringVarP(&renderFile, "file", "f", "", "Render a .typ file instead of a stored document")
	cmd.Flags().StringVar(&renderOut, "out", "", "Output HTML path (default: preview output path from settings)")
	cmd.Flags().IntVar(&renderRefresh, "refresh", 0, "Make the page reload itself every N seconds")

	return cmd
}

func runRender(cmd *cobra.Command, args []string) error {
	services, err := cli.NewCommandContext().Open()
	if err != nil {
		return err
	}
	defer services.Close()

	src, err := loadSource(cmd, services, args, renderFile)
	if err != nil {
		return err
	}

	result, err := services.Compiler.Compile(cmd.Context(), src.Content)
	if err != nil {
		return fmt.Errorf("failed to compile %q: %w", src.Title, err)
	}
	if !result.OK() {
		return fmt.Errorf("compilation failed: %s", result.Err)
	}

	out := renderOut
	if out == "" {
		out = services.Settings.Preview.OutputPath
	}
	if err := files.WriteFile(out, []byte(render.PreviewPage(result.HTML, renderRefresh))); err != nil {
		return err
	}
	cli.PrintSuccess("Rendered %q (%d pages) to %s", src.Title, result.Pages, out)
	return nil
}
